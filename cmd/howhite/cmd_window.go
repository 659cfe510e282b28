package main

import (
	"fmt"
	"time"

	"howhite/internal/observe"
	"howhite/internal/virtual"

	"github.com/spf13/cobra"
)

var (
	winItems      int
	winItemHeight float64
	winViewport   float64
	winOffset     float64
	winOverscan   int

	growItems     int
	growInitial   int
	growIncrement int
	growThreshold float64
	growLatency   time.Duration
	growWait      time.Duration
	growRowHeight float64
	growViewport  float64
)

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print the render window for a list geometry",
	Long: `Computes which items a virtual scroll renders for the given list size,
item height, viewport height, scroll offset and overscan.

Example:
  howhite window --items 10000 --item-height 3 --viewport 40 --offset 1500`,
	Args: cobra.NoArgs,
	RunE: runWindow,
}

var growCmd = &cobra.Command{
	Use:   "grow",
	Short: "Simulate incremental loading with the reader parked at the list end",
	Args:  cobra.NoArgs,
	RunE:  runGrow,
}

func init() {
	windowCmd.Flags().IntVar(&winItems, "items", 1000, "Number of items")
	windowCmd.Flags().Float64Var(&winItemHeight, "item-height", 3, "Item height in lines")
	windowCmd.Flags().Float64Var(&winViewport, "viewport", 24, "Viewport height in lines")
	windowCmd.Flags().Float64Var(&winOffset, "offset", 0, "Scroll offset in lines")
	windowCmd.Flags().IntVar(&winOverscan, "overscan", virtual.DefaultOverscan, "Extra items on each side")

	growCmd.Flags().IntVar(&growItems, "items", 23, "Number of items")
	growCmd.Flags().IntVar(&growInitial, "initial", virtual.DefaultInitialItems, "Items visible before any growth")
	growCmd.Flags().IntVar(&growIncrement, "increment", virtual.DefaultIncrement, "Items added per growth")
	growCmd.Flags().Float64Var(&growThreshold, "threshold", 2, "Trailing margin in lines")
	growCmd.Flags().DurationVar(&growLatency, "latency", 20*time.Millisecond, "Simulated load latency")
	growCmd.Flags().Float64Var(&growRowHeight, "item-height", 3, "Item height in lines")
	growCmd.Flags().Float64Var(&growViewport, "viewport", 10, "Viewport height in lines")
	growCmd.Flags().DurationVar(&growWait, "wait", 30*time.Second, "Give up after this long")

	windowCmd.AddCommand(growCmd)
}

func runWindow(cmd *cobra.Command, args []string) error {
	if winItemHeight <= 0 {
		return fmt.Errorf("item height must be positive, got %v", winItemHeight)
	}
	if winItems < 0 {
		return fmt.Errorf("items must not be negative, got %d", winItems)
	}
	w := virtual.ComputeWindow(make([]struct{}, winItems), winItemHeight, winOverscan, winOffset, winViewport)

	out := cmd.OutOrStdout()
	if w.Empty() {
		fmt.Fprintln(out, "empty window (no items)")
		return nil
	}
	fmt.Fprintf(out, "items %d..%d (%d rendered of %d)\n", w.StartIndex, w.EndIndex, w.Len(), winItems)
	fmt.Fprintf(out, "offset_top %.0f..%.0f, total height %.0f\n",
		w.Items[0].OffsetTop, w.Items[w.Len()-1].OffsetTop+winItemHeight, w.TotalHeight)
	return nil
}

// runGrow drives a Loader on a LoopScheduler: after every transition the
// viewport jumps to the end of the content, which keeps the sentinel in range
// until the collection is exhausted.
func runGrow(cmd *cobra.Command, args []string) error {
	if growRowHeight <= 0 {
		return fmt.Errorf("item height must be positive, got %v", growRowHeight)
	}
	out := cmd.OutOrStdout()
	loop := virtual.NewLoopScheduler()
	defer loop.Close()

	vp := observe.NewViewport(growViewport)
	container := observe.NewContainer(vp)
	ended := make(chan struct{})
	steps := 0

	var (
		loader *virtual.Loader[int]
		err    error
	)
	loop.Do(func() {
		loader, err = virtual.NewLoader(make([]int, growItems), loop,
			virtual.WithInitialItems(growInitial),
			virtual.WithIncrement(growIncrement),
			virtual.WithThreshold(growThreshold),
			virtual.WithLatency(growLatency),
			virtual.WithOnEndReached(func() { close(ended) }),
		)
		if err != nil {
			return
		}
		extent := func() float64 { return float64(loader.VisibleCount()) * growRowHeight }
		report := func() {
			if loader.IsLoading() {
				fmt.Fprintf(out, "loading more after %d\n", loader.VisibleCount())
				return
			}
			steps++
			fmt.Fprintf(out, "visible %d of %d\n", loader.VisibleCount(), loader.Len())
		}

		loader.OnChange(func() {
			vp.SetContentHeight(extent() + 1)
			loader.PlaceSentinel(extent())
			report()
			if !loader.IsLoading() {
				vp.ScrollTo(vp.MaxOffset())
			}
		})
		vp.SetContentHeight(extent() + 1)
		report()
		loader.Mount(container, extent())
		vp.ScrollTo(vp.MaxOffset())
	})
	if err != nil {
		return err
	}
	defer loop.Do(loader.Close)

	select {
	case <-ended:
	case <-time.After(growWait):
		return fmt.Errorf("collection not exhausted after %s", growWait)
	}
	loop.Do(func() {
		fmt.Fprintf(out, "end reached after %d steps\n", steps)
	})
	return nil
}
