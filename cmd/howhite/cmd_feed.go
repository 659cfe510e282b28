package main

import (
	"fmt"
	"io"
	"strings"

	"howhite/cmd/howhite/ui"
	"howhite/internal/blog"
	"howhite/internal/feed"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listLimit int
	printOnly bool
	wrapWidth int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the newest articles",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var tagCmd = &cobra.Command{
	Use:   "tag [slug]",
	Short: "Open a tag page",
	Long: `Opens the tag page for slug in the interactive reader. Articles are
revealed a few at a time as the list end comes into view.

With --print the tag's articles are written to stdout instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runTag,
}

var readCmd = &cobra.Command{
	Use:   "read [slug]",
	Short: "Read one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Print the landing summary: featured, latest, categories and tags",
	Args:  cobra.NoArgs,
	RunE:  runHome,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search articles",
	Long: `Searches the blog for articles matching every word of the query. Offline
the cached articles (or the sample set) are searched instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag with its article count",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var categoriesCmd = &cobra.Command{
	Use:     "categories [slug]",
	Aliases: []string{"category"},
	Short:   "List categories, or the articles of one category",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runCategories,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Number of articles to print (0 = all)")
	tagCmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print instead of opening the reader")
	readCmd.Flags().BoolVarP(&printOnly, "print", "p", false, "Print instead of opening the reader")
	readCmd.Flags().IntVar(&wrapWidth, "wrap", 80, "Wrap width for --print")
}

func runList(cmd *cobra.Command, args []string) error {
	_, src, ctx, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	res, err := src.Articles(ctx)
	if err != nil {
		return fmt.Errorf("list articles: %w", err)
	}
	items := res.Items
	if listLimit > 0 && len(items) > listLimit {
		items = items[:listLimit]
	}
	out := cmd.OutOrStdout()
	printArticles(out, items)
	printOrigin(out, res.Origin, len(items), len(res.Items))
	return nil
}

func runTag(cmd *cobra.Command, args []string) error {
	if !printOnly {
		return runProgram(cmd, ui.PageTag, args[0])
	}
	_, src, ctx, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	res, err := src.TagArticles(ctx, args[0])
	if err != nil {
		return fmt.Errorf("tag %s: %w", args[0], err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "#%s\n\n", res.Tag.Name)
	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No articles with this tag yet.")
		return nil
	}
	printArticles(out, res.Items)
	printOrigin(out, res.Origin, len(res.Items), len(res.Items))
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	if !printOnly {
		return runProgram(cmd, ui.PageReader, args[0])
	}
	_, src, ctx, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	a, origin, err := src.Article(ctx, args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	md := ui.Markdown(a)
	if comments, _, err := src.Comments(ctx, *a); err != nil {
		logger.Warn("Comments unavailable", zap.String("slug", a.Slug), zap.Error(err))
	} else {
		md += ui.CommentsMarkdown(comments)
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(wrapWidth))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		rendered = md
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, rendered)
	printOffline(out, origin)
	return nil
}

func runHome(cmd *cobra.Command, args []string) error {
	_, src, ctx, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	home, err := src.Home(ctx)
	if err != nil {
		return fmt.Errorf("home: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Featured")
	printArticles(out, home.Featured)
	fmt.Fprintln(out, "\nLatest")
	printArticles(out, home.Latest)

	fmt.Fprintln(out, "\nCategories")
	for _, c := range home.Categories {
		fmt.Fprintf(out, "  %s (%d)\n", c.Name, c.ArticleCount)
	}
	tags := make([]string, len(home.Tags))
	for i, t := range home.Tags {
		tags[i] = "#" + t.Name
	}
	fmt.Fprintf(out, "\nTags\n  %s\n", strings.Join(tags, " "))
	if home.Offline() {
		fmt.Fprintf(out, "\n(offline sections: %s)\n", strings.Join(home.Fallbacks, ", "))
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, src, ctx, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	res, err := src.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Results for %q\n\n", res.Query)
	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No articles match.")
	} else {
		printArticles(out, res.Items)
	}
	printOrigin(out, res.Origin, len(res.Items), res.Total)
	return nil
}

func runTags(cmd *cobra.Command, args []string) error {
	_, src, ctx, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	tags, origin, err := src.Tags(ctx)
	if err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, t := range tags {
		fmt.Fprintf(out, "  %s %4d  %s\n", runewidth.FillRight("#"+t.Name, 24), t.ArticleCount, t.Slug)
	}
	printOffline(out, origin)
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	_, src, ctx, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		cats, origin, err := src.Categories(ctx)
		if err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		for _, c := range cats {
			fmt.Fprintf(out, "  %s %4d  %s\n", runewidth.FillRight(c.Name, 24), c.ArticleCount, c.Slug)
		}
		printOffline(out, origin)
		return nil
	}

	res, err := src.CategoryArticles(ctx, args[0])
	if err != nil {
		return fmt.Errorf("category %s: %w", args[0], err)
	}
	fmt.Fprintln(out, res.Category.Name)
	if res.Category.Description != "" {
		fmt.Fprintln(out, res.Category.Description)
	}
	fmt.Fprintln(out)
	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No articles in this category yet.")
		return nil
	}
	printArticles(out, res.Items)
	printOrigin(out, res.Origin, len(res.Items), len(res.Items))
	return nil
}

func printArticles(w io.Writer, items []blog.Article) {
	for _, a := range items {
		title := runewidth.Truncate(a.Title, 56, "…")
		fmt.Fprintf(w, "  %s  %s  %s\n",
			blog.FormatDate(a.CreatedAt, blog.LayoutDate),
			runewidth.FillRight(title, 56),
			a.Slug)
	}
}

func printOrigin(w io.Writer, origin feed.Origin, shown, total int) {
	fmt.Fprintf(w, "\n%d of %d articles", shown, total)
	if origin.Offline() {
		fmt.Fprintf(w, " (offline: %s)", origin)
	}
	fmt.Fprintln(w)
}

func printOffline(w io.Writer, origin feed.Origin) {
	if origin.Offline() {
		fmt.Fprintf(w, "\n(offline: %s)\n", origin)
	}
}
