package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(tempDir, Options{DebugMode: true, Level: "debug"}))
	require.True(t, IsDebugMode())

	categories := []Category{
		CategoryBoot, CategoryUI, CategoryVirtual, CategoryObserve,
		CategoryAPI, CategoryStore, CategoryFeed, CategoryConfig,
	}
	for _, cat := range categories {
		assert.True(t, IsCategoryEnabled(cat), "category %s", cat)
		l := Get(cat)
		l.Info("info message for %s", cat)
		l.Debug("debug message for %s", cat)
		l.Warn("warn message for %s", cat)
		l.Error("error message for %s", cat)
	}
	CloseAll()

	logsDir := filepath.Join(tempDir, ".howhite", "logs")
	entries, err := os.ReadDir(logsDir)
	require.NoError(t, err)

	found := map[string]bool{}
	for _, e := range entries {
		for _, cat := range categories {
			if strings.HasSuffix(e.Name(), "_"+string(cat)+".log") {
				found[string(cat)] = true
				data, err := os.ReadFile(filepath.Join(logsDir, e.Name()))
				require.NoError(t, err)
				assert.Contains(t, string(data), "info message for "+string(cat))
			}
		}
	}
	assert.Len(t, found, len(categories))
}

func TestProductionModeWritesNothing(t *testing.T) {
	tempDir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(tempDir, Options{DebugMode: false}))
	Get(CategoryAPI).Error("should not be written")

	_, err := os.Stat(filepath.Join(tempDir, ".howhite", "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestCategoryFilter(t *testing.T) {
	tempDir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(tempDir, Options{
		DebugMode:  true,
		Categories: map[string]bool{"api": false},
	}))
	assert.False(t, IsCategoryEnabled(CategoryAPI))
	assert.True(t, IsCategoryEnabled(CategoryStore))
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	assert.Error(t, Initialize("", Options{}))
}

func TestLevelFiltering(t *testing.T) {
	tempDir := t.TempDir()
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(tempDir, Options{DebugMode: true, Level: "warn"}))
	l := Get(CategoryFeed)
	l.Info("quiet info")
	l.Warn("loud warn")
	CloseAll()

	matches, err := filepath.Glob(filepath.Join(tempDir, ".howhite", "logs", "*_feed.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet info")
	assert.Contains(t, string(data), "loud warn")
}

func TestSpanFieldsAndEnd(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Redirect(core)
	defer restore()

	span := Begin(CategoryAPI, "GET /articles", "req-123").Field("page", 2)
	assert.Equal(t, "req-123", span.ID())
	span.Info("fetched %d", 3)

	entries := logs.FilterMessage("fetched 3").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "req-123", ctx["req"])
	assert.EqualValues(t, 2, ctx["page"])
	assert.Equal(t, "api", entries[0].LoggerName)

	span.End(errors.New("boom"))
	failed := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Message, "GET /articles failed after")
	assert.Contains(t, failed[0].Message, "boom")

	Begin(CategoryStore, "store.Open", "").Budget(time.Nanosecond).End(nil)
	assert.Len(t, logs.FilterLevelExact(zapcore.WarnLevel).All(), 2, "over budget warns")
}

func TestNoopLoggerIsSafe(t *testing.T) {
	l := &Logger{category: CategoryUI}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	assert.Same(t, l, l.With("k", "v"))
}
