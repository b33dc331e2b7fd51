package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, delay time.Duration) *FileWatcher {
	t.Helper()
	fw, err := NewFileWatcher(delay, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Stop() })
	return fw
}

func TestNewFileWatcher(t *testing.T) {
	fw := newTestWatcher(t, 100*time.Millisecond)

	assert.NotNil(t, fw)
	assert.NotNil(t, fw.debouncer)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "created", EventTypeCreated.String())
	assert.Equal(t, "modified", EventTypeModified.String())
	assert.Equal(t, "deleted", EventTypeDeleted.String())
	assert.Equal(t, "renamed", EventTypeRenamed.String())
	assert.Equal(t, "unknown", EventType(99).String())
}

func TestMarkdownFilter(t *testing.T) {
	assert.True(t, MarkdownFilter("docs/page.md"))
	assert.True(t, MarkdownFilter("docs/page.MD"))
	assert.True(t, MarkdownFilter("docs/page.markdown"))
	assert.False(t, MarkdownFilter("docs/page.txt"))
	assert.False(t, MarkdownFilter("main.go"))
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter("docs/page.md"))
	assert.False(t, NoHiddenFilter(".git/config"))
	assert.False(t, NoHiddenFilter("docs/.obsidian/workspace.md"))
	assert.True(t, NoHiddenFilter("./docs/page.md"))
}

func TestNoVendorFilter(t *testing.T) {
	assert.True(t, NoVendorFilter("docs/page.md"))
	assert.False(t, NoVendorFilter("vendor/pkg/readme.md"))
	assert.False(t, NoVendorFilter("site/node_modules/pkg/readme.md"))
}

func TestFileWatcher_DetectsChanges(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.MkdirAll("docs", 0o755))

	fw := newTestWatcher(t, 50*time.Millisecond)
	fw.AddFilter(MarkdownFilter)

	var mu sync.Mutex
	var received []ChangeEvent
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		received = append(received, events...)
		mu.Unlock()
		return nil
	})

	require.NoError(t, fw.AddRecursive("docs"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join("docs", "new.md"), []byte("---\ntitle: x\n---\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) > 0
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, received[0].Path, "new.md")
}

func TestFileWatcher_FiltersNonMarkdown(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.MkdirAll("docs", 0o755))

	fw := newTestWatcher(t, 50*time.Millisecond)
	fw.AddFilter(MarkdownFilter)

	var mu sync.Mutex
	count := 0
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		count += len(events)
		mu.Unlock()
		return nil
	})

	require.NoError(t, fw.AddRecursive("docs"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join("docs", "image.png"), []byte{1, 2, 3}, 0o644))

	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}

func TestDebouncer_GroupsRapidChanges(t *testing.T) {
	d := &Debouncer{
		delay:   50 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	// Many rapid events on the same path collapse into one batch entry.
	for i := 0; i < 10; i++ {
		d.events <- ChangeEvent{Type: EventTypeModified, Path: "docs/page.md"}
	}
	d.events <- ChangeEvent{Type: EventTypeCreated, Path: "docs/other.md"}

	select {
	case batch := <-d.output:
		assert.Len(t, batch, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestValidatePath_RejectsOutsideCwd(t *testing.T) {
	fw := newTestWatcher(t, 50*time.Millisecond)

	_, err := fw.validatePath("../elsewhere")
	assert.Error(t, err)

	err = fw.AddPath("/etc")
	assert.Error(t, err)
}
