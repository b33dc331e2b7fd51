package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/internal/types"
)

func newDoc(path string, keywords ...string) *types.DocumentInfo {
	return &types.DocumentInfo{
		Path:     path,
		AbsPath:  "/docs/" + path,
		Title:    "Title for " + path,
		Aside:    true,
		Keywords: keywords,
		LastMod:  time.Now(),
		Hash:     "abc123",
	}
}

func TestNewDocumentRegistry(t *testing.T) {
	reg := NewDocumentRegistry()

	assert.NotNil(t, reg)
	assert.Equal(t, 0, reg.Count())
}

func TestDocumentRegistry_RegisterAndGet(t *testing.T) {
	reg := NewDocumentRegistry()
	doc := newDoc("guides/llm-app.md", "LLM", "RAG")

	reg.Register(doc)

	retrieved, exists := reg.Get("guides/llm-app.md")
	require.True(t, exists)
	assert.Equal(t, doc, retrieved)
	assert.Equal(t, 1, reg.Count())
}

func TestDocumentRegistry_GetAllSorted(t *testing.T) {
	reg := NewDocumentRegistry()
	reg.Register(newDoc("z.md"))
	reg.Register(newDoc("a.md"))
	reg.Register(newDoc("m/nested.md"))

	all := reg.GetAll()

	require.Len(t, all, 3)
	assert.Equal(t, "a.md", all[0].Path)
	assert.Equal(t, "m/nested.md", all[1].Path)
	assert.Equal(t, "z.md", all[2].Path)
}

func TestDocumentRegistry_Remove(t *testing.T) {
	reg := NewDocumentRegistry()
	reg.Register(newDoc("gone.md"))

	reg.Remove("gone.md")

	_, exists := reg.Get("gone.md")
	assert.False(t, exists)
	assert.Equal(t, 0, reg.Count())

	// Removing an unknown path is a no-op.
	reg.Remove("never-there.md")
	assert.Equal(t, 0, reg.Count())
}

func TestDocumentRegistry_ByKeyword(t *testing.T) {
	reg := NewDocumentRegistry()
	reg.Register(newDoc("b.md", "LLM", "RAG"))
	reg.Register(newDoc("a.md", "LLM"))
	reg.Register(newDoc("c.md", "streaming"))

	docs := reg.ByKeyword("LLM")

	require.Len(t, docs, 2)
	assert.Equal(t, "a.md", docs[0].Path)
	assert.Equal(t, "b.md", docs[1].Path)
	assert.Empty(t, reg.ByKeyword("missing"))
}

func TestDocumentRegistry_Keywords(t *testing.T) {
	reg := NewDocumentRegistry()
	reg.Register(newDoc("a.md", "LLM", "RAG"))
	reg.Register(newDoc("b.md", "LLM"))

	counts := reg.Keywords()

	assert.Equal(t, 2, counts["LLM"])
	assert.Equal(t, 1, counts["RAG"])
}

func TestDocumentRegistry_WatchEvents(t *testing.T) {
	reg := NewDocumentRegistry()
	ch := reg.Watch()
	defer reg.UnWatch(ch)

	doc := newDoc("watched.md")
	reg.Register(doc)

	event := <-ch
	assert.Equal(t, types.EventTypeAdded, event.Type)
	assert.Equal(t, doc, event.Document)

	reg.Register(doc)
	event = <-ch
	assert.Equal(t, types.EventTypeUpdated, event.Type)

	reg.Remove("watched.md")
	event = <-ch
	assert.Equal(t, types.EventTypeRemoved, event.Type)
	assert.Equal(t, doc, event.Document)
}

func TestDocumentRegistry_FullWatcherDoesNotBlock(t *testing.T) {
	reg := NewDocumentRegistry()
	ch := reg.Watch()
	defer reg.UnWatch(ch)

	// Overflow the buffered channel; Register must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 250; i++ {
			reg.Register(newDoc(fmt.Sprintf("doc%d.md", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Register blocked on a full watcher channel")
	}
}

func TestDocumentRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewDocumentRegistry()
	done := make(chan struct{})

	for g := 0; g < 4; g++ {
		go func(g int) {
			for i := 0; i < 100; i++ {
				reg.Register(newDoc(fmt.Sprintf("g%d/doc%d.md", g, i)))
				reg.Get(fmt.Sprintf("g%d/doc%d.md", g, i))
				reg.Count()
			}
			done <- struct{}{}
		}(g)
	}

	for g := 0; g < 4; g++ {
		<-done
	}

	assert.Equal(t, 400, reg.Count())
}
