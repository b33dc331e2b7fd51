package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter(t *testing.T) {
	block, body, found, err := Split([]byte("# Just a heading\n\nSome prose.\n"))

	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, block)
	assert.Equal(t, "# Just a heading\n\nSome prose.\n", body)
}

func TestSplit_Basic(t *testing.T) {
	content := []byte("---\ntitle: Streaming joins\naside: true\n---\n# Streaming joins\n")

	block, body, found, err := Split(content)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "title: Streaming joins\naside: true", block)
	assert.Equal(t, "# Streaming joins\n", body)
}

func TestSplit_CRLF(t *testing.T) {
	content := []byte("---\r\ntitle: Windows authored\r\n---\r\nbody line\r\n")

	block, body, found, err := Split(content)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "title: Windows authored", block)
	assert.Equal(t, "body line\n", body)
}

func TestSplit_EmptyBlock(t *testing.T) {
	block, body, found, err := Split([]byte("---\n---\nbody\n"))

	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, block)
	assert.Equal(t, "body\n", body)
}

func TestSplit_Unterminated(t *testing.T) {
	_, _, _, err := Split([]byte("---\ntitle: Oops\nno closing delimiter\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "never closed")
}

func TestSplit_HorizontalRuleInBody(t *testing.T) {
	content := []byte("---\ntitle: Page\n---\nabove\n\n---\n\nbelow\n")

	block, body, found, err := Split(content)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "title: Page", block)
	assert.Equal(t, "above\n\n---\n\nbelow\n", body)
}

func TestParse_FullSchema(t *testing.T) {
	content := []byte(`---
title: 'Build an LLM app'
description: 'Learn how to assemble a RAG pipeline.'
aside: true
keywords: ['LLM', 'RAG', 'GPT', 'vector store']
---
Body here.
`)

	meta, body, err := Parse(content)

	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Build an LLM app", meta.Title)
	assert.Equal(t, "Learn how to assemble a RAG pipeline.", meta.Description)
	assert.True(t, meta.Aside)
	assert.True(t, meta.AsideSet)
	assert.Equal(t, []string{"LLM", "RAG", "GPT", "vector store"}, meta.Keywords)
	assert.Nil(t, meta.Extra)
	assert.Equal(t, "Body here.\n", body)
}

func TestParse_NoBlockReturnsNilMeta(t *testing.T) {
	meta, body, err := Parse([]byte("plain body\n"))

	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, "plain body\n", body)
}

func TestDecode_AsideDefaultsTrue(t *testing.T) {
	meta, err := Decode([]byte("title: No aside key"))

	require.NoError(t, err)
	assert.True(t, meta.Aside)
	assert.False(t, meta.AsideSet)
}

func TestDecode_AsideFalse(t *testing.T) {
	meta, err := Decode([]byte("aside: false"))

	require.NoError(t, err)
	assert.False(t, meta.Aside)
	assert.True(t, meta.AsideSet)
}

func TestDecode_ScalarKeywordBecomesList(t *testing.T) {
	meta, err := Decode([]byte("keywords: streaming"))

	require.NoError(t, err)
	assert.Equal(t, []string{"streaming"}, meta.Keywords)
}

func TestDecode_KeywordOrderPreserved(t *testing.T) {
	meta, err := Decode([]byte("keywords:\n  - zebra\n  - alpha\n  - middle"))

	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "alpha", "middle"}, meta.Keywords)
}

func TestDecode_NonStringKeywordRejected(t *testing.T) {
	_, err := Decode([]byte("keywords:\n  - ok\n  - 42"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords[1]")
}

func TestDecode_KeywordsMappingRejected(t *testing.T) {
	_, err := Decode([]byte("keywords:\n  nested: true"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence of strings")
}

func TestDecode_MalformedYAML(t *testing.T) {
	_, err := Decode([]byte("title: [unclosed"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding front-matter")
}

func TestDecode_ExtraKeysPreserved(t *testing.T) {
	meta, err := Decode([]byte("title: Page\nlayout: article\ndraft: true"))

	require.NoError(t, err)
	require.NotNil(t, meta.Extra)
	assert.Equal(t, "article", meta.Extra["layout"])
	assert.Equal(t, true, meta.Extra["draft"])
	assert.NotContains(t, meta.Extra, "title")
}

func TestEncode_RoundTrip(t *testing.T) {
	original := &Meta{
		Title:       "Build an LLM app",
		Description: "Assemble a pipeline.",
		Aside:       true,
		AsideSet:    true,
		Keywords:    []string{"LLM", "RAG"},
	}

	block, err := original.Encode()
	require.NoError(t, err)

	decoded, err := Decode(block)
	require.NoError(t, err)
	assert.Equal(t, original.Title, decoded.Title)
	assert.Equal(t, original.Description, decoded.Description)
	assert.Equal(t, original.Aside, decoded.Aside)
	assert.Equal(t, original.Keywords, decoded.Keywords)
}
