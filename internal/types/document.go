// Package types provides common type definitions used throughout the docsentry CLI.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "time"

// DocumentInfo contains metadata about a discovered markdown document,
// including its front-matter, extracted links and headings, and change
// detection state used by the scanner, registry, and lint pipeline.
type DocumentInfo struct {
	// Path is the relative path of the document within the scanned root,
	// using forward slashes. It is the registry key.
	Path string
	// AbsPath is the absolute filesystem path of the document
	AbsPath string
	// Title is the page heading from front-matter
	Title string
	// Description is the page summary / meta description from front-matter
	Description string
	// Aside controls sidebar visibility when the page is rendered.
	// Pages that omit the flag default to showing the sidebar.
	Aside bool
	// Keywords is the ordered keyword sequence used for search indexing.
	// Order is preserved exactly as authored.
	Keywords []string
	// Extra holds front-matter keys outside the known schema
	Extra map[string]interface{}
	// HasFrontmatter reports whether the document carried a front-matter block
	HasFrontmatter bool
	// FrontmatterErr holds the decode error for a malformed block, empty otherwise
	FrontmatterErr string
	// Links lists outbound hyperlinks extracted from the body
	Links []LinkInfo
	// Headings lists the body's headings in document order
	Headings []HeadingInfo
	// WordCount counts whitespace-separated words in the body
	WordCount int
	// LastMod tracks the last modification time for change detection
	LastMod time.Time
	// Hash provides a CRC32 checksum for efficient change detection
	Hash string
}

// LinkKind classifies a hyperlink target.
type LinkKind string

const (
	// LinkExternal is an absolute http/https URL.
	LinkExternal LinkKind = "external"
	// LinkInternal is a relative path into the documentation tree.
	LinkInternal LinkKind = "internal"
	// LinkAnchor is a bare #fragment into the current page.
	LinkAnchor LinkKind = "anchor"
	// LinkMailto is a mailto: address.
	LinkMailto LinkKind = "mailto"
	// LinkOther is any other scheme (tel:, ftp:, ...), never fetched.
	LinkOther LinkKind = "other"
)

// LinkInfo describes a single outbound hyperlink found in a document body.
type LinkInfo struct {
	// Target is the raw link destination as authored
	Target string
	// Text is the link's display text, empty for reference definitions
	Text string
	// Kind classifies the target (external, internal, anchor, mailto, other)
	Kind LinkKind
	// Line is the 1-based body line the link appears on
	Line int
}

// HeadingInfo describes a markdown heading and its derived anchor.
type HeadingInfo struct {
	// Level is the heading depth (1-6)
	Level int
	// Text is the heading text with markup stripped
	Text string
	// Anchor is the GitHub-style slug fragment for the heading
	Anchor string
	// Line is the 1-based body line of the heading
	Line int
}

// EventType represents the type of document change event.
type EventType string

const (
	EventTypeAdded   EventType = "added"
	EventTypeUpdated EventType = "updated"
	EventTypeRemoved EventType = "removed"
)

// DocumentEvent represents a change in the document registry, used for
// real-time notifications to watchers like the report server.
type DocumentEvent struct {
	// Type indicates the kind of change (added, updated, removed)
	Type EventType
	// Document contains the document information (may be nil for removed events)
	Document *DocumentInfo
	// Timestamp records when the event occurred for ordering and filtering
	Timestamp time.Time
}
