// Package frontmatter splits markdown documents into their YAML front-matter
// block and body, and decodes the block into the page metadata schema used
// by the documentation site: title, description, the aside rendering flag,
// and the ordered keywords sequence. Unknown keys are preserved so site-level
// extensions survive a round trip through the linter.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter is the line that opens and closes a front-matter block.
const Delimiter = "---"

// Meta is the decoded front-matter of a documentation page.
type Meta struct {
	// Title is the page heading
	Title string
	// Description is the page summary used as the meta description
	Description string
	// Aside controls sidebar visibility; pages default to showing it
	Aside bool
	// AsideSet reports whether the aside flag was present in the block
	AsideSet bool
	// Keywords is the ordered keyword sequence for search indexing
	Keywords []string
	// Extra holds keys outside the known schema, decode order not guaranteed
	Extra map[string]interface{}
}

// rawMeta mirrors the YAML shape before schema checks are applied.
// Keywords and Aside decode into loose types so a scalar keyword or a
// string "true" can be reported precisely instead of failing the whole block.
type rawMeta struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Aside       *bool       `yaml:"aside"`
	Keywords    interface{} `yaml:"keywords"`
}

// Split separates a document into its front-matter block (without delimiters)
// and body. Documents without a leading delimiter return an empty block and
// the full content as body. An opening delimiter without a closing one is an
// error: silently treating the whole file as metadata would swallow the page.
func Split(content []byte) (block string, body string, found bool, err error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	if !strings.HasPrefix(text, Delimiter+"\n") && text != Delimiter {
		return "", text, false, nil
	}

	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == Delimiter {
			block = strings.Join(lines[1:i], "\n")
			body = strings.Join(lines[i+1:], "\n")
			return block, body, true, nil
		}
	}

	// A lone "---" line is an empty block with no body.
	if text == Delimiter || text == Delimiter+"\n" {
		return "", "", true, nil
	}

	return "", "", false, fmt.Errorf("front-matter block opened at line 1 is never closed")
}

// Parse splits the document and decodes its front-matter block.
// The returned Meta is nil when the document has no block.
func Parse(content []byte) (*Meta, string, error) {
	block, body, found, err := Split(content)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, body, nil
	}

	meta, err := Decode([]byte(block))
	if err != nil {
		return nil, body, err
	}
	return meta, body, nil
}

// Decode decodes a front-matter block (without delimiters) into a Meta.
func Decode(block []byte) (*Meta, error) {
	var raw rawMeta
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return nil, fmt.Errorf("decoding front-matter: %w", err)
	}

	var extra map[string]interface{}
	if err := yaml.Unmarshal(block, &extra); err != nil {
		return nil, fmt.Errorf("decoding front-matter: %w", err)
	}
	for _, known := range []string{"title", "description", "aside", "keywords"} {
		delete(extra, known)
	}
	if len(extra) == 0 {
		extra = nil
	}

	meta := &Meta{
		Title:       raw.Title,
		Description: raw.Description,
		Aside:       true,
		Extra:       extra,
	}
	if raw.Aside != nil {
		meta.Aside = *raw.Aside
		meta.AsideSet = true
	}

	keywords, err := decodeKeywords(raw.Keywords)
	if err != nil {
		return nil, err
	}
	meta.Keywords = keywords

	return meta, nil
}

// decodeKeywords normalizes the keywords value into an ordered string slice.
// A bare scalar ("keywords: streaming") is accepted as a one-element list,
// matching how site generators treat it. Non-string sequence entries are
// rejected so numeric or nested values surface as authoring errors.
func decodeKeywords(v interface{}) ([]string, error) {
	switch kw := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{kw}, nil
	case []interface{}:
		out := make([]string, 0, len(kw))
		for i, entry := range kw {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("keywords[%d]: expected string, got %T", i, entry)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("keywords: expected sequence of strings, got %T", v)
	}
}

// Encode renders a Meta back into a front-matter block without delimiters,
// emitting known keys in the conventional order before extras.
func (m *Meta) Encode() ([]byte, error) {
	var sb strings.Builder

	doc := &yaml.Node{Kind: yaml.MappingNode}
	appendKV := func(key string, value *yaml.Node) {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			value,
		)
	}

	appendKV("title", &yaml.Node{Kind: yaml.ScalarNode, Value: m.Title})
	appendKV("description", &yaml.Node{Kind: yaml.ScalarNode, Value: m.Description})
	if m.AsideSet {
		asideNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", m.Aside)}
		appendKV("aside", asideNode)
	}
	if len(m.Keywords) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, kw := range m.Keywords {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: kw})
		}
		appendKV("keywords", seq)
	}
	for key, value := range m.Extra {
		var node yaml.Node
		if err := node.Encode(value); err != nil {
			return nil, fmt.Errorf("encoding front-matter key %q: %w", key, err)
		}
		appendKV(key, &node)
	}

	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding front-matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
