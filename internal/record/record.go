// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record renders publication content files from cached registry
// metadata and the hand-authored fields of an existing record.
//
// A manual_override field that is set always wins. Otherwise the field is
// filled from the cached publication, and when neither source has a value
// the key is written as a YAML comment so that it reads as "not provided"
// instead of an empty string. Rendering never reads the clock: the same
// inputs always produce the same bytes.
package record

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/IRL-CT/IRL-CT.github.io/internal/frontmatter"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// DefaultBody is the Markdown body given to newly created records.
const DefaultBody = "\n<!-- You can add additional content about this publication here if needed -->\n"

// dateLayout matches the millisecond ISO-8601 form used for
// publication_date values.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

type entry struct {
	key   string
	value *yaml.Node
}

// overrideKeys is the emission order of manual_override fields.
var overrideKeys = []string{"authors", "publication_date", "journal", "conference", "abstract", "citation"}

// Materialize renders the content file for id. pub is the cached record and
// may be nil. existing is the parsed record already on disk and may be nil;
// its featured, project and manual_override values are carried over. body
// is appended after the frontmatter; nil selects DefaultBody.
func Materialize(id string, pub *types.Publication, existing *types.PublicationRecord, body []byte) ([]byte, error) {
	var (
		featured bool
		project  string
		manual   types.ManualOverride
	)
	if existing != nil {
		featured = existing.Featured
		project = existing.Project
		if existing.ManualOverride != nil {
			manual = *existing.ManualOverride
		}
	}
	if body == nil {
		body = []byte(DefaultBody)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")

	top := []entry{
		{"doi", quoted(id)},
		{"featured", boolNode(featured)},
	}
	if project != "" {
		top = append(top, entry{"project", quoted(project)})
	}
	for _, e := range top {
		if err := encodeEntry(&buf, "", e.key, e.value); err != nil {
			return nil, err
		}
	}

	values := mergeOverrides(pub, manual)
	if len(values) == 0 {
		buf.WriteString("# manual_override:\n")
	} else {
		buf.WriteString("manual_override:\n")
		for _, key := range overrideKeys {
			v, ok := values[key]
			if !ok {
				fmt.Fprintf(&buf, "  # %s:\n", key)
				continue
			}
			if err := encodeEntry(&buf, "  ", key, v); err != nil {
				return nil, err
			}
		}
	}

	buf.WriteString("---\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// mergeOverrides resolves each manual_override key to a node. Keys with no
// value from either source are absent from the map.
func mergeOverrides(pub *types.Publication, m types.ManualOverride) map[string]*yaml.Node {
	var fetched types.Publication
	if pub != nil {
		fetched = *pub
	}
	out := make(map[string]*yaml.Node)

	authors := nonEmpty(m.Authors)
	if len(authors) == 0 {
		authors = fetched.AuthorList()
	}
	if len(authors) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, a := range authors {
			seq.Content = append(seq.Content, quoted(a))
		}
		out["authors"] = seq
	}

	switch {
	case strings.TrimSpace(m.PublicationDate) != "":
		out["publication_date"] = dateNode(strings.TrimSpace(m.PublicationDate))
	case fetched.PubDate != nil:
		out["publication_date"] = &yaml.Node{Kind: yaml.ScalarNode, Value: fetched.PubDate.UTC().Format(dateLayout)}
	}

	// A hand-set conference means the venue is not a journal.
	switch {
	case m.Journal != "":
		out["journal"] = quoted(m.Journal)
	case m.Conference == "" && known(fetched.Venue) != "":
		out["journal"] = quoted(fetched.Venue)
	}

	if m.Conference != "" {
		out["conference"] = quoted(m.Conference)
	}
	if m.Abstract != "" {
		out["abstract"] = quoted(m.Abstract)
	}

	switch {
	case m.Citation != "":
		out["citation"] = quoted(m.Citation)
	case known(fetched.Title) != "":
		out["citation"] = quoted(Citation(fetched))
	}
	return out
}

// Citation formats the short citation string "Title (Year)", using "n.d."
// when the year is unknown.
func Citation(p types.Publication) string {
	year := "n.d."
	if y := p.Year(); y > 0 {
		year = strconv.Itoa(y)
	}
	return fmt.Sprintf("%s (%s)", p.Title, year)
}

// known returns s, or "" when s is empty or a registry fallback value.
func known(s string) string {
	switch s {
	case types.UnknownTitle, types.UnknownAuthors, types.UnknownVenue:
		return ""
	}
	return strings.TrimSpace(s)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: s}
}

// dateNode emits a hand-set date as a plain scalar when YAML reads it back
// as the same timestamp or string, and double-quoted otherwise, so "2020"
// stays a string instead of becoming an integer.
func dateNode(s string) *yaml.Node {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err == nil && len(doc.Content) == 1 {
		n := doc.Content[0]
		plain := n.Kind == yaml.ScalarNode && n.Style == 0 && n.Value == s
		if plain && (n.ShortTag() == "!!timestamp" || n.ShortTag() == "!!str") {
			return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
		}
	}
	return quoted(s)
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

// encodeEntry writes "key: value" as block YAML with every line prefixed by
// indent.
func encodeEntry(buf *bytes.Buffer, indent, key string, value *yaml.Node) error {
	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{{Kind: yaml.ScalarNode, Value: key}, value},
	}
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	for _, line := range strings.SplitAfter(out.String(), "\n") {
		if line == "" {
			continue
		}
		buf.WriteString(indent)
		buf.WriteString(line)
	}
	return nil
}

// Parse splits a content file into its record frontmatter and body.
func Parse(data []byte) (*types.PublicationRecord, []byte, error) {
	var rec types.PublicationRecord
	body, err := frontmatter.Decode(data, &rec)
	if err != nil {
		return nil, nil, err
	}
	if rec.ManualOverride != nil && rec.ManualOverride.IsEmpty() {
		rec.ManualOverride = nil
	}
	return &rec, body, nil
}
