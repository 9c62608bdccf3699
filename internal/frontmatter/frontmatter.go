// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package frontmatter splits Markdown content files into their YAML header
// and body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"go.yaml.in/yaml/v3"
)

const delimiter = "---"

// ErrNoFrontmatter is returned when content does not open with a "---" line.
var ErrNoFrontmatter = errors.New("no frontmatter block")

// Split returns the YAML header and the body that follows the closing
// delimiter. CRLF line endings are accepted.
func Split(content []byte) (header, body []byte, err error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	first, rest, ok := cutLine(content)
	if !ok || string(bytes.TrimRight(first, "\r")) != delimiter {
		return nil, content, ErrNoFrontmatter
	}

	offset := 0
	for {
		line, next, more := cutLine(rest[offset:])
		if string(bytes.TrimRight(line, "\r")) == delimiter {
			header = rest[:offset]
			body = rest[offset+len(line):]
			if more {
				body = next
			}
			return header, body, nil
		}
		if !more {
			return nil, content, fmt.Errorf("unterminated frontmatter block")
		}
		offset += len(line) + 1
	}
}

// Decode splits content and unmarshals the header into v. It returns the body.
func Decode(content []byte, v any) ([]byte, error) {
	header, body, err := Split(content)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(header, v); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	return body, nil
}

// cutLine returns the first line without its newline, the remainder, and
// whether a newline was found.
func cutLine(b []byte) (line, rest []byte, found bool) {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[:i], b[i+1:], true
	}
	return b, nil, false
}
