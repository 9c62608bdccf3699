// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantHeader string
		wantBody   string
		wantErr    bool
	}{
		{"basic", "---\ndoi: \"10.1/x\"\n---\nbody text\n", "doi: \"10.1/x\"\n", "body text\n", false},
		{"crlf", "---\r\ndoi: a\r\n---\r\nbody\r\n", "doi: a\r\n", "body\r\n", false},
		{"no trailing newline", "---\ndoi: a\n---", "doi: a\n", "", false},
		{"empty header", "---\n---\nbody", "", "body", false},
		{"bom", "\xef\xbb\xbf---\ndoi: a\n---\n", "doi: a\n", "", false},
		{"missing opener", "doi: a\n---\n", "", "", true},
		{"unterminated", "---\ndoi: a\n", "", "", true},
		{"empty", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body, err := Split([]byte(tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, string(header))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		DOI      string `yaml:"doi"`
		Featured bool   `yaml:"featured"`
	}
	body, err := Decode([]byte("---\ndoi: \"10.1145/1\"\nfeatured: true\n---\nhello\n"), &v)
	require.NoError(t, err)
	assert.Equal(t, "10.1145/1", v.DOI)
	assert.True(t, v.Featured)
	assert.Equal(t, "hello\n", string(body))

	_, err = Decode([]byte("---\ndoi: [unclosed\n---\n"), &v)
	assert.Error(t, err)

	_, err = Decode([]byte("plain markdown"), &v)
	assert.ErrorIs(t, err, ErrNoFrontmatter)
}
