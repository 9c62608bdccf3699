package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"DOI", "Year"},
		[][]string{{"10.1145/1", "2024"}, {"10.1109/2"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	assert.Contains(t, out, "DOI")
	assert.Contains(t, out, "10.1145/1")
	assert.Contains(t, out, "╭", "rounded style")
	assert.Equal(t, "", renderTable(nil, nil, nil))
}

func TestWriteTablePlainForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []string{"DOI", "Year"}, [][]string{{"10.1145/1", "2024"}}, nil)
	assert.Equal(t, "DOI\tYear\n10.1145/1\t2024\n", buf.String())
	assert.False(t, isTerminal(&buf))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, 5, len([]rune(truncate(strings.Repeat("é", 9), 5))))
}
