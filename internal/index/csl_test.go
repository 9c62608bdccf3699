// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

func TestToCSLItem(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	p := pub("10.1145/3173574.3173739", "Robots in the Wild", "Ann Lee, Bo Chen", "CHI '18", 2018, now)

	item := toCSLItem(p)

	if item.ID != "10.1145/3173574.3173739" {
		t.Errorf("ID = %q, want the DOI", item.ID)
	}
	if item.ContainerTitle != "CHI '18" {
		t.Errorf("ContainerTitle = %q, want %q", item.ContainerTitle, "CHI '18")
	}
	if item.URL != "https://doi.org/10.1145/3173574.3173739" {
		t.Errorf("URL = %q", item.URL)
	}
	if len(item.Author) != 2 || item.Author[1].Family != "Chen" {
		t.Fatalf("Author = %+v, want two split names", item.Author)
	}
	if item.Issued == nil || len(item.Issued.DateParts[0]) != 3 || item.Issued.DateParts[0][0] != 2018 {
		t.Errorf("Issued = %+v, want full 2018 date", item.Issued)
	}
}

func TestToCSLItemYearOnly(t *testing.T) {
	year := 2021
	item := toCSLItem(types.Publication{DOI: "10.1/x", Title: "T", Authors: types.UnknownAuthors, PubYear: &year})

	if item.Author != nil {
		t.Errorf("Author = %+v, want none for the unknown-authors placeholder", item.Author)
	}
	if item.Issued == nil || len(item.Issued.DateParts[0]) != 1 || item.Issued.DateParts[0][0] != 2021 {
		t.Errorf("Issued = %+v, want year-only date parts", item.Issued)
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CSLName
	}{
		{"given and family", "Ann Lee", CSLName{Given: "Ann", Family: "Lee"}},
		{"middle names stay with given", "Mary Ann van Dyke", CSLName{Given: "Mary Ann van", Family: "Dyke"}},
		{"single token", "Plato", CSLName{Literal: "Plato"}},
		{"blank", "  ", CSLName{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAuthorName(tt.in); got != tt.want {
				t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExportCSL(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.Build(ctx, testDoc(now), io.Discard); err != nil {
		t.Fatalf("Build: %v", err)
	}

	path, err := s.ExportCSL(ctx, t.TempDir(), QueryOptions{})
	if err != nil {
		t.Fatalf("ExportCSL: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	out := string(data)
	if got := strings.Count(out, "type: article"); got != 3 {
		t.Errorf("found %d items, want 3", got)
	}
	if !strings.Contains(out, "container-title: HRI 2020") {
		t.Error("CSL output should carry the venue as container-title")
	}
}
