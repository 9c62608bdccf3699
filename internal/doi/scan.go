// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package doi

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/frontmatter"
	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
)

// ExtractionError reports that the record store could not be enumerated.
// It is fatal to a synchronization run.
type ExtractionError struct {
	Dir string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting DOIs from %s: %v", e.Dir, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Skip records an input or file that yielded no identifier.
type Skip struct {
	Path   string `json:"path,omitempty"`
	Input  string `json:"input,omitempty"`
	Reason string `json:"reason"`
}

// Duplicate lists the record files that share one DOI.
type Duplicate struct {
	DOI   string
	Paths []string
}

// ScanResult holds the identifiers found in a content directory.
type ScanResult struct {
	// DOIs lists each identifier once, in path order of first occurrence.
	DOIs []string

	// Paths maps Key(doi) to the first record file that declared it.
	Paths map[string]string

	// Skipped lists files that were unreadable, unparsable, or carried no DOI.
	Skipped []Skip

	// Duplicates lists DOIs declared by more than one record. No merge or
	// precedence is applied; the first path wins in Paths.
	Duplicates []Duplicate
}

// ScanRecords walks dir for "*.md" publication records and extracts the DOI
// from each frontmatter. An unreadable directory tree is an
// ExtractionError; problems with individual files are recorded in Skipped
// and logged as warnings.
func ScanRecords(dir string, logger *zap.Logger) (*ScanResult, error) {
	logger = logging.OrNop(logger)

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &ExtractionError{Dir: dir, Err: err}
	}
	sort.Strings(files)

	result := &ScanResult{Paths: make(map[string]string)}
	dupes := make(map[string][]string)

	for _, path := range files {
		skip := func(input, reason string) {
			result.Skipped = append(result.Skipped, Skip{Path: path, Input: input, Reason: reason})
			logger.Warn("skipping publication record",
				zap.String(logging.FieldPath, path),
				zap.String(logging.FieldReason, reason))
		}

		data, err := os.ReadFile(path)
		if err != nil {
			skip("", err.Error())
			continue
		}

		var header struct {
			DOI string `yaml:"doi"`
		}
		if _, err := frontmatter.Decode(data, &header); err != nil {
			skip("", err.Error())
			continue
		}
		if strings.TrimSpace(header.DOI) == "" {
			skip("", "no doi field")
			continue
		}

		id, ok := Extract(header.DOI)
		if !ok {
			skip(header.DOI, "unrecognized DOI format")
			continue
		}

		key := Key(id)
		if first, seen := result.Paths[key]; seen {
			if len(dupes[key]) == 0 {
				dupes[key] = []string{first}
			}
			dupes[key] = append(dupes[key], path)
			continue
		}
		result.Paths[key] = path
		result.DOIs = append(result.DOIs, id)
	}

	for _, id := range result.DOIs {
		if paths, ok := dupes[Key(id)]; ok {
			result.Duplicates = append(result.Duplicates, Duplicate{DOI: id, Paths: paths})
			logger.Warn("DOI declared by multiple records",
				zap.String(logging.FieldDOI, id),
				zap.Strings("paths", paths))
		}
	}

	return result, nil
}

// ReadInputs reads one DOI or DOI URL per line and returns the extracted
// DOIs in valid. Blank lines and lines starting with "#" or "//" are
// ignored. Lines that contain no recognizable DOI are returned verbatim in
// skipped.
func ReadInputs(r io.Reader) (valid []string, skipped []string, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if id, ok := Extract(line); ok {
			valid = append(valid, id)
		} else {
			skipped = append(skipped, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading inputs: %w", err)
	}
	return valid, skipped, nil
}
