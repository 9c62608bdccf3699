// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads registry credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed file contents are the value.
//
// Recognized keys: crossref-mailto, crossref-plus-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/logging"
	"github.com/IRL-CT/IRL-CT.github.io/pkg/types"
)

// DefaultDir is where secrets are read from unless configured otherwise.
const DefaultDir = ".secrets"

// Key names.
const (
	CrossRefMailto    = "crossref-mailto"
	CrossRefPlusToken = "crossref-plus-token"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	logger = logging.OrNop(logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills registry credentials that the configuration left empty.
// Explicit configuration always wins over a secret file.
func Apply(cfg *types.RegistryConfig, secrets map[string]string) {
	if cfg.Mailto == "" {
		cfg.Mailto = secrets[CrossRefMailto]
	}
	if cfg.PlusToken == "" {
		cfg.PlusToken = secrets[CrossRefPlusToken]
	}
}
