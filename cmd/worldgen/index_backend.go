package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wayblazer.ai/internal/persistence/indexdb"
)

// openRunIndex opens the run index unless disabled by flag or WB_INDEX_BACKEND.
func openRunIndex(dataDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("WB_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "runs.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported WB_INDEX_BACKEND: %s", backend)
	}
}
