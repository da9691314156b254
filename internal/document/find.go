package document

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/vk/graft/internal/ctxlog"
)

// Ext is the document file extension.
const Ext = ".hcl"

// Find returns the document files at path. A file is returned as is and must
// carry the .hcl extension; a directory is searched recursively.
func Find(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving document path.", "path", path)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("document path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		if filepath.Ext(path) != Ext {
			return nil, fmt.Errorf("specified file is not an %s file: %s", Ext, path)
		}
		return []string{path}, nil
	}

	logger.Debug("Path is a directory, scanning for documents.", "directory", path)
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) == Ext {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
