package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"urbanlex/internal/legal"
)

// ScanDir walks root and returns one Source per legal text found. A file is
// picked up when its name starts with a document type ("luos", "pdus") and it
// has a .txt or markdown extension. Hidden directories are skipped. Two files
// for the same document type are an error.
func ScanDir(ctx context.Context, root string) ([]Source, error) {
	found := make(map[legal.DocumentType]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && !IsMarkdown(path) {
			return nil
		}
		docType, ok := documentTypeFromName(d.Name())
		if !ok {
			return nil
		}
		if prev, dup := found[docType]; dup {
			return fmt.Errorf("both %s and %s look like the %s", prev, path, docType)
		}
		found[docType] = path
		return nil
	})
	if err != nil {
		return nil, err
	}

	types := make([]string, 0, len(found))
	for t := range found {
		types = append(types, string(t))
	}
	sort.Strings(types)

	sources := make([]Source, 0, len(types))
	for _, t := range types {
		path := found[legal.DocumentType(t)]
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		sources = append(sources, Source{
			DocumentType: legal.DocumentType(t),
			Name:         filepath.ToSlash(rel),
			Content:      content,
		})
	}
	return sources, nil
}

func documentTypeFromName(name string) (legal.DocumentType, bool) {
	lower := strings.ToLower(name)
	for _, t := range []legal.DocumentType{legal.LUOS, legal.PDUS} {
		if strings.HasPrefix(lower, strings.ToLower(string(t))) {
			return t, true
		}
	}
	return "", false
}
