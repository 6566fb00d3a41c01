package batch

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/common"
)

// Document is one member of the document universe: a stable identifier plus
// the path the text adapter reads from.
type Document struct {
	ID   string
	Path string
}

// ListDocuments walks root and returns the universe of processable documents,
// sorted by identifier so sub-batch slicing is stable across runs. The
// identifier is the path relative to root. An unreadable root is systemic.
func ListDocuments(root string) ([]Document, error) {
	if strings.TrimSpace(root) == "" {
		return nil, common.Systemic(errors.New("document root is required"), "list documents")
	}

	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !constants.IsAllowedExt(filepath.Ext(name)) {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = name
		}
		docs = append(docs, Document{ID: rel, Path: path})
		return nil
	})
	if err != nil {
		return nil, common.Systemic(err, "list documents")
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}
