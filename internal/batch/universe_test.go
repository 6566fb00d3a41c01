package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htxdata/tdhca-extractor/internal/common"
)

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestListDocuments(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b-app.pdf")
	touch(t, root, "a-app.txt")
	touch(t, root, "2024/c-app.PDF")
	touch(t, root, "notes.docx")
	touch(t, root, ".hidden.pdf")
	touch(t, root, ".cache/d-app.pdf")

	docs, err := ListDocuments(root)
	require.NoError(t, err)

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{
		filepath.Join("2024", "c-app.PDF"),
		"a-app.txt",
		"b-app.pdf",
	}, ids)

	for _, d := range docs {
		_, statErr := os.Stat(d.Path)
		assert.NoError(t, statErr)
	}
}

func TestListDocumentsEmptyRootIsSystemic(t *testing.T) {
	_, err := ListDocuments("")
	require.Error(t, err)
	assert.True(t, common.IsSystemic(err))
}

func TestListDocumentsMissingRootIsSystemic(t *testing.T) {
	_, err := ListDocuments(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, common.IsSystemic(err))
}

func TestStatusLogDocumentLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	s := NewStatusLog(path)

	require.NoError(t, s.Document("app-24001.pdf", true, "(confidence 0.82, 11/12 fields)"))
	require.NoError(t, s.Document("app-24002.pdf", false, "source text unavailable"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[app-24001.pdf]: SUCCESS (confidence 0.82, 11/12 fields)\n"+
			"[app-24002.pdf]: FAILURE source text unavailable\n",
		string(b))
}

func TestStatusLogNilOrPathless(t *testing.T) {
	var s *StatusLog
	assert.NoError(t, s.Append("ignored"))
	assert.NoError(t, NewStatusLog("").Document("x", true, ""))
}
