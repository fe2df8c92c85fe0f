package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSourceSections(t *testing.T) {
	src := NewSource(writeDoc(t, `{"skills": ["go", "mongodb"], "experience": [{"company": "Acme"}]}`))

	skills, err := src.Section("skills")
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "mongodb"}, skills)

	missing, err := src.Section("certifications")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSourceErrors(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "none.json")).Load()
	assert.Error(t, err)

	_, err = NewSource(writeDoc(t, `{not json`)).Load()
	assert.Error(t, err)
}
