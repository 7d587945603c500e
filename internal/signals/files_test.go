package signals

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProvider_Files(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeAnalysis(t, dir, "macro_analysis_1.json", obj{"bias": "bullish"}, now.Add(-time.Hour))
	writeAnalysis(t, dir, "nested/bond_analysis_1.json", obj{}, now)
	require.NoError(t, writeRaw(filepath.Join(dir, "notes.txt"), "ignored"))

	p := NewFileProvider(dir, zerolog.Nop())
	files, err := p.Files(context.Background())
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "nested/bond_analysis_1.json", files[0].Name)
	assert.Equal(t, "bond", files[0].Type)
	assert.Equal(t, "macro", files[1].Type)
	assert.Positive(t, files[1].Size)
}

func TestFileProvider_FilesMissingDir(t *testing.T) {
	p := NewFileProvider(t.TempDir()+"/missing", zerolog.Nop())
	files, err := p.Files(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileProvider_ReadFile(t *testing.T) {
	dir := t.TempDir()
	writeAnalysis(t, dir, "macro_analysis_1.json", obj{"bias": "bullish"}, time.Now())

	p := NewFileProvider(dir, zerolog.Nop())

	data, err := p.ReadFile("macro_analysis_1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bias":"bullish"}`, string(data))

	for _, name := range []string{"../etc/passwd", "/etc/hosts", "missing.json", "macro_analysis_1.txt", ""} {
		_, err := p.ReadFile(name)
		assert.ErrorIs(t, err, ErrFileNotFound, name)
	}
}
