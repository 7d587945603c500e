package signals

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeAnalysis writes a JSON document into dir with the given modification time
func writeAnalysis(t *testing.T, dir, name string, doc interface{}, modTime time.Time) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

type obj = map[string]interface{}

// zigzag builds n closes starting at start, alternating moves so that the
// final move is up
func zigzag(start float64, n int, up, down float64) []float64 {
	out := make([]float64, n)
	out[0] = start
	for i := 1; i < n; i++ {
		if (n-1-i)%2 == 0 {
			out[i] = out[i-1] + up
		} else {
			out[i] = out[i-1] + down
		}
	}
	return out
}

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
