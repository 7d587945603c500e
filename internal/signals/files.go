package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrFileNotFound is returned by ReadFile for names outside the directory
// or files that do not exist
var ErrFileNotFound = errors.New("analysis file not found")

// FileInfo describes one analysis output
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Type     string    `json:"type"`
}

// Files lists every JSON analysis output, newest first. Names are relative
// to the analysis directory.
func (p *FileProvider) Files(ctx context.Context) ([]FileInfo, error) {
	files, err := p.scan(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, err
	}

	out := make([]FileInfo, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f.path)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(p.dir, f.path)
		if err != nil {
			rel = f.name
		}
		out = append(out, FileInfo{
			Name:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Modified: f.modTime,
			Type:     fileType(f.name),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Modified.Equal(out[j].Modified) {
			return out[i].Modified.After(out[j].Modified)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// ReadFile returns the raw JSON of one analysis output
func (p *FileProvider) ReadFile(name string) (json.RawMessage, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") ||
		!strings.EqualFold(filepath.Ext(clean), ".json") {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(p.dir, clean))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", name)
	}
	return json.RawMessage(data), nil
}

// fileType is the leading word of a file name ("stock" for stock_analysis_x.json)
func fileType(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.Index(stem, "_"); i > 0 {
		return stem[:i]
	}
	return "unknown"
}
