package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// File name prefixes of the analysis outputs, most specific first
var (
	macroFilePrefixes = []string{"macro_analysis_"}
	classFilePrefixes = map[domain.AssetClass][]string{
		domain.AssetClassEquity: {"stock_analysis_filtered_", "stock_analysis_"},
		domain.AssetClassBond:   {"bond_analysis_"},
		domain.AssetClassGold:   {"gold_analysis_"},
	}
)

// FileProvider reads signals from a directory of analysis outputs, using
// the most recent file of each kind. The directory is rescanned on every
// call so new analysis runs are picked up.
type FileProvider struct {
	dir string
	log zerolog.Logger
}

// NewFileProvider creates a provider over an analysis-output directory
func NewFileProvider(dir string, log zerolog.Logger) *FileProvider {
	return &FileProvider{
		dir: dir,
		log: log.With().Str("component", "file_signals").Str("dir", dir).Logger(),
	}
}

type analysisFile struct {
	path    string
	name    string
	modTime time.Time
}

// scan lists every JSON file under the directory
func (p *FileProvider) scan(ctx context.Context) ([]analysisFile, error) {
	var files []analysisFile
	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, analysisFile{path: path, name: d.Name(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis directory %s: %w", p.dir, err)
	}
	return files, nil
}

// latest returns the newest file for the first prefix that matches any
// file. Equal modification times fall back to the (timestamped) file name.
func latest(files []analysisFile, prefixes []string) (analysisFile, bool) {
	for _, prefix := range prefixes {
		var matches []analysisFile
		for _, f := range files {
			if strings.HasPrefix(f.name, prefix) {
				matches = append(matches, f)
			}
		}
		if len(matches) == 0 {
			continue
		}
		sort.Slice(matches, func(i, j int) bool {
			if !matches[i].modTime.Equal(matches[j].modTime) {
				return matches[i].modTime.After(matches[j].modTime)
			}
			return matches[i].name > matches[j].name
		})
		return matches[0], true
	}
	return analysisFile{}, false
}

func (p *FileProvider) load(ctx context.Context, what string, prefixes []string, out interface{}) (string, error) {
	files, err := p.scan(ctx)
	if err != nil {
		return "", unavailable(what, err)
	}
	file, ok := latest(files, prefixes)
	if !ok {
		return "", unavailable(what, fmt.Errorf("no %s* file in %s", prefixes[0], p.dir))
	}
	if err := readJSON(file.path, out); err != nil {
		return "", unavailable(what, err)
	}
	return file.path, nil
}

// GetMacroSignal reads the latest macro_analysis_* file
func (p *FileProvider) GetMacroSignal(ctx context.Context) (*domain.MacroSignal, error) {
	var doc macroDocument
	path, err := p.load(ctx, "macro signal", macroFilePrefixes, &doc)
	if err != nil {
		return nil, err
	}

	signal, ok := doc.toDomain()
	if !ok {
		return nil, unavailable("macro signal", fmt.Errorf("%s has no bias or confidence", filepath.Base(path)))
	}

	p.log.Debug().
		Str("file", filepath.Base(path)).
		Str("bias", string(signal.Bias)).
		Float64("confidence", signal.Confidence).
		Msg("Loaded macro signal")
	return signal, nil
}

// GetAssetSignals reads the latest analysis file of a signal class
func (p *FileProvider) GetAssetSignals(ctx context.Context, class domain.AssetClass) ([]domain.AssetSignal, error) {
	prefixes, ok := classFilePrefixes[class]
	if !ok {
		return nil, fmt.Errorf("no signals are produced for asset class %s", class)
	}

	var doc assetDocument
	path, err := p.load(ctx, string(class)+" signals", prefixes, &doc)
	if err != nil {
		return nil, err
	}

	signals := doc.toDomain(class)
	p.log.Debug().
		Str("file", filepath.Base(path)).
		Str("asset_class", string(class)).
		Int("signals", len(signals)).
		Msg("Loaded asset signals")
	return signals, nil
}

// GetSupplement consolidates performance, benchmark, current weights and
// sector signals from every JSON file in the directory, and per-class
// scenarios from the latest asset analysis files. Unreadable files are skipped.
func (p *FileProvider) GetSupplement(ctx context.Context) (*Supplement, error) {
	files, err := p.scan(ctx)
	if err != nil {
		return nil, unavailable("supplement", err)
	}

	// Oldest first so newer documents win on conflicting keys
	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].name < files[j].name
	})

	b := newSupplementBuilder()
	for _, f := range files {
		var doc map[string]interface{}
		if err := readJSON(f.path, &doc); err != nil {
			p.log.Debug().Err(err).Str("file", f.name).Msg("Skipping unreadable analysis file")
			continue
		}
		b.add(doc)
	}

	for _, class := range domain.SignalClasses {
		file, ok := latest(files, classFilePrefixes[class])
		if !ok {
			continue
		}
		var doc assetDocument
		if err := readJSON(file.path, &doc); err == nil {
			b.addScenarios(class, doc.Scenarios)
		}
	}

	return b.build(), nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
