// File: internal/archive/fs.go
package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

// FSIndex lists scenarios by skimming journal frontmatter from the journal
// directory. It is the default when no archive database is configured.
type FSIndex struct {
	dir    string
	logger *zap.Logger
}

var _ schemas.ScenarioIndex = (*FSIndex)(nil)

// NewFSIndex builds the filesystem-backed index.
func NewFSIndex(dir string, logger *zap.Logger) *FSIndex {
	return &FSIndex{dir: dir, logger: logger.Named("archive.fs")}
}

// Record is a no-op: the journal file itself is the record.
func (f *FSIndex) Record(_ context.Context, _ schemas.ScenarioMeta) error { return nil }

// List skims every journal's frontmatter. Unreadable files are skipped
// with a warning rather than failing the listing.
func (f *FSIndex) List(_ context.Context, filter string) ([]schemas.ScenarioMeta, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []schemas.ScenarioMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(f.dir, entry.Name())
		meta, ok := f.skim(path)
		if !ok {
			continue
		}
		if filter != "" && !matches(meta, filter) {
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}

func (f *FSIndex) skim(path string) (schemas.ScenarioMeta, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		f.logger.Warn("Skipping unreadable journal", zap.String("path", path), zap.Error(err))
		return schemas.ScenarioMeta{}, false
	}
	doc := string(raw)
	if !strings.HasPrefix(doc, "---\n") {
		return schemas.ScenarioMeta{}, false
	}
	end := strings.Index(doc[4:], "\n---")
	if end < 0 {
		return schemas.ScenarioMeta{}, false
	}

	var fm struct {
		Scenario string `yaml:"scenario"`
		ID       string `yaml:"id"`
		Tier     string `yaml:"tier"`
		Status   string `yaml:"status"`
	}
	if err := yaml.Unmarshal([]byte(doc[4:4+end]), &fm); err != nil {
		f.logger.Warn("Skipping journal with bad frontmatter", zap.String("path", path), zap.Error(err))
		return schemas.ScenarioMeta{}, false
	}

	return schemas.ScenarioMeta{
		ID:     fm.ID,
		Title:  fm.Scenario,
		Tier:   fm.Tier,
		Status: schemas.SessionStatus(fm.Status),
		Path:   path,
	}, true
}

func matches(m schemas.ScenarioMeta, filter string) bool {
	lf := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(m.Title), lf) ||
		string(m.Status) == lf ||
		strings.EqualFold(m.Tier, filter)
}
