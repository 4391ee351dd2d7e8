// File: internal/export/export.go
// Description: Scenario export in four formats. JSON and CSV are the
// machine-readable ledgers; HTML and slides are the briefing surfaces.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format names one of the supported export renderings.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatHTML   Format = "html"
	FormatSlides Format = "slides"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatHTML, FormatSlides:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%s: unknown export format %q (want json, csv, html or slides)",
			schemas.ErrCodeExportFailure, s)
	}
}

// Report is the assembled export payload: the session as of the latest
// snapshot plus the full per-turn ledger across branches.
type Report struct {
	Session     schemas.ScenarioSession `json:"session"`
	Actors      []*schemas.Actor        `json:"actors"`
	Beliefs     []*schemas.Distribution `json:"beliefs"`
	Branches    []schemas.Branch        `json:"branches"`
	Injects     []schemas.Inject        `json:"inject_history"`
	Ledger      []*schemas.Snapshot     `json:"ledger"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// SnapshotSource is what a report is built from; the journal manager
// satisfies it.
type SnapshotSource interface {
	LatestSnapshot() (*schemas.Snapshot, error)
	Snapshots() []*schemas.Snapshot
	ListBranches() []schemas.Branch
}

// BuildReport assembles the export payload from journal state.
func BuildReport(src SnapshotSource) (*Report, error) {
	latest, err := src.LatestSnapshot()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schemas.ErrCodeExportFailure, err)
	}
	return &Report{
		Session:     latest.Session,
		Actors:      latest.Actors,
		Beliefs:     latest.Beliefs,
		Branches:    src.ListBranches(),
		Injects:     latest.InjectHistory,
		Ledger:      src.Snapshots(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Exporter renders reports into any supported format.
type Exporter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger.Named("export")}
}

// Write renders the report in the requested format.
func (e *Exporter) Write(w io.Writer, format Format, report *Report) error {
	var err error
	switch format {
	case FormatJSON:
		err = e.writeJSON(w, report)
	case FormatCSV:
		err = e.writeCSV(w, report)
	case FormatHTML:
		err = e.writeHTML(w, report)
	case FormatSlides:
		err = e.writeSlides(w, report)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", schemas.ErrCodeExportFailure, err)
	}
	e.logger.Info("Export written",
		zap.String("format", string(format)),
		zap.String("scenario", report.Session.ID))
	return nil
}

func (e *Exporter) writeJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeCSV emits one row per actor per snapshotted turn, resources
// flattened into stable columns.
func (e *Exporter) writeCSV(w io.Writer, report *Report) error {
	cols := resourceColumns(report)
	cw := csv.NewWriter(w)

	header := append([]string{"turn", "branch", "phase", "actor", "archetype"}, cols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, snap := range report.Ledger {
		for _, actor := range snap.Actors {
			row := []string{
				strconv.Itoa(snap.Turn),
				snap.Branch,
				string(snap.Session.Phase),
				actor.ID,
				string(actor.Archetype),
			}
			for _, col := range cols {
				if lvl, ok := actor.Resources[col]; ok {
					row = append(row, strconv.FormatFloat(lvl.Value, 'f', 1, 64))
				} else {
					row = append(row, "")
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// resourceColumns collects every resource name seen anywhere in the
// ledger, sorted for stable output.
func resourceColumns(report *Report) []string {
	seen := make(map[string]struct{})
	for _, snap := range report.Ledger {
		for _, actor := range snap.Actors {
			for name := range actor.Resources {
				seen[name] = struct{}{}
			}
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}
