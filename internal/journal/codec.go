// File: internal/journal/codec.go
// Description: Wire format for scenario journals: a YAML frontmatter
// header, an append-only markdown turn log, and delimited snapshot blocks
// that carry the full serialized state as JSON.
package journal

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

const (
	frontmatterDelim = "---"
	snapshotBegin    = "<!-- snapshot:begin -->"
	snapshotEnd      = "<!-- snapshot:end -->"
)

// Frontmatter is the journal header, kept small so `list` can skim it
// without parsing any state.
type Frontmatter struct {
	Scenario string                `yaml:"scenario"`
	ID       string                `yaml:"id"`
	Tier     string                `yaml:"tier"`
	Status   schemas.SessionStatus `yaml:"status"`
}

// envelope is the JSON payload inside a snapshot block. Branch state rides
// along with every snapshot so the newest parsable block is sufficient to
// resume: state, branch list, and active-branch pointer in one read.
type envelope struct {
	Snapshot *schemas.Snapshot `json:"snapshot"`
	Branches []schemas.Branch  `json:"branches"`
	Active   string            `json:"active"`
}

// encodeFrontmatter renders the journal header.
func encodeFrontmatter(fm Frontmatter) (string, error) {
	body, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	return frontmatterDelim + "\n" + string(body) + frontmatterDelim + "\n\n", nil
}

// parseFrontmatter reads the header from the top of a journal document.
func parseFrontmatter(doc string) (Frontmatter, error) {
	var fm Frontmatter
	if !strings.HasPrefix(doc, frontmatterDelim+"\n") {
		return fm, fmt.Errorf("journal has no frontmatter header")
	}
	rest := doc[len(frontmatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return fm, fmt.Errorf("unterminated frontmatter header")
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return fm, nil
}

// encodeSnapshotBlock renders one delimited snapshot region.
func encodeSnapshotBlock(env envelope) (string, error) {
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot envelope: %w", err)
	}
	return snapshotBegin + "\n" + string(payload) + "\n" + snapshotEnd + "\n\n", nil
}

// parseSnapshotBlock decodes the JSON between the delimiters. A block that
// does not parse yields ErrMalformedSnapshot so callers can fall back to an
// older block.
func parseSnapshotBlock(block string) (envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(block), &env); err != nil {
		return env, fmt.Errorf("%w: %v", schemas.ErrMalformedSnapshot, err)
	}
	if env.Snapshot == nil {
		return env, fmt.Errorf("%w: block carries no snapshot", schemas.ErrMalformedSnapshot)
	}
	return env, nil
}

// snapshotBlocks returns the raw JSON payloads of every snapshot region in
// document order. Unterminated trailing blocks are ignored.
func snapshotBlocks(doc string) []string {
	var blocks []string
	rest := doc
	for {
		start := strings.Index(rest, snapshotBegin)
		if start < 0 {
			return blocks
		}
		rest = rest[start+len(snapshotBegin):]
		end := strings.Index(rest, snapshotEnd)
		if end < 0 {
			return blocks
		}
		blocks = append(blocks, strings.TrimSpace(rest[:end]))
		rest = rest[end+len(snapshotEnd):]
	}
}

// encodeTurnEntry renders the human-readable turn log section.
func encodeTurnEntry(rec schemas.TurnRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Turn %d (branch %s)\n\n", rec.Turn, rec.Branch)
	if rec.Brief != "" {
		b.WriteString(rec.Brief)
		b.WriteString("\n\n")
	}
	if len(rec.Options) > 0 {
		b.WriteString("Options presented:\n")
		for _, opt := range rec.Options {
			marker := ""
			if opt.DoNothing {
				marker = " (do nothing)"
			}
			fmt.Fprintf(&b, "- %s [%s, success %d%% / failure %d%%]%s\n",
				opt.Label, opt.Domain, opt.SuccessPercent(), opt.FailurePercent(), marker)
		}
		b.WriteString("\n")
	}
	if rec.Outcome != nil {
		fmt.Fprintf(&b, "Chosen: %s\n", rec.Outcome.Action.Option.Label)
		fmt.Fprintf(&b, "Verdict: %s\n\n", rec.Outcome.Verdict)
		if rec.Outcome.Score.Narrative != "" {
			b.WriteString(rec.Outcome.Score.Narrative)
			b.WriteString("\n\n")
		}
		for _, c := range rec.Outcome.Consequences {
			fmt.Fprintf(&b, "Unexpected: %s — %s\n", c.Title, c.Description)
		}
		b.WriteString("\n")
	}
	if len(rec.Changes) > 0 {
		b.WriteString("State changes:\n")
		for _, c := range rec.Changes {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", c.Kind, c.ActorID, c.Detail)
		}
		b.WriteString("\n")
	}
	for _, f := range rec.BiasFlags {
		fmt.Fprintf(&b, "Bias flag (%s, %s): %s\n", f.ActorID, f.Bias, f.Challenge)
	}
	for _, n := range rec.DriftNotes {
		fmt.Fprintf(&b, "Drift note: %s\n", n)
	}
	if rec.Regenerated > 0 {
		fmt.Fprintf(&b, "Turn regenerated %d time(s) after checklist failure.\n", rec.Regenerated)
	}
	b.WriteString("\n")
	return b.String()
}
