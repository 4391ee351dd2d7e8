// File: internal/journal/manager.go
// Description: Branch-aware journal persistence. One text document per
// scenario; snapshots are arena entries keyed by (turn, branch) with an
// explicit active-branch pointer, so rewind forks instead of rewriting.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
)

// MainBranch is the id of the original timeline.
const MainBranch = "main"

// arenaKey addresses one snapshot in the in-memory index.
type arenaKey struct {
	Turn   int
	Branch string
}

// Manager owns the journal file for a single scenario session. Branch
// operations are serialized by the mutexless single-writer discipline the
// turn engine imposes; the manager itself is not goroutine safe.
type Manager struct {
	cfg    config.JournalConfig
	logger *zap.Logger
	path   string

	fm       Frontmatter
	branches map[string]*schemas.Branch
	active   string
	// arena indexes every parsable snapshot by (turn, branch). Entries are
	// never removed; pruned branches keep their history.
	arena map[arenaKey]*schemas.Snapshot
	// cache short-circuits branch-head lookups (resume, switch, checkpoint)
	// so exact hits skip the arena scan.
	cache *lru.Cache[arenaKey, *schemas.Snapshot]
}

var _ schemas.JournalManager = (*Manager)(nil)

// Create starts a fresh journal for a new scenario session.
func Create(cfg config.JournalConfig, session schemas.ScenarioSession, logger *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal dir: %w", err)
	}
	m, err := newManager(cfg, filepath.Join(cfg.Dir, session.ID+".md"), logger)
	if err != nil {
		return nil, err
	}

	m.fm = Frontmatter{Scenario: session.Title, ID: session.ID, Tier: session.Tier, Status: session.Status}
	now := time.Now().UTC()
	m.branches[MainBranch] = &schemas.Branch{
		ID: MainBranch, Status: schemas.BranchActive, CreatedAt: now, LastActive: now,
	}
	m.active = MainBranch

	header, err := encodeFrontmatter(m.fm)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(m.path, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write journal header: %w", err)
	}
	m.logger.Info("Journal created", zap.String("path", m.path))
	return m, nil
}

// Open loads an existing journal and rebuilds the snapshot arena. Malformed
// snapshot blocks are skipped with a warning; resume only needs the newest
// block that parses.
func Open(cfg config.JournalConfig, scenarioID string, logger *zap.Logger) (*Manager, error) {
	m, err := newManager(cfg, filepath.Join(cfg.Dir, scenarioID+".md"), logger)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	doc := string(raw)

	m.fm, err = parseFrontmatter(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schemas.ErrCodeJournalCorrupt, err)
	}

	blocks := snapshotBlocks(doc)
	var newest *envelope
	for i, block := range blocks {
		env, err := parseSnapshotBlock(block)
		if err != nil {
			m.logger.Warn("Skipping malformed snapshot block",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		key := arenaKey{env.Snapshot.Turn, env.Snapshot.Branch}
		m.arena[key] = env.Snapshot
		m.cache.Add(key, env.Snapshot)
		newest = &env
	}

	if newest != nil {
		for i := range newest.Branches {
			b := newest.Branches[i]
			m.branches[b.ID] = &b
		}
		m.active = newest.Active
	} else {
		// Full reconstruction fallback: no snapshot parsed, so rebuild the
		// minimal branch state from the header alone.
		m.logger.Warn("No parsable snapshot found; reconstructing from frontmatter")
		now := time.Now().UTC()
		m.branches[MainBranch] = &schemas.Branch{
			ID: MainBranch, Status: schemas.BranchActive, CreatedAt: now, LastActive: now,
		}
		m.active = MainBranch
	}

	m.autoPrune()
	return m, nil
}

func newManager(cfg config.JournalConfig, path string, logger *zap.Logger) (*Manager, error) {
	size := cfg.SnapshotCacheSize
	if size <= 0 {
		size = 16
	}
	cache, err := lru.New[arenaKey, *schemas.Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot cache: %w", err)
	}
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("journal"),
		path:     path,
		branches: make(map[string]*schemas.Branch),
		arena:    make(map[arenaKey]*schemas.Snapshot),
		cache:    cache,
	}, nil
}

// Path returns the journal file location.
func (m *Manager) Path() string { return m.path }

// Frontmatter returns the parsed journal header.
func (m *Manager) Frontmatter() Frontmatter { return m.fm }

// ActiveBranch returns the id of the branch play currently follows.
func (m *Manager) ActiveBranch() string { return m.active }

// AppendTurn appends the human-readable turn entry to the log.
func (m *Manager) AppendTurn(rec schemas.TurnRecord) error {
	return m.append(encodeTurnEntry(rec))
}

// WriteSnapshot appends a snapshot block for the active branch and advances
// the branch's current turn. Returns the snapshot id.
func (m *Manager) WriteSnapshot(snap *schemas.Snapshot) (string, error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.Branch = m.active
	snap.TakenAt = time.Now().UTC()

	branch := m.branches[m.active]
	branch.CurrentTurn = snap.Turn
	branch.LastActive = snap.TakenAt

	block, err := encodeSnapshotBlock(envelope{
		Snapshot: snap,
		Branches: m.branchList(),
		Active:   m.active,
	})
	if err != nil {
		return "", err
	}
	if err := m.append(block); err != nil {
		return "", err
	}

	m.arena[arenaKey{snap.Turn, snap.Branch}] = snap
	m.cache.Add(arenaKey{snap.Turn, snap.Branch}, snap)
	m.logger.Debug("Snapshot written",
		zap.Int("turn", snap.Turn), zap.String("branch", snap.Branch))
	return snap.ID, nil
}

// LatestSnapshot returns the newest snapshot on the active branch, falling
// back to the newest pre-fork snapshot for young branches.
func (m *Manager) LatestSnapshot() (*schemas.Snapshot, error) {
	branch := m.branches[m.active]
	if branch == nil {
		return nil, fmt.Errorf("%w: branch %q", schemas.ErrNoSnapshot, m.active)
	}
	snap := m.nearestAtOrBelow(branch.CurrentTurn, m.active)
	if snap == nil {
		return nil, fmt.Errorf("%w: branch %q has none", schemas.ErrNoSnapshot, m.active)
	}
	return snap, nil
}

// Rewind forks a new branch n turns back from the active branch's current
// turn. The original timeline is preserved verbatim; the fork point is the
// nearest snapshotted turn at or below the target, and the adjusted turn is
// visible on the returned branch. Fails with ErrNoSnapshot when nothing at
// or below the target exists, and with ErrBranchLimit at the ceiling.
func (m *Manager) Rewind(n int) (*schemas.Branch, *schemas.Snapshot, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("rewind distance must be at least 1, got %d", n)
	}
	current := m.branches[m.active]
	target := current.CurrentTurn - n
	if target < 1 {
		return nil, nil, fmt.Errorf("%w: turn %d", schemas.ErrNoSnapshot, target)
	}

	snap := m.nearestAtOrBelow(target, m.active)
	if snap == nil {
		return nil, nil, fmt.Errorf("%w: no snapshot at or below turn %d", schemas.ErrNoSnapshot, target)
	}

	if m.activeCount() >= schemas.MaxActiveBranches {
		return nil, nil, fmt.Errorf("%w: %d active, prune one first",
			schemas.ErrBranchLimit, m.activeCount())
	}

	now := time.Now().UTC()
	branch := &schemas.Branch{
		ID:          "b-" + uuid.NewString()[:8],
		ForkTurn:    snap.Turn,
		CurrentTurn: snap.Turn,
		Status:      schemas.BranchActive,
		CreatedAt:   now,
		LastActive:  now,
	}
	m.branches[branch.ID] = branch
	m.active = branch.ID

	// Seed the fork with a copy of the snapshot so the new branch is
	// resumable on its own; history earlier in the file is untouched.
	seeded := *snap
	seeded.ID = uuid.NewString()
	seeded.Branch = branch.ID
	if _, err := m.WriteSnapshot(&seeded); err != nil {
		return nil, nil, err
	}

	m.logger.Info("Rewound to new branch",
		zap.String("branch", branch.ID),
		zap.Int("fork_turn", branch.ForkTurn),
		zap.Int("requested_target", target))
	return branch, &seeded, nil
}

// Snapshots returns every indexed snapshot ordered by turn then branch.
// Exporters walk this to build the turn ledger.
func (m *Manager) Snapshots() []*schemas.Snapshot {
	out := make([]*schemas.Snapshot, 0, len(m.arena))
	for _, snap := range m.arena {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Turn != out[j].Turn {
			return out[i].Turn < out[j].Turn
		}
		return out[i].Branch < out[j].Branch
	})
	return out
}

// ListBranches returns all branches sorted by creation time.
func (m *Manager) ListBranches() []schemas.Branch {
	return m.branchList()
}

// SwitchBranch makes the named branch active and returns its latest
// snapshot.
func (m *Manager) SwitchBranch(id string) (*schemas.Snapshot, error) {
	branch, ok := m.branches[id]
	if !ok {
		return nil, fmt.Errorf("unknown branch %q", id)
	}
	if branch.Status == schemas.BranchPruned {
		return nil, fmt.Errorf("branch %q is pruned", id)
	}
	m.active = id
	branch.LastActive = time.Now().UTC()
	return m.LatestSnapshot()
}

// PruneBranch retires a branch. The active branch cannot be pruned; switch
// away first. Pruned history remains in the file.
func (m *Manager) PruneBranch(id string) error {
	branch, ok := m.branches[id]
	if !ok {
		return fmt.Errorf("unknown branch %q", id)
	}
	if id == m.active {
		return fmt.Errorf("cannot prune the active branch %q", id)
	}
	branch.Status = schemas.BranchPruned
	m.logger.Info("Branch pruned", zap.String("branch", id))
	return nil
}

// Checkpoint re-appends the latest snapshot in a fresh envelope so branch
// table changes (switch, prune) survive without a new turn.
func (m *Manager) Checkpoint() error {
	snap, err := m.LatestSnapshot()
	if err != nil {
		return err
	}
	copied := *snap
	copied.ID = uuid.NewString()
	_, err = m.WriteSnapshot(&copied)
	return err
}

// SetStatus updates the session status recorded in the frontmatter on the
// next snapshot write. The header itself is append-only history; status
// travels in snapshot envelopes after creation.
func (m *Manager) SetStatus(status schemas.SessionStatus) {
	m.fm.Status = status
}

// autoPrune retires non-main branches idle longer than the configured
// threshold. Runs on resume.
func (m *Manager) autoPrune() {
	if m.cfg.AutoPruneAfter <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-m.cfg.AutoPruneAfter)
	for id, b := range m.branches {
		if id == MainBranch || b.Status != schemas.BranchActive || id == m.active {
			continue
		}
		if b.LastActive.Before(cutoff) {
			b.Status = schemas.BranchPruned
			m.logger.Info("Auto-pruned abandoned branch",
				zap.String("branch", id),
				zap.Time("last_active", b.LastActive))
		}
	}
}

// nearestAtOrBelow finds the newest snapshot with turn <= target, looking
// on the preferred branch first and then on any branch. Pre-fork history is
// shared within the single journal file, so a cross-branch match is the
// common ancestor's state.
func (m *Manager) nearestAtOrBelow(target int, preferred string) *schemas.Snapshot {
	// Branch heads are the hot path: every resume, switch, and checkpoint
	// asks for an exactly snapshotted turn.
	if snap, ok := m.cache.Get(arenaKey{target, preferred}); ok {
		return snap
	}
	var best *schemas.Snapshot
	for key, snap := range m.arena {
		if key.Turn > target || key.Branch != preferred {
			continue
		}
		if best == nil || key.Turn > best.Turn {
			best = snap
		}
	}
	if best != nil {
		return best
	}
	for key, snap := range m.arena {
		if key.Turn > target {
			continue
		}
		if best == nil || key.Turn > best.Turn {
			best = snap
		}
	}
	return best
}

func (m *Manager) activeCount() int {
	n := 0
	for _, b := range m.branches {
		if b.Status == schemas.BranchActive {
			n++
		}
	}
	return n
}

func (m *Manager) branchList() []schemas.Branch {
	out := make([]schemas.Branch, 0, len(m.branches))
	for _, b := range m.branches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// append writes to the end of the journal file. History already on disk is
// never rewritten.
func (m *Manager) append(text string) error {
	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal for append: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("failed to append to journal: %w", err)
	}
	return nil
}
