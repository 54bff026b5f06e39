package skills

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donna-agent/donna/internal/store"
	"github.com/donna-agent/donna/internal/tools"
)

// Manager owns the skill lifecycle: persisting synthesized skills and
// registering them as red tools, both at synthesis time and at startup.
type Manager struct {
	store    *store.Store
	registry *tools.Registry
	runner   *tools.ExecShellTool
	logger   *slog.Logger
}

// NewManager creates a skill manager.
func NewManager(st *store.Store, registry *tools.Registry, runner *tools.ExecShellTool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: st, registry: registry, runner: runner, logger: logger}
}

// Register persists a skill and registers it on the tool registry.
// Both steps must succeed; a name collision or persist failure fails
// the whole operation and leaves no partial state behind. In particular
// a skill that could not be persisted is never left callable.
func (m *Manager) Register(ctx context.Context, s *Skill) error {
	if err := s.Validate(); err != nil {
		return err
	}
	// Registry first: it is the cheap in-memory collision check.
	if err := m.registry.Register(NewTool(s, m.runner)); err != nil {
		return fmt.Errorf("register skill %q: %w", s.Name, err)
	}
	rec := &store.SkillRecord{
		Name:        s.Name,
		Description: s.Description,
		Script:      s.Script,
		RecordingID: s.RecordingID,
		Risk:        tools.RiskRed.String(),
	}
	if err := m.store.InsertSkill(ctx, rec); err != nil {
		m.registry.Deregister(s.Name)
		return fmt.Errorf("persist skill %q: %w", s.Name, err)
	}
	m.logger.Info("skill registered", "name", s.Name)
	return nil
}

// Get returns one persisted skill by name, or sql.ErrNoRows.
func (m *Manager) Get(ctx context.Context, name string) (*store.SkillRecord, error) {
	return m.store.GetSkill(ctx, name)
}

// LoadAll registers every persisted skill at startup. A skill that
// collides with a built-in tool name is skipped with a warning rather
// than failing startup.
func (m *Manager) LoadAll(ctx context.Context) (int, error) {
	records, err := m.store.ListSkills(ctx)
	if err != nil {
		return 0, fmt.Errorf("load skills: %w", err)
	}
	loaded := 0
	for _, rec := range records {
		s := &Skill{
			Name:        rec.Name,
			Description: rec.Description,
			Script:      rec.Script,
			RecordingID: rec.RecordingID,
		}
		if err := m.registry.Register(NewTool(s, m.runner)); err != nil {
			m.logger.Warn("skipping stored skill", "name", rec.Name, "error", err)
			continue
		}
		loaded++
	}
	if loaded > 0 {
		m.logger.Info("skills loaded", "count", loaded)
	}
	return loaded, nil
}

// List returns all persisted skills.
func (m *Manager) List(ctx context.Context) ([]store.SkillRecord, error) {
	return m.store.ListSkills(ctx)
}
