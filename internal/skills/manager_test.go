package skills

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/donna-agent/donna/internal/store"
	"github.com/donna-agent/donna/internal/tools"
)

func newTestManager(t *testing.T) (*Manager, *tools.Registry, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "donna.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	reg := tools.NewRegistry()
	return NewManager(st, reg, tools.NewExecShellTool(0), nil), reg, st
}

func TestManagerRegisterPersistsAndRegisters(t *testing.T) {
	m, reg, st := newTestManager(t)
	ctx := context.Background()

	s := &Skill{Name: "backup_notes", Description: "d", Script: "tar czf x"}
	if err := m.Register(ctx, s); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := reg.Lookup("backup_notes"); err != nil {
		t.Errorf("skill missing from registry: %v", err)
	}
	records, err := st.ListSkills(ctx)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected 1 persisted skill, got %d (err %v)", len(records), err)
	}
	if records[0].Risk != "red" {
		t.Errorf("persisted risk should be red, got %q", records[0].Risk)
	}
}

func TestManagerRegisterNameCollision(t *testing.T) {
	m, _, st := newTestManager(t)
	ctx := context.Background()

	s := &Skill{Name: "list_stuff", Description: "d", Script: "ls"}
	if err := m.Register(ctx, s); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.Register(ctx, s); err == nil {
		t.Fatal("duplicate skill name should fail")
	}
	// No partial state: still exactly one persisted record.
	records, _ := st.ListSkills(ctx)
	if len(records) != 1 {
		t.Errorf("expected 1 record after collision, got %d", len(records))
	}
}

func TestManagerRegisterPersistFailureRollsBack(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "donna.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	reg := tools.NewRegistry()
	m := NewManager(st, reg, tools.NewExecShellTool(0), nil)

	// With the database gone, the insert must fail and the skill must
	// not stay callable on the registry.
	st.Close()
	s := &Skill{Name: "ghost_skill", Description: "d", Script: "ls"}
	if err := m.Register(context.Background(), s); err == nil {
		t.Fatal("register should fail when persistence fails")
	}
	if _, err := reg.Lookup("ghost_skill"); err == nil {
		t.Fatal("unpersisted skill left registered")
	}
}

func TestManagerGet(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	s := &Skill{Name: "show_me", Description: "d", Script: "ls"}
	if err := m.Register(ctx, s); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec, err := m.Get(ctx, "show_me")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Script != "ls" || rec.Risk != "red" {
		t.Errorf("unexpected record %+v", rec)
	}
	if _, err := m.Get(ctx, "no_such"); err == nil {
		t.Error("missing skill should error")
	}
}

func TestManagerLoadAll(t *testing.T) {
	m, _, st := newTestManager(t)
	ctx := context.Background()

	for _, name := range []string{"skill_one", "skill_two"} {
		err := st.InsertSkill(ctx, &store.SkillRecord{Name: name, Description: "d", Script: "ls", Risk: "red"})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := m.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 loaded, got %d", n)
	}
}

func TestManagerLoadAllSkipsCollision(t *testing.T) {
	m, reg, st := newTestManager(t)
	ctx := context.Background()

	// A stored skill shadowing a built-in name must not break startup.
	reg.Register(tools.NewReadFileTool())
	st.InsertSkill(ctx, &store.SkillRecord{Name: "read_file", Description: "d", Script: "cat", Risk: "red"})
	st.InsertSkill(ctx, &store.SkillRecord{Name: "fresh_one", Description: "d", Script: "ls", Risk: "red"})

	n, err := m.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 loaded with the collision skipped, got %d", n)
	}
}
