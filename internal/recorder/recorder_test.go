package recorder

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/donna-agent/donna/internal/provider"
	"github.com/donna-agent/donna/internal/skills"
	"github.com/donna-agent/donna/internal/store"
	"github.com/donna-agent/donna/internal/tools"
)

// scriptTap replays a fixed list of steps, then EOF.
type scriptTap struct {
	steps []Step
	pos   int
}

func (t *scriptTap) Next(ctx context.Context) (Step, error) {
	if t.pos >= len(t.steps) {
		return Step{}, io.EOF
	}
	s := t.steps[t.pos]
	t.pos++
	return s, nil
}

type fakeProvider struct {
	content string
	err     error
}

func (f *fakeProvider) DefaultModel() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &provider.ChatResponse{Content: f.content}, nil
}

func newTestRecorder(t *testing.T, p provider.LLMProvider) (*Recorder, *tools.Registry, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "donna.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	reg := tools.NewRegistry()
	mgr := skills.NewManager(st, reg, tools.NewExecShellTool(0), nil)
	return New(Options{Provider: p, Skills: mgr, Store: st}), reg, st
}

func demoSteps() []Step {
	return []Step{
		{Command: "tar czf notes.tgz ~/notes", Output: ""},
		{Command: "ls -la notes.tgz", Output: "-rw-r--r-- notes.tgz"},
		{Command: "STOP"},
	}
}

func TestRecordCompletes(t *testing.T) {
	p := &fakeProvider{content: `{"name": "backup_notes", "description": "archives the notes dir", "script": "tar czf notes.tgz ~/notes"}`}
	r, reg, st := newTestRecorder(t, p)

	outcome, err := r.Record(context.Background(), &scriptTap{steps: demoSteps()})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if outcome.State != StateComplete {
		t.Errorf("expected complete, got %s", outcome.State)
	}
	if len(outcome.Steps) != 2 {
		t.Errorf("stop token must not be captured as a step, got %d steps", len(outcome.Steps))
	}
	if outcome.Skill == nil || outcome.Skill.Name != "backup_notes" {
		t.Fatalf("unexpected skill %+v", outcome.Skill)
	}
	if outcome.Skill.RecordingID != outcome.RecordingID {
		t.Error("skill should carry its recording id")
	}

	// The new skill is live on the registry and persisted.
	if _, err := reg.Lookup("backup_notes"); err != nil {
		t.Errorf("skill not registered: %v", err)
	}
	recs, _ := st.ListRecordings(context.Background(), 5)
	if len(recs) != 1 || recs[0].Status != "complete" {
		t.Errorf("expected one complete recording, got %+v", recs)
	}
	if r.State() != StateComplete {
		t.Errorf("recorder state = %s", r.State())
	}
}

func TestRecordMalformedSynthesisAborts(t *testing.T) {
	p := &fakeProvider{content: "sorry, I cannot produce JSON today"}
	r, reg, _ := newTestRecorder(t, p)

	outcome, err := r.Record(context.Background(), &scriptTap{steps: demoSteps()})
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
	if outcome.State != StateAborted {
		t.Errorf("expected aborted, got %s", outcome.State)
	}
	// Nothing reaches the registry on a failed synthesis.
	if got := len(reg.List()); got != 0 {
		t.Errorf("registry should be untouched, has %d tools", got)
	}
}

func TestRecordProviderDownAborts(t *testing.T) {
	p := &fakeProvider{err: provider.ErrModelUnavailable}
	r, _, _ := newTestRecorder(t, p)

	outcome, err := r.Record(context.Background(), &scriptTap{steps: demoSteps()})
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
	if outcome.State != StateAborted {
		t.Errorf("expected aborted, got %s", outcome.State)
	}
}

func TestRecordDisconnectAborts(t *testing.T) {
	// EOF before any stop token.
	r, reg, _ := newTestRecorder(t, &fakeProvider{})

	outcome, err := r.Record(context.Background(), &scriptTap{steps: []Step{
		{Command: "ls", Output: "a b c"},
	}})
	if err == nil {
		t.Fatal("disconnect should abort the recording")
	}
	if outcome.State != StateAborted {
		t.Errorf("expected aborted, got %s", outcome.State)
	}
	if len(reg.List()) != 0 {
		t.Error("nothing should be registered on abort")
	}
}

func TestRecordEmptyDemonstrationAborts(t *testing.T) {
	r, _, _ := newTestRecorder(t, &fakeProvider{})

	outcome, err := r.Record(context.Background(), &scriptTap{steps: []Step{{Command: "stop"}}})
	if err == nil {
		t.Fatal("zero captured steps should abort")
	}
	if outcome.State != StateAborted {
		t.Errorf("expected aborted, got %s", outcome.State)
	}
}

func TestRecordRejectsConcurrentRun(t *testing.T) {
	r, _, _ := newTestRecorder(t, &fakeProvider{})
	r.setState(StateRecording)

	if _, err := r.Record(context.Background(), &scriptTap{}); err == nil {
		t.Fatal("second recording should be refused while one runs")
	}
}

func TestStateStrings(t *testing.T) {
	cases := map[State]string{
		StateIdle:         "idle",
		StateRecording:    "recording",
		StateSynthesizing: "synthesizing",
		StateComplete:     "complete",
		StateAborted:      "aborted",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
