package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/donna-agent/donna/internal/provider"
	"github.com/donna-agent/donna/internal/session"
	"github.com/donna-agent/donna/internal/system"
	"github.com/donna-agent/donna/internal/tools"
)

func newTestPipeline(t *testing.T, p provider.LLMProvider, critic bool) *Pipeline {
	t.Helper()
	profiles := NewProfileSet(DefaultProfiles())
	return NewPipeline(PipelineOptions{
		Router:        NewRouter(profiles, nil, nil),
		Loop:          newTestLoop(p, tools.NewRegistry(), 5),
		Profiles:      profiles,
		Sessions:      session.NewManager(t.TempDir()),
		CriticEnabled: critic,
	})
}

func TestPipelineAnswerWithoutCritic(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{{Content: "done"}}}
	pipe := newTestPipeline(t, p, false)

	result, err := pipe.Handle(context.Background(), "fix the bug in main.go")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if result.Profile != "coder" || result.Answer != "done" {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Reviewed || result.Revised {
		t.Error("critic disabled, nothing should be reviewed")
	}
	if len(p.requests) != 1 {
		t.Errorf("expected one model call, got %d", len(p.requests))
	}
}

func TestPipelineCriticApproves(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{
		{Content: "draft answer"},
		{Content: "APPROVE"},
	}}
	pipe := newTestPipeline(t, p, true)

	result, err := pipe.Handle(context.Background(), "fix the bug in main.go")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if result.Answer != "draft answer" {
		t.Errorf("approved answer must pass through, got %q", result.Answer)
	}
	if !result.Reviewed || result.Revised {
		t.Errorf("expected reviewed without revision: %+v", result)
	}
}

func TestPipelineCriticRequestsRevision(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{
		{Content: "draft answer"},
		{Content: "REVISE\nThe command is wrong for this platform."},
		{Content: "corrected answer"},
	}}
	pipe := newTestPipeline(t, p, true)

	result, err := pipe.Handle(context.Background(), "fix the bug in main.go")
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if result.Answer != "corrected answer" {
		t.Errorf("expected revised answer, got %q", result.Answer)
	}
	if !result.Reviewed || !result.Revised {
		t.Errorf("expected reviewed and revised: %+v", result)
	}

	// The revision request carries the critique back to the specialist.
	revision := p.requests[2]
	last := revision.Messages[len(revision.Messages)-1]
	if !strings.Contains(last.Content, "wrong for this platform") {
		t.Errorf("critique missing from revision request: %q", last.Content)
	}
}

func TestPipelineSessionCarriesHistory(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{
		{Content: "first answer"},
		{Content: "second answer"},
	}}
	pipe := newTestPipeline(t, p, false)

	ctx := context.Background()
	if _, err := pipe.Handle(ctx, "fix this bug please"); err != nil {
		t.Fatalf("first handle: %v", err)
	}
	if _, err := pipe.Handle(ctx, "debug the other error"); err != nil {
		t.Fatalf("second handle: %v", err)
	}

	second := p.requests[1]
	var sawFirst bool
	for _, m := range second.Messages {
		if m.Content == "first answer" {
			sawFirst = true
		}
	}
	if !sawFirst {
		t.Error("second request should carry the first exchange from the session")
	}
}

func TestPipelineInjectsSystemFingerprint(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{{Content: "ok"}}}
	profiles := NewProfileSet(DefaultProfiles())
	pipe := NewPipeline(PipelineOptions{
		Router:   NewRouter(profiles, nil, nil),
		Loop:     newTestLoop(p, tools.NewRegistry(), 5),
		Profiles: profiles,
		Sessions: session.NewManager(t.TempDir()),
		System:   &system.Prober{},
	})

	if _, err := pipe.Handle(context.Background(), "fix the bug in main.go"); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	sys := p.requests[0].Messages[0]
	if sys.Role != "system" || !strings.Contains(sys.Content, "## System Environment (auto-detected)") {
		t.Error("system prompt should carry the machine fingerprint")
	}
	if !strings.Contains(sys.Content, "- Shell: ") {
		t.Error("fingerprint block is missing the shell line")
	}
}

func TestPipelineSharedLogReachesOtherProfiles(t *testing.T) {
	p := &fakeProvider{responses: []*provider.ChatResponse{
		{Content: "coder did a thing"},
		{Content: "noted"},
	}}
	pipe := newTestPipeline(t, p, false)

	ctx := context.Background()
	if _, err := pipe.Handle(ctx, "fix the build"); err != nil {
		t.Fatalf("first handle: %v", err)
	}
	if _, err := pipe.Handle(ctx, "@sysadmin check the disk"); err != nil {
		t.Fatalf("second handle: %v", err)
	}

	system := p.requests[1].Messages[0]
	if system.Role != "system" || !strings.Contains(system.Content, "coder did a thing") {
		t.Error("sysadmin system prompt should include the coder's recent activity")
	}
}

func TestFirstLineTruncation(t *testing.T) {
	if got := firstLine("one\ntwo", 80); got != "one" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("a", 100)
	if got := firstLine(long, 10); got != strings.Repeat("a", 10)+"..." {
		t.Errorf("got %q", got)
	}
}
