package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/donna-agent/donna/internal/memory"
	"github.com/donna-agent/donna/internal/provider"
	"github.com/donna-agent/donna/internal/session"
	"github.com/donna-agent/donna/internal/system"
)

const defaultSharedLogSize = 12

// Result is the outcome of one pipeline request.
type Result struct {
	Profile  string
	Answer   string
	Reviewed bool
	Revised  bool
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	Router        *Router
	Loop          *Loop
	Profiles      *ProfileSet
	Feedback      *memory.FeedbackStore
	Sessions      *session.Manager
	System        *system.Prober
	Logger        *slog.Logger
	CriticEnabled bool
	SharedLogSize int
}

// Pipeline is the multi-agent front door: it routes each request to a
// specialist, injects that profile's feedback history, keeps per-profile
// conversation sessions, and optionally passes answers through the
// critic before they reach the user. A short cross-agent log lets each
// specialist see what the others did recently.
type Pipeline struct {
	router    *Router
	loop      *Loop
	profiles  *ProfileSet
	feedback  *memory.FeedbackStore
	sessions  *session.Manager
	system    *system.Prober
	logger    *slog.Logger
	useCritic bool

	sharedMu   sync.Mutex
	sharedLog  []string
	sharedSize int
}

// NewPipeline creates a pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := opts.SharedLogSize
	if size <= 0 {
		size = defaultSharedLogSize
	}
	return &Pipeline{
		router:     opts.Router,
		loop:       opts.Loop,
		profiles:   opts.Profiles,
		feedback:   opts.Feedback,
		sessions:   opts.Sessions,
		system:     opts.System,
		logger:     logger,
		useCritic:  opts.CriticEnabled,
		sharedSize: size,
	}
}

// Handle routes and runs one request end to end.
func (p *Pipeline) Handle(ctx context.Context, input string) (*Result, error) {
	profile, cleaned := p.router.Route(ctx, input)
	p.logger.Info("request routed", "profile", profile.Name)

	messages, sess := p.buildMessages(ctx, profile, cleaned)
	answer, err := p.loop.Run(ctx, profile, messages)
	if err != nil {
		return nil, err
	}

	result := &Result{Profile: profile.Name, Answer: answer}

	if p.useCritic && profile.Name != "critic" {
		if critique, needsRevision := p.review(ctx, cleaned, answer); needsRevision {
			result.Reviewed = true
			revised, err := p.revise(ctx, profile, messages, answer, critique)
			if err != nil {
				// Revision is best-effort; the original answer still stands.
				p.logger.Warn("revision pass failed", "error", err)
			} else if revised != "" {
				result.Answer = revised
				result.Revised = true
			}
		} else {
			result.Reviewed = true
		}
	}

	if sess != nil {
		sess.AddMessage("user", cleaned)
		sess.AddMessage("assistant", result.Answer)
		if err := p.sessions.Save(sess); err != nil {
			p.logger.Warn("session save failed", "profile", profile.Name, "error", err)
		}
	}
	p.appendSharedLog(profile.Name, cleaned, result.Answer)

	return result, nil
}

// buildMessages assembles the specialist's context: system prompt with
// the machine fingerprint, feedback history, and the shared log, then
// the profile's recent conversation, then the new request.
func (p *Pipeline) buildMessages(ctx context.Context, profile *Profile, input string) ([]provider.Message, *session.Session) {
	system := profile.SystemPrompt

	if p.system != nil {
		system += "\n\n" + p.system.Get(ctx).PromptSection()
	}

	if p.feedback != nil {
		if block, err := p.feedback.PromptBlock(ctx, profile.Name); err != nil {
			p.logger.Warn("feedback recall failed", "profile", profile.Name, "error", err)
		} else if block != "" {
			system += "\n\n" + block
		}
	}

	if log := p.sharedLogBlock(); log != "" {
		system += "\n\n" + log
	}

	messages := []provider.Message{{Role: "system", Content: system}}

	var sess *session.Session
	if p.sessions != nil {
		sess = p.sessions.GetOrCreate(profile.Name)
		for _, m := range sess.Recent(20) {
			messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
		}
	}

	messages = append(messages, provider.Message{Role: "user", Content: input})
	return messages, sess
}

// review runs the critic over an answer. Returns the critique and
// whether a revision was requested. Critic failures never block the
// answer.
func (p *Pipeline) review(ctx context.Context, request, answer string) (string, bool) {
	critic := p.profiles.Get("critic")
	if critic == nil {
		return "", false
	}

	messages := []provider.Message{
		{Role: "system", Content: critic.SystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Request:\n%s\n\nProposed answer:\n%s", request, answer)},
	}
	verdict, err := p.loop.Run(ctx, critic, messages)
	if err != nil {
		p.logger.Warn("critic pass failed", "error", err)
		return "", false
	}

	first, rest, _ := strings.Cut(strings.TrimSpace(verdict), "\n")
	if strings.EqualFold(strings.TrimSpace(first), "REVISE") {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// revise gives the specialist one shot at addressing the critique.
func (p *Pipeline) revise(ctx context.Context, profile *Profile, messages []provider.Message, answer, critique string) (string, error) {
	messages = append(messages,
		provider.Message{Role: "assistant", Content: answer},
		provider.Message{Role: "user", Content: "A reviewer raised these issues with your answer. Address them and give the corrected answer:\n" + critique},
	)
	return p.loop.Run(ctx, profile, messages)
}

func (p *Pipeline) appendSharedLog(profile, input, answer string) {
	entry := fmt.Sprintf("[%s] %s -> %s", profile, firstLine(input, 80), firstLine(answer, 120))
	p.sharedMu.Lock()
	p.sharedLog = append(p.sharedLog, entry)
	if len(p.sharedLog) > p.sharedSize {
		p.sharedLog = p.sharedLog[len(p.sharedLog)-p.sharedSize:]
	}
	p.sharedMu.Unlock()
}

func (p *Pipeline) sharedLogBlock() string {
	p.sharedMu.Lock()
	defer p.sharedMu.Unlock()
	if len(p.sharedLog) == 0 {
		return ""
	}
	return "## Recent Activity (all agents)\n" + strings.Join(p.sharedLog, "\n")
}

func firstLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
