package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/donna-agent/donna/internal/agent"
	"github.com/donna-agent/donna/internal/config"
	"github.com/donna-agent/donna/internal/memory"
	"github.com/donna-agent/donna/internal/provider"
	"github.com/donna-agent/donna/internal/recorder"
	"github.com/donna-agent/donna/internal/safety"
	"github.com/donna-agent/donna/internal/session"
	"github.com/donna-agent/donna/internal/skills"
	"github.com/donna-agent/donna/internal/store"
	"github.com/donna-agent/donna/internal/system"
	"github.com/donna-agent/donna/internal/tools"
)

// app holds the wired-up runtime shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	registry *tools.Registry
	gate     *safety.Interceptor
	feedback *memory.FeedbackStore
	sessions *session.Manager
	skills   *skills.Manager
	provider provider.LLMProvider
	profiles *agent.ProfileSet
	pipeline *agent.Pipeline
	recorder *recorder.Recorder
	shell    *tools.ExecShellTool
	stdin    *lineReader
}

// newApp loads config and wires the full runtime. Every command goes
// through here so behavior is identical between chat, run, and record.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	st, err := store.Open(filepath.Join(cfg.Paths.DataDir, "donna.db"), logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	shellTimeout := time.Duration(cfg.Tools.ShellTimeoutSeconds) * time.Second
	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry, shellTimeout); err != nil {
		st.Close()
		return nil, err
	}

	shell := tools.NewExecShellTool(shellTimeout)
	skillMgr := skills.NewManager(st, registry, shell, logger)
	if _, err := skillMgr.LoadAll(ctx); err != nil {
		logger.Warn("loading stored skills failed", "error", err)
	}

	prov, err := buildProvider(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	// One reader owns stdin: the REPL and the confirmation prompter
	// share it so neither can strand a blocked read on the other.
	stdin := newLineReader(os.Stdin)
	gate := safety.NewInterceptor(
		safety.NewConfirmations(st),
		&terminalPrompter{in: stdin, out: os.Stdout},
		st, logger,
		safety.Options{
			Affirmatives:   cfg.Safety.Affirmatives,
			RedKeywords:    cfg.Safety.RedKeywords,
			MaxRedPerRun:   cfg.Safety.MaxRedPerSession,
			ConfirmTimeout: time.Duration(cfg.Safety.ConfirmTimeoutSeconds) * time.Second,
		})

	feedback := memory.NewFeedbackStore(st, logger)
	sessions := session.NewManager(cfg.Paths.DataDir)
	profiles := agent.NewProfileSet(agent.DefaultProfiles())

	loop := agent.NewLoop(agent.LoopOptions{
		Provider:    prov,
		Registry:    registry,
		Gate:        gate,
		Logger:      logger,
		Hooks:       terminalHooks(),
		MaxCycles:   cfg.Agent.MaxCycles,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
	})
	router := agent.NewRouter(profiles, prov, logger)
	pipeline := agent.NewPipeline(agent.PipelineOptions{
		Router:        router,
		Loop:          loop,
		Profiles:      profiles,
		Feedback:      feedback,
		Sessions:      sessions,
		System:        &system.Prober{},
		Logger:        logger,
		CriticEnabled: cfg.Agent.CriticEnabled,
	})
	rec := recorder.New(recorder.Options{
		Provider: prov,
		Skills:   skillMgr,
		Store:    st,
		Logger:   logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		registry: registry,
		gate:     gate,
		feedback: feedback,
		sessions: sessions,
		skills:   skillMgr,
		provider: prov,
		profiles: profiles,
		pipeline: pipeline,
		recorder: rec,
		shell:    shell,
		stdin:    stdin,
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func buildProvider(cfg *config.Config) (provider.LLMProvider, error) {
	switch strings.ToLower(cfg.Provider.Backend) {
	case "", "groq":
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("no API key configured: set provider.apiKey in %s or export GROQ_API_KEY", config.ConfigDir)
		}
		return provider.NewGroqProvider(cfg.Provider.APIKey, cfg.Provider.Model), nil
	case "ollama":
		return provider.NewOllamaProvider(cfg.Provider.Host, cfg.Provider.Model), nil
	case "openai":
		return provider.NewOpenAIProvider(cfg.Provider.APIKey, cfg.Provider.APIBase, cfg.Provider.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider backend %q", cfg.Provider.Backend)
	}
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

// terminalHooks prints loop progress the way the REPL shows it.
func terminalHooks() agent.Hooks {
	dim := color.New(color.Faint)
	return agent.Hooks{
		OnThought: func(content string) {
			dim.Printf("  %s\n", firstLineOf(content, 160))
		},
		OnToolCall: func(name string, args map[string]any) {
			color.Cyan("  -> %s", safety.FormatInvocation(name, args))
		},
		OnToolResult: func(name, result string) {
			dim.Printf("  <- %s (%d bytes)\n", name, len(result))
		},
		OnDenied: func(name, reason string) {
			color.Yellow("  x  %s blocked: %s", name, reason)
		},
	}
}

func firstLineOf(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
