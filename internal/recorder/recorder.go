// Package recorder implements session recording and skill synthesis.
// The user demonstrates a workflow in the terminal; the recorder
// captures each (command, output) pair, and on the stop token asks the
// model to compress the demonstration into a reusable skill.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/donna-agent/donna/internal/provider"
	"github.com/donna-agent/donna/internal/skills"
	"github.com/donna-agent/donna/internal/store"

	"github.com/google/uuid"
)

// ErrSynthesisFailed indicates the model produced an empty or malformed
// skill. The registry is left untouched in that case.
var ErrSynthesisFailed = errors.New("skill synthesis failed")

// StopToken ends a recording and triggers synthesis. Matching is exact
// after trimming and lowercasing, same as confirmation tokens.
const StopToken = "stop"

// State of one recorder instance.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateSynthesizing
	StateComplete
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateSynthesizing:
		return "synthesizing"
	case StateComplete:
		return "complete"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Step is one captured command and its output.
type Step struct {
	Command string `json:"command"`
	Output  string `json:"output"`
}

// Tap is the source of demonstrated steps. Next blocks until the user
// runs another command; it returns io.EOF when the terminal disconnects.
type Tap interface {
	Next(ctx context.Context) (Step, error)
}

// Outcome is the result of one recording run.
type Outcome struct {
	RecordingID string
	State       State
	Steps       []Step
	Skill       *skills.Skill
}

// Options configures a Recorder.
type Options struct {
	Provider provider.LLMProvider
	Skills   *skills.Manager
	Store    *store.Store
	Logger   *slog.Logger
	// BufferSize bounds the step channel between producer and consumer.
	BufferSize int
}

// Recorder drives the capture and synthesis state machine. The recorder
// goroutine is the only writer of the step list; the tap producer only
// feeds the channel.
type Recorder struct {
	provider provider.LLMProvider
	skills   *skills.Manager
	store    *store.Store
	logger   *slog.Logger
	bufSize  int

	mu    sync.Mutex
	state State
}

// New creates a recorder.
func New(opts Options) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Recorder{
		provider: opts.Provider,
		skills:   opts.Skills,
		store:    opts.Store,
		logger:   logger,
		bufSize:  bufSize,
		state:    StateIdle,
	}
}

// State returns the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Record captures steps from the tap until the stop token, then
// synthesizes and registers a skill. Context cancellation or a tap
// disconnect aborts the recording; nothing is registered on abort.
func (r *Recorder) Record(ctx context.Context, tap Tap) (*Outcome, error) {
	r.mu.Lock()
	if r.state == StateRecording || r.state == StateSynthesizing {
		r.mu.Unlock()
		return nil, errors.New("a recording is already in progress")
	}
	r.state = StateRecording
	r.mu.Unlock()

	outcome := &Outcome{RecordingID: uuid.NewString(), State: StateRecording}
	r.logger.Info("recording started", "recording_id", outcome.RecordingID)

	steps, err := r.capture(ctx, tap)
	outcome.Steps = steps
	if err != nil {
		r.setState(StateAborted)
		outcome.State = StateAborted
		r.persist(outcome)
		return outcome, err
	}

	r.setState(StateSynthesizing)
	outcome.State = StateSynthesizing

	skill, err := r.synthesize(ctx, outcome.RecordingID, steps)
	if err != nil {
		r.setState(StateAborted)
		outcome.State = StateAborted
		r.persist(outcome)
		return outcome, err
	}

	if err := r.skills.Register(ctx, skill); err != nil {
		r.setState(StateAborted)
		outcome.State = StateAborted
		r.persist(outcome)
		return outcome, err
	}

	r.setState(StateComplete)
	outcome.State = StateComplete
	outcome.Skill = skill
	r.persist(outcome)
	r.logger.Info("recording complete", "recording_id", outcome.RecordingID, "skill", skill.Name, "steps", len(steps))
	return outcome, nil
}

// capture runs the tap producer and the collecting consumer over a
// bounded channel until the stop token, a disconnect, or cancellation.
func (r *Recorder) capture(ctx context.Context, tap Tap) ([]Step, error) {
	ch := make(chan Step, r.bufSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		for {
			step, err := tap.Next(gctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return errors.New("terminal disconnected before stop token")
				}
				return err
			}
			if strings.ToLower(strings.TrimSpace(step.Command)) == StopToken {
				return nil
			}
			select {
			case ch <- step:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var steps []Step
	g.Go(func() error {
		for step := range ch {
			steps = append(steps, step)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return steps, fmt.Errorf("recording aborted: %w", err)
	}
	if len(steps) == 0 {
		return steps, errors.New("recording aborted: no steps captured")
	}
	return steps, nil
}

const synthesisPrompt = `You convert a recorded terminal session into one reusable shell script.
Given the (command, output) pairs the user demonstrated, produce a generalized script that reproduces the workflow.
Respond with JSON only: {"name": "<lowercase_snake_case>", "description": "<one sentence>", "script": "<shell script>"}.`

// synthesize asks the model to compress the steps into a skill. Any
// transport error, malformed payload, or invalid skill aborts with
// ErrSynthesisFailed.
func (r *Recorder) synthesize(ctx context.Context, recordingID string, steps []Step) (*skills.Skill, error) {
	stepsJSON, err := json.MarshalIndent(steps, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	resp, err := r.provider.Chat(ctx, &provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "system", Content: synthesisPrompt},
			{Role: "user", Content: string(stepsJSON)},
		},
		MaxTokens: 2048,
		JSONMode:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrSynthesisFailed)
	}

	skill, err := skills.Parse(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	skill.RecordingID = recordingID
	return skill, nil
}

// persist writes the finalized recording row. Best-effort; a storage
// failure here does not change the outcome.
func (r *Recorder) persist(outcome *Outcome) {
	if r.store == nil {
		return
	}
	stepsJSON, _ := json.Marshal(outcome.Steps)
	if err := r.store.SaveRecording(context.Background(), outcome.RecordingID, outcome.State.String(), string(stepsJSON)); err != nil {
		r.logger.Warn("recording persist failed", "recording_id", outcome.RecordingID, "error", err)
	}
}
