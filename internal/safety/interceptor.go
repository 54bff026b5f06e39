package safety

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/donna-agent/donna/internal/store"
	"github.com/donna-agent/donna/internal/tools"
)

// Default affirmative tokens. Only an exact match (after trimming and
// lowercasing) approves; everything else, including an empty line, is a
// denial.
var defaultAffirmatives = []string{"y", "yes"}

// Default danger keywords promoted to red regardless of static class.
var defaultRedKeywords = []string{"rm", "sudo", "del"}

// Prompter collects the user's answer for one confirmation. Ask must
// display the full pending invocation before reading input, so the user
// always sees exactly what will run. Ask returning an error counts as a
// denial.
type Prompter interface {
	Ask(ctx context.Context, req ConfirmRequest) (string, error)
}

// Verdict is the outcome of one authorization check.
type Verdict struct {
	Approved bool
	Risk     tools.RiskClass
	Reason   string
}

// Options configures an Interceptor.
type Options struct {
	Affirmatives   []string      // exact-match approval tokens; default {"y","yes"}
	RedKeywords    []string      // whole-word matches promote green to red
	MaxRedPerRun   int           // red executions allowed per session; 0 = unlimited
	ConfirmTimeout time.Duration // max wait for a response; 0 = wait until ctx cancel
}

// Interceptor is the safety gate. Every tool invocation passes through
// Authorize before execution; red invocations block on the user.
type Interceptor struct {
	confirms *Confirmations
	prompter Prompter
	store    *store.Store
	logger   *slog.Logger

	affirmatives map[string]bool
	redPattern   *regexp.Regexp
	timeout      time.Duration

	mu       sync.Mutex
	maxRed   int
	redCount int
}

// NewInterceptor builds the gate. Prompter may be nil, in which case
// every red invocation is denied (non-interactive mode fails closed).
func NewInterceptor(confirms *Confirmations, prompter Prompter, st *store.Store, logger *slog.Logger, opts Options) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	affirm := opts.Affirmatives
	if len(affirm) == 0 {
		affirm = defaultAffirmatives
	}
	set := make(map[string]bool, len(affirm))
	for _, a := range affirm {
		set[strings.ToLower(strings.TrimSpace(a))] = true
	}
	keywords := opts.RedKeywords
	if len(keywords) == 0 {
		keywords = defaultRedKeywords
	}
	return &Interceptor{
		confirms:     confirms,
		prompter:     prompter,
		store:        st,
		logger:       logger,
		affirmatives: set,
		redPattern:   compileKeywordPattern(keywords),
		timeout:      opts.ConfirmTimeout,
		maxRed:       opts.MaxRedPerRun,
	}
}

// compileKeywordPattern builds a case-insensitive whole-word alternation.
// Word boundaries keep "rm" from matching inside "format" or "alarm".
func compileKeywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Classify resolves the effective risk of one invocation. Order:
// profile override, then per-invocation dynamic classification, then the
// tool's static class (unclassified tools default red). A green result
// is still promoted to red when any string argument contains a danger
// keyword as a whole word.
func (i *Interceptor) Classify(t tools.Tool, params map[string]any, overrides map[string]tools.RiskClass) tools.RiskClass {
	risk, overridden := overrides[t.Name()]
	if !overridden {
		risk = tools.ToolRisk(t, params)
	}
	if risk == tools.RiskGreen && i.containsRedKeyword(params) {
		return tools.RiskRed
	}
	return risk
}

func (i *Interceptor) containsRedKeyword(params map[string]any) bool {
	if i.redPattern == nil {
		return false
	}
	// Deterministic scan order for stable logs.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := params[k].(string); ok && i.redPattern.MatchString(s) {
			return true
		}
	}
	return false
}

// Resolve maps a raw response line to an approval decision. Only an
// exact affirmative token (trimmed, lowercased) approves.
func (i *Interceptor) Resolve(response string) bool {
	return i.affirmatives[strings.ToLower(strings.TrimSpace(response))]
}

// RedBudgetLeft reports how many red executions remain, or -1 when
// unlimited.
func (i *Interceptor) RedBudgetLeft() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.maxRed <= 0 {
		return -1
	}
	left := i.maxRed - i.redCount
	if left < 0 {
		left = 0
	}
	return left
}

// ResetRedBudget clears the per-session red counter.
func (i *Interceptor) ResetRedBudget() {
	i.mu.Lock()
	i.redCount = 0
	i.mu.Unlock()
}

// Authorize gates one invocation. Green invocations pass immediately.
// Red invocations suspend on the user's answer; any answer that is not
// an exact affirmative token, a timeout, a cancellation, or an exhausted
// red budget all produce a denial. Authorize never executes anything.
func (i *Interceptor) Authorize(ctx context.Context, t tools.Tool, params map[string]any, profile string, overrides map[string]tools.RiskClass) Verdict {
	risk := i.Classify(t, params, overrides)
	if risk == tools.RiskGreen {
		return Verdict{Approved: true, Risk: risk}
	}

	i.mu.Lock()
	if i.maxRed > 0 && i.redCount >= i.maxRed {
		i.mu.Unlock()
		i.logger.Warn("red budget exhausted", "tool", t.Name(), "max", i.maxRed)
		return Verdict{Risk: risk, Reason: fmt.Sprintf("red action limit reached (%d this session)", i.maxRed)}
	}
	i.mu.Unlock()

	if i.prompter == nil {
		return Verdict{Risk: risk, Reason: "no interactive prompt available"}
	}

	req := &ConfirmRequest{Tool: t.Name(), Profile: profile, Arguments: params}
	id := i.confirms.Create(req)

	waitCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	go func() {
		response, err := i.prompter.Ask(waitCtx, *req)
		if err != nil {
			response = ""
		}
		_ = i.confirms.Respond(id, response)
	}()

	response, err := i.confirms.Wait(waitCtx, id)
	if err != nil {
		i.logger.Info("confirmation expired", "tool", t.Name(), "confirm_id", id)
		return Verdict{Risk: risk, Reason: "confirmation timed out"}
	}

	if !i.Resolve(response) {
		if i.store != nil {
			_ = i.store.ResolveApproval(context.Background(), id, store.ApprovalDenied)
		}
		i.logger.Info("invocation denied", "tool", t.Name(), "confirm_id", id)
		return Verdict{Risk: risk, Reason: "denied by user"}
	}

	i.mu.Lock()
	i.redCount++
	i.mu.Unlock()
	if i.store != nil {
		_ = i.store.ResolveApproval(context.Background(), id, store.ApprovalApproved)
	}
	i.logger.Info("invocation approved", "tool", t.Name(), "confirm_id", id)
	return Verdict{Approved: true, Risk: risk}
}

// FormatInvocation renders the literal pending invocation for display.
// The user must see exactly what will run before answering.
func FormatInvocation(tool string, params map[string]any) string {
	if len(params) == 0 {
		return tool + "()"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return fmt.Sprintf("%s(%s)", tool, strings.Join(parts, ", "))
}
