package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/donna-agent/donna/internal/provider"
)

var tagPattern = regexp.MustCompile(`^@(\w+)\s*`)

// Router picks the specialist for a request. Resolution order: explicit
// @tag, keyword heuristic, model classification, then the default
// profile. The router never fails a request over routing; anything
// unresolvable lands on the default.
type Router struct {
	profiles *ProfileSet
	provider provider.LLMProvider
	logger   *slog.Logger

	keywordPatterns map[string]*regexp.Regexp
}

// NewRouter builds a router over a profile set. Provider may be nil,
// which disables the model classification stage.
func NewRouter(profiles *ProfileSet, p provider.LLMProvider, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	patterns := make(map[string]*regexp.Regexp)
	for _, prof := range profiles.All() {
		if len(prof.Keywords) == 0 {
			continue
		}
		quoted := make([]string, len(prof.Keywords))
		for i, k := range prof.Keywords {
			quoted[i] = regexp.QuoteMeta(k)
		}
		patterns[prof.Name] = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	}
	return &Router{
		profiles:        profiles,
		provider:        p,
		logger:          logger,
		keywordPatterns: patterns,
	}
}

// Route resolves the target profile and returns it with the input
// stripped of any routing tag.
func (r *Router) Route(ctx context.Context, input string) (*Profile, string) {
	input = strings.TrimSpace(input)

	if m := tagPattern.FindStringSubmatch(input); m != nil {
		if p := r.profiles.Get(strings.ToLower(m[1])); p != nil {
			return p, strings.TrimSpace(input[len(m[0]):])
		}
		// Unknown tag: leave it in place, the model may know what the
		// user meant.
	}

	// Keyword stage: most hits wins, declaration order breaks ties.
	best, bestHits := (*Profile)(nil), 0
	for _, p := range r.profiles.All() {
		pattern, ok := r.keywordPatterns[p.Name]
		if !ok {
			continue
		}
		hits := len(pattern.FindAllString(input, -1))
		if hits > bestHits {
			best, bestHits = p, hits
		}
	}
	if best != nil {
		r.logger.Debug("routed by keyword", "profile", best.Name, "hits", bestHits)
		return best, input
	}

	if p := r.classify(ctx, input); p != nil {
		return p, input
	}

	return r.profiles.Default(), input
}

// classify asks the model which specialist fits. Any malformed answer
// falls through to the default profile.
func (r *Router) classify(ctx context.Context, input string) *Profile {
	if r.provider == nil {
		return nil
	}

	var names []string
	var desc strings.Builder
	for _, p := range r.profiles.All() {
		names = append(names, p.Name)
		fmt.Fprintf(&desc, "- %s: %s\n", p.Name, p.Description)
	}

	resp, err := r.provider.Chat(ctx, &provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "system", Content: fmt.Sprintf(
				"Classify the user request. Available agents:\n%s\nRespond with JSON: {\"agent\": \"<name>\"}. Use one of: %s.",
				desc.String(), strings.Join(names, ", "))},
			{Role: "user", Content: input},
		},
		MaxTokens: 50,
		JSONMode:  true,
	})
	if err != nil {
		r.logger.Warn("router classification failed", "error", err)
		return nil
	}

	var out struct {
		Agent string `json:"agent"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &out); err != nil {
		r.logger.Warn("router returned malformed JSON", "content", resp.Content)
		return nil
	}
	p := r.profiles.Get(strings.ToLower(strings.TrimSpace(out.Agent)))
	if p != nil {
		r.logger.Debug("routed by model", "profile", p.Name)
	}
	return p
}

// extractJSONObject pulls the first {...} span out of model output that
// may be wrapped in prose or code fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}
