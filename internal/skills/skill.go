// Package skills turns recorded terminal sessions into reusable tools.
// A skill is a shell script synthesized by the model; it is always
// red-classified because its body is machine-generated.
package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/donna-agent/donna/internal/tools"
)

// Skill is one synthesized automation.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Script      string `json:"script"`
	RecordingID string `json:"recording_id,omitempty"`
}

var skillNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,47}$`)

// Validate checks a synthesized skill is well formed. Anything the
// model produced that fails here aborts synthesis; a broken skill never
// reaches the registry.
func (s *Skill) Validate() error {
	if !skillNamePattern.MatchString(s.Name) {
		return fmt.Errorf("invalid skill name %q (want lowercase snake_case, 2-48 chars)", s.Name)
	}
	if strings.TrimSpace(s.Script) == "" {
		return errors.New("skill script is empty")
	}
	if strings.TrimSpace(s.Description) == "" {
		return errors.New("skill description is empty")
	}
	return nil
}

// Parse decodes a model synthesis result. The payload must be a JSON
// object with name, description, and script fields.
func Parse(raw string) (*Skill, error) {
	raw = extractJSONObject(raw)
	var s Skill
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("malformed synthesis output: %w", err)
	}
	s.Name = strings.ToLower(strings.TrimSpace(s.Name))
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

// skillTool adapts a Skill to the tool interface. Statically red: the
// user confirms every run of a synthesized script.
type skillTool struct {
	skill  *Skill
	runner *tools.ExecShellTool
}

// NewTool wraps a skill as a registerable tool.
func NewTool(s *Skill, runner *tools.ExecShellTool) tools.Tool {
	if runner == nil {
		runner = tools.NewExecShellTool(0)
	}
	return &skillTool{skill: s, runner: runner}
}

func (t *skillTool) Name() string          { return t.skill.Name }
func (t *skillTool) Risk() tools.RiskClass { return tools.RiskRed }

func (t *skillTool) Description() string {
	return fmt.Sprintf("%s (learned skill)", t.skill.Description)
}

func (t *skillTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"args": map[string]any{
				"type":        "string",
				"description": "Optional arguments appended to the skill script",
			},
		},
	}
}

func (t *skillTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	command := t.skill.Script
	if args := tools.GetString(params, "args", ""); args != "" {
		command += " " + args
	}
	result, failure := t.runner.Run(ctx, command, "")
	if failure != nil {
		return fmt.Sprintf("Error: %v\n%s", failure, result), nil
	}
	return result, nil
}
