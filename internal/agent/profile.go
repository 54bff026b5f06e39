package agent

import "github.com/donna-agent/donna/internal/tools"

// Profile defines one specialist agent: its system prompt, the tools it
// may call, and per-tool risk overrides applied by the safety gate.
type Profile struct {
	Name         string
	Description  string
	SystemPrompt string
	// AllowedTools restricts the registry surface. nil means all tools.
	AllowedTools []string
	// RiskOverrides force a classification for specific tools under this
	// profile, e.g. the critic never gets an auto-approved shell.
	RiskOverrides map[string]tools.RiskClass
	// Keywords drive the router's heuristic stage.
	Keywords []string
	// Model overrides the provider default for this profile. Optional.
	Model string
}

const baseConduct = `
Rules:
- Prefer the smallest action that answers the request.
- Never chain destructive operations without checking intermediate results.
- When a tool result contains an error, explain it and adjust; do not retry blindly.
- Answer in plain text, no markdown tables.`

// DefaultProfiles returns the built-in specialists. Order matters: the
// router tries keyword matches in this order and the first profile is
// the fallback.
func DefaultProfiles() []*Profile {
	return []*Profile{
		{
			Name:        "coder",
			Description: "Software tasks: reading, writing, and debugging code",
			SystemPrompt: `You are a pragmatic software engineer working in the user's terminal.
You read code before changing it, make minimal edits, and verify with read-only commands where possible.` + baseConduct,
			Keywords: []string{
				"code", "bug", "fix", "function", "compile", "build", "test",
				"refactor", "script", "error", "debug", "implement",
			},
		},
		{
			Name:        "sysadmin",
			Description: "System tasks: processes, packages, disks, services",
			SystemPrompt: `You are a careful system administrator working in the user's terminal.
You inspect state with read-only commands before changing anything, and you explain what a risky command will do before proposing it.` + baseConduct,
			Keywords: []string{
				"install", "process", "kill", "service", "disk", "memory",
				"cpu", "network", "port", "package", "permission", "cron",
			},
		},
		{
			Name:        "critic",
			Description: "Reviews another agent's answer before it reaches the user",
			SystemPrompt: `You review another agent's answer for correctness and safety.
If the answer is acceptable reply with APPROVE on the first line.
If not, reply with REVISE on the first line followed by specific, actionable criticism.
You never execute anything yourself.`,
			// The critic only reads; anything else is forced through confirmation.
			AllowedTools: []string{"read_file", "list_dir", "find_files"},
			RiskOverrides: map[string]tools.RiskClass{
				"execute_shell": tools.RiskRed,
			},
			Keywords: []string{"review", "critique", "verify", "audit"},
		},
	}
}

// ProfileSet indexes profiles by name preserving declaration order.
type ProfileSet struct {
	byName map[string]*Profile
	order  []*Profile
}

// NewProfileSet builds a set. Later duplicates are ignored.
func NewProfileSet(profiles []*Profile) *ProfileSet {
	s := &ProfileSet{byName: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		if _, exists := s.byName[p.Name]; exists {
			continue
		}
		s.byName[p.Name] = p
		s.order = append(s.order, p)
	}
	return s
}

// Get returns the named profile or nil.
func (s *ProfileSet) Get(name string) *Profile { return s.byName[name] }

// All returns profiles in declaration order.
func (s *ProfileSet) All() []*Profile { return s.order }

// Default returns the first profile in the set.
func (s *ProfileSet) Default() *Profile {
	if len(s.order) == 0 {
		return nil
	}
	return s.order[0]
}
