package tools

import "time"

// RegisterBuiltins registers the built-in tool set on a registry.
// Returns the first registration error (duplicate names fail fast).
func RegisterBuiltins(reg *Registry, shellTimeout time.Duration) error {
	builtins := []Tool{
		NewReadFileTool(),
		NewListDirTool(),
		NewFindFilesTool(),
		NewWriteFileTool(),
		NewDeleteFileTool(),
		NewExecShellTool(shellTimeout),
		NewLaunchAppTool(),
		NewKillProcessTool(),
		NewReadClipboardTool(),
		NewWriteClipboardTool(),
	}
	for _, t := range builtins {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
