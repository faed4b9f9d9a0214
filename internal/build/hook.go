package build

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/wstunnel/wsrelease/internal/domain"
	"github.com/wstunnel/wsrelease/internal/utils"
)

// HookRunner executes post-build hooks. Every hook receives four trailing
// positional arguments: architecture, operating system, ARM revision, and
// project name.
type HookRunner struct {
	dir    string
	logger *utils.Logger
}

// NewHookRunner creates a hook runner working in dir
func NewHookRunner(dir string, logger *utils.Logger) *HookRunner {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &HookRunner{
		dir:    dir,
		logger: logger.WithComponent("hook"),
	}
}

// Run renders the hook command template and executes it for one target. The
// rendered command is split on whitespace without shell quoting rules.
func (h *HookRunner) Run(ctx context.Context, command string, tc domain.TemplateContext, env []string) error {
	target := domain.Target{Os: tc.Os, Arch: tc.Arch, Arm: tc.Arm}

	rendered, err := tc.Apply("hook", command)
	if err != nil {
		return domain.NewHookError(command, target, err)
	}

	parts := strings.Fields(rendered)
	if len(parts) == 0 {
		return nil
	}
	args := append(parts[1:], HookArgs(tc)...)

	log := h.logger.WithTarget(target.String())
	log.Debug().Str("command", parts[0]).Strs("args", args).Msg("running post-build hook")

	cmd := exec.CommandContext(ctx, parts[0], args...)
	cmd.Dir = h.dir
	cmd.Env = append(os.Environ(), env...)

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		log.Debug().Str("output", strings.TrimSpace(string(output))).Msg("hook output")
	}
	if err != nil {
		return domain.NewHookError(command, target, err)
	}
	return nil
}

// HookArgs returns the positional arguments every hook receives, in order:
// architecture, operating system, ARM revision, project name.
func HookArgs(tc domain.TemplateContext) []string {
	return []string{tc.Arch, tc.Os, tc.Arm, tc.ProjectName}
}
