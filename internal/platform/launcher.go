package platform

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// GrantInstructions is printed when no settings command is configured.
const GrantInstructions = `HabitLens needs usage access to read app usage.
Grant it with:

  habitlens access grant

then return to this session; access is re-checked automatically.`

// CommandLauncher opens the usage-access settings surface by starting a
// configured command. It returns as soon as the command has started.
type CommandLauncher struct {
	command []string
	out     io.Writer
}

// NewCommandLauncher creates a launcher for command, a whitespace-separated
// command line. An empty command prints GrantInstructions to out instead.
func NewCommandLauncher(command string, out io.Writer) *CommandLauncher {
	if out == nil {
		out = os.Stdout
	}
	return &CommandLauncher{command: strings.Fields(command), out: out}
}

// OpenUsageAccessSettings launches the settings surface.
func (l *CommandLauncher) OpenUsageAccessSettings(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(l.command) == 0 {
		_, err := fmt.Fprintln(l.out, GrantInstructions)
		return err
	}

	// Not tied to ctx: the settings surface outlives the request.
	cmd := exec.Command(l.command[0], l.command[1:]...)
	cmd.Stdout = l.out
	cmd.Stderr = l.out
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.command[0], err)
	}
	go cmd.Wait() //nolint:errcheck

	return nil
}
