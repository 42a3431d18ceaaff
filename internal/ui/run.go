package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows m until the user quits or ctx ends. Both are a normal return.
func Run(ctx context.Context, m Model, in io.Reader, out io.Writer) error {
	options := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if in != nil {
		options = append(options, tea.WithInput(in))
	}

	if out != nil {
		options = append(options, tea.WithOutput(out))
	}

	if _, err := tea.NewProgram(m, options...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("terminal ui: %w", err)
	}

	return nil
}
