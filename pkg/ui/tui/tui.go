package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
)

// Run starts the interactive shell and blocks until the user quits or ctx
// is cancelled
func Run(ctx context.Context, service Service, theme Theme, log logger.Logger) error {
	model := NewModel(ctx, service, theme, log)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("interactive shell failed: %w", err)
	}
	return nil
}
