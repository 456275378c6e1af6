package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gorobchenkoann/save-from-inst/internal/downloader"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
	"github.com/gorobchenkoann/save-from-inst/pkg/scraper"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
)

const (
	// Placeholder is shown in the empty input
	Placeholder = "https://www.instagram.com/p/BqdB0YHgOri/"

	maxLogLines = 8
)

// Service looks up posts and downloads their media
type Service interface {
	Lookup(ctx context.Context, url string) (*media.Record, error)
	Download(ctx context.Context, record *media.Record, onResult func(downloader.Result)) (*scraper.Report, error)
}

// Model is the bubbletea model of the shell
type Model struct {
	ctx     context.Context
	service Service
	logger  logger.Logger

	state   State
	styles  Styles
	input   textinput.Model
	spinner spinner.Model

	// Download progress of the displayed record
	downloading bool
	tracker     *ui.StatusTracker
	events      chan tea.Msg
	logLines    []string

	width int
}

// NewModel creates the shell model
func NewModel(ctx context.Context, service Service, theme Theme, log logger.Logger) *Model {
	if log == nil {
		log = logger.NewNopLogger()
	}

	input := textinput.New()
	input.Placeholder = Placeholder
	input.Prompt = "› "
	input.CharLimit = 2048
	input.Width = 60
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		ctx:     ctx,
		service: service,
		logger:  log,
		state:   NewState(theme),
		input:   input,
		spinner: s,
	}
	m.applyTheme()
	return m
}

// Init starts the cursor blinking
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// State returns a copy of the current state
func (m *Model) State() State {
	return m.state
}

func (m *Model) applyTheme() {
	m.styles = NewStyles(m.state.Theme)
	m.spinner.Style = m.styles.Label
	m.input.PromptStyle = m.styles.Label
	m.input.PlaceholderStyle = m.styles.Muted
	m.input.TextStyle = m.styles.Intro
}

func (m *Model) addLogLine(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}
