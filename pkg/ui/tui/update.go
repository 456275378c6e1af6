package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gorobchenkoann/save-from-inst/internal/downloader"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
	"github.com/gorobchenkoann/save-from-inst/pkg/scraper"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
)

// Message types for the shell

// FetchResultMsg carries the outcome of a submitted lookup
type FetchResultMsg struct {
	Token  uint64
	Record *media.Record
	Err    error
}

// DownloadResultMsg is sent as each file of a download finishes. Record is
// the record being downloaded.
type DownloadResultMsg struct {
	Record *media.Record
	Result downloader.Result
}

// DownloadDoneMsg is sent once a download has finished
type DownloadDoneMsg struct {
	Record *media.Record
	Report *scraper.Report
	Err    error
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = min(60, max(20, msg.Width-8))
		return m, nil

	case spinner.TickMsg:
		if !m.state.Loading && !m.downloading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case FetchResultMsg:
		m.applyFetchResult(msg)
		return m, nil

	case DownloadResultMsg:
		m.applyDownloadResult(msg)
		return m, waitForEvent(m.events)

	case DownloadDoneMsg:
		m.finishDownload(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+t":
		m.state.OnToggleTheme()
		m.applyTheme()
		return m, nil

	case "tab":
		m.state.OnInputFocus()
		m.input.Focus()
		m.input.CursorEnd()
		return m, nil

	case "enter":
		m.state.ClearSelection()
		m.state.OnInputChange(m.input.Value())
		req, ok := m.state.OnSubmit()
		if !ok {
			return m, nil
		}
		m.logger.WithFields(map[string]interface{}{
			"url":   req.URL,
			"token": req.Token,
		}).Debug("Submitting lookup")
		return m, tea.Batch(m.fetch(req), m.spinner.Tick)

	case "ctrl+d":
		return m, m.startDownload()
	}

	if m.state.Selected() {
		switch msg.Type {
		case tea.KeyRunes, tea.KeySpace:
			m.state.ReplaceSelected(string(msg.Runes))
			m.input.SetValue(m.state.Input)
			m.input.CursorEnd()
			return m, nil
		case tea.KeyBackspace, tea.KeyDelete, tea.KeyCtrlH:
			m.state.ReplaceSelected("")
			m.input.SetValue("")
			return m, nil
		default:
			m.state.ClearSelection()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state.OnInputChange(m.input.Value())
	return m, cmd
}

// fetch runs the lookup off the update loop
func (m *Model) fetch(req FetchRequest) tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		record, err := service.Lookup(ctx, req.URL)
		return FetchResultMsg{Token: req.Token, Record: record, Err: err}
	}
}

func (m *Model) applyFetchResult(msg FetchResultMsg) {
	log := m.logger.WithField("token", msg.Token)

	if msg.Err != nil {
		if !m.state.OnFetchFailure(msg.Token, msg.Err) {
			log.Debug("Discarding stale lookup failure")
			return
		}
		log.WithError(msg.Err).Debug("Lookup failed")
		return
	}

	if !m.state.OnFetchSuccess(msg.Token, msg.Record) {
		log.Debug("Discarding stale lookup result")
		return
	}
	// A new record starts with a clean download log
	m.logLines = nil
	m.tracker = nil
}

// startDownload downloads the displayed record. Results stream back through
// m.events one message at a time.
func (m *Model) startDownload() tea.Cmd {
	record := m.state.Record
	if record == nil || m.downloading {
		return nil
	}

	total := len(record.Items())
	events := make(chan tea.Msg, total+1)
	m.events = events
	m.downloading = true
	m.tracker = ui.NewStatusTracker(total)
	m.logLines = nil
	m.addLogLine(fmt.Sprintf("Downloading %d file(s)...", total))

	ctx, service := m.ctx, m.service
	go func() {
		defer close(events)
		report, err := service.Download(ctx, record, func(r downloader.Result) {
			events <- DownloadResultMsg{Record: record, Result: r}
		})
		events <- DownloadDoneMsg{Record: record, Report: report, Err: err}
	}()

	return tea.Batch(waitForEvent(events), m.spinner.Tick)
}

// waitForEvent returns the next message from ch
func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) applyDownloadResult(msg DownloadResultMsg) {
	r := msg.Result
	if msg.Record != m.state.Record {
		// The displayed record changed while this download was running
		m.logger.WithField("file", r.Job.Filename).Debug("Download result for a replaced record")
		return
	}
	if m.tracker != nil {
		m.tracker.Record(r.Success, r.Skipped, r.Size)
	}

	switch {
	case r.Skipped:
		m.addLogLine(m.styles.Muted.Render("• exists  " + r.Job.Filename))
	case r.Success:
		m.addLogLine(m.styles.Success.Render(fmt.Sprintf("✓ saved   %s (%s)", r.Job.Filename, ui.FormatBytes(r.Size))))
	default:
		m.addLogLine(m.styles.Error.Render("✗ failed  " + r.Job.Filename))
		m.logger.WithError(r.Error).WithField("file", r.Job.Filename).Debug("Download failed")
	}
}

func (m *Model) finishDownload(msg DownloadDoneMsg) {
	m.downloading = false
	m.events = nil

	if msg.Record != m.state.Record {
		m.logger.Debug("Download for a replaced record finished")
		return
	}
	if msg.Report != nil && m.tracker != nil {
		m.addLogLine(fmt.Sprintf("%s → %s", m.tracker.Summary(), msg.Report.Dir))
	}
	if msg.Err != nil {
		m.logger.WithError(msg.Err).Debug("Download finished with errors")
		if msg.Report == nil {
			m.addLogLine(m.styles.Error.Render("Download failed, see the log file for details."))
		}
	}
}
