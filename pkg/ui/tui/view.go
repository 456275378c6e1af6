package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gorobchenkoann/save-from-inst/pkg/media"
	"github.com/gorobchenkoann/save-from-inst/pkg/metadata"
)

const (
	// IntroText is shown until a post has been looked up
	IntroText = "You can download photos from Instagram using this app. To do this, copy the link to the post in Instagram and paste into the box below."

	// ErrorText is shown for any failed lookup
	ErrorText = "There is something wrong with this URL, try again."

	helpText = "enter fetch • tab select all • ctrl+d download • ctrl+t theme • esc quit"
)

// View renders the shell
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	contentWidth := min(width-2, 76)

	var sections []string
	sections = append(sections, m.styles.Title.Render("save-from-inst"))

	if m.state.Record == nil {
		sections = append(sections, m.styles.Intro.Width(contentWidth).Render(IntroText))
	}

	sections = append(sections, m.styles.Input.Render(m.input.View()))

	switch {
	case m.state.Loading:
		sections = append(sections, m.spinner.View()+" "+m.styles.Muted.Render("Fetching post..."))
	case m.state.HasError:
		sections = append(sections, m.styles.Error.Render(ErrorText))
	}

	if m.state.Record != nil {
		sections = append(sections, renderMedia(m.state.Record, m.state.Theme))
	}

	if m.tracker != nil {
		progress := m.tracker.ProgressBar()
		if m.downloading {
			progress = m.spinner.View() + " " + progress
		}
		sections = append(sections, m.styles.Label.Render(progress))
	}
	if len(m.logLines) > 0 {
		sections = append(sections, strings.Join(m.logLines, "\n"))
	}

	sections = append(sections, m.styles.Help.Render(helpText))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// renderMedia renders a classified post
func renderMedia(record *media.Record, theme Theme) string {
	styles := NewStyles(theme)

	var lines []string
	switch record.Kind {
	case media.KindImage:
		lines = append(lines, styles.Label.Render("Image"), styles.URL.Render(record.ImageURL))
	case media.KindVideo:
		lines = append(lines, styles.Label.Render("Video"), styles.URL.Render(record.VideoURL))
	case media.KindCarousel:
		lines = append(lines, styles.Label.Render(fmt.Sprintf("Carousel · %d slides", len(record.Slides))))
		for i, slide := range record.Slides {
			lines = append(lines, fmt.Sprintf("%2d. %-5s %s", i+1, slide.Kind, styles.URL.Render(slide.URL())))
		}
	default:
		lines = append(lines, styles.Error.Render(fmt.Sprintf("Unsupported media kind %q", record.Kind)))
	}

	if record.Caption != "" {
		lines = append(lines, "", styles.Caption.Render(metadata.FormattedCaption(record.Caption, 120)))
	}

	return styles.Panel.Render(strings.Join(lines, "\n"))
}
