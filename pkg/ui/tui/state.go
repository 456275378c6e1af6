package tui

import (
	"strings"

	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

// Theme is one of the two color palettes
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme maps a config value to a Theme, defaulting to dark
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeLight)) {
		return ThemeLight
	}
	return ThemeDark
}

// Toggle returns the other theme
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// FetchRequest asks for url to be fetched. Token identifies the submission
// so that only the latest result is applied.
type FetchRequest struct {
	Token uint64
	URL   string
}

// State is everything the shell displays. It is changed only through the
// On* transitions and is never persisted.
//
// HasError and Record are never both set.
type State struct {
	Input    string
	Theme    Theme
	HasError bool
	Record   *media.Record
	Loading  bool

	selected  bool
	lastToken uint64
}

// NewState returns the startup state
func NewState(theme Theme) State {
	return State{Theme: theme}
}

// OnInputChange replaces the input value
func (s *State) OnInputChange(text string) {
	s.Input = text
}

// OnInputFocus selects the whole input: the next typed text replaces it and
// a deletion clears it
func (s *State) OnInputFocus() {
	s.selected = true
}

// Selected reports whether the input is currently selected
func (s *State) Selected() bool {
	return s.selected
}

// ReplaceSelected overwrites a selected input with text and drops the
// selection. It reports false and changes nothing when nothing is selected.
func (s *State) ReplaceSelected(text string) bool {
	if !s.selected {
		return false
	}
	s.selected = false
	s.Input = text
	return true
}

// ClearSelection drops the selection, keeping the input
func (s *State) ClearSelection() {
	s.selected = false
}

// OnSubmit returns a fetch request for the current input. An empty input is
// a no-op.
func (s *State) OnSubmit() (FetchRequest, bool) {
	url := strings.TrimSpace(s.Input)
	if url == "" {
		return FetchRequest{}, false
	}

	s.lastToken++
	s.Loading = true
	return FetchRequest{Token: s.lastToken, URL: url}, true
}

// OnToggleTheme flips between dark and light
func (s *State) OnToggleTheme() {
	s.Theme = s.Theme.Toggle()
}

// OnFetchSuccess shows record if token belongs to the latest submission.
// It reports whether the result was applied.
func (s *State) OnFetchSuccess(token uint64, record *media.Record) bool {
	if token != s.lastToken {
		return false
	}
	s.Loading = false
	s.Record = record
	s.HasError = false
	return true
}

// OnFetchFailure flags the error and clears the previous record if token
// belongs to the latest submission. It reports whether the result was
// applied.
func (s *State) OnFetchFailure(token uint64, _ error) bool {
	if token != s.lastToken {
		return false
	}
	s.Loading = false
	s.Record = nil
	s.HasError = true
	return true
}
