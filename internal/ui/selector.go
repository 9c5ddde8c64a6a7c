// Package ui holds the interactive selector and user-facing console output.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/bigbuild/buildwizard/internal/domain"
)

// ErrSelectionCancelled is returned when the user leaves a menu with esc or q.
var ErrSelectionCancelled = errors.New("selection cancelled")

// Selector lets the user pick one of options. It returns the chosen index,
// ErrSelectionCancelled, or domain.ErrUserCancelled on ctrl+c.
type Selector interface {
	Select(ctx context.Context, title string, options []string, defaultIndex int) (int, error)
}

type selectorOutcome int

const (
	outcomePending selectorOutcome = iota
	outcomeConfirmed
	outcomeCancelled
	outcomeInterrupted
)

// SelectorModel is the bubbletea model behind TeaSelector.
type SelectorModel struct {
	title   string
	options []string
	cursor  int
	outcome selectorOutcome
}

// NewSelectorModel creates a model with the cursor on defaultIndex, or 0 when out of range.
func NewSelectorModel(title string, options []string, defaultIndex int) SelectorModel {
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}
	return SelectorModel{title: title, options: options, cursor: defaultIndex}
}

// Init implements tea.Model.
func (m SelectorModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Cursor moves wrap around in both directions.
func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(m.options) == 0 {
		return m, nil
	}
	n := len(m.options)
	switch key.String() {
	case "up", "k", "shift+tab":
		m.cursor = (m.cursor - 1 + n) % n
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % n
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = n - 1
	case "enter":
		m.outcome = outcomeConfirmed
		return m, tea.Quit
	case "esc", "q":
		m.outcome = outcomeCancelled
		return m, tea.Quit
	case "ctrl+c":
		m.outcome = outcomeInterrupted
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m SelectorModel) View() string {
	if m.outcome != outcomePending {
		return ""
	}
	highlight := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	var b strings.Builder
	b.WriteString(color.New(color.Bold).Sprint(m.title))
	b.WriteString("\n\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(highlight("> " + opt))
		} else {
			b.WriteString("  " + opt)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dim("↑/↓ move • enter select • esc back • ctrl+c quit"))
	b.WriteString("\n")
	return b.String()
}

// Cursor returns the highlighted index.
func (m SelectorModel) Cursor() int {
	return m.cursor
}

// Result returns the confirmed index or the cancellation error.
func (m SelectorModel) Result() (int, error) {
	switch m.outcome {
	case outcomeConfirmed:
		return m.cursor, nil
	case outcomeInterrupted:
		return -1, domain.ErrUserCancelled
	default:
		return -1, ErrSelectionCancelled
	}
}

// TeaSelector renders menus full-screen with bubbletea.
type TeaSelector struct {
	In        io.Reader
	Out       io.Writer
	AltScreen bool
}

// NewTeaSelector creates a selector on the process terminal.
func NewTeaSelector() *TeaSelector {
	return &TeaSelector{AltScreen: true}
}

// Select implements Selector.
func (s *TeaSelector) Select(ctx context.Context, title string, options []string, defaultIndex int) (int, error) {
	if err := validateOptions(options); err != nil {
		return -1, err
	}
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if s.In != nil {
		opts = append(opts, tea.WithInput(s.In))
	}
	if s.Out != nil {
		opts = append(opts, tea.WithOutput(s.Out))
	}
	if s.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	final, err := tea.NewProgram(NewSelectorModel(title, options, defaultIndex), opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return -1, domain.ErrUserCancelled
		}
		return -1, fmt.Errorf("failed to run selector: %w", err)
	}
	model, ok := final.(SelectorModel)
	if !ok {
		return -1, fmt.Errorf("unexpected selector model %T", final)
	}
	return model.Result()
}

func validateOptions(options []string) error {
	if len(options) == 0 {
		return fmt.Errorf("selector needs at least one option")
	}
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if _, dup := seen[o]; dup {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = struct{}{}
	}
	return nil
}
