package orchestrator

import (
	"context"
	"errors"
	"slices"

	"github.com/bigbuild/buildwizard/internal/ui"
)

// prompter wraps a Selector with the trailing Exit/Back entry every menu carries.
type prompter struct {
	selector ui.Selector
}

// choose shows options plus a trailing Exit (first step) or Back entry. It returns back=true
// when the user picked the trailing entry or left the menu with esc. Ctrl+c is returned as
// domain.ErrUserCancelled.
func (p prompter) choose(
	ctx context.Context,
	title string,
	options []string,
	first bool,
	preferred ...string,
) (choice string, back bool, err error) {
	trailing := EntryBack
	if first {
		trailing = EntryExit
	}
	menu := make([]string, 0, len(options)+1)
	menu = append(menu, options...)
	menu = append(menu, trailing)
	idx, err := p.selector.Select(ctx, title, menu, defaultIndex(options, preferred...))
	if errors.Is(err, ui.ErrSelectionCancelled) {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}
	if idx < 0 || idx >= len(options) {
		return "", true, nil
	}
	return options[idx], false, nil
}

// confirm asks a yes/no question. Leaving the menu counts as no.
func (p prompter) confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	preferred := AnswerNo
	if defaultYes {
		preferred = AnswerYes
	}
	answer, back, err := p.choose(ctx, question, []string{AnswerYes, AnswerNo}, false, preferred)
	if err != nil {
		return false, err
	}
	return !back && answer == AnswerYes, nil
}

// defaultIndex returns the index of the first preferred value present in options, or 0.
func defaultIndex(options []string, preferred ...string) int {
	for _, p := range preferred {
		if p == "" {
			continue
		}
		if idx := slices.Index(options, p); idx >= 0 {
			return idx
		}
	}
	return 0
}
