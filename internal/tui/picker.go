package tui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/verte-zerg/furitype/internal/problems"
)

type problemItem struct {
	problem problems.Problem
}

func (i problemItem) Title() string {
	if i.problem.Title != "" {
		return i.problem.Title
	}
	return i.problem.Name
}

func (i problemItem) Description() string {
	return i.problem.Name + " · " + i.problem.Source()
}

func (i problemItem) FilterValue() string {
	return i.problem.Name + " " + i.problem.Title
}

func problemItems(found []problems.Problem) []list.Item {
	items := make([]list.Item, 0, len(found))
	for _, p := range found {
		items = append(items, problemItem{problem: p})
	}
	return items
}

func newPicker(items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Problems"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	return l
}
