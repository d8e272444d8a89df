package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/furitype/internal/model"
	"github.com/verte-zerg/furitype/internal/typing"
)

// rubyCell is one unbreakable column group: a reading row above a base row.
type rubyCell struct {
	top     string
	bottom  string
	width   int
	isSpace bool
}

// lineView selects how a line is styled.
type lineView struct {
	// active marks the line under the cursor.
	active bool
	// context lines are rendered dim without correctness colours.
	context bool
}

// buildRubyCells lays out line li of tm. Annotated segments become a single
// cell with the reading centred over the base; plain text is one cell per
// character so it can wrap anywhere.
func buildRubyCells(tm typing.TypingModel, li int, view lineView) []rubyCell {
	if li < 0 || li >= len(tm.Content.Lines) {
		return nil
	}
	line := tm.Content.Lines[li]
	var cells []rubyCell
	for si, seg := range line.Segments {
		activeSeg := view.active && si == tm.Status.Segment
		switch s := seg.(type) {
		case model.Annotated:
			cells = append(cells, annotatedCell(tm, li, si, s, activeSeg, view))
		case model.Plain:
			for ci, r := range []rune(s.Text) {
				state := tm.Correctness.At(li, si, ci)
				style := charStyle(state, view, activeSeg && ci == tm.Status.Char, activeSeg)
				displayed := r
				if r == ' ' && state == typing.Incorrect && !view.context {
					displayed = '•'
				}
				w := max(runewidth.RuneWidth(displayed), 1)
				cells = append(cells, rubyCell{
					top:     strings.Repeat(" ", w),
					bottom:  style.Render(string(displayed)),
					width:   w,
					isSpace: r == ' ',
				})
			}
		}
	}
	return cells
}

func annotatedCell(tm typing.TypingModel, li, si int, s model.Annotated, activeSeg bool, view lineView) rubyCell {
	var top strings.Builder
	for ci, r := range []rune(s.Reading) {
		state := tm.Correctness.At(li, si, ci)
		top.WriteString(charStyle(state, view, activeSeg && ci == tm.Status.Char, activeSeg).Render(string(r)))
	}
	baseStyle := charStyle(tm.Correctness.SegmentState(li, si), view, false, activeSeg)
	bottom := baseStyle.Render(s.Base)

	width := max(runewidth.StringWidth(s.Base), runewidth.StringWidth(s.Reading), 1)
	return rubyCell{
		top:    lipgloss.PlaceHorizontal(width, lipgloss.Center, top.String()),
		bottom: lipgloss.PlaceHorizontal(width, lipgloss.Center, bottom),
		width:  width,
	}
}

func charStyle(state typing.CharState, view lineView, cursor, activeSeg bool) lipgloss.Style {
	if view.context {
		return contextStyle
	}
	switch state {
	case typing.Correct:
		return correctStyle
	case typing.Incorrect:
		if cursor {
			return incorrectStyle.Underline(true)
		}
		return incorrectStyle
	}
	if cursor {
		return cursorStyle
	}
	if activeSeg {
		return currentWordStyle
	}
	return pendingStyle
}

// wrapRubyCells breaks cells into rows no wider than width, preferring to
// break after a space. Every wrapped line yields a reading row and a base row.
func wrapRubyCells(cells []rubyCell, width int) []string {
	if len(cells) == 0 {
		return nil
	}
	if width <= 0 {
		return renderRubyCells(cells)
	}
	var out []string
	line := make([]rubyCell, 0, len(cells))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(cells); {
		item := cells[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out = append(out, renderRubyCells(line[:lastSpaceIdx+1])...)
				line = append([]rubyCell{}, line[lastSpaceIdx+1:]...)
			} else {
				out = append(out, renderRubyCells(line)...)
				line = line[:0]
			}
			lineWidth = lineWidthOf(line)
			lastSpaceIdx = lastSpaceIndex(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	return append(out, renderRubyCells(line)...)
}

func renderRubyCells(cells []rubyCell) []string {
	var top, bottom strings.Builder
	for _, c := range cells {
		top.WriteString(c.top)
		bottom.WriteString(c.bottom)
	}
	return []string{top.String(), bottom.String()}
}

func lineWidthOf(line []rubyCell) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []rubyCell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
