package typing

import "github.com/verte-zerg/furitype/internal/model"

// CharState is the correctness of one target character.
type CharState int

const (
	// Pending characters have not been committed yet.
	Pending CharState = iota
	// Correct characters were committed without a miss.
	Correct
	// Incorrect characters saw at least one wrong keystroke.
	Incorrect
)

func (s CharState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// Correctness mirrors Content with one state per target character.
type Correctness struct {
	Lines []CorrectnessLine
}

// CorrectnessLine mirrors a content line.
type CorrectnessLine struct {
	Segments []CorrectnessSegment
}

// CorrectnessSegment mirrors a segment's typing target.
type CorrectnessSegment struct {
	Chars []CharState
}

// NewCorrectness builds an all-pending overlay shaped like content.
func NewCorrectness(content model.Content) Correctness {
	lines := make([]CorrectnessLine, len(content.Lines))
	for i, line := range content.Lines {
		segments := make([]CorrectnessSegment, len(line.Segments))
		for j, seg := range line.Segments {
			segments[j] = CorrectnessSegment{Chars: make([]CharState, len(model.Target(seg)))}
		}
		lines[i] = CorrectnessLine{Segments: segments}
	}
	return Correctness{Lines: lines}
}

// Shape returns the number of cells per segment, per line.
func (c Correctness) Shape() [][]int {
	shape := make([][]int, len(c.Lines))
	for i, line := range c.Lines {
		shape[i] = make([]int, len(line.Segments))
		for j, seg := range line.Segments {
			shape[i][j] = len(seg.Chars)
		}
	}
	return shape
}

// At returns the state of a cell, or Pending when the indices are out of range.
func (c Correctness) At(line, segment, char int) CharState {
	cells := c.cells(line, segment)
	if char < 0 || char >= len(cells) {
		return Pending
	}
	return cells[char]
}

// SegmentState summarizes a segment: Incorrect if any cell is, Correct if
// all cells are, Pending otherwise.
func (c Correctness) SegmentState(line, segment int) CharState {
	cells := c.cells(line, segment)
	state := Correct
	for _, cell := range cells {
		switch cell {
		case Incorrect:
			return Incorrect
		case Pending:
			state = Pending
		}
	}
	return state
}

func (c Correctness) cells(line, segment int) []CharState {
	if line < 0 || line >= len(c.Lines) {
		return nil
	}
	segs := c.Lines[line].Segments
	if segment < 0 || segment >= len(segs) {
		return nil
	}
	return segs[segment].Chars
}

func (c Correctness) clone() Correctness {
	lines := make([]CorrectnessLine, len(c.Lines))
	for i, line := range c.Lines {
		segments := make([]CorrectnessSegment, len(line.Segments))
		for j, seg := range line.Segments {
			segments[j] = CorrectnessSegment{Chars: append([]CharState(nil), seg.Chars...)}
		}
		lines[i] = CorrectnessLine{Segments: segments}
	}
	return Correctness{Lines: lines}
}
