package typing

import "time"

// KeyInput feeds one keystroke, timestamped by the model's clock.
func KeyInput(m TypingModel, key rune) Model {
	clock := m.clock
	if clock == nil {
		clock = SystemClock{}
	}
	return KeyInputAt(m, key, clock.Now())
}

// KeyInputAt feeds one keystroke typed at the given time.
//
// The returned Model is a ResultModel once the last character of the last
// line is committed. A model whose cursor is already past the end is
// returned unchanged.
func KeyInputAt(m TypingModel, key rune, at time.Time) Model {
	if m.Finished() {
		return m
	}
	target := m.ActiveTarget()
	if m.Status.Char < 0 || m.Status.Char >= len(target) {
		return m
	}

	session := m.sessionFor(at)
	correct, finished := m.match(target, key)
	m.Sessions[session].Inputs = append(m.Sessions[session].Inputs, Input{Key: key, At: at, Correct: correct})

	if finished {
		return ResultModel{Typing: m}
	}
	return m
}

// sessionFor returns the index of the session that records a keystroke at
// time at, opening a new one when needed.
func (m *TypingModel) sessionFor(at time.Time) int {
	n := len(m.Sessions)
	if n > 0 {
		last := m.Sessions[n-1]
		if last.Line == m.Status.Line && len(last.Inputs) > 0 && at.Sub(last.End()) <= SessionGap {
			return n - 1
		}
	}
	m.Sessions = append(m.Sessions, Session{Line: m.Status.Line})
	return n
}

// match applies key against the active target and reports whether it was
// accepted and whether the content is now complete.
func (m *TypingModel) match(target []rune, key rune) (correct, finished bool) {
	pending := m.Status.Unconfirmed
	var span int
	var complete bool
	if m.Layout != nil {
		m.Layout.Each(func(k, enc []rune) bool {
			if !hasPrefixAt(target, m.Status.Char, k) {
				return true
			}
			if len(enc) <= len(pending) || !hasPrefixAt(enc, 0, pending) {
				return true
			}
			if enc[len(pending)] != key {
				return true
			}
			correct = true
			span = len(k)
			complete = len(enc) == len(pending)+1
			return false
		})
	}

	if !correct {
		m.Status.LastWrong = key
		m.Status.HasLastWrong = true
		m.markWrong()
		return false, false
	}

	m.Status.HasLastWrong = false
	if !complete {
		m.Status.Unconfirmed = append(m.Status.Unconfirmed, key)
		return true, false
	}
	m.commit(span)
	m.Status.Char += span
	m.Status.Unconfirmed = nil
	if m.Status.Char < len(target) {
		return true, false
	}
	return true, m.advance()
}

func (m *TypingModel) markWrong() {
	cells := m.Correctness.cells(m.Status.Line, m.Status.Segment)
	if m.Status.Char < len(cells) {
		cells[m.Status.Char] = Incorrect
	}
}

// commit marks span cells from the cursor. A miss anywhere in the span marks
// all of it Incorrect.
func (m *TypingModel) commit(span int) {
	cells := m.Correctness.cells(m.Status.Line, m.Status.Segment)
	end := m.Status.Char + span
	if end > len(cells) {
		end = len(cells)
	}
	state := Correct
	for _, c := range cells[m.Status.Char:end] {
		if c == Incorrect {
			state = Incorrect
			break
		}
	}
	for i := m.Status.Char; i < end; i++ {
		cells[i] = state
	}
}

// advance moves to the next typeable segment and reports whether none is left.
func (m *TypingModel) advance() bool {
	line, seg, ok := nextTypeable(m.Content, m.Status.Line, m.Status.Segment+1)
	if !ok {
		m.Status = Status{Line: len(m.Content.Lines)}
		return true
	}
	if line != m.Status.Line {
		m.Scroll.Offset = m.Scroll.Max
	}
	m.Status = Status{Line: line, Segment: seg}
	return false
}

func hasPrefixAt(s []rune, at int, prefix []rune) bool {
	if at+len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if s[at+i] != r {
			return false
		}
	}
	return true
}

