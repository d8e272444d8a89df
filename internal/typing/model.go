// Package typing implements the keystroke matching state machine.
//
// A TypingModel tracks the cursor inside parsed content, the romaji typed so
// far for the current key, per-character correctness and a log of keystrokes
// grouped into sessions. KeyInput consumes the model and returns either the
// next TypingModel or, after the last character, a ResultModel.
package typing

import (
	"time"

	"github.com/verte-zerg/furitype/internal/layout"
	"github.com/verte-zerg/furitype/internal/model"
)

// SessionGap is the longest pause between keystrokes that stays in one session.
const SessionGap = 1000 * time.Millisecond

// Status is the cursor inside the content.
type Status struct {
	Line    int
	Segment int
	// Char is the rune offset into the active segment's target.
	Char int
	// Unconfirmed holds keys typed toward the current key's encoding.
	Unconfirmed []rune
	// LastWrong is the most recent rejected key, valid when HasLastWrong.
	LastWrong    rune
	HasLastWrong bool
}

// Input is one recorded keystroke.
type Input struct {
	Key     rune
	At      time.Time
	Correct bool
}

// Session is a run of keystrokes on one line without a long pause.
type Session struct {
	Line   int
	Inputs []Input
}

// Start returns the timestamp of the first keystroke.
func (s Session) Start() time.Time {
	if len(s.Inputs) == 0 {
		return time.Time{}
	}
	return s.Inputs[0].At
}

// End returns the timestamp of the last keystroke.
func (s Session) End() time.Time {
	if len(s.Inputs) == 0 {
		return time.Time{}
	}
	return s.Inputs[len(s.Inputs)-1].At
}

// Duration is the time between the first and last keystroke.
func (s Session) Duration() time.Duration {
	return s.End().Sub(s.Start())
}

// Scroll is the vertical position of the typing view.
type Scroll struct {
	Offset float64
	Max    float64
}

// Model is either a TypingModel or a ResultModel.
type Model interface {
	isModel()
}

// TypingModel is the in-progress state.
//
// KeyInput takes ownership of the model it is given; callers keep only the
// returned value. Use Clone to retain a snapshot.
type TypingModel struct {
	Content     model.Content
	Status      Status
	Sessions    []Session
	Correctness Correctness
	Layout      *layout.Layout
	Scroll      Scroll

	clock Clock
}

// ResultModel wraps the final typing state.
type ResultModel struct {
	Typing TypingModel
}

func (TypingModel) isModel() {}
func (ResultModel) isModel() {}

// Option customizes New.
type Option func(*TypingModel)

// WithClock sets the clock used by KeyInput.
func WithClock(c Clock) Option {
	return func(m *TypingModel) {
		m.clock = c
	}
}

// WithScroll sets the initial scroll limit.
func WithScroll(max float64) Option {
	return func(m *TypingModel) {
		m.Scroll = Scroll{Offset: max, Max: max}
	}
}

// New returns a model positioned on the first typeable character.
func New(content model.Content, l *layout.Layout, opts ...Option) TypingModel {
	m := TypingModel{
		Content:     content,
		Correctness: NewCorrectness(content),
		Layout:      l,
		clock:       SystemClock{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	line, seg, ok := nextTypeable(content, 0, 0)
	if !ok {
		m.Status.Line = len(content.Lines)
		return m
	}
	m.Status.Line = line
	m.Status.Segment = seg
	return m
}

// Resize updates the scroll limit, keeping the offset inside it.
func Resize(m TypingModel, max float64) TypingModel {
	if max < 0 {
		max = 0
	}
	m.Scroll.Max = max
	if m.Scroll.Offset > max {
		m.Scroll.Offset = max
	}
	if m.Scroll.Offset < 0 {
		m.Scroll.Offset = 0
	}
	return m
}

// Finished reports whether the cursor has moved past the last line.
func (m TypingModel) Finished() bool {
	return m.Status.Line >= len(m.Content.Lines)
}

// CurrentLine returns the line under the cursor.
func (m TypingModel) CurrentLine() (model.Line, bool) {
	if m.Status.Line < 0 || m.Status.Line >= len(m.Content.Lines) {
		return model.Line{}, false
	}
	return m.Content.Lines[m.Status.Line], true
}

// ActiveSegment returns the segment under the cursor.
func (m TypingModel) ActiveSegment() (model.Segment, bool) {
	line, ok := m.CurrentLine()
	if !ok || m.Status.Segment < 0 || m.Status.Segment >= len(line.Segments) {
		return nil, false
	}
	return line.Segments[m.Status.Segment], true
}

// ActiveTarget returns the typing target of the active segment.
func (m TypingModel) ActiveTarget() []rune {
	seg, ok := m.ActiveSegment()
	if !ok {
		return nil
	}
	return model.Target(seg)
}

// Clone returns a deep copy that later KeyInput calls cannot affect.
func (m TypingModel) Clone() TypingModel {
	out := m
	out.Status.Unconfirmed = append([]rune(nil), m.Status.Unconfirmed...)
	out.Sessions = make([]Session, len(m.Sessions))
	for i, s := range m.Sessions {
		out.Sessions[i] = Session{Line: s.Line, Inputs: append([]Input(nil), s.Inputs...)}
	}
	out.Correctness = m.Correctness.clone()
	return out
}

// nextTypeable finds the first segment at or after (line, seg) with a
// non-empty target.
func nextTypeable(content model.Content, line, seg int) (int, int, bool) {
	for ; line < len(content.Lines); line, seg = line+1, 0 {
		segments := content.Lines[line].Segments
		for ; seg < len(segments); seg++ {
			if len(model.Target(segments[seg])) > 0 {
				return line, seg, true
			}
		}
	}
	return 0, 0, false
}
