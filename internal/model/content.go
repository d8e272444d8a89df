// Package model defines shared data structures.
package model

import "strings"

// Content is a parsed problem: a title line and the lines to type.
type Content struct {
	Title Line
	Lines []Line
}

// Line is an ordered sequence of segments.
type Line struct {
	Segments []Segment
}

// String returns the displayed text of the line.
func (l Line) String() string {
	var b strings.Builder
	for _, seg := range l.Segments {
		b.WriteString(Display(seg))
	}
	return b.String()
}

// Segment is either Plain or Annotated.
type Segment interface {
	segment()
}

// Plain is text that is displayed and typed as written.
type Plain struct {
	Text string
}

// Annotated is base text displayed with a reading that is typed instead.
type Annotated struct {
	Base    string
	Reading string
}

func (Plain) segment()     {}
func (Annotated) segment() {}

// Display returns the text shown for a segment.
func Display(seg Segment) string {
	switch s := seg.(type) {
	case Plain:
		return s.Text
	case Annotated:
		return s.Base
	default:
		return ""
	}
}

// Target returns the characters the learner types for a segment.
func Target(seg Segment) []rune {
	switch s := seg.(type) {
	case Plain:
		return []rune(s.Text)
	case Annotated:
		return []rune(s.Reading)
	default:
		return nil
	}
}
