// Package markup parses problem text into the content model.
//
// A problem is line oriented. The first line is the title slot:
//
//	#title (百人一首/ひゃくにんいっしゅ)
//
// A first line without the marker yields an empty title and is not typed.
// Every following non-blank line is one line to type. Inside a line:
//
//	\X             literal X
//	(BASE/READING) annotated segment; BASE is shown, READING is typed
//	/              ends the current plain run without emitting anything
//
// Any other character extends the current plain run. Parsing never fails;
// malformed annotations degrade into best-effort segments.
package markup

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/furitype/internal/model"
)

// TitleMarker prefixes the optional title on the first line.
const TitleMarker = "#title"

const (
	escapeRune    = '\\'
	openRune      = '('
	closeRune     = ')'
	separatorRune = '/'
)

// Parse converts problem text into Content.
func Parse(text string) model.Content {
	lines := splitLines(text)
	content := model.Content{}
	if title, ok := titleText(lines[0]); ok {
		content.Title = ParseLine(title)
	}
	for _, raw := range lines[1:] {
		if isBlank(raw) {
			continue
		}
		content.Lines = append(content.Lines, ParseLine(raw))
	}
	return content
}

// titleText strips every leading title marker from line.
func titleText(line string) (string, bool) {
	if !strings.HasPrefix(line, TitleMarker) {
		return "", false
	}
	for strings.HasPrefix(line, TitleMarker) {
		line = strings.TrimPrefix(line, TitleMarker)
	}
	return strings.TrimSpace(line), true
}

// ParseLine applies the inline grammar to a single line.
func ParseLine(line string) model.Line {
	runes := []rune(line)
	var segments []model.Segment
	var plain []rune
	flush := func() {
		if len(plain) > 0 {
			segments = append(segments, model.Plain{Text: string(plain)})
			plain = nil
		}
	}

	for pos := 0; pos < len(runes); {
		switch runes[pos] {
		case escapeRune:
			pos++
			if pos < len(runes) {
				plain = append(plain, runes[pos])
				pos++
			}
		case openRune:
			flush()
			seg, next := parseAnnotated(runes, pos)
			segments = append(segments, seg)
			pos = next
		case separatorRune:
			flush()
			pos++
		default:
			plain = append(plain, runes[pos])
			pos++
		}
	}
	flush()
	return model.Line{Segments: segments}
}

// parseAnnotated scans "(BASE/READING)" starting at the opening paren and
// returns the segment with the position just past it.
func parseAnnotated(runes []rune, start int) (model.Annotated, int) {
	pos := start + 1
	base, pos := scanUntil(runes, pos, separatorRune, closeRune)
	if pos < len(runes) && runes[pos] == separatorRune {
		pos++
	}
	reading, pos := scanUntil(runes, pos, closeRune)
	if pos < len(runes) && runes[pos] == closeRune {
		pos++
	}
	return model.Annotated{Base: base, Reading: reading}, pos
}

func scanUntil(runes []rune, pos int, stops ...rune) (string, int) {
	var out []rune
	for pos < len(runes) {
		r := runes[pos]
		if r == escapeRune {
			pos++
			if pos < len(runes) {
				out = append(out, runes[pos])
				pos++
			}
			continue
		}
		if containsRune(stops, r) {
			break
		}
		out = append(out, r)
		pos++
	}
	return string(out), pos
}

func containsRune(set []rune, r rune) bool {
	for _, s := range set {
		if s == r {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func isBlank(line string) bool {
	return strings.TrimFunc(line, unicode.IsSpace) == ""
}
