// Package layout holds the key-to-encodings table used to match keystrokes.
package layout

import (
	"sort"
	"unicode/utf8"
)

// Entry maps a cluster of target characters to its accepted encodings.
type Entry struct {
	Key       string
	Encodings []string
}

// Layout is an immutable, ordered mapping from keys to encodings.
//
// Entries are ordered longest key first; keys of equal length keep the order
// in which they were supplied. Encodings keep their supplied order. Candidate
// selection in the typing engine follows this order.
type Layout struct {
	name    string
	entries []Entry
	runes   []runeEntry
	index   map[string]int
}

type runeEntry struct {
	key       []rune
	encodings [][]rune
}

// New builds a Layout from entries. Empty keys and empty encodings are dropped;
// a repeated key merges its encodings into the first occurrence.
func New(name string, entries []Entry) *Layout {
	l := &Layout{name: name, index: map[string]int{}}
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		encodings := make([]string, 0, len(e.Encodings))
		for _, enc := range e.Encodings {
			if enc != "" {
				encodings = append(encodings, enc)
			}
		}
		if len(encodings) == 0 {
			continue
		}
		if i, ok := l.index[e.Key]; ok {
			l.entries[i].Encodings = appendUnique(l.entries[i].Encodings, encodings)
			continue
		}
		l.index[e.Key] = len(l.entries)
		l.entries = append(l.entries, Entry{Key: e.Key, Encodings: encodings})
	}
	sort.SliceStable(l.entries, func(i, j int) bool {
		return utf8.RuneCountInString(l.entries[i].Key) > utf8.RuneCountInString(l.entries[j].Key)
	})
	l.runes = make([]runeEntry, len(l.entries))
	for i, e := range l.entries {
		l.index[e.Key] = i
		re := runeEntry{key: []rune(e.Key), encodings: make([][]rune, len(e.Encodings))}
		for j, enc := range e.Encodings {
			re.encodings[j] = []rune(enc)
		}
		l.runes[i] = re
	}
	return l
}

// Name identifies the layout, e.g. the file it was loaded from.
func (l *Layout) Name() string {
	return l.name
}

// Len returns the number of keys.
func (l *Layout) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the entries in match order.
func (l *Layout) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = Entry{Key: e.Key, Encodings: append([]string(nil), e.Encodings...)}
	}
	return out
}

// Keys returns all keys in match order.
func (l *Layout) Keys() []string {
	keys := make([]string, len(l.entries))
	for i, e := range l.entries {
		keys[i] = e.Key
	}
	return keys
}

// Encodings returns the encodings accepted for key.
func (l *Layout) Encodings(key string) ([]string, bool) {
	i, ok := l.index[key]
	if !ok {
		return nil, false
	}
	return append([]string(nil), l.entries[i].Encodings...), true
}

// Each calls fn for every (key, encoding) pair in match order until fn
// returns false. The slices passed to fn are shared and must not be modified.
func (l *Layout) Each(fn func(key, encoding []rune) bool) {
	for _, e := range l.runes {
		for _, enc := range e.encodings {
			if !fn(e.key, enc) {
				return
			}
		}
	}
}

// Covers reports whether target can be split entirely into layout keys.
func (l *Layout) Covers(target []rune) bool {
	reachable := make([]bool, len(target)+1)
	reachable[0] = true
	for i := 0; i < len(target); i++ {
		if !reachable[i] {
			continue
		}
		for _, e := range l.runes {
			if hasPrefixAt(target, i, e.key) {
				reachable[i+len(e.key)] = true
			}
		}
	}
	return reachable[len(target)]
}

func hasPrefixAt(target []rune, at int, key []rune) bool {
	if at+len(key) > len(target) {
		return false
	}
	for i, r := range key {
		if target[at+i] != r {
			return false
		}
	}
	return true
}

func appendUnique(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
