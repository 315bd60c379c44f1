// Package voice ranks the synthesis voices reported by a speech engine.
package voice

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Voice is a synthesis voice as reported by the host platform.
type Voice struct {
	Name      string // Human-readable name, e.g. "English (America)"
	Locale    string // BCP 47 style identifier, e.g. "en-US"
	Preferred bool   // Set by Rank when the voice matches the family
}

// String returns "Name (locale)".
func (v Voice) String() string {
	if v.Locale == "" {
		return v.Name
	}
	return v.Name + " (" + v.Locale + ")"
}

// Family describes the language family playback should prefer.
type Family struct {
	Prefix string // Locale prefix, e.g. "en"
	Name   string // Common spelling found in voice names, e.g. "English"
}

// English is the default family.
var English = Family{Prefix: "en", Name: "English"}

// Matches reports whether v belongs to the family.
func (f Family) Matches(v Voice) bool {
	if f.Prefix != "" && strings.HasPrefix(strings.ToLower(v.Locale), strings.ToLower(f.Prefix)) {
		return true
	}
	if f.Name != "" && strings.Contains(strings.ToLower(v.Name), strings.ToLower(f.Name)) {
		return true
	}
	return false
}

// Rank partitions voices into the ones matching the family followed by all
// others. Relative order inside each group is preserved. The input slice is
// not modified. The second result reports whether any voice matched.
func Rank(voices []Voice, family Family) ([]Voice, bool) {
	ranked := make([]Voice, 0, len(voices))
	var rest []Voice
	for _, v := range voices {
		v.Preferred = family.Matches(v)
		if v.Preferred {
			ranked = append(ranked, v)
		} else {
			rest = append(rest, v)
		}
	}
	matched := len(ranked) > 0
	return append(ranked, rest...), matched
}

// names adapts a voice list to fuzzy.Source.
type names []Voice

func (n names) String(i int) string { return n[i].String() }
func (n names) Len() int            { return len(n) }

// Find returns the index of the voice best matching query, or -1.
// An exact (case-insensitive) name or locale match wins over fuzzy matches.
func Find(voices []Voice, query string) int {
	query = strings.TrimSpace(query)
	if query == "" {
		return -1
	}
	for i, v := range voices {
		if strings.EqualFold(v.Name, query) || strings.EqualFold(v.Locale, query) {
			return i
		}
	}
	matches := fuzzy.FindFrom(query, names(voices))
	if len(matches) == 0 {
		return -1
	}
	return matches[0].Index
}
