package policy

import (
	"regexp"
	"strings"
)

// Matcher tests text for membership of any keyword in a set.
type Matcher struct {
	re *regexp.Regexp
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// NewMatcher compiles a keyword set. Keywords match case-insensitively on word
// boundaries; a trailing "*" lets the keyword match as a word prefix.
func NewMatcher(keywords []string) (*Matcher, error) {
	alts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		stem := strings.HasSuffix(kw, "*")
		kw = strings.TrimSuffix(kw, "*")
		pattern := regexp.QuoteMeta(kw)
		pattern = strings.ReplaceAll(pattern, " ", `\s+`)
		if stem {
			pattern += `[\w']*`
		}
		alts = append(alts, pattern)
	}
	m := &Matcher{}
	if len(alts) == 0 {
		return m, nil
	}
	re, err := regexp.Compile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	if err != nil {
		return nil, err
	}
	m.re = re
	return m, nil
}

// Match reports whether text contains any keyword of the set.
func (m *Matcher) Match(text string) bool {
	if m == nil || m.re == nil {
		return false
	}
	return m.re.MatchString(normalize(text))
}

func normalize(text string) string {
	return apostrophes.Replace(strings.ToLower(text))
}
