package keyword

import (
	"errors"
	"regexp"
	"slices"
	"strings"
)

// Matches free-form text against a fixed set of literal substrings, ignoring case.
//
// Terms are quoted before being compiled, so "john f" matches literally (including the space)
// and characters like "/" or "." have no special meaning.
type SubstringMatcher struct {
	terms []string
	re    *regexp.Regexp
}

func NewSubstringMatcher(terms []string) (*SubstringMatcher, error) {
	clean := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if !slices.Contains(clean, t) {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return nil, errors.New("substring matcher requires at least one non-empty term")
	}
	quoted := make([]string, len(clean))
	for i, t := range clean {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re, err := regexp.Compile("(?i)" + strings.Join(quoted, "|"))
	if err != nil {
		return nil, err
	}
	return &SubstringMatcher{terms: clean, re: re}, nil
}

// Returns the configured term behind the leftmost match in text, or an empty string.
func (m *SubstringMatcher) FindMatch(text string) string {
	hit := m.re.FindString(text)
	if hit == "" {
		return ""
	}
	for _, t := range m.terms {
		if strings.EqualFold(t, hit) {
			return t
		}
	}
	return hit
}

func (m *SubstringMatcher) Match(text string) bool {
	return m.re.MatchString(text)
}

func (m *SubstringMatcher) Terms() []string {
	return slices.Clone(m.terms)
}
