package commands

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 3

// candidates implements fuzzy.Source.
type candidates []string

func (c candidates) String(i int) string { return c[i] }
func (c candidates) Len() int            { return len(c) }

// suggest returns up to maxSuggestions fuzzy matches for query, best first.
func suggest(query string, pool []string) []string {
	matches := fuzzy.FindFrom(strings.ToLower(query), candidates(pool))
	out := make([]string, 0, min(len(matches), maxSuggestions))
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, pool[m.Index])
	}
	return out
}

func unknownError(kind, query string, pool []string) error {
	if s := suggest(query, pool); len(s) > 0 {
		return fmt.Errorf("unknown %s %q (did you mean: %s?)", kind, query, strings.Join(s, ", "))
	}
	return fmt.Errorf("unknown %s %q", kind, query)
}
