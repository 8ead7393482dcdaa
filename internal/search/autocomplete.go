package search

import (
	"sort"
	"strings"

	"librolink/internal/model"
)

type suggestion struct {
	text   string
	prefix bool
}

// Autocomplete matches the query case-insensitively against title, author,
// category and genre across all books. Prefix matches rank before substring
// matches, ties break on shorter strings, results are deduplicated and
// truncated to limit.
func Autocomplete(query string, books []model.Book, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	seen := map[string]bool{}
	var matches []suggestion
	for _, b := range books {
		for _, field := range []string{b.Title, b.Author, b.Category, b.Genre} {
			if field == "" {
				continue
			}
			lower := strings.ToLower(field)
			key := lower
			if seen[key] || !strings.Contains(lower, q) {
				continue
			}
			seen[key] = true
			matches = append(matches, suggestion{
				text:   field,
				prefix: strings.HasPrefix(lower, q),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		if len(matches[i].text) != len(matches[j].text) {
			return len(matches[i].text) < len(matches[j].text)
		}
		return matches[i].text < matches[j].text
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.text
	}
	return out
}
