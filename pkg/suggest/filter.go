package suggest

import "github.com/bastiangx/mentionserve/internal/utils"

// Filter returns the subset of items matching query, preserving input order.
// Matching is a case-insensitive substring check against either the key or
// the label. An empty query matches everything. Pure function, no side
// effects.
func Filter(items []Suggestion, query string) []Suggestion {
	if query == "" {
		return items
	}
	var matched []Suggestion
	for _, item := range items {
		if utils.StringContainsIgnoreCase(item.Key(), query) ||
			utils.StringContainsIgnoreCase(item.Label(), query) {
			matched = append(matched, item)
		}
	}
	return matched
}

// StripTrigger splits an editor input like "@que" or "+que" into the
// suggestion kind and the bare query. Returns false when the input does not
// start with a trigger character.
func StripTrigger(input string) (Kind, string, bool) {
	if input == "" {
		return 0, "", false
	}
	switch input[0] {
	case '@':
		return KindMention, input[1:], true
	case '+':
		return KindCrossPost, input[1:], true
	}
	return 0, "", false
}
