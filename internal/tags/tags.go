// Package tags extracts and filters hashtag tokens in entry text.
package tags

import (
	"regexp"
	"slices"
	"sort"

	"github.com/anonto42/three-good-things/backend/internal/models"
)

// A tag is '#' followed by word characters or Hiragana, Katakana and Kanji.
var hashtagPattern = regexp.MustCompile(`#[\w\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FFF}]+`)

// Extract returns each distinct hashtag found across texts once, in order of
// first appearance. It never returns nil.
func Extract(texts ...string) []string {
	seen := make(map[string]struct{})
	found := make([]string, 0)
	for _, text := range texts {
		for _, tag := range hashtagPattern.FindAllString(text, -1) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			found = append(found, tag)
		}
	}
	return found
}

// Unique returns the sorted set of tags used across entries.
func Unique(entries []models.Entry) []string {
	seen := make(map[string]struct{})
	for _, entry := range entries {
		for _, tag := range entry.Tags {
			seen[tag] = struct{}{}
		}
	}
	unique := make([]string, 0, len(seen))
	for tag := range seen {
		unique = append(unique, tag)
	}
	sort.Strings(unique)
	return unique
}

// FilterByTags keeps entries carrying at least one of the given tags. An
// empty tag list keeps every entry.
func FilterByTags(entries []models.Entry, wanted []string) []models.Entry {
	if len(wanted) == 0 {
		return entries
	}
	filtered := make([]models.Entry, 0, len(entries))
	for _, entry := range entries {
		for _, tag := range wanted {
			if slices.Contains(entry.Tags, tag) {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered
}
