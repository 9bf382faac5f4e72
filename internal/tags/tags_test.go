package tags

import (
	"testing"

	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFindsHashtags(t *testing.T) {
	cases := []struct {
		name  string
		texts []string
		want  []string
	}{
		{"none", []string{"a quiet walk"}, []string{}},
		{"single", []string{"coffee with #friends"}, []string{"#friends"}},
		{"punctuation terminates", []string{"#run, #swim! #bike."}, []string{"#run", "#swim", "#bike"}},
		{"underscore and digits", []string{"#day_1 #2024"}, []string{"#day_1", "#2024"}},
		{"japanese", []string{"今日は#散歩 と #カフェ と #ありがとう"}, []string{"#散歩", "#カフェ", "#ありがとう"}},
		{"bare hash ignored", []string{"# not a tag", "#"}, []string{}},
		{"dedup across texts", []string{"#sun", "more #sun", "#rain #sun"}, []string{"#sun", "#rain"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Extract(tc.texts...))
		})
	}
}

func TestExtractHasNoDuplicatesAndIgnoresInputOrder(t *testing.T) {
	inputs := []string{"#a #b #a", "#c #b", "plain", "#d #a"}
	reversed := []string{"#d #a", "plain", "#c #b", "#a #b #a"}

	forward := Extract(inputs...)
	backward := Extract(reversed...)

	seen := map[string]bool{}
	for _, tag := range forward {
		require.False(t, seen[tag], "duplicate tag %q", tag)
		seen[tag] = true
	}
	assert.ElementsMatch(t, forward, backward)
	assert.Len(t, forward, 4)
}

func TestExtractNeverReturnsNil(t *testing.T) {
	assert.NotNil(t, Extract())
	assert.NotNil(t, Extract(""))
}

func TestUniqueSortsAcrossEntries(t *testing.T) {
	entries := []models.Entry{
		{Tags: []string{"#walk", "#coffee"}},
		{Tags: []string{"#coffee"}},
		{Tags: nil},
		{Tags: []string{"#art"}},
	}
	assert.Equal(t, []string{"#art", "#coffee", "#walk"}, Unique(entries))
}

func TestFilterByTagsMatchesAnyTag(t *testing.T) {
	entries := []models.Entry{
		{EntryDate: "2024-01-01", Tags: []string{"#walk"}},
		{EntryDate: "2024-01-02", Tags: []string{"#coffee", "#art"}},
		{EntryDate: "2024-01-03"},
	}

	assert.Len(t, FilterByTags(entries, nil), 3)

	filtered := FilterByTags(entries, []string{"#art", "#walk"})
	require.Len(t, filtered, 2)
	assert.Equal(t, "2024-01-01", filtered[0].EntryDate)
	assert.Equal(t, "2024-01-02", filtered[1].EntryDate)

	assert.Empty(t, FilterByTags(entries, []string{"#none"}))
}
