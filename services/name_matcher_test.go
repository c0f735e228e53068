package services

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestNameMatcher_Ladder(t *testing.T) {
	matcher := NewNameMatcher(nil)

	tests := []struct {
		name       string
		query      string
		candidates []ListingCandidate
		value      string
		stage      MatchStage
		found      bool
	}{
		{
			name:       "exact ignores case and spacing",
			query:      "  Midwest   LIMITED ",
			candidates: []ListingCandidate{{Label: "Midwest Gold", Value: "1"}, {Label: "Midwest Limited", Value: "42"}},
			value:      "42",
			stage:      MatchExact,
			found:      true,
		},
		{
			name:       "containment of query in label",
			query:      "Midwest",
			candidates: []ListingCandidate{{Label: "Eastern Limited", Value: "9"}, {Label: "Midwest Limited", Value: "42"}},
			value:      "42",
			stage:      MatchContainment,
			found:      true,
		},
		{
			name:       "stripped containment drops corporate suffixes",
			query:      "Sunrise Ltd.",
			candidates: []ListingCandidate{{Label: "Sunrise Industries Limited", Value: "17"}},
			value:      "17",
			stage:      MatchStripped,
			found:      true,
		},
		{
			name:       "token overlap at half the query tokens",
			query:      "Acme Solar Power",
			candidates: []ListingCandidate{{Label: "Acme Solaris Energy Private Limited", Value: "5"}},
			value:      "5",
			stage:      MatchTokens,
			found:      true,
		},
		{
			name:       "no match",
			query:      "Zenith Textiles",
			candidates: []ListingCandidate{{Label: "Midwest Limited", Value: "42"}},
			found:      false,
		},
		{
			name:       "empty query",
			query:      "   ",
			candidates: []ListingCandidate{{Label: "Midwest Limited", Value: "42"}},
			found:      false,
		},
		{
			name:       "earlier rung wins over earlier candidate",
			query:      "Midwest Limited",
			candidates: []ListingCandidate{{Label: "Midwest Limited SME", Value: "1"}, {Label: "Midwest Limited", Value: "42"}},
			value:      "42",
			stage:      MatchExact,
			found:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, stage, ok := matcher.Match(tt.query, tt.candidates)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.value, candidate.Value)
				assert.Equal(t, tt.stage, stage)
			}
		})
	}
}

func TestNameMatcher_MatchOptionStopsAtContainment(t *testing.T) {
	matcher := NewNameMatcher(nil)
	candidates := []ListingCandidate{{Label: "Acme Solaris Energy Private Limited", Value: "5"}}

	_, ok := matcher.MatchOption("Acme Solar Power", candidates)
	assert.False(t, ok)

	candidate, ok := matcher.MatchOption("acme solaris", candidates)
	assert.True(t, ok)
	assert.Equal(t, "5", candidate.Value)
}

func TestNameMatcherProperties(t *testing.T) {
	matcher := NewNameMatcher(nil)
	properties := gopter.NewProperties(nil)

	properties.Property("a listed name always resolves to its own value through the exact rung", prop.ForAll(
		func(words []string) bool {
			label := strings.Join(words, " ")
			candidates := []ListingCandidate{
				{Label: "zz placeholder entry", Value: "0"},
				{Label: label, Value: "target"},
			}
			candidate, stage, ok := matcher.Match(strings.ToUpper(label), candidates)
			return ok && stage == MatchExact && candidate.Value == "target"
		},
		gen.SliceOfN(3, gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 3 })),
	))

	properties.Property("matching is insensitive to surrounding whitespace", prop.ForAll(
		func(name string, padding int) bool {
			candidates := []ListingCandidate{{Label: name, Value: "v"}}
			padded := strings.Repeat(" ", padding) + name + strings.Repeat(" ", padding)
			_, _, plain := matcher.Match(name, candidates)
			_, _, spaced := matcher.Match(padded, candidates)
			return plain == spaced
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}
