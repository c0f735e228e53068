package services

import (
	"strings"
)

// ListingCandidate is one entry of a registrar's company list
type ListingCandidate struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// MatchStage names the ladder rung that produced a match
type MatchStage string

const (
	MatchExact       MatchStage = "exact"
	MatchContainment MatchStage = "containment"
	MatchStripped    MatchStage = "stripped_containment"
	MatchTokens      MatchStage = "token_overlap"
)

// tokenOverlapThreshold is the share of query tokens that must match
const tokenOverlapThreshold = 0.5

// NameMatcher maps a free-text IPO name onto a listing candidate.
// Rungs are tried in order across all candidates; the first rung with a hit wins.
type NameMatcher struct {
	utility *UtilityService
}

// NewNameMatcher creates a matcher
func NewNameMatcher(utility *UtilityService) *NameMatcher {
	if utility == nil {
		utility = NewUtilityService()
	}
	return &NameMatcher{utility: utility}
}

// Match runs the full ladder
func (m *NameMatcher) Match(query string, candidates []ListingCandidate) (ListingCandidate, MatchStage, bool) {
	return m.match(query, candidates, []MatchStage{MatchExact, MatchContainment, MatchStripped, MatchTokens})
}

// MatchOption runs only the exact and substring rungs used for form dropdowns
func (m *NameMatcher) MatchOption(query string, candidates []ListingCandidate) (ListingCandidate, bool) {
	candidate, _, ok := m.match(query, candidates, []MatchStage{MatchExact, MatchContainment})
	return candidate, ok
}

func (m *NameMatcher) match(query string, candidates []ListingCandidate, stages []MatchStage) (ListingCandidate, MatchStage, bool) {
	normalizedQuery := m.utility.NormalizeIPOName(query)
	if normalizedQuery == "" {
		return ListingCandidate{}, "", false
	}

	for _, stage := range stages {
		for _, candidate := range candidates {
			if m.matches(stage, normalizedQuery, candidate.Label) {
				return candidate, stage, true
			}
		}
	}
	return ListingCandidate{}, "", false
}

func (m *NameMatcher) matches(stage MatchStage, query, label string) bool {
	normalizedLabel := m.utility.NormalizeIPOName(label)
	if normalizedLabel == "" {
		return false
	}

	switch stage {
	case MatchExact:
		return normalizedLabel == query
	case MatchContainment:
		return containsEither(normalizedLabel, query)
	case MatchStripped:
		strippedLabel := m.utility.StripCorporateSuffixes(normalizedLabel)
		strippedQuery := m.utility.StripCorporateSuffixes(query)
		if strippedLabel == "" || strippedQuery == "" {
			return false
		}
		return containsEither(strippedLabel, strippedQuery)
	case MatchTokens:
		return tokenOverlap(m.utility.SignificantTokens(query), m.utility.SignificantTokens(normalizedLabel)) >= tokenOverlapThreshold
	default:
		return false
	}
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// tokenOverlap returns matched query tokens over total query tokens
func tokenOverlap(queryTokens, labelTokens []string) float64 {
	if len(queryTokens) == 0 || len(labelTokens) == 0 {
		return 0
	}

	matched := 0
	for _, queryToken := range queryTokens {
		for _, labelToken := range labelTokens {
			if containsEither(queryToken, labelToken) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
