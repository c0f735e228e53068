package services

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	nonAlphanumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
	currencyRegex      = regexp.MustCompile(`[₹$€£¥]`)
	firstNumberRegex   = regexp.MustCompile(`-?\d+\.?\d*`)
	firstIntegerRegex  = regexp.MustCompile(`\d+`)
	corporateStopWords = map[string]bool{
		"limited":      true,
		"ltd":          true,
		"pvt":          true,
		"private":      true,
		"company":      true,
		"corp":         true,
		"corporation":  true,
		"inc":          true,
		"incorporated": true,
	}
)

// UtilityService provides name normalization and number parsing shared by the resolver and checkers
type UtilityService struct{}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{}
}

// NormalizeIPOName lowercases, trims and collapses whitespace.
// This is also the resolution cache key.
func (s *UtilityService) NormalizeIPOName(name string) string {
	return whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}

// StripCorporateSuffixes removes punctuation and corporate stop words from a normalized name
func (s *UtilityService) StripCorporateSuffixes(name string) string {
	cleaned := nonAlphanumRegex.ReplaceAllString(s.NormalizeIPOName(name), " ")

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, word := range words {
		if !corporateStopWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// SignificantTokens returns the tokens longer than two characters of a stripped name
func (s *UtilityService) SignificantTokens(name string) []string {
	var tokens []string
	for _, token := range strings.Fields(s.StripCorporateSuffixes(name)) {
		if len(token) > 2 {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// NormalizeTextContent collapses whitespace in scraped text
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// ExtractNumeric extracts the first number from text with currency symbols and formatting
func (s *UtilityService) ExtractNumeric(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	text = currencyRegex.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.ReplaceAll(text, " ", "")

	match := firstNumberRegex.FindString(text)
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseShareCount extracts the first whole number, e.g. "Allotted 50 shares" gives 50
func (s *UtilityService) ParseShareCount(text string) (int, bool) {
	match := firstIntegerRegex.FindString(strings.ReplaceAll(text, ",", ""))
	if match == "" {
		return 0, false
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return value, true
}

// IsNotAvailable checks if a value is a placeholder rather than data
func (s *UtilityService) IsNotAvailable(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "-", "--", "n/a", "na", "nil", "null":
		return true
	default:
		return false
	}
}

// NumericValue coerces a decoded JSON value (number or numeric string) to float64
func (s *UtilityService) NumericValue(value interface{}) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case string:
		if s.IsNotAvailable(typed) {
			return 0, false
		}
		return s.ExtractNumeric(typed)
	default:
		return 0, false
	}
}

// StringValue renders a decoded JSON scalar as trimmed text
func (s *UtilityService) StringValue(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

func intPtr(value int) *int {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}
