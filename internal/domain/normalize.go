package domain

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultPrefixPattern matches the boilerplate that opens official warning
// headlines, e.g. "Amtliche Unwetterwarnung vor ORKANBÖEN" or
// "Official warning of Thunderstorm".
const DefaultPrefixPattern = `(?i)^\s*(amtliche\s+(unwetter)?warnung\s+vor|official\s+(severe\s+weather\s+)?warning\s+of)\s+`

var (
	defaultNormalizer = &Normalizer{prefix: regexp.MustCompile(DefaultPrefixPattern)}

	whitespaceRe = regexp.MustCompile(`\s+`)

	// contentNoise removes list bullets and sentence punctuation, which differ
	// between NINA (newline + "·" bullets) and DWD (semicolon lists).
	contentNoise = strings.NewReplacer("·", " ", "•", " ", ".", " ", ";", " ")
)

// Normalizer derives comparison keys from free text.
type Normalizer struct {
	prefix *regexp.Regexp
}

// NewNormalizer compiles a headline prefix pattern. An empty pattern uses DefaultPrefixPattern.
func NewNormalizer(pattern string) (*Normalizer, error) {
	if pattern == "" {
		return defaultNormalizer, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile warning prefix pattern: %w", err)
	}
	return &Normalizer{prefix: re}, nil
}

// GroupKey returns the key headlines are grouped by: the official-warning
// prefix is removed, whitespace collapsed and the result lower-cased.
func (n *Normalizer) GroupKey(headline string) string {
	s := norm.NFC.String(headline)
	s = n.prefix.ReplaceAllString(s, "")
	return collapse(s)
}

// ContentKey returns the key description and instruction texts are compared by.
// Two texts are duplicates iff their content keys are equal.
func (n *Normalizer) ContentKey(text string) string {
	if text == "" {
		return ""
	}
	s := norm.NFC.String(text)
	s = contentNoise.Replace(s)
	return collapse(s)
}

// GroupKey derives a headline grouping key using DefaultPrefixPattern.
func GroupKey(headline string) string {
	return defaultNormalizer.GroupKey(headline)
}

// ContentKey derives a description/instruction comparison key.
func ContentKey(text string) string {
	return defaultNormalizer.ContentKey(text)
}

func collapse(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}
