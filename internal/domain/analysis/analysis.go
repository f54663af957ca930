// Package analysis mirrors the trigram analysis the catalog applies to the match field,
// so that backends without a native n-gram analyzer tokenize the same way.
package analysis

import (
	"fmt"
	"strings"
	"unicode"
)

// GramSize is the fixed n-gram length. min_gram == max_gram bounds worst-case
// fuzziness for longer strings to roughly three edits.
const GramSize = 3

// Strategy selects how the match field is split into trigrams.
type Strategy string

const (
	// StrategyTokenizer uses a dedicated ngram tokenizer restricted to a char class.
	StrategyTokenizer Strategy = "tokenizer"
	// StrategyFilter uses the standard tokenizer followed by an ngram token filter.
	StrategyFilter Strategy = "filter"
)

// CharClass restricts which characters the ngram tokenizer keeps.
type CharClass string

const (
	// CharClassLetters keeps letters only.
	CharClassLetters CharClass = "letter"
	// CharClassAlnum keeps letters and digits.
	CharClassAlnum CharClass = "letter_digit"
)

// Options describes the analysis chain of the match field.
type Options struct {
	Strategy  Strategy
	CharClass CharClass
	Lowercase bool
}

// Default returns the letters-only trigram tokenizer with lowercasing.
func Default() Options {
	return Options{Strategy: StrategyTokenizer, CharClass: CharClassLetters, Lowercase: true}
}

// Validate checks that strategy and char class are known.
func (o Options) Validate() error {
	switch o.Strategy {
	case StrategyTokenizer, StrategyFilter:
	default:
		return fmt.Errorf("unknown analysis strategy %q", o.Strategy)
	}
	switch o.CharClass {
	case CharClassLetters, CharClassAlnum:
	default:
		return fmt.Errorf("unknown char class %q", o.CharClass)
	}
	return nil
}

// TokenChars returns the token_chars list for the ngram tokenizer.
func (o Options) TokenChars() []string {
	if o.CharClass == CharClassAlnum {
		return []string{"letter", "digit"}
	}
	return []string{"letter"}
}

// Trigrams returns every trigram of text in position order (duplicates kept).
// Runs shorter than GramSize produce nothing.
func (o Options) Trigrams(text string) []string {
	if o.Lowercase {
		text = strings.ToLower(text)
	}
	keep := o.keepFunc()

	var grams []string
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !keep(r) }) {
		runes := []rune(word)
		for i := 0; i+GramSize <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+GramSize]))
		}
	}
	return grams
}

// DistinctTrigrams returns the unique trigrams of text in first-seen order.
func (o Options) DistinctTrigrams(text string) []string {
	all := o.Trigrams(text)
	seen := make(map[string]struct{}, len(all))
	out := all[:0]
	for _, g := range all {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

func (o Options) keepFunc() func(rune) bool {
	// The standard tokenizer keeps word characters regardless of the configured class.
	if o.Strategy == StrategyFilter || o.CharClass == CharClassAlnum {
		return func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
	}
	return unicode.IsLetter
}
