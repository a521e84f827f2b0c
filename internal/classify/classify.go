// Package classify infers boolean amenity features from event text.
//
// Classification is a pure function over title+description: lowercase the
// text, test each feature's keyword list, then apply contextual refinements
// that reduce false positives from weak signals. Features are independent
// booleans, never mutually exclusive; absence of keywords yields false.
package classify

import (
	"strings"
	"unicode"

	"github.com/mutiny19/indy-events/internal/event"
)

// Keyword policy. Single-word entries match whole word tokens; entries
// containing spaces or symbols match as substrings. The lists are package
// variables so a deployment can tune them without touching the matcher.
var (
	FreeKeywords = []string{"free", "no cost", "complimentary", "no charge", "$0"}

	FoodKeywords = []string{
		"dinner", "lunch", "breakfast", "meal", "catering", "buffet",
		"food provided", "pizza", "sandwiches", "brunch", "banquet",
		"feast", "potluck", "pitch-in", "tacos", "bbq",
	}

	AppetizerKeywords = []string{
		"appetizer", "appetizers", "snacks", "light refreshments",
		"hors", "finger food", "apps",
	}

	// Networking-style gatherings usually put out light snacks even when
	// the listing never says so. A weak signal, applied only when no
	// explicit food keyword fires.
	NetworkingKeywords = []string{"networking", "mixer", "meetup", "reception", "social hour"}

	NonAlcoholKeywords = []string{
		"coffee", "refreshments", "beverages", "soft drink", "water",
		"soda", "juice", "tea", "lemonade",
	}

	// Coffee-hour signals: morning meetups and cowork sessions pour coffee
	// whether or not the copy mentions it.
	CoffeeEventKeywords = []string{"1 million cups", "cowork", "morning meetup"}

	AlcoholKeywords = []string{
		"happy hour", "beer", "wine", "cocktail", "cocktails", "bar",
		"drinks", "alcohol", "brewery", "spirits", "party", "taproom",
	}
)

// Detect classifies one event's text into the five amenity features.
func Detect(title, description string) event.Features {
	text := strings.ToLower(title + " " + description)
	tokens := tokenize(text)

	f := event.Features{
		Free:            matchAny(FreeKeywords, text, tokens),
		Food:            matchAny(FoodKeywords, text, tokens),
		Appetizers:      matchAny(AppetizerKeywords, text, tokens),
		NonAlcoholDrink: matchAny(NonAlcoholKeywords, text, tokens),
		AlcoholDrink:    matchAny(AlcoholKeywords, text, tokens),
	}

	// Mixers without an explicit food mention get appetizers, not food.
	if !f.Appetizers && !f.Food && matchAny(NetworkingKeywords, text, tokens) {
		f.Appetizers = true
	}

	if !f.NonAlcoholDrink && matchAny(CoffeeEventKeywords, text, tokens) {
		f.NonAlcoholDrink = true
	}

	return f
}

// matchAny reports whether any keyword hits: single words against the
// token set, multi-word or symbol-bearing keywords as substrings.
func matchAny(keywords []string, text string, tokens map[string]bool) bool {
	for _, kw := range keywords {
		if isPhrase(kw) {
			if strings.Contains(text, kw) {
				return true
			}
		} else if tokens[kw] {
			return true
		}
	}
	return false
}

func isPhrase(kw string) bool {
	for _, r := range kw {
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		tokens[tok] = true
	}
	return tokens
}
