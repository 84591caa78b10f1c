// Package relevance filters scraped listings down to products that
// actually match the search query. Searching "iPhone 15 Pro" must not
// trigger an alert on a 15-manat phone case, so accessory listings are
// penalized unless the query itself asks for accessories.
package relevance

import (
	"regexp"
	"strings"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

// Accessory indicator words in Azerbaijani, Turkish, English and
// Russian. Substring-matched so morphological suffixes still hit
// (çexol -> çexollar).
var accessoryWords = []string{
	"çexol", "keys", "case", "cover", "qab", "kabura",
	"kılıf", "bumper", "sleeve", "pouch",
	"qoruyucu", "koruyucu", "protector", "tempered",
	"ekran şüşə",
	"kabel", "cable", "cord", "adapter", "adaptör",
	"şarj", "charger", "naqil", "şnur",
	"aksesuar", "aksessuar", "accessory", "accessories",
	"tutacaq", "holder", "stand", "mount", "tripod",
	"sticker", "yapışqan", "skin", "decal",
	"strap", "qayış", "band",
	"çanta",
}

// Words meaning "this product is FOR something else". Token-matched
// exactly to avoid substring false positives ("for" in "format").
var forWords = map[string]bool{
	"üçün": true, "для": true, "for": true, "uchun": true,
}

const DefaultMinScore = 0.25

var tokenSplitRe = regexp.MustCompile(`[\s\-/,.()\[\]]+`)

func tokenize(text string) []string {
	var tokens []string
	for _, t := range tokenSplitRe.Split(strings.ToLower(strings.TrimSpace(text)), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Score rates how relevant a product name is to the query, 0.0-1.0:
// the fraction of query words found in the name, scaled down hard when
// the name looks like an accessory (x0.1) or a "for X" product (x0.2)
// that the query did not ask for.
func Score(query string, productName string) float64 {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}

	productLower := strings.ToLower(productName)
	queryLower := strings.ToLower(query)

	matched := 0
	for _, t := range queryTokens {
		if strings.Contains(productLower, t) {
			matched++
		}
	}
	score := float64(matched) / float64(len(queryTokens))

	if containsAccessoryWord(productLower) && !containsAccessoryWord(queryLower) {
		score *= 0.1
	}

	productHasFor := containsForWord(tokenize(productLower))
	queryHasFor := containsForWord(queryTokens)
	if productHasFor && !queryHasFor {
		score *= 0.2
	}

	return score
}

// Filter drops listings scoring below minScore, preserving order. An
// empty result is intentional when nothing is relevant: alerts must
// not fire on accessories.
func Filter(listings []model.Listing, query string, minScore float64) []model.Listing {
	if len(listings) == 0 {
		return listings
	}
	filtered := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if Score(query, l.ProductName) >= minScore {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

func containsAccessoryWord(s string) bool {
	for _, w := range accessoryWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsForWord(tokens []string) bool {
	for _, t := range tokens {
		if forWords[t] {
			return true
		}
	}
	return false
}
