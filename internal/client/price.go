package client

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	currencyRe       = regexp.MustCompile(`[₼\sAZNazn]`)
	dotThousandsRe   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d{2})?$`)
	commaThousandsRe = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d{2})?$`)
	plainRe          = regexp.MustCompile(`^\d+(\.\d+)?$`)
	commaDecimalRe   = regexp.MustCompile(`^\d+,\d+$`)
	nonNumericRe     = regexp.MustCompile(`[^\d.,]`)
)

// ParsePrice turns a store's displayed price string into a 2dp decimal.
// Stores disagree on thousands and decimal separators ("1.299,00",
// "1,299.00", "1 299,00", "1299,99"), so the format is sniffed before
// normalizing.
func ParsePrice(priceStr string) (decimal.Decimal, error) {
	if priceStr == "" {
		return decimal.Zero, errors.New("empty price string")
	}

	cleaned := strings.TrimSpace(currencyRe.ReplaceAllString(strings.TrimSpace(priceStr), ""))
	if cleaned == "" {
		return decimal.Zero, errors.Errorf("no numeric value in price: %s", priceStr)
	}

	switch {
	case dotThousandsRe.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case commaThousandsRe.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case plainRe.MatchString(cleaned):
	case commaDecimalRe.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	default:
		cleaned = nonNumericRe.ReplaceAllString(cleaned, "")
		hasComma := strings.Contains(cleaned, ",")
		hasDot := strings.Contains(cleaned, ".")
		if hasComma && hasDot {
			if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
				cleaned = strings.ReplaceAll(cleaned, ".", "")
				cleaned = strings.ReplaceAll(cleaned, ",", ".")
			} else {
				cleaned = strings.ReplaceAll(cleaned, ",", "")
			}
		} else if hasComma {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "cannot parse price: %s", priceStr)
	}
	return d.Round(2), nil
}
