package domain

import (
	"github.com/shopspring/decimal"
)

// DisplayPlaces is the minimum number of fractional digits in rendered amounts.
const DisplayPlaces = 4

// FormatAmount renders d with at least DisplayPlaces fractional digits.
// Values carrying more precision are printed in full, never rounded.
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Round(DisplayPlaces)) {
		return d.StringFixed(DisplayPlaces)
	}
	return d.String()
}
