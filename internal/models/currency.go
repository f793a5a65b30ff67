package models

import (
	"fmt"
	"sort"
	"strings"
)

// Currency is an ISO 4217 code from the fixed set tabsettle accepts.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	CZK Currency = "CZK"
	GBP Currency = "GBP"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
	CHF Currency = "CHF"
	CNY Currency = "CNY"
	RUB Currency = "RUB"
	BRL Currency = "BRL"
	SGD Currency = "SGD"
	NZD Currency = "NZD"
	MXN Currency = "MXN"
	HKD Currency = "HKD"
	SEK Currency = "SEK"
	NOK Currency = "NOK"
	DKK Currency = "DKK"
	PLN Currency = "PLN"
	TRY Currency = "TRY"
	KRW Currency = "KRW"
	THB Currency = "THB"
	MYR Currency = "MYR"
	IDR Currency = "IDR"
	PHP Currency = "PHP"
	VND Currency = "VND"
	SAR Currency = "SAR"
	AED Currency = "AED"
	ILS Currency = "ILS"
)

// minorUnits maps each supported currency to its ISO 4217 exponent.
var minorUnits = map[Currency]int32{
	USD: 2, EUR: 2, CZK: 2, GBP: 2, AUD: 2, CAD: 2, CHF: 2, CNY: 2, RUB: 2, BRL: 2,
	SGD: 2, NZD: 2, MXN: 2, HKD: 2, SEK: 2, NOK: 2, DKK: 2, PLN: 2, TRY: 2,
	KRW: 0,
	THB: 2, MYR: 2, IDR: 2, PHP: 2,
	VND: 0,
	SAR: 2, AED: 2, ILS: 2,
}

// ParseCurrency normalizes s and checks it against the supported set.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unsupported currency: %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the supported codes.
func (c Currency) Valid() bool {
	_, ok := minorUnits[c]
	return ok
}

// MinorUnits returns the number of decimal places used to display c.
// Unknown codes fall back to 2.
func (c Currency) MinorUnits() int32 {
	if units, ok := minorUnits[c]; ok {
		return units
	}
	return 2
}

func (c Currency) String() string {
	return string(c)
}

// Currencies returns every supported code in ascending order.
func Currencies() []Currency {
	out := make([]Currency, 0, len(minorUnits))
	for c := range minorUnits {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
