// Package currency converts and formats amounts using a small static table of
// approximate rates expressed against EUR.
package currency

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Reference is the currency every rate is expressed in.
const Reference = "EUR"

// eurPerUnit is how many EUR one unit of the currency buys.
var eurPerUnit = map[string]decimal.Decimal{
	"EUR": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("0.93"),
	"JPY": decimal.RequireFromString("0.0062"),
	"GBP": decimal.RequireFromString("1.17"),
	"CNY": decimal.RequireFromString("0.13"),
}

// Convert converts amount between two currencies. Identical, empty or
// unknown currency codes return amount unchanged.
func Convert(amount float64, from, to string) float64 {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" || from == to {
		return amount
	}
	src, ok := eurPerUnit[from]
	if !ok {
		return amount
	}
	dst, ok := eurPerUnit[to]
	if !ok {
		return amount
	}
	return ConvertDecimal(decimal.NewFromFloat(amount), src, dst).InexactFloat64()
}

// ConvertDecimal converts through EUR using the given per-unit rates.
func ConvertDecimal(amount, fromRate, toRate decimal.Decimal) decimal.Decimal {
	return amount.Mul(fromRate).Div(toRate)
}

// ConvertPtr is Convert for optional amounts; nil stays nil.
func ConvertPtr(amount *float64, from, to string) *float64 {
	if amount == nil {
		return nil
	}
	v := Convert(*amount, from, to)
	return &v
}

// Supported reports whether the static table has a rate for code.
func Supported(code string) bool {
	_, ok := eurPerUnit[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Known reports whether code is an ISO 4217 currency.
func Known(code string) bool {
	return money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}

// Format renders amount for display, e.g. "$12.50" or "12,50 €".
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, code).Display()
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
