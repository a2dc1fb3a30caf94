package services

import "github.com/shopspring/decimal"

// moneyScale matches the decimal(10,2) columns.
const moneyScale = 2

var (
	hundred = decimal.NewFromInt(100)
	// maxMoney is the largest value a decimal(10,2) column holds.
	maxMoney = decimal.RequireFromString("99999999.99")
)

func parseMoney(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, newError(KindInvalidInput, field+" is required")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, newError(KindInvalidInput, field+" must be a decimal amount")
	}
	if d.IsNegative() {
		return decimal.Zero, newError(KindInvalidInput, field+" cannot be negative")
	}
	if !d.Equal(d.Round(moneyScale)) {
		return decimal.Zero, newError(KindInvalidInput, field+" has more than two decimal places")
	}
	if err := checkMoneyRange(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func checkMoneyRange(field string, d decimal.Decimal) error {
	if d.GreaterThan(maxMoney) {
		return newError(KindInvalidInput, field+" exceeds the maximum amount")
	}
	return nil
}

// toMinorUnits converts an amount to the gateway's minor unit (kobo/cents).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyScale)
}
