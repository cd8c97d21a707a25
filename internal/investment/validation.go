package investment

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/agro-presale/internal/domain"
	apperrors "github.com/Proton-105/agro-presale/internal/errors"
)

// MinimumAmount is the smallest accepted investment, in currency units.
var MinimumAmount = decimal.NewFromInt(10)

// plainAmount accepts up to 15 integer digits and 2 decimals, with "." or "," as separator.
// Exponents are rejected: decimal expands them to full precision on comparison.
var plainAmount = regexp.MustCompile(`^\d{1,15}([.,]\d{1,2})?$`)

// ParseAmount reads a user-entered amount. A comma is accepted as the decimal separator.
// Malformed, zero and negative inputs are rejected with an InvalidAmount error.
func ParseAmount(raw string) (decimal.Decimal, *apperrors.AppError) {
	normalized := strings.TrimSpace(raw)
	if !plainAmount.MatchString(normalized) {
		return decimal.Zero, apperrors.NewInvalidAmountError(raw)
	}
	normalized = strings.Replace(normalized, ",", ".", 1)

	amount, err := decimal.NewFromString(normalized)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, apperrors.NewInvalidAmountError(raw)
	}

	return amount, nil
}

// Validate applies the offering limits to a parsed amount. Checks short-circuit in order:
// minimum first, then the amount still available.
func Validate(offering domain.Offering, amount decimal.Decimal) *apperrors.AppError {
	if amount.LessThan(MinimumAmount) {
		return apperrors.NewBelowMinimumError(amount, MinimumAmount)
	}

	if available := offering.Available(); amount.GreaterThan(available) {
		return apperrors.NewExceedsAvailableError(amount, available)
	}

	return nil
}

// Estimate converts an amount into offering units, rounded to 2 places. Inputs that do not
// parse yield zero.
func Estimate(offering domain.Offering, raw string) decimal.Decimal {
	amount, err := ParseAmount(raw)
	if err != nil || !offering.Price.IsPositive() {
		return decimal.Zero
	}

	return amount.Div(offering.Price).Round(2)
}
