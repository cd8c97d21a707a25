// Package domain holds the presale data model shared by the API client, the workflow and the bot.
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Offering is a single investable token listing as served by the presale API.
type Offering struct {
	ID          int64            `json:"id"`
	Symbol      string           `json:"symbol"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Raised      decimal.Decimal  `json:"raised"`
	Goal        decimal.Decimal  `json:"goal"`
	Description string           `json:"description"`
	ServerPct   *decimal.Decimal `json:"progress,omitempty"`
}

// Available is the amount that can still be invested before the goal is reached.
func (o Offering) Available() decimal.Decimal {
	available := o.Goal.Sub(o.Raised)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// Progress returns the funded percentage, preferring the value computed by the server.
func (o Offering) Progress() decimal.Decimal {
	if o.ServerPct != nil {
		return *o.ServerPct
	}
	if !o.Goal.IsPositive() {
		return decimal.Zero
	}
	return o.Raised.Div(o.Goal).Mul(hundred)
}

// Completed reports whether the offering has reached its goal and no longer accepts investments.
func (o Offering) Completed() bool {
	return o.Progress().GreaterThanOrEqual(hundred)
}

// Validate checks the invariants 0 <= raised <= goal and price > 0.
func (o Offering) Validate() error {
	switch {
	case !o.Price.IsPositive():
		return errors.New("offering price must be positive")
	case o.Raised.IsNegative():
		return errors.New("offering raised amount must not be negative")
	case o.Raised.GreaterThan(o.Goal):
		return errors.New("offering raised amount exceeds goal")
	}
	return nil
}

// Stats aggregates fundraising totals across all offerings.
type Stats struct {
	TotalRaised decimal.Decimal            `json:"total_raised"`
	TotalGoal   decimal.Decimal            `json:"total_goal"`
	Extra       map[string]decimal.Decimal `json:"extra,omitempty"`
}

// ProgressPercent returns total_raised / total_goal as a percentage with one decimal place.
func (s Stats) ProgressPercent() decimal.Decimal {
	if !s.TotalGoal.IsPositive() {
		return decimal.Zero
	}
	return s.TotalRaised.Div(s.TotalGoal).Mul(hundred).Round(1)
}

// Empty reports whether no totals were received.
func (s Stats) Empty() bool {
	return s.TotalRaised.IsZero() && s.TotalGoal.IsZero() && len(s.Extra) == 0
}
