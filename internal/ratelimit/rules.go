package ratelimit

import (
	"errors"
	"time"

	"github.com/Proton-105/agro-presale/pkg/config"
)

// Command groups that carry their own rule.
const (
	CommandTokens = "tokens"
	CommandInvest = "invest"
	CommandWallet = "wallet"
)

// ErrRuleNotSet marks a rule without a limit or window; such rules are not enforced.
var ErrRuleNotSet = errors.New("rate limit rule is not set")

// commandGroups maps update command names (see middleware.CommandName) to their rule group.
var commandGroups = map[string]string{
	"/tokens":           CommandTokens,
	"tokens":            CommandTokens,
	"/stats":            CommandTokens,
	"buy":               CommandInvest,
	"invest_confirm":    CommandInvest,
	"text":              CommandInvest,
	"/wallet":           CommandWallet,
	"wallet_connect":    CommandWallet,
	"wallet_disconnect": CommandWallet,
}

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	for _, id := range r.config.Whitelist {
		if id == userID {
			return true
		}
	}
	return false
}

// GroupFor returns the rule group of an update command name.
func (r *Rules) GroupFor(command string) (string, bool) {
	group, ok := commandGroups[command]
	return group, ok
}

// GetCommandLimit returns the limit and window for a command group.
func (r *Rules) GetCommandLimit(group string) (int, time.Duration, error) {
	switch group {
	case CommandTokens:
		return parseRule(r.config.Commands.Tokens)
	case CommandInvest:
		return parseRule(r.config.Commands.Invest)
	case CommandWallet:
		return parseRule(r.config.Commands.Wallet)
	default:
		return 0, 0, errors.New("unsupported command")
	}
}

// GetGlobalLimit returns the global rate limiting rule.
func (r *Rules) GetGlobalLimit() (int, time.Duration, error) {
	return parseRule(r.config.Global)
}

// GetPerUserLimit returns the per-user rate limiting rule.
func (r *Rules) GetPerUserLimit() (int, time.Duration, error) {
	return parseRule(r.config.PerUser)
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Limit <= 0 || rule.Window == "" {
		return 0, 0, ErrRuleNotSet
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	if window <= 0 {
		return 0, 0, ErrRuleNotSet
	}
	return rule.Limit, window, nil
}
