package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/agro-presale/pkg/config"
)

func testRules() *Rules {
	return NewRules(config.RateLimitConfig{
		Enabled: true,
		Global:  config.RateLimitRule{Limit: 100, Window: "1s"},
		PerUser: config.RateLimitRule{Limit: 20, Window: "1m"},
		Commands: config.RateLimitCommands{
			Tokens: config.RateLimitRule{Limit: 10, Window: "1m"},
			Invest: config.RateLimitRule{Limit: 5, Window: "1m"},
		},
		Whitelist: []int64{42},
	})
}

func TestRules_Whitelist(t *testing.T) {
	rules := testRules()

	assert.True(t, rules.IsWhitelisted(42))
	assert.False(t, rules.IsWhitelisted(7))
}

func TestRules_GroupFor(t *testing.T) {
	rules := testRules()

	tests := map[string]string{
		"/tokens":           CommandTokens,
		"tokens":            CommandTokens,
		"buy":               CommandInvest,
		"invest_confirm":    CommandInvest,
		"text":              CommandInvest,
		"/wallet":           CommandWallet,
		"wallet_disconnect": CommandWallet,
	}
	for command, want := range tests {
		group, ok := rules.GroupFor(command)
		assert.True(t, ok, command)
		assert.Equal(t, want, group, command)
	}

	_, ok := rules.GroupFor("/start")
	assert.False(t, ok)
}

func TestRules_Limits(t *testing.T) {
	rules := testRules()

	limit, window, err := rules.GetGlobalLimit()
	require.NoError(t, err)
	assert.Equal(t, 100, limit)
	assert.Equal(t, time.Second, window)

	limit, window, err = rules.GetPerUserLimit()
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, time.Minute, window)

	limit, _, err = rules.GetCommandLimit(CommandInvest)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	_, _, err = rules.GetCommandLimit(CommandWallet)
	assert.ErrorIs(t, err, ErrRuleNotSet)

	_, _, err = rules.GetCommandLimit("unknown")
	assert.Error(t, err)
}

func TestRules_InvalidWindow(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{PerUser: config.RateLimitRule{Limit: 1, Window: "soon"}})

	_, _, err := rules.GetPerUserLimit()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRuleNotSet)
}
