package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/agro-presale/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		unique    string
		data      string
		want      string
		wantError bool
	}{
		{name: "with data", unique: "buy", data: "2", want: "buy:2"},
		{name: "without data", unique: "invest_confirm", want: "invest_confirm"},
		{name: "empty unique", unique: "", data: "1", wantError: true},
		{name: "exceeds limit", unique: strings.Repeat("x", keyboard.CallbackDataLimitBytes+1), wantError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.unique, tt.data)
			if tt.wantError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUnique string
		wantData   string
		wantErr    bool
	}{
		{name: "unique and data", input: "tokens:3", wantUnique: "tokens", wantData: "3"},
		{name: "only unique", input: "wallet_connect", wantUnique: "wallet_connect"},
		{name: "multiple separators", input: "action:part1:part2", wantUnique: "action", wantData: "part1:part2"},
		{name: "telebot unique prefix", input: "\fbuy:7", wantUnique: "buy", wantData: "7"},
		{name: "empty input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			unique, data, err := keyboard.DecodeCallback(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUnique, unique)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestDecodeID(t *testing.T) {
	id, err := keyboard.DecodeID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = keyboard.DecodeID("abc")
	assert.Error(t, err)
}
