package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOffering_Available(t *testing.T) {
	o := Offering{Goal: dec("1000"), Raised: dec("950")}
	assert.True(t, o.Available().Equal(dec("50")))

	over := Offering{Goal: dec("10"), Raised: dec("11")}
	assert.True(t, over.Available().IsZero())
}

func TestOffering_Progress(t *testing.T) {
	o := Offering{Goal: dec("1000000"), Raised: dec("500000")}
	assert.True(t, o.Progress().Equal(dec("50")))
	assert.False(t, o.Completed())

	pct := dec("100")
	o.ServerPct = &pct
	assert.True(t, o.Completed())

	zeroGoal := Offering{}
	assert.True(t, zeroGoal.Progress().IsZero())
}

func TestOffering_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		o       Offering
		wantErr bool
	}{
		{name: "valid", o: Offering{Price: dec("2"), Raised: dec("1"), Goal: dec("2")}},
		{name: "zero price", o: Offering{Price: dec("0"), Goal: dec("2")}, wantErr: true},
		{name: "negative raised", o: Offering{Price: dec("1"), Raised: dec("-1"), Goal: dec("2")}, wantErr: true},
		{name: "raised above goal", o: Offering{Price: dec("1"), Raised: dec("3"), Goal: dec("2")}, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.o.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOffering_DecodesAPINumbers(t *testing.T) {
	payload := `{"id":1,"symbol":"AGRO1","name":"Agro One","price":2.0,"raised":500000,"goal":1000000,"description":"soy","progress":50}`

	var o Offering
	require.NoError(t, json.Unmarshal([]byte(payload), &o))

	assert.Equal(t, int64(1), o.ID)
	assert.True(t, o.Price.Equal(dec("2")))
	require.NotNil(t, o.ServerPct)
	assert.True(t, o.ServerPct.Equal(dec("50")))
}

func TestStats_ProgressPercent(t *testing.T) {
	s := Stats{TotalRaised: dec("872500"), TotalGoal: dec("2000000")}
	assert.Equal(t, "43.6", s.ProgressPercent().String())
	assert.False(t, s.Empty())
	assert.True(t, Stats{}.Empty())
}

func TestInvestmentRequest_WireFormat(t *testing.T) {
	req := NewInvestmentRequest(1, "0xABCDEF1234567890", dec("100"))

	body, err := json.Marshal(req)
	require.NoError(t, err)

	assert.JSONEq(t, `{"token_id":1,"wallet_address":"0xABCDEF1234567890","amount_usd":100,"payment_method":"metamask"}`, string(body))
}

func TestFormatMoney(t *testing.T) {
	testCases := map[string]string{
		"0":         "0.00",
		"50":        "50.00",
		"999.999":   "1,000.00",
		"1000000":   "1,000,000.00",
		"-12345.6":  "-12,345.60",
		"872500.00": "872,500.00",
	}

	for in, want := range testCases {
		assert.Equal(t, want, FormatMoney(dec(in)), in)
	}
}
