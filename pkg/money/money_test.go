package money_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketcore/promoengine/pkg/money"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency money.Code
		wantErr  bool
	}{
		{"naira kobo", 50_000, money.NGN, false},
		{"negative allowed", -100, money.USD, false},
		{"lowercase rejected", 100, money.Code("usd"), true},
		{"too long rejected", 100, money.Code("USDT"), true},
		{"empty rejected", 100, money.Code(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := money.New(tt.amount, tt.currency)
			if tt.wantErr {
				require.ErrorIs(t, err, money.ErrInvalidCurrency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, m.Amount())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestArithmeticRequiresSameCurrency(t *testing.T) {
	ngn := money.Must(1000, money.NGN)
	usd := money.Must(1000, money.USD)

	_, err := ngn.Add(usd)
	require.ErrorIs(t, err, money.ErrMismatchedCurrencies)

	_, err = ngn.Subtract(usd)
	require.ErrorIs(t, err, money.ErrMismatchedCurrencies)

	_, err = ngn.Min(usd)
	require.ErrorIs(t, err, money.ErrMismatchedCurrencies)

	_, err = ngn.Clamp(usd)
	require.ErrorIs(t, err, money.ErrMismatchedCurrencies)

	sum, err := ngn.Add(money.Must(500, money.NGN))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), sum.Amount())
}

func TestAddOverflow(t *testing.T) {
	_, err := money.Must(math.MaxInt64, money.NGN).Add(money.Must(1, money.NGN))
	require.ErrorIs(t, err, money.ErrAmountExceedsMaxSafeInt)
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		percent int64
		want    int64
	}{
		{"ten percent of 50000", 50_000, 10, 5_000},
		{"floors fractional minor units", 999, 10, 99},
		{"floors one third", 100, 33, 33},
		{"zero percent", 12345, 0, 0},
		{"full discount", 12345, 100, 12345},
		{"large amount does not overflow intermediate", math.MaxInt64, 50, math.MaxInt64 / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Must(tt.amount, money.NGN).PercentOf(tt.percent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Amount())
			assert.Equal(t, money.NGN, got.Currency())
		})
	}

	_, err := money.Must(100, money.NGN).PercentOf(101)
	require.ErrorIs(t, err, money.ErrInvalidPercentage)
}

func TestClamp(t *testing.T) {
	order := money.Must(1_000, money.NGN)

	got, err := money.Must(2_000, money.NGN).Clamp(order)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), got.Amount())

	got, err = money.Must(500, money.NGN).Clamp(order)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Amount())

	got, err = money.Must(-5, money.NGN).Clamp(order)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestConvert(t *testing.T) {
	rate := decimal.RequireFromString("1575.50")

	got, err := money.Must(100_00, money.USD).Convert(rate, money.NGN, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(157550_00), got.Amount())
	assert.Equal(t, money.NGN, got.Currency())

	// halves round away from zero in both directions
	got, err = money.Must(1, money.USD).Convert(decimal.RequireFromString("0.5"), money.EUR, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Amount())
	got, err = money.Must(-1, money.USD).Convert(decimal.RequireFromString("0.5"), money.EUR, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), got.Amount())

	// exponent change: 100.00 USD at 150 JPY/USD is 15000 yen, not 1500000
	got, err = money.Must(100_00, money.USD).Convert(decimal.NewFromInt(150), money.JPY, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(15_000), got.Amount())
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(money.Must(5_000, money.NGN))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":5000,"currency":"NGN"}`, string(data))

	var m money.Money
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, money.Must(5_000, money.NGN), m)

	require.Error(t, json.Unmarshal([]byte(`{"amount":1,"currency":"x"}`), &m))
}
