package currency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/money"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()

	ngn, err := reg.Get("ngn")
	require.NoError(t, err)
	assert.Equal(t, money.NGN, ngn.Code)
	assert.Equal(t, "₦", ngn.Symbol)
	assert.Equal(t, 2, ngn.Decimals)

	assert.True(t, reg.IsValid(money.USD))
	assert.False(t, reg.IsValid(money.Code("XXX")))
	assert.False(t, reg.IsValid(money.Code("usd")))

	dec, err := reg.Decimals(money.JPY)
	require.NoError(t, err)
	assert.Equal(t, 0, dec)

	_, err = reg.Get("ABC")
	require.ErrorIs(t, err, domain.ErrInvalidCurrencyCode)
}

func TestRegistryValidate(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate(money.NGN, money.USD))
	err := reg.Validate(money.NGN, money.Code("QQQ"))
	require.ErrorIs(t, err, domain.ErrInvalidCurrencyCode)
	assert.Contains(t, err.Error(), "QQQ")
}

func TestRegistryListIsSorted(t *testing.T) {
	list := Default().List()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Code, list[i].Code)
	}
	assert.Equal(t, len(list), Default().Count())
}

func TestParseMetaCSV(t *testing.T) {
	t.Run("skips inactive and short rows", func(t *testing.T) {
		csv := "code,name,symbol,decimals,country,region,active\n" +
			"AAA,Alpha,A,2,Here,There,true\n" +
			"BBB,Beta,B,2,Here,There,false\n" +
			"CCC,short\n"
		metas, err := parseMetaCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, metas, 1)
		assert.Equal(t, money.Code("AAA"), metas[0].Code)
	})

	t.Run("rejects bad header", func(t *testing.T) {
		_, err := parseMetaCSV(strings.NewReader("code,name\n"))
		require.Error(t, err)
	})

	t.Run("rejects bad decimals", func(t *testing.T) {
		csv := "code,name,symbol,decimals,country,region,active\n" +
			"AAA,Alpha,A,x,Here,There,true\n"
		_, err := parseMetaCSV(strings.NewReader(csv))
		require.Error(t, err)
	})
}
