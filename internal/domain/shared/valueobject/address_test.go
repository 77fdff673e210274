package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	t.Run("normalizes codes", func(t *testing.T) {
		addr, err := NewAddress(
			WithStreet(" 350 5th Ave "),
			WithCity("New York"),
			WithState("ny"),
			WithZip("10118"),
			WithCountry("us"),
		)
		require.NoError(t, err)

		assert.Equal(t, "350 5th Ave", addr.Street())
		assert.Equal(t, "NY", addr.StateCode())
		assert.Equal(t, "US", addr.CountryCode())
		assert.False(t, addr.IsEmpty())
	})

	t.Run("rejects malformed country", func(t *testing.T) {
		_, err := NewAddress(WithCountry("USA"))
		assert.Error(t, err)
	})

	t.Run("empty address", func(t *testing.T) {
		addr, err := NewAddress()
		require.NoError(t, err)
		assert.True(t, addr.IsEmpty())
		assert.Equal(t, "", addr.String())
	})
}

func TestAddress_FullStreet(t *testing.T) {
	addr := MustNewAddress(WithStreet("1 Main St"), WithStreet2("Suite 4"))
	assert.Equal(t, "1 Main St Suite 4", addr.FullStreet())

	assert.Equal(t, "1 Main St", MustNewAddress(WithStreet("1 Main St")).FullStreet())
}

func TestAddress_WithCorrection(t *testing.T) {
	addr := MustNewAddress(
		WithStreet("1 main"),
		WithStreet2("apt 2"),
		WithCity("sf"),
		WithState("CA"),
		WithZip("94"),
		WithCountry("US"),
	)

	corrected := addr.WithCorrection("1 Main St Apt 2", "San Francisco", "", "94105-1234")

	assert.Equal(t, "1 Main St Apt 2", corrected.Street())
	assert.Equal(t, "", corrected.Street2())
	assert.Equal(t, "San Francisco", corrected.City())
	assert.Equal(t, "CA", corrected.StateCode())
	assert.Equal(t, "94105-1234", corrected.Zip())
	assert.Equal(t, "apt 2", addr.Street2(), "original is unchanged")
}

func TestAddress_JSON(t *testing.T) {
	addr := MustNewAddress(WithCity("Austin"), WithState("TX"), WithZip("78701"), WithCountry("US"))

	data, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Austin","state":"TX","zip":"78701","country":"US"}`, string(data))

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}
