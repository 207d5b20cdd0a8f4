package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	assert.InDelta(t, 93.0, Convert(100, "USD", "EUR"), 1e-9)
	assert.InDelta(t, 100.0, Convert(93, "EUR", "usd"), 1e-9)
	assert.InDelta(t, 117.0, Convert(100, "GBP", "EUR"), 1e-9)
	assert.InDelta(t, 0.62, Convert(100, "JPY", "EUR"), 1e-9)
}

func TestConvert_FallbackToInput(t *testing.T) {
	assert.Equal(t, 10.0, Convert(10, "XXX", "USD"))
	assert.Equal(t, 10.0, Convert(10, "USD", "XXX"))
	assert.Equal(t, 10.0, Convert(10, "", "USD"))
	assert.Equal(t, 10.0, Convert(10, "USD", ""))
	assert.Equal(t, 10.0, Convert(10, "EUR", "EUR"))
}

func TestConvertPtr(t *testing.T) {
	assert.Nil(t, ConvertPtr(nil, "USD", "EUR"))
	v := 200.0
	got := ConvertPtr(&v, "USD", "EUR")
	if assert.NotNil(t, got) {
		assert.InDelta(t, 186.0, *got, 1e-9)
	}
	assert.Equal(t, 200.0, v)
}

func TestKnownAndSupported(t *testing.T) {
	assert.True(t, Known("chf"))
	assert.False(t, Known("XYZ1"))
	assert.True(t, Supported("gbp"))
	assert.False(t, Supported("CHF"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$12.50", Format(12.5, "USD"))
	assert.Equal(t, "¥1,200", Format(1200, "JPY"))
	assert.Equal(t, "3.00 ZZZ", Format(3, "zzz"))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, 120.0, Round2(120.0000001))
}
