package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactArithmetic(t *testing.T) {
	price := MustParse("4.99")
	total := price.MulQty(2)
	assert.Equal(t, "9.98", total.String())
	assert.True(t, total.Equal(MustParse("9.98")))

	sum := MustParse("0.10").Add(MustParse("0.20"))
	assert.True(t, sum.Equal(MustParse("0.30")))
}

func TestSubAndComparisons(t *testing.T) {
	a := MustParse("100.00")
	b := MustParse("60.50")
	assert.Equal(t, "39.50", a.Sub(b).String())
	assert.True(t, b.LessThan(a))
	assert.True(t, a.GreaterThan(b))
	assert.True(t, a.GTE(a))
	assert.True(t, b.LTE(a))
	assert.True(t, b.Sub(a).IsNegative())
	assert.True(t, a.Sub(a).IsZero())
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1.00",
		"-1.005": "-1.01",
		"2.675":  "2.68",
	}
	for in, want := range cases {
		got := MustParse(in).Round2()
		assert.Equal(t, want, got.String(), "Round2(%s)", in)
	}
}

func TestFromFloatRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FromFloat(f)
		require.Error(t, err)
	}
	m, err := FromFloat(12.5)
	require.NoError(t, err)
	assert.Equal(t, "12.50", m.String())
}

func TestFromStringRejectsGarbage(t *testing.T) {
	_, err := FromString("not-a-number")
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Total Money `json:"total"`
	}
	raw, err := json.Marshal(payload{Total: MustParse("99.90")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":99.90}`, string(raw))

	var back payload
	require.NoError(t, json.Unmarshal([]byte(`{"total":"15.25"}`), &back))
	assert.True(t, back.Total.Equal(MustParse("15.25")))
}

func TestSQLValueAndScan(t *testing.T) {
	v, err := MustParse("7.35").Value()
	require.NoError(t, err)
	assert.Equal(t, "7.35", v)

	var m Money
	require.NoError(t, m.Scan("42.10"))
	assert.True(t, m.Equal(MustParse("42.10")))
	require.NoError(t, m.Scan([]byte("0.05")))
	assert.Equal(t, "0.05", m.String())
}
