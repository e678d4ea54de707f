package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountJSON(t *testing.T) {
	type payload struct {
		Sodium Amount `json:"sodium"`
		Fiber  Amount `json:"fiber,omitzero"`
	}

	out, err := json.Marshal(payload{Sodium: Amount{}, Fiber: Amount{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sodium":null}`, string(out))

	out, err = json.Marshal(payload{Sodium: Some(0), Fiber: Some(0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sodium":0,"fiber":0}`, string(out), "present zero is not absent")

	var in payload
	require.NoError(t, json.Unmarshal([]byte(`{"sodium":null,"fiber":2.5}`), &in))
	assert.False(t, in.Sodium.Present())
	assert.Equal(t, Some(2.5), in.Fiber)

	assert.Error(t, json.Unmarshal([]byte(`{"fiber":"lots"}`), &in))

	_, err = json.Marshal(payload{Sodium: Some(math.NaN())})
	assert.Error(t, err)
}

func TestAmountSQL(t *testing.T) {
	v, err := Amount{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Some(1.5).Value()
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	tests := []struct {
		name string
		src  any
		want Amount
	}{
		{"null", nil, Amount{}},
		{"float", 3.25, Some(3.25)},
		{"int", int64(4), Some(4)},
		{"bytes", []byte("0.5"), Some(0.5)},
		{"string", "12", Some(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Some(99)
			require.NoError(t, got.Scan(tt.src))
			assert.Equal(t, tt.want, got)
		})
	}

	var a Amount
	assert.Error(t, a.Scan(true))
	assert.Error(t, a.Scan("abc"))
}

func TestAmountHelpers(t *testing.T) {
	assert.Equal(t, 7.0, Amount{}.Or(7))
	assert.Equal(t, 1.0, Some(1).Or(7))
	assert.Nil(t, Amount{}.Ptr())
	assert.Equal(t, 2.0, *Some(2).Ptr())

	x := 4.0
	assert.Equal(t, Some(4), AmountFromPtr(&x))
	assert.Equal(t, Amount{}, AmountFromPtr(nil))

	double := func(v float64) float64 { return v * 2 }
	assert.Equal(t, Some(6), Some(3).Map(double))
	assert.False(t, Amount{}.Map(double).Present())

	assert.Equal(t, "<absent>", Amount{}.String())
	assert.Equal(t, "0.25", Some(0.25).String())
}
