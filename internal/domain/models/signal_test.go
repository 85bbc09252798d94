package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSignalKeepsUnknownMembers(t *testing.T) {
	s, err := DecodeSignal([]byte(`{"tokenSymbol":"WIF","chain":"solana","score":{"a":1}}`))
	require.NoError(t, err)

	require.NotNil(t, s.TokenSymbol)
	assert.Equal(t, "WIF", *s.TokenSymbol)
	assert.Len(t, s.Extra, 2)
	assert.JSONEq(t, `"solana"`, string(s.Extra["chain"]))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"","timestamp":0,"tokenSymbol":"WIF","chain":"solana","score":{"a":1}}`, string(out))
}

func TestDecodeSignalAbsentFieldsStayAbsent(t *testing.T) {
	s, err := DecodeSignal([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, s.WinPercentage)
	assert.Nil(t, s.RiskLevel)
	assert.Nil(t, s.Extra)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"","timestamp":0}`, string(out))
}

func TestDecodeSignalIsPermissive(t *testing.T) {
	s, err := DecodeSignal([]byte(`{"winPercentage":140,"riskLevel":"EXTREME","signalType":"hold"}`))
	require.NoError(t, err)
	assert.Equal(t, 140.0, *s.WinPercentage)
	assert.False(t, s.RiskLevel.Valid())
	assert.False(t, s.SignalType.Valid())
}

func TestDecodeSignalMatchesKeysExactly(t *testing.T) {
	s, err := DecodeSignal([]byte(`{"tokenSymbol":"A","TOKENSYMBOL":"B","WinPercentage":"x"}`))
	require.NoError(t, err)

	require.NotNil(t, s.TokenSymbol)
	assert.Equal(t, "A", *s.TokenSymbol)
	assert.Nil(t, s.WinPercentage)
	assert.JSONEq(t, `"B"`, string(s.Extra["TOKENSYMBOL"]))
	assert.JSONEq(t, `"x"`, string(s.Extra["WinPercentage"]))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"","timestamp":0,"tokenSymbol":"A","TOKENSYMBOL":"B","WinPercentage":"x"}`, string(out))
}

func TestDecodeSignalCoercesLooseTypes(t *testing.T) {
	s, err := DecodeSignal([]byte(`{"id":42,"timestamp":"1700000000000","winPercentage":"85","totalHolders":1200.0,"hasImage":"true","buys24h":17}`))
	require.NoError(t, err)

	assert.Equal(t, "42", s.ID)
	assert.Equal(t, int64(1700000000000), s.Timestamp)
	assert.Equal(t, 85.0, *s.WinPercentage)
	assert.Equal(t, int64(1200), *s.TotalHolders)
	assert.True(t, *s.HasImage)
	assert.Equal(t, "17", *s.Buys24h)

	s, err = DecodeSignal([]byte(`{"winPercentage":null,"analysis":null}`))
	require.NoError(t, err)
	assert.Nil(t, s.WinPercentage)
	assert.Nil(t, s.Analysis)

	for _, body := range []string{
		`{"winPercentage":"high"}`,
		`{"winPercentage":"NaN"}`,
		`{"totalHolders":1.5}`,
		`{"hasImage":"maybe"}`,
		`{"tokenSymbol":{"a":1}}`,
		`{"analysis":[1]}`,
	} {
		_, err := DecodeSignal([]byte(body))
		assert.ErrorIs(t, err, ErrFieldType, body)
	}
}

func TestDecodeSignalRejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `null`, `[]`, `42`, `"x"`, `{"tokenSymbol":`, `not json`} {
		_, err := DecodeSignal([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestTokenAgeAcceptsStringOrNumber(t *testing.T) {
	s, err := DecodeSignal([]byte(`{"age":95}`))
	require.NoError(t, err)
	assert.Equal(t, TokenAge("95"), *s.Age)
	m, ok := s.Age.Minutes()
	assert.True(t, ok)
	assert.Equal(t, 95.0, m)

	s, err = DecodeSignal([]byte(`{"age":"2d"}`))
	require.NoError(t, err)
	assert.Equal(t, TokenAge("2d"), *s.Age)
	_, ok = s.Age.Minutes()
	assert.False(t, ok)

	_, err = DecodeSignal([]byte(`{"age":true}`))
	assert.Error(t, err)
}

func TestJSONObjectValueScan(t *testing.T) {
	var empty JSONObject
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	o := JSONObject{"dex": json.RawMessage(`{"pairs":2}`)}
	v, err = o.Value()
	require.NoError(t, err)

	var back JSONObject
	require.NoError(t, back.Scan(v))
	assert.JSONEq(t, `{"pairs":2}`, string(back["dex"]))

	require.NoError(t, back.Scan([]byte("null")))
	assert.Nil(t, back)
	assert.Error(t, back.Scan(12))
}

func TestCloneIsDeep(t *testing.T) {
	sym := "POPCAT"
	s := &Signal{
		ID:          "1",
		Timestamp:   10,
		TokenSymbol: &sym,
		Analysis:    JSONObject{"a": json.RawMessage(`1`)},
		Extra:       JSONObject{"custom": json.RawMessage(`true`)},
	}
	c := s.Clone()
	assert.Equal(t, s, c)

	*c.TokenSymbol = "CHANGED"
	c.Analysis["b"] = json.RawMessage(`2`)
	assert.Equal(t, "POPCAT", *s.TokenSymbol)
	assert.Len(t, s.Analysis, 1)
	assert.Nil(t, (*Signal)(nil).Clone())
}
