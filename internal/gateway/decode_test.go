package gateway

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTrip(t *testing.T) {
	statements := []string{
		"SELECT * FROM users",
		"update users set username = 'ü' where id = 1",
		"select 1 + 1 -- ?>~",
	}
	for _, s := range statements {
		got, err := Decode(Encode(s))
		require.NoError(t, err, s)
		assert.Equal(t, s, got)
	}
}

func TestDecode_AlreadyURLDecoded(t *testing.T) {
	// The router unescapes query parameters before the decoder sees them;
	// a raw base64 value containing '+' and '/' must survive.
	raw := base64.StdEncoding.EncodeToString([]byte("select '>>>???'"))
	require.Contains(t, raw, "+")

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "select '>>>???'", got)
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"bad padding":    "c2VsZWN0IDE",
		"bad alphabet":   "c2VsZ*WN0IDE=",
		"url-safe chars": "c2VsZWN0_-==",
		"bad escape":     "%zz",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(in)
			require.Error(t, err)
			assert.Equal(t, KindDecoding, KindOf(err))
		})
	}
}

func TestDecode_BlankStatement(t *testing.T) {
	for _, s := range []string{"", " ", "\n\t "} {
		_, err := Decode(Encode(s))
		require.Error(t, err, "%q", s)
		assert.Equal(t, KindDecoding, KindOf(err))
	}
}

func TestDecode_NotText(t *testing.T) {
	in := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x00})
	_, err := Decode(in)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, KindDecoding, gwErr.Kind)
}

func TestDecodeParams(t *testing.T) {
	enc, err := EncodeParams(map[string]any{"id": 1, "name": "a", "ratio": 0.5, "active": true, "gone": nil})
	require.NoError(t, err)

	params, err := DecodeParams(enc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), params["id"])
	assert.Equal(t, "a", params["name"])
	assert.Equal(t, 0.5, params["ratio"])
	assert.Equal(t, true, params["active"])
	assert.Contains(t, params, "gone")
	assert.Nil(t, params["gone"])
}

func TestDecodeParams_TrailingWhitespace(t *testing.T) {
	params, err := DecodeParams(base64.StdEncoding.EncodeToString([]byte("{\"a\":1}\n ")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), params["a"])
}

func TestDecodeParams_Empty(t *testing.T) {
	params, err := DecodeParams("")
	require.NoError(t, err)
	assert.Nil(t, params)

	enc, err := EncodeParams(nil)
	require.NoError(t, err)
	assert.Equal(t, "", enc)
}

func TestDecodeParams_Rejects(t *testing.T) {
	cases := map[string]string{
		"array":     `[1,2]`,
		"nested":    `{"a":{"b":1}}`,
		"list":      `{"a":[1]}`,
		"not json":  `id=1`,
		"json null": `null`,
		"trailing":  `{"a":1} trailing`,
		"two":       `{"a":1}{"b":2}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeParams(base64.StdEncoding.EncodeToString([]byte(body)))
			require.Error(t, err)
			assert.Equal(t, KindDecoding, KindOf(err))
		})
	}
}
