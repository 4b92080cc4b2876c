package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Decode reverses the transport encoding of a submitted statement: the value
// is URL-unescaped, then standard-base64 decoded, and must be non-blank
// valid UTF-8.
// It performs no sanitization; the executor's transaction handling is what
// contains a bad statement.
func Decode(encoded string) (string, error) {
	raw, err := decodeBytes(encoded)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", decodingError("decoded statement is not valid UTF-8 text", nil)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", decodingError("decoded statement is empty", nil)
	}
	return string(raw), nil
}

// Encode is the inverse of Decode.
func Encode(statement string) string {
	return url.QueryEscape(base64.StdEncoding.EncodeToString([]byte(statement)))
}

// DecodeParams decodes the optional named parameters: a JSON object encoded
// the same way as the statement. Values must be scalars. An empty input
// yields nil.
func DecodeParams(encoded string) (map[string]any, error) {
	if encoded == "" {
		return nil, nil
	}
	raw, err := decodeBytes(encoded)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, decodingError("parameters must be a JSON object", err)
	}
	if obj == nil {
		return nil, decodingError("parameters must be a JSON object", nil)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, decodingError("parameters must be a single JSON object", err)
	}

	params := make(map[string]any, len(obj))
	for k, v := range obj {
		val, err := scalarParam(v)
		if err != nil {
			return nil, decodingError(fmt.Sprintf("parameter %q", k), err)
		}
		params[k] = val
	}
	return params, nil
}

// EncodeParams is the inverse of DecodeParams.
func EncodeParams(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(base64.StdEncoding.EncodeToString(raw)), nil
}

func decodeBytes(encoded string) ([]byte, error) {
	// PathUnescape keeps '+', which is part of the base64 alphabet.
	unescaped, err := url.PathUnescape(encoded)
	if err != nil {
		return nil, decodingError("invalid URL encoding", err)
	}
	raw, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		return nil, decodingError("invalid base64 payload", err)
	}
	return raw, nil
}

func scalarParam(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool:
		return val, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("must be a string, number, boolean or null, got %T", v)
	}
}
