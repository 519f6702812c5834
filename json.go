package fleece

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// EncodeJSON streams JSON data into enc, one json.Decoder token at a time,
// with no intermediate map[string]any (§1 supplement: JSON I/O is
// unspecified by the core, but every serious embedding of this format
// pairs it with a convenience front-end). enc must be freshly constructed
// or Reset; the caller still calls enc.End() afterward.
func EncodeJSON(enc *Encoder, data []byte) error {
	return EncodeJSONReader(enc, bytes.NewReader(data))
}

// EncodeJSONReader is EncodeJSON for a streaming io.Reader source, useful
// for large documents that should not be held in memory twice.
func EncodeJSONReader(enc *Encoder, r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return encodeJSONValue(enc, dec)
}

// encodeJSONValue consumes exactly one JSON value (scalar, array, or
// object) from dec and writes it to enc.
func encodeJSONValue(enc *Encoder, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("fleece: decode json token: %w", err)
	}
	return encodeJSONToken(enc, dec, tok)
}

func encodeJSONToken(enc *Encoder, dec *json.Decoder, tok json.Token) error {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '[':
			return encodeJSONArray(enc, dec)
		case '{':
			return encodeJSONObject(enc, dec)
		default:
			return fmt.Errorf("fleece: unexpected json delimiter %q", v)
		}
	case nil:
		return enc.WriteNull()
	case bool:
		return enc.WriteBool(v)
	case json.Number:
		return encodeJSONNumber(enc, v)
	case string:
		return enc.WriteString(v)
	default:
		return fmt.Errorf("fleece: unsupported json token type %T", v)
	}
}

func encodeJSONNumber(enc *Encoder, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		return enc.WriteInt(i)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("fleece: decode json number %q: %w", n, err)
	}
	return enc.WriteDouble(f)
}

func encodeJSONArray(enc *Encoder, dec *json.Decoder) error {
	if err := enc.BeginArray(0); err != nil {
		return err
	}
	for dec.More() {
		if err := encodeJSONValue(enc, dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return fmt.Errorf("fleece: decode json array close: %w", err)
	}
	return enc.EndArray()
}

func encodeJSONObject(enc *Encoder, dec *json.Decoder) error {
	if err := enc.BeginDictionary(0); err != nil {
		return err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("fleece: decode json object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fleece: json object key is not a string: %v", keyTok)
		}
		if err := enc.WriteKey(key); err != nil {
			return err
		}
		if err := encodeJSONValue(enc, dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return fmt.Errorf("fleece: decode json object close: %w", err)
	}
	return enc.EndDictionary()
}
