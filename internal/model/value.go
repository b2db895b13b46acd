package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ValueKind identifies the populated variant of a TaggedValue.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindAddress
	KindBigInteger
	KindBytes
	KindBoolean
	KindString
	KindInteger
)

func (k ValueKind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindBigInteger:
		return "bigInteger"
	case KindBytes:
		return "hex"
	case KindBoolean:
		return "bool"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	default:
		return "none"
	}
}

// TaggedValue is an ABI-decoded value carrying exactly one variant.
type TaggedValue struct {
	kind ValueKind
	text string
	flag bool
	num  int64
}

func AddressValue(v string) TaggedValue    { return TaggedValue{kind: KindAddress, text: v} }
func BigIntegerValue(v string) TaggedValue { return TaggedValue{kind: KindBigInteger, text: v} }
func BytesValue(v string) TaggedValue      { return TaggedValue{kind: KindBytes, text: v} }
func BoolValue(v bool) TaggedValue         { return TaggedValue{kind: KindBoolean, flag: v} }
func StringValue(v string) TaggedValue     { return TaggedValue{kind: KindString, text: v} }
func IntegerValue(v int64) TaggedValue     { return TaggedValue{kind: KindInteger, num: v} }

// Kind returns the populated variant.
func (v TaggedValue) Kind() ValueKind { return v.kind }

// Address returns the address variant.
func (v TaggedValue) Address() (string, bool) {
	return v.text, v.kind == KindAddress
}

// BigInteger returns the decimal string of the big-integer variant.
func (v TaggedValue) BigInteger() (string, bool) {
	return v.text, v.kind == KindBigInteger
}

// Hex returns the raw hex string of the bytes variant.
func (v TaggedValue) Hex() (string, bool) {
	return v.text, v.kind == KindBytes
}

// Bytes decodes the bytes variant.
func (v TaggedValue) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	data, err := hexutil.Decode(v.text)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (v TaggedValue) Bool() (bool, bool) {
	return v.flag, v.kind == KindBoolean
}

// Text returns the string variant.
func (v TaggedValue) Text() (string, bool) {
	return v.text, v.kind == KindString
}

func (v TaggedValue) Integer() (int64, bool) {
	return v.num, v.kind == KindInteger
}

// UnmarshalJSON decodes the provider's union object. The first recognized key wins;
// unknown or malformed payloads decode to KindNone rather than failing the batch.
func (v *TaggedValue) UnmarshalJSON(data []byte) error {
	*v = TaggedValue{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil
	}

	if msg, ok := raw["address"]; ok {
		if s, ok := decodeString(msg); ok {
			*v = AddressValue(s)
			return nil
		}
	}
	if msg, ok := raw["bigInteger"]; ok {
		if s, ok := decodeScalar(msg); ok {
			*v = BigIntegerValue(s)
			return nil
		}
	}
	if msg, ok := raw["hex"]; ok {
		if s, ok := decodeString(msg); ok {
			*v = BytesValue(s)
			return nil
		}
	}
	if msg, ok := raw["bool"]; ok && !isNull(msg) {
		var b bool
		if err := json.Unmarshal(msg, &b); err == nil {
			*v = BoolValue(b)
			return nil
		}
	}
	if msg, ok := raw["string"]; ok {
		if s, ok := decodeString(msg); ok {
			*v = StringValue(s)
			return nil
		}
	}
	if msg, ok := raw["integer"]; ok {
		if s, ok := decodeScalar(msg); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				*v = IntegerValue(n)
				return nil
			}
		}
	}
	return nil
}

// MarshalJSON writes the union back in provider shape.
func (v TaggedValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAddress, KindBigInteger, KindBytes, KindString:
		return json.Marshal(map[string]string{v.kind.String(): v.text})
	case KindBoolean:
		return json.Marshal(map[string]bool{"bool": v.flag})
	case KindInteger:
		return json.Marshal(map[string]int64{"integer": v.num})
	case KindNone:
		return []byte("{}"), nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

func decodeString(msg json.RawMessage) (string, bool) {
	if isNull(msg) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeScalar accepts a JSON string or number and returns its text.
func decodeScalar(msg json.RawMessage) (string, bool) {
	if isNull(msg) {
		return "", false
	}
	if s, ok := decodeString(msg); ok {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

func isNull(msg json.RawMessage) bool {
	return len(bytes.TrimSpace(msg)) == 0 || string(bytes.TrimSpace(msg)) == "null"
}
