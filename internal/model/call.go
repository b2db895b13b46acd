package model

import (
	"bytes"
	"encoding/json"
)

// Scalar holds a provider field that may arrive as a JSON string or number.
// Its text is kept verbatim; parsing is left to the consumer.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if text, ok := decodeScalar(data); ok {
		*s = Scalar(text)
	}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Argument is a positional call argument.
type Argument struct {
	Index int         `json:"Index"`
	Name  string      `json:"Name"`
	Type  string      `json:"Type"`
	Value TaggedValue `json:"Value"`
}

// UnmarshalJSON defaults a missing Index to -1 so it never aliases position 0.
func (a *Argument) UnmarshalJSON(data []byte) error {
	type Alias Argument
	alias := Alias{Index: -1}
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*a = Argument(alias)
	return nil
}

// Return is a named call return value.
type Return struct {
	Name  string      `json:"Name"`
	Type  string      `json:"Type"`
	Value TaggedValue `json:"Value"`
}

// CallInfo describes the invoked function.
type CallInfo struct {
	Signature  CallSignature `json:"Signature"`
	To         string        `json:"To"`
	From       string        `json:"From"`
	Value      Scalar        `json:"Value"`
	ValueInUSD Scalar        `json:"ValueInUSD"`
}

type CallSignature struct {
	Name string `json:"Name"`
}

// TransactionInfo is the enclosing transaction of a call.
type TransactionInfo struct {
	From       string `json:"From"`
	To         string `json:"To"`
	Hash       string `json:"Hash"`
	ValueInUSD Scalar `json:"ValueInUSD"`
	Value      Scalar `json:"Value"`
	Time       string `json:"Time"`
}

// BlockInfo is the enclosing block of a call.
type BlockInfo struct {
	Number Scalar `json:"Number"`
	Time   string `json:"Time"`
}

// DecodedCall is one ABI-decoded contract call from the provider feed.
type DecodedCall struct {
	Arguments   []Argument      `json:"Arguments"`
	Returns     []Return        `json:"Returns,omitempty"`
	Call        CallInfo        `json:"Call"`
	Transaction TransactionInfo `json:"Transaction"`
	Block       BlockInfo       `json:"Block"`
}

// CallsResponse is the provider envelope for call queries.
type CallsResponse struct {
	Data struct {
		EVM struct {
			Calls []DecodedCall `json:"Calls"`
		} `json:"EVM"`
	} `json:"data"`
}

// Calls returns the calls carried by the envelope.
func (r CallsResponse) Calls() []DecodedCall {
	return r.Data.EVM.Calls
}
