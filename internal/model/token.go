package model

import (
	"encoding/json"
	"strconv"
)

// TokenInfo captures ERC20 display metadata.
type TokenInfo struct {
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// TokenRef is the per-event token descriptor.
type TokenRef struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// MarshalJSON writes an absent address as null.
func (r TokenRef) MarshalJSON() ([]byte, error) {
	out := struct {
		Address  *string `json:"address"`
		Symbol   string  `json:"symbol"`
		Decimals int     `json:"decimals"`
	}{Symbol: r.Symbol, Decimals: r.Decimals}
	if r.Address != "" {
		out.Address = &r.Address
	}
	return json.Marshal(out)
}

func (r *TokenRef) address() string {
	if r == nil {
		return ""
	}
	return r.Address
}

// Currency is the currency sub-record of a transfer.
type Currency struct {
	SmartContract string      `json:"SmartContract"`
	Decimals      OptionalInt `json:"Decimals"`
	Symbol        string      `json:"Symbol"`
	Name          string      `json:"Name"`
}

// TransferRecord is one currency-transfer row used for decimals lookup.
type TransferRecord struct {
	Transfer struct {
		Currency Currency `json:"Currency"`
	} `json:"Transfer"`
}

// TransfersResponse is the provider envelope for transfer queries.
type TransfersResponse struct {
	Data struct {
		EVM struct {
			Transfers []TransferRecord `json:"Transfers"`
		} `json:"EVM"`
	} `json:"data"`
}

func (r TransfersResponse) Transfers() []TransferRecord {
	return r.Data.EVM.Transfers
}

// OptionalInt is an integer that may be encoded as a JSON number or string.
// Valid is false when the field was absent, null, or not an integer.
type OptionalInt struct {
	Value int
	Valid bool
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	*o = OptionalInt{}
	text, ok := decodeScalar(data)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil
	}
	*o = OptionalInt{Value: n, Valid: true}
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
