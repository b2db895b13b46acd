package tokens

import (
	"sort"
	"strings"

	"positionScope/internal/model"
)

const (
	DefaultDecimals = 18
	UnknownSymbol   = "Unknown"
)

// Resolver maps token contract addresses to display metadata.
// It is immutable after construction and safe for concurrent reads.
type Resolver struct {
	byAddress map[string]model.TokenInfo
	folded    map[string]string
}

// NewResolver indexes the currency sub-records of a transfer batch. Records
// without a contract address or without decimals are skipped; a repeated
// address keeps the last record seen. Extra entries are indexed first so that
// provider data overrides them.
func NewResolver(transfers []model.TransferRecord, extra ...model.TokenInfo) *Resolver {
	r := &Resolver{
		byAddress: make(map[string]model.TokenInfo, len(transfers)+len(extra)),
		folded:    make(map[string]string, len(transfers)+len(extra)),
	}
	for _, info := range extra {
		if info.Address == "" {
			continue
		}
		r.put(info)
	}
	for _, rec := range transfers {
		currency := rec.Transfer.Currency
		if currency.SmartContract == "" || !currency.Decimals.Valid {
			continue
		}
		r.put(model.TokenInfo{
			Address:  currency.SmartContract,
			Decimals: currency.Decimals.Value,
			Symbol:   currency.Symbol,
			Name:     currency.Name,
		})
	}
	return r
}

func (r *Resolver) put(info model.TokenInfo) {
	key := strings.ToLower(info.Address)
	if prev, ok := r.folded[key]; ok && prev != info.Address {
		delete(r.byAddress, prev)
	}
	r.byAddress[info.Address] = info
	r.folded[key] = info.Address
}

// Len reports the number of indexed tokens.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byAddress)
}

// Tokens returns every indexed entry ordered by address.
func (r *Resolver) Tokens() []model.TokenInfo {
	if r == nil {
		return nil
	}
	out := make([]model.TokenInfo, 0, len(r.byAddress))
	for _, info := range r.byAddress {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (r *Resolver) find(address string) (model.TokenInfo, bool) {
	if r == nil || address == "" {
		return model.TokenInfo{}, false
	}
	if info, ok := r.byAddress[address]; ok {
		return info, true
	}
	if exact, ok := r.folded[strings.ToLower(address)]; ok {
		return r.byAddress[exact], true
	}
	return model.TokenInfo{}, false
}

// Known reports whether the address has metadata, ignoring hex case.
func (r *Resolver) Known(address string) bool {
	_, ok := r.find(address)
	return ok
}

// Lookup returns the metadata for address, filling in the given defaults on a
// miss. A known token with an empty symbol also gets defaultSymbol.
func (r *Resolver) Lookup(address string, defaultDecimals int, defaultSymbol string) model.TokenInfo {
	info, ok := r.find(address)
	if !ok {
		return model.TokenInfo{Address: address, Decimals: defaultDecimals, Symbol: defaultSymbol}
	}
	info.Address = address
	if info.Symbol == "" {
		info.Symbol = defaultSymbol
	}
	return info
}

// Ref is Lookup with the package defaults, projected to an event descriptor.
func (r *Resolver) Ref(address string) model.TokenRef {
	info := r.Lookup(address, DefaultDecimals, UnknownSymbol)
	return model.TokenRef{Address: info.Address, Symbol: info.Symbol, Decimals: info.Decimals}
}

// Missing returns the addresses the resolver has no metadata for, in input order.
func (r *Resolver) Missing(addresses []string) []string {
	var out []string
	for _, addr := range addresses {
		if addr != "" && !r.Known(addr) {
			out = append(out, addr)
		}
	}
	return out
}
