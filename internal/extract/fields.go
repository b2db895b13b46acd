package extract

import (
	"math/big"

	"positionScope/internal/model"
)

// fieldSet indexes tagged values by argument position or by declared name.
// The first occurrence of a key wins.
type fieldSet[K comparable] map[K]model.TaggedValue

func byIndex(args []model.Argument) fieldSet[int] {
	out := make(fieldSet[int], len(args))
	for _, arg := range args {
		if _, ok := out[arg.Index]; !ok {
			out[arg.Index] = arg.Value
		}
	}
	return out
}

func argsByName(args []model.Argument) fieldSet[string] {
	out := make(fieldSet[string], len(args))
	for _, arg := range args {
		if _, ok := out[arg.Name]; !ok && arg.Name != "" {
			out[arg.Name] = arg.Value
		}
	}
	return out
}

func returnsByName(returns []model.Return) fieldSet[string] {
	out := make(fieldSet[string], len(returns))
	for _, ret := range returns {
		if _, ok := out[ret.Name]; !ok && ret.Name != "" {
			out[ret.Name] = ret.Value
		}
	}
	return out
}

// address returns the address variant at key, or nil when absent, empty, or another variant.
func (f fieldSet[K]) address(key K) *string {
	s, ok := f[key].Address()
	if !ok || s == "" {
		return nil
	}
	return &s
}

// bigInteger returns the decimal text of the big-integer variant at key.
func (f fieldSet[K]) bigInteger(key K) *string {
	s, ok := f[key].BigInteger()
	if !ok || s == "" {
		return nil
	}
	return &s
}

// tick parses the big-integer variant at key as a signed tick index.
func (f fieldSet[K]) tick(key K) *int64 {
	s := f.bigInteger(key)
	if s == nil {
		return nil
	}
	n, ok := new(big.Int).SetString(*s, 10)
	if !ok || !n.IsInt64() {
		return nil
	}
	v := n.Int64()
	return &v
}

func (f fieldSet[K]) has(key K) bool {
	_, ok := f[key]
	return ok
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
