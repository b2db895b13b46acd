package tokens

import "positionScope/internal/model"

// CollectAddresses returns the distinct token addresses a batch references, in
// first-seen order. Addresses come from returns named token0/token1 and from
// address values at argument positions 0 and 1.
func CollectAddresses(calls []model.DecodedCall) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(v model.TaggedValue) {
		addr, ok := v.Address()
		if !ok || addr == "" {
			return
		}
		if _, dup := seen[addr]; dup {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	for _, call := range calls {
		for _, ret := range call.Returns {
			if ret.Name == "token0" || ret.Name == "token1" {
				add(ret.Value)
			}
		}
		for _, arg := range call.Arguments {
			if arg.Index == 0 || arg.Index == 1 {
				add(arg.Value)
			}
		}
	}
	return out
}
