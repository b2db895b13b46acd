package tokens

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"positionScope/internal/model"
)

const (
	weth = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	usdt = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
)

func transfers(t *testing.T, payload string) []model.TransferRecord {
	t.Helper()
	var resp model.TransfersResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))
	return resp.Transfers()
}

func TestNewResolverSkipsIncompleteRecords(t *testing.T) {
	recs := transfers(t, `{"data":{"EVM":{"Transfers":[
		{"Transfer":{"Currency":{"SmartContract":"`+weth+`","Decimals":18,"Symbol":"WETH","Name":"Wrapped Ether"}}},
		{"Transfer":{"Currency":{"SmartContract":"`+usdt+`","Symbol":"USDT","Name":"Tether USD"}}},
		{"Transfer":{"Currency":{"SmartContract":"0x1111111111111111111111111111111111111111","Decimals":null}}},
		{"Transfer":{"Currency":{"SmartContract":"","Decimals":6}}},
		{"Transfer":{"Currency":{"SmartContract":"0x2222222222222222222222222222222222222222","Decimals":"8","Symbol":"WBTC"}}}
	]}}}`)

	r := NewResolver(recs)
	require.Equal(t, 2, r.Len())
	require.True(t, r.Known(weth))
	require.False(t, r.Known(usdt), "absent decimals must not default to zero")
	require.Equal(t, 8, r.Lookup("0x2222222222222222222222222222222222222222", 18, "Unknown").Decimals)
}

func TestNewResolverZeroDecimalsIsPresent(t *testing.T) {
	recs := transfers(t, `{"data":{"EVM":{"Transfers":[
		{"Transfer":{"Currency":{"SmartContract":"0xaaaa","Decimals":0,"Symbol":"ZERO"}}}
	]}}}`)
	info := NewResolver(recs).Lookup("0xaaaa", 18, UnknownSymbol)
	require.Equal(t, 0, info.Decimals)
	require.Equal(t, "ZERO", info.Symbol)
}

func TestNewResolverLastSeenWins(t *testing.T) {
	recs := transfers(t, `{"data":{"EVM":{"Transfers":[
		{"Transfer":{"Currency":{"SmartContract":"`+usdt+`","Decimals":18,"Symbol":"OLD"}}},
		{"Transfer":{"Currency":{"SmartContract":"`+usdt+`","Decimals":6,"Symbol":"USDT"}}}
	]}}}`)
	info := NewResolver(recs).Lookup(usdt, 18, UnknownSymbol)
	require.Equal(t, 6, info.Decimals)
	require.Equal(t, "USDT", info.Symbol)
}

func TestNewResolverProviderOverridesExtra(t *testing.T) {
	recs := transfers(t, `{"data":{"EVM":{"Transfers":[
		{"Transfer":{"Currency":{"SmartContract":"`+usdt+`","Decimals":6,"Symbol":"USDT"}}}
	]}}}`)
	r := NewResolver(recs,
		model.TokenInfo{Address: usdt, Decimals: 9, Symbol: "CHAIN"},
		model.TokenInfo{Address: weth, Decimals: 18, Symbol: "WETH"},
		model.TokenInfo{Decimals: 4},
	)
	require.Equal(t, 2, r.Len())
	require.Equal(t, 6, r.Lookup(usdt, 18, UnknownSymbol).Decimals)
	require.Equal(t, "WETH", r.Lookup(weth, 0, "").Symbol)
}

func TestResolverEmpty(t *testing.T) {
	r := NewResolver(nil)
	require.Equal(t, 0, r.Len())
	require.Equal(t, model.TokenInfo{Address: weth, Decimals: 18, Symbol: "Unknown"}, r.Lookup(weth, 18, "Unknown"))
	require.Equal(t, model.TokenRef{Address: weth, Symbol: UnknownSymbol, Decimals: DefaultDecimals}, r.Ref(weth))

	var nilResolver *Resolver
	require.Equal(t, 0, nilResolver.Len())
	require.Equal(t, DefaultDecimals, nilResolver.Ref(weth).Decimals)
}

func TestResolverLookupDefaults(t *testing.T) {
	r := NewResolver(nil, model.TokenInfo{Address: weth, Decimals: 18})
	require.Equal(t, "n/a", r.Lookup(weth, 6, "n/a").Symbol, "empty symbol takes the default")
	require.Equal(t, 6, r.Lookup(usdt, 6, "n/a").Decimals)
	require.Equal(t, "", r.Lookup("", 18, "").Address)
}

func TestResolverCaseInsensitiveMatch(t *testing.T) {
	r := NewResolver(nil, model.TokenInfo{Address: weth, Decimals: 18, Symbol: "WETH"})

	lower := "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	ref := r.Ref(lower)
	require.Equal(t, "WETH", ref.Symbol)
	require.Equal(t, lower, ref.Address, "the caller's spelling is kept")
	require.True(t, r.Known(lower))
	require.Empty(t, r.Missing([]string{lower, weth}))
}

func TestResolverMissing(t *testing.T) {
	r := NewResolver(nil, model.TokenInfo{Address: weth, Decimals: 18})
	require.Equal(t, []string{usdt, "0xabc"}, r.Missing([]string{usdt, weth, "", "0xabc"}))
}

func TestResolverConcurrentReads(t *testing.T) {
	r := NewResolver(nil, model.TokenInfo{Address: weth, Decimals: 18, Symbol: "WETH"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Ref(weth)
				_ = r.Ref(usdt)
			}
		}()
	}
	wg.Wait()
}

func TestResolverTokensSortedByAddress(t *testing.T) {
	r := NewResolver(nil,
		model.TokenInfo{Address: usdt, Decimals: 6, Symbol: "USDT"},
		model.TokenInfo{Address: weth, Decimals: 18, Symbol: "WETH"},
		model.TokenInfo{Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Decimals: 18, Symbol: "weth"},
	)
	got := r.Tokens()
	require.Len(t, got, 2, "case variants collapse to the last spelling")
	require.Equal(t, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", got[0].Address)
	require.Equal(t, usdt, got[1].Address)

	var nilResolver *Resolver
	require.Nil(t, nilResolver.Tokens())
}

func TestCollectAddresses(t *testing.T) {
	calls := []model.DecodedCall{
		{
			Returns: []model.Return{
				{Name: "token0", Value: model.AddressValue(weth)},
				{Name: "token1", Value: model.AddressValue(usdt)},
				{Name: "operator", Value: model.AddressValue("0x9999999999999999999999999999999999999999")},
				{Name: "liquidity", Value: model.BigIntegerValue("1")},
			},
		},
		{
			Arguments: []model.Argument{
				{Index: 0, Value: model.AddressValue(usdt)},
				{Index: 1, Value: model.AddressValue("0x3333333333333333333333333333333333333333")},
				{Index: 2, Value: model.BigIntegerValue("3000")},
				{Index: 9, Value: model.AddressValue("0x4444444444444444444444444444444444444444")},
			},
		},
		{
			Arguments: []model.Argument{
				{Index: 0, Value: model.BigIntegerValue("7")},
				{Index: 1, Value: model.AddressValue("")},
			},
		},
	}

	require.Equal(t,
		[]string{weth, usdt, "0x3333333333333333333333333333333333333333"},
		CollectAddresses(calls))
	require.Empty(t, CollectAddresses(nil))
}
