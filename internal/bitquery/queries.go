package bitquery

import (
	"fmt"
	"strings"
)

const valueFragment = `Value {
        ... on EVM_ABI_Address_Value_Arg { address }
        ... on EVM_ABI_BigInt_Value_Arg { bigInteger }
        ... on EVM_ABI_Bytes_Value_Arg { hex }
        ... on EVM_ABI_Boolean_Value_Arg { bool }
        ... on EVM_ABI_String_Value_Arg { string }
        ... on EVM_ABI_Integer_Value_Arg { integer }
      }`

const callFields = `Arguments {
      Index
      Name
      Type
      Path { Name Index }
      ` + valueFragment + `
    }
    Call {
      Signature { Name }
      To
      Value
      ValueInUSD
      From
    }
    Transaction {
      From
      To
      Hash
      ValueInUSD
      Value
      Time
    }
    Block {
      Number
      Time
    }`

const returnFields = `
    Returns {
      ` + valueFragment + `
      Type
      Name
    }`

// callQuery selects one batch of calls to the position manager.
type callQuery struct {
	Signature string
	Returns   bool
	Archive   bool
}

func (q callQuery) name() string {
	dataset := "Realtime"
	if q.Archive {
		dataset = "Historical"
	}
	if q.Signature == "" {
		return dataset + "Calls"
	}
	return dataset + strings.ToUpper(q.Signature[:1]) + q.Signature[1:] + "Calls"
}

// document renders the GraphQL text. Archive queries take $startDate and
// $endDate; every query takes $signature, $contract and $limit.
func (q callQuery) document() string {
	var (
		params  = "$signature: String!, $contract: String!, $limit: Int!"
		evm     = "EVM(network: eth)"
		blockBy = ""
		returns = ""
	)
	if q.Archive {
		params += ", $startDate: String!, $endDate: String!"
		evm = "EVM(dataset: archive, network: eth)"
		blockBy = "\n      Block: { Date: { after: $startDate, before: $endDate } }"
	}
	if q.Returns {
		returns = returnFields
	}
	return fmt.Sprintf(`query %s(%s) {
  %s {
    Calls(
      where: {
        Call: {
          Signature: { Name: { is: $signature } }
          To: { is: $contract }
        }%s
      }
      limit: { count: $limit }
      orderBy: { descending: Block_Number }
    ) {
    %s%s
    }
  }
}`, q.name(), params, evm, blockBy, callFields, returns)
}

const transfersDocument = `query TokenDecimals($tokens: [String!], $startDate: String!, $endDate: String!) {
  EVM(network: eth, dataset: archive) {
    Transfers(
      where: {
        Transfer: { Currency: { SmartContract: { in: $tokens } } }
        Block: { Date: { after: $startDate, before: $endDate } }
      }
      limitBy: { by: Transfer_Currency_SmartContract, count: 1 }
      limit: { count: 1000 }
      orderBy: { descending: Block_Number }
    ) {
      Transfer {
        Currency {
          Decimals
          Symbol
          SmartContract
          Name
        }
      }
    }
  }
}`
