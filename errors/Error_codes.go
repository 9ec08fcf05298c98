package errors

import "fmt"

// ERR is the numeric code carried by every Error. Codes are grouped in ranges
// by subsystem: 0-9 general, 10-19 block, 20-39 transaction, 40-49 mempool,
// 50-59 service, 60-69 storage, 70-79 utxo, 80-89 kafka.
type ERR int32

const (
	ERR_UNKNOWN            ERR = 0
	ERR_INVALID_ARGUMENT   ERR = 1
	ERR_THRESHOLD_EXCEEDED ERR = 2
	ERR_NOT_FOUND          ERR = 3
	ERR_PROCESSING         ERR = 4
	ERR_CONFIGURATION      ERR = 5
	ERR_CONTEXT            ERR = 6
	ERR_CONTEXT_CANCELED   ERR = 7
	ERR_ERROR              ERR = 9

	ERR_BLOCK_NOT_FOUND ERR = 10
	ERR_BLOCK_INVALID   ERR = 11
	ERR_BLOCK_EXISTS    ERR = 12
	ERR_BLOCK_ERROR     ERR = 13

	ERR_TX_NOT_FOUND         ERR = 20
	ERR_TX_INVALID           ERR = 21
	ERR_TX_CONFLICTING       ERR = 22
	ERR_TX_MISSING_PARENT    ERR = 23
	ERR_TX_ALREADY_EXISTS    ERR = 24
	ERR_TX_POLICY            ERR = 25
	ERR_TX_COINBASE_IMMATURE ERR = 26
	ERR_TX_LOCKTIME          ERR = 27
	ERR_TX_ERROR             ERR = 29

	ERR_MEMPOOL_FULL  ERR = 40
	ERR_MEMORY_BUDGET ERR = 41

	ERR_SERVICE_UNAVAILABLE ERR = 50
	ERR_SERVICE_NOT_STARTED ERR = 51
	ERR_SERVICE_ERROR       ERR = 52

	ERR_STORAGE_UNAVAILABLE ERR = 60
	ERR_STORAGE_NOT_STARTED ERR = 61
	ERR_STORAGE_ERROR       ERR = 62

	ERR_UTXO_NOT_FOUND ERR = 70
	ERR_UTXO_SPENT     ERR = 71
	ERR_UTXO_EXISTS    ERR = 72

	ERR_KAFKA_ERROR ERR = 80
)

var ERR_name = map[int32]string{
	0: "UNKNOWN",
	1: "INVALID_ARGUMENT",
	2: "THRESHOLD_EXCEEDED",
	3: "NOT_FOUND",
	4: "PROCESSING",
	5: "CONFIGURATION",
	6: "CONTEXT",
	7: "CONTEXT_CANCELED",
	9: "ERROR",

	10: "BLOCK_NOT_FOUND",
	11: "BLOCK_INVALID",
	12: "BLOCK_EXISTS",
	13: "BLOCK_ERROR",

	20: "TX_NOT_FOUND",
	21: "TX_INVALID",
	22: "TX_CONFLICTING",
	23: "TX_MISSING_PARENT",
	24: "TX_ALREADY_EXISTS",
	25: "TX_POLICY",
	26: "TX_COINBASE_IMMATURE",
	27: "TX_LOCKTIME",
	29: "TX_ERROR",

	40: "MEMPOOL_FULL",
	41: "MEMORY_BUDGET",

	50: "SERVICE_UNAVAILABLE",
	51: "SERVICE_NOT_STARTED",
	52: "SERVICE_ERROR",

	60: "STORAGE_UNAVAILABLE",
	61: "STORAGE_NOT_STARTED",
	62: "STORAGE_ERROR",

	70: "UTXO_NOT_FOUND",
	71: "UTXO_SPENT",
	72: "UTXO_EXISTS",

	80: "KAFKA_ERROR",
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return fmt.Sprintf("ERR(%d)", int32(x))
}
