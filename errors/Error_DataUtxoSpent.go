package errors

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// UtxoSpentErrData identifies the outpoint that was already spent and the
// transaction that spent it, attached to ERR_UTXO_SPENT errors so callers can
// resolve the conflict without parsing the message.
type UtxoSpentErrData struct {
	Hash           chainhash.Hash
	Index          uint32
	SpendingTxHash chainhash.Hash
	Time           time.Time
}

func (e *UtxoSpentErrData) Error() string {
	return fmt.Sprintf("utxo %s:%d already spent by %s at %s", e.Hash, e.Index, e.SpendingTxHash, e.Time)
}

func (e *UtxoSpentErrData) SetData(key string, value interface{}) {}

func (e *UtxoSpentErrData) GetData(key string) interface{} {
	switch key {
	case "hash":
		return e.Hash
	case "index":
		return e.Index
	case "spendingTxHash":
		return e.SpendingTxHash
	case "time":
		return e.Time
	}

	return nil
}

func (e *UtxoSpentErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

func NewUtxoSpentErr(hash chainhash.Hash, index uint32, spendingTxID chainhash.Hash, t time.Time, err error) error {
	utxoSpentErrStruct := &UtxoSpentErrData{
		Hash:           hash,
		Index:          index,
		SpendingTxHash: spendingTxID,
		Time:           t,
	}

	e := &Error{
		code:       ERR_UTXO_SPENT,
		message:    utxoSpentErrStruct.Error(),
		data:       utxoSpentErrStruct,
		wrappedErr: nil,
	}
	if err != nil {
		e.wrappedErr = err
	}

	return e
}
