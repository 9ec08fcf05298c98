package errors

import (
	"encoding/json"
	"fmt"
)

// ErrDataI is the structured payload an error can carry across process
// boundaries. Typed payloads (see UtxoSpentErrData) round-trip through the
// same encoding as the generic map.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is the generic key-value payload used when no typed payload is
// registered for an error code.
type ErrData map[string]interface{}

func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	(*e)[key] = value
}

func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

// EncodeErrorData renders the payload as JSON. Encoding failures yield an
// empty payload rather than an error, the data is advisory.
func (e *ErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// GetErrorData decodes an error's attached payload. The double-spend error
// carries a typed payload; every other code decodes into the generic map.
func GetErrorData(code ERR, dataBytes []byte) (ErrDataI, error) {
	var errData ErrDataI
	if code == ERR_UTXO_SPENT {
		errData = &UtxoSpentErrData{}
	} else {
		errData = &ErrData{}
	}

	if err := json.Unmarshal(dataBytes, errData); err != nil {
		return errData, err
	}

	return errData, nil
}
