package mempool

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/utxonet/chainstate/model"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/test"
)

const (
	p2pkhHex    = "76a9144bca0c466925b875875a8e1355698bdcc0b2d45d88ac"
	testAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

	coinbaseHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff1703fb03002f6d322d75732f0cb6d7d459fb411ef3ac6d65ffffffff03ac505763000000001976a914c362d5af234dd4e1f2a1bfbcab90036d38b0aa9f88acaa505763000000001976a9143c22b6d9ba7b50b6d6e615c69d11ecb2ba3db14588acaa505763000000001976a914b7177c7deb43f3869eabc25cfd9f618215f34d5588ac00000000"
)

// newTestPool builds a pool over the base test settings, tuned per test.
func newTestPool(t *testing.T, tune func(*settings.Settings), opts ...ServiceOption) *Mempool {
	t.Helper()

	tSettings := test.CreateBaseTestSettings()
	if tune != nil {
		tune(tSettings)
	}

	m := New(ulogger.TestLogger{}, tSettings, opts...)
	t.Cleanup(m.Close)

	return m
}

// spendRef points a test transaction at one spendable output, either a
// fabricated confirmed outpoint or an in-pool parent's output.
type spendRef struct {
	txidHex string
	vout    uint32
	value   uint64
}

func confirmedRef(label string, value uint64) spendRef {
	h := chainhash.HashH([]byte(label))

	return spendRef{txidHex: h.String(), vout: 0, value: value}
}

func childRef(parent *bt.Tx, vout uint32) spendRef {
	return spendRef{
		txidHex: parent.TxID(),
		vout:    vout,
		value:   parent.Outputs[vout].Satoshis,
	}
}

func refOutpoint(t *testing.T, ref spendRef) model.Outpoint {
	t.Helper()

	h, err := chainhash.NewHashFromStr(ref.txidHex)
	require.NoError(t, err)

	return model.Outpoint{Hash: *h, Index: ref.vout}
}

// newPoolTx builds a transaction spending refs with a single output worth
// the combined input value. Distinct refs give distinct txids.
func newPoolTx(t *testing.T, refs ...spendRef) *bt.Tx {
	return newPoolTxPaying(t, 0, refs...)
}

// newPoolTxPaying deducts fee from the output, so transactions spending
// the same refs still serialize to distinct txids.
func newPoolTxPaying(t *testing.T, fee uint64, refs ...spendRef) *bt.Tx {
	t.Helper()

	tx := bt.NewTx()

	var total uint64

	for _, ref := range refs {
		require.NoError(t, tx.From(ref.txidHex, ref.vout, p2pkhHex, ref.value))
		total += ref.value
	}

	require.NoError(t, tx.AddP2PKHOutputFromAddress(testAddress, total-fee))

	return tx
}

// newPoolTxOutputs splits the input value evenly over n outputs so several
// children can each spend their own one.
func newPoolTxOutputs(t *testing.T, outputs int, refs ...spendRef) *bt.Tx {
	t.Helper()

	tx := bt.NewTx()

	var total uint64

	for _, ref := range refs {
		require.NoError(t, tx.From(ref.txidHex, ref.vout, p2pkhHex, ref.value))
		total += ref.value
	}

	share := total / uint64(outputs)
	for i := 0; i < outputs; i++ {
		require.NoError(t, tx.AddP2PKHOutputFromAddress(testAddress, share))
	}

	return tx
}

func fees(fee, size uint64) *model.TxFees {
	return &model.TxFees{
		Fee:     fee,
		Size:    size,
		FeeRate: float64(fee) / float64(size),
	}
}

// admit requires a successful admission.
func admit(t *testing.T, m *Mempool, tx *bt.Tx, fee, size uint64) *AdmissionResult {
	t.Helper()

	result, err := m.TryAdmit(context.Background(), tx, fees(fee, size))
	require.NoError(t, err)
	require.True(t, result.Accepted)

	return result
}
