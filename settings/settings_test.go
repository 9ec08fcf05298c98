package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// check settings object is initialised
func TestInitialiseSettings(t *testing.T) {
	tSettings := NewSettings()

	if tSettings.ChainCfgParams == nil {
		t.Errorf("ChainCfgParams is nil")
	}

	require.NotNil(t, tSettings.CoinStore.StoreURL)
	require.Equal(t, "leveldb", tSettings.CoinStore.StoreURL.Scheme)

	require.NotEmpty(t, tSettings.ClientName)
	require.NotEmpty(t, tSettings.DataFolder)
}

func TestMempoolDefaults(t *testing.T) {
	tSettings := NewSettings()

	assert.Equal(t, uint64(300*1024*1024), tSettings.Mempool.MaxSizeBytes)
	assert.Equal(t, 25, tSettings.Mempool.MaxAncestorCount)
	assert.Equal(t, uint64(101_000), tSettings.Mempool.MaxAncestorSizeBytes)
	assert.Equal(t, 25, tSettings.Mempool.MaxDescendantCount)
	assert.Equal(t, uint64(1), tSettings.Mempool.ReplacementFeeDelta)
	assert.Equal(t, 12*time.Hour, tSettings.Mempool.RollingFeeHalflife)
	assert.Equal(t, 336*time.Hour, tSettings.Mempool.EntryExpiry)
	assert.InDelta(t, 1.0, tSettings.Mempool.IncrementalFeeRate, 0.0001)
}

func TestValidatorDefaults(t *testing.T) {
	tSettings := NewSettings()

	assert.Equal(t, "gobt", tSettings.Validator.ScriptInterpreter)
	assert.Equal(t, 0, tSettings.Validator.CheckQueueWorkers)
	assert.Equal(t, 10485760, tSettings.Validator.MaxTxSizePolicy)
}

func TestBlockAndSecureMemDefaults(t *testing.T) {
	tSettings := NewSettings()

	assert.Equal(t, 512, tSettings.Block.CoinsCacheMaxMB)
	assert.True(t, tSettings.Block.FailFastValidation)

	assert.Equal(t, 4*1024*1024, tSettings.SecureMem.BudgetBytes)
	assert.False(t, tSettings.SecureMem.Strict)
}
