package settings

import (
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

func NewSettings() *Settings {
	params, err := chaincfg.GetChainParams(getString("network", "mainnet"))
	if err != nil {
		panic(err)
	}

	return &Settings{
		ClientName:          getString("clientName", "chainstate"),
		DataFolder:          getString("dataFolder", "data"),
		HealthListenAddress: getString("healthListenAddress", ":8300"),
		ChainCfgParams:      params,
		CoinStore: CoinStoreSettings{
			StoreURL:             getURL("coinstore", "leveldb:///coins"),
			PostgresMaxIdleConns: getInt("coinstore_postgresMaxIdleConns", 10),
			PostgresMaxOpenConns: getInt("coinstore_postgresMaxOpenConns", 80),
			LevelDBWriteBufferMB: getInt("coinstore_leveldbWriteBufferMB", 16),
			LevelDBBlockCacheMB:  getInt("coinstore_leveldbBlockCacheMB", 64),
			LevelDBOpenFiles:     getInt("coinstore_leveldbOpenFiles", 256),
		},
		Validator: ValidatorSettings{
			ScriptInterpreter:   getString("validator_scriptInterpreter", "gobt"),
			CheckQueueWorkers:   getInt("validator_checkQueueWorkers", 0), // 0 = numcpu, capped at 15
			CheckQueueBatchSize: getInt("validator_checkQueueBatchSize", 128),
			MaxTxSizePolicy:     getInt("maxtxsizepolicy", 10485760), // 10MB
			MaxTxSigopsCount:    int64(getInt("maxtxsigopscountspolicy", 0)),
			MaxScriptSizePolicy: getInt("maxscriptsizepolicy", 500000), // 500KB
			AcceptNonStdOutputs: getBool("acceptnonstdoutputs", true),
			VerboseDebug:        getBool("validator_verboseDebug", false),
		},
		Mempool: MempoolSettings{
			MaxSizeBytes:           getUint64("mempool_maxSizeBytes", 300*1024*1024),
			MaxAncestorCount:       getInt("mempool_maxAncestorCount", 25),
			MaxAncestorSizeBytes:   getUint64("mempool_maxAncestorSizeBytes", 101*1000),
			MaxDescendantCount:     getInt("mempool_maxDescendantCount", 25),
			MaxDescendantSizeBytes: getUint64("mempool_maxDescendantSizeBytes", 101*1000),
			IncrementalFeeRate:     getFloat64("mempool_incrementalFeeRate", 1.0),
			MinFeeRateFloor:        getFloat64("mempool_minFeeRateFloor", 0.25),
			ReplacementFeeDelta:    getUint64("mempool_replacementFeeDelta", 1),
			RollingFeeHalflife:     getDuration("mempool_rollingFeeHalflife", 12*time.Hour),
			EntryExpiry:            getDuration("mempool_entryExpiry", 336*time.Hour),
			ExpiryCheckInterval:    getDuration("mempool_expiryCheckInterval", time.Hour),
			RecentRejectsCapacity:  getInt("mempool_recentRejectsCapacity", 120_000),
			RecentRejectsFPRate:    getFloat64("mempool_recentRejectsFPRate", 0.000001),
			NotificationBuffer:     getInt("mempool_notificationBuffer", 1_024),
		},
		Block: BlockSettings{
			CoinsCacheMaxMB:     getInt("block_coinsCacheMaxMB", 512),
			RecentBlocksTTL:     getDuration("block_recentBlocksTTL", 10*time.Minute),
			PrefetchConcurrency: getInt("block_prefetchConcurrency", 32),
			FailFastValidation:  getBool("block_failFastValidation", true),
		},
		SecureMem: SecureMemSettings{
			BudgetBytes: getInt("securemem_budgetBytes", 4*1024*1024),
			Strict:      getBool("securemem_strict", false),
		},
		Kafka: KafkaSettings{
			Hosts:             getString("KAFKA_HOSTS", ""),
			Port:              getInt("KAFKA_PORT", 9092),
			Partitions:        getInt("KAFKA_PARTITIONS", 1),
			ReplicationFactor: getInt("KAFKA_REPLICATION_FACTOR", 1),
			MempoolEvents:     getString("KAFKA_MEMPOOL_EVENTS", "mempool-events"),
			BlockEvents:       getString("KAFKA_BLOCK_EVENTS", "block-events"),
			RejectedTx:        getString("KAFKA_REJECTEDTX", "rejectedtx"),
			FlushBytes:        getInt("KAFKA_FLUSH_BYTES", 1024*1024),
			FlushMessages:     getInt("KAFKA_FLUSH_MESSAGES", 10_000),
			FlushFrequency:    getDuration("KAFKA_FLUSH_FREQUENCY", 100*time.Millisecond),
		},
	}
}
