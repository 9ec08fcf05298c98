package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

type KafkaSettings struct {
	Hosts             string
	Port              int
	Partitions        int
	ReplicationFactor int
	MempoolEvents     string
	BlockEvents       string
	RejectedTx        string
	FlushBytes        int
	FlushMessages     int
	FlushFrequency    time.Duration
}

type CoinStoreSettings struct {
	StoreURL             *url.URL
	PostgresMaxIdleConns int
	PostgresMaxOpenConns int
	LevelDBWriteBufferMB int
	LevelDBBlockCacheMB  int
	LevelDBOpenFiles     int
}

type ValidatorSettings struct {
	ScriptInterpreter   string
	CheckQueueWorkers   int
	CheckQueueBatchSize int
	MaxTxSizePolicy     int
	MaxTxSigopsCount    int64
	MaxScriptSizePolicy int
	AcceptNonStdOutputs bool
	VerboseDebug        bool
}

type MempoolSettings struct {
	MaxSizeBytes           uint64
	MaxAncestorCount       int
	MaxAncestorSizeBytes   uint64
	MaxDescendantCount     int
	MaxDescendantSizeBytes uint64
	IncrementalFeeRate     float64
	MinFeeRateFloor        float64
	ReplacementFeeDelta    uint64
	RollingFeeHalflife     time.Duration
	EntryExpiry            time.Duration
	ExpiryCheckInterval    time.Duration
	RecentRejectsCapacity  int
	RecentRejectsFPRate    float64
	NotificationBuffer     int
}

type BlockSettings struct {
	CoinsCacheMaxMB     int
	RecentBlocksTTL     time.Duration
	PrefetchConcurrency int
	FailFastValidation  bool
}

type SecureMemSettings struct {
	BudgetBytes int
	Strict      bool
}

type Settings struct {
	ClientName          string
	DataFolder          string
	HealthListenAddress string
	ChainCfgParams      *chaincfg.Params
	CoinStore           CoinStoreSettings
	Validator           ValidatorSettings
	Mempool             MempoolSettings
	Block               BlockSettings
	SecureMem           SecureMemSettings
	Kafka               KafkaSettings
}
