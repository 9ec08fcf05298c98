package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/labstack/echo/v4"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/services/blockvalidation"
	"github.com/utxonet/chainstate/services/mempool"
	"github.com/utxonet/chainstate/services/validator"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/stores/coins"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/health"
	"github.com/utxonet/chainstate/util/securemem"
)

// Name used by build script for the binaries. (Please keep on single line)
const progname = "chainstate"

// Version & commit strings injected at build with -ldflags -X...
var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
}

func main() {
	logLevel, _ := gocore.Config().Get("logLevel")
	logger := ulogger.New(progname, ulogger.WithLevel(logLevel))

	startMempool := flag.Bool("mempool", true, "run the mempool")
	startBlockValidation := flag.Bool("blockvalidation", true, "run the block validation service")
	help := flag.Bool("help", false, "Show help")

	flag.Parse()

	if *help {
		fmt.Println("usage: chainstate [options]")
		fmt.Println("where options are:")
		fmt.Println("")
		fmt.Println("    -mempool=<1|0>")
		fmt.Println("          whether to run the mempool (default=1)")
		fmt.Println("")
		fmt.Println("    -blockvalidation=<1|0>")
		fmt.Println("          whether to run the block validation service (default=1)")
		fmt.Println("")
		return
	}

	stats := gocore.Config().Stats()
	logger.Infof("STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

	go func() {
		profilerAddr, ok := gocore.Config().Get("profilerAddr")
		if ok {
			logger.Infof("Starting profiler on http://%s/debug/pprof", profilerAddr)
			logger.Fatalf("%v", http.ListenAndServe(profilerAddr, nil))
		}
	}()

	prometheusEndpoint, ok := gocore.Config().Get("prometheusEndpoint")
	if ok && prometheusEndpoint != "" {
		logger.Infof("Starting prometheus endpoint on %s", prometheusEndpoint)
		http.Handle(prometheusEndpoint, promhttp.Handler())
	}

	tSettings := settings.NewSettings()

	if err := preflightSecureMem(logger, tSettings); err != nil {
		logger.Fatalf("locked memory preflight failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	store, err := getCoinStore(logger, tSettings)
	if err != nil {
		logger.Fatalf("failed to open coin store: %v", err)
	}

	tip := getTipView(logger, store)

	rejectedTxProducer, err := newRejectedTxProducer(ctx, logger, tSettings)
	if err != nil {
		logger.Fatalf("failed to start rejected tx producer: %v", err)
	}

	var validatorOpts []validator.ServiceOption
	if rejectedTxProducer != nil {
		validatorOpts = append(validatorOpts, validator.WithRejectedTxProducer(rejectedTxProducer))
	}

	v, err := validator.NewValidator(logger, tSettings, tip, validatorOpts...)
	if err != nil {
		logger.Fatalf("failed to create validator: %v", err)
	}

	var pool *mempool.Mempool

	if *startMempool {
		mempoolEventsProducer, err := newMempoolEventsProducer(ctx, logger, tSettings)
		if err != nil {
			logger.Fatalf("failed to start mempool events producer: %v", err)
		}

		var poolOpts []mempool.ServiceOption
		if mempoolEventsProducer != nil {
			poolOpts = append(poolOpts, mempool.WithEventsProducer(mempoolEventsProducer))
		}

		pool = mempool.New(logger, tSettings, poolOpts...)
		pool.Start(ctx)

		logger.Infof("Started mempool, cap %d bytes", tSettings.Mempool.MaxSizeBytes)
	}

	var blockValidator *blockvalidation.BlockValidator

	if *startBlockValidation {
		blockEventsProducer, err := newBlockEventsProducer(ctx, logger, tSettings)
		if err != nil {
			logger.Fatalf("failed to start block events producer: %v", err)
		}

		bvOpts := make([]blockvalidation.ServiceOption, 0, 2)
		if pool != nil {
			bvOpts = append(bvOpts, blockvalidation.WithMempool(pool))
		}

		if blockEventsProducer != nil {
			bvOpts = append(bvOpts, blockvalidation.WithBlockEventsProducer(blockEventsProducer))
		}

		blockValidator, err = blockvalidation.New(logger, tSettings, v, tip, bvOpts...)
		if err != nil {
			logger.Fatalf("failed to create block validation service: %v", err)
		}

		logger.Infof("Started block validation")
	}

	healthServer := startHealthServer(logger, tSettings, store, v, pool, blockValidator)

	select {
	case <-interrupt:
	case <-ctx.Done():
	}

	logger.Infof("received shutdown signal")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if healthServer != nil {
		_ = healthServer.Shutdown(shutdownCtx)
	}

	// flushes the tip view, so this has to happen before the store closes
	if blockValidator != nil {
		if err := blockValidator.Close(shutdownCtx); err != nil {
			logger.Errorf("failed to flush tip view on shutdown: %v", err)
		}
	}

	if pool != nil {
		pool.Close()
	}

	v.Close()

	if err := store.Close(); err != nil {
		logger.Errorf("failed to close coin store: %v", err)
	}

	logger.Infof("shutdown complete")
}

// preflightSecureMem probes the mlock budget once before any service starts.
// A refused probe means RLIMIT_MEMLOCK is below the configured budget; the
// arena warns on fallback and in strict mode the probe fails the startup.
func preflightSecureMem(logger ulogger.Logger, tSettings *settings.Settings) error {
	budget, err := safeconversion.IntToUint64(tSettings.SecureMem.BudgetBytes)
	if err != nil {
		return errors.NewConfigurationError("invalid securemem budget %d", tSettings.SecureMem.BudgetBytes, err)
	}

	arena := securemem.NewArena(logger, budget, tSettings.SecureMem.Strict)
	defer arena.Close()

	buf, err := arena.Alloc(os.Getpagesize())
	if err != nil {
		return err
	}

	locked := buf.Locked()
	buf.Free()

	if locked {
		logger.Infof("Locked memory probe ok, budget %d bytes", budget)
	}

	return nil
}

// startHealthServer serves /health and /health/liveness for the services
// that are running.
func startHealthServer(logger ulogger.Logger, tSettings *settings.Settings, store coins.Store, v *validator.Validator, pool *mempool.Mempool, blockValidator *blockvalidation.BlockValidator) *echo.Echo {
	checks := []health.Check{
		{Name: "CoinStore", Check: store.Health},
		{Name: "Validator", Check: v.Health},
	}

	if pool != nil {
		checks = append(checks, health.Check{Name: "Mempool", Check: pool.Health})
	}

	if blockValidator != nil {
		checks = append(checks, health.Check{Name: "BlockValidation", Check: blockValidator.Health})
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/health", func(c echo.Context) error {
		status, msg, _ := health.CheckAll(c.Request().Context(), false, checks)

		return c.JSONBlob(status, []byte(msg))
	})

	e.GET("/health/liveness", func(c echo.Context) error {
		status, msg, _ := health.CheckAll(c.Request().Context(), true, checks)

		return c.JSONBlob(status, []byte(msg))
	})

	go func() {
		logger.Infof("Starting health endpoint on %s", tSettings.HealthListenAddress)

		if err := e.Start(tSettings.HealthListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("health server stopped: %v", err)
		}
	}()

	return e
}
