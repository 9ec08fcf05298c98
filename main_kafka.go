package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
	"github.com/utxonet/chainstate/util/kafka"
)

// newKafkaAsyncProducer builds and starts a producer for topic. Returns nil
// without error when no kafka hosts are configured; the daemon then runs
// without event publishing.
func newKafkaAsyncProducer(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, topic string) (kafka.AsyncProducerI, error) {
	if tSettings.Kafka.Hosts == "" || topic == "" {
		return nil, nil
	}

	hosts := strings.Split(tSettings.Kafka.Hosts, ",")
	for i, host := range hosts {
		if !strings.Contains(host, ":") {
			hosts[i] = fmt.Sprintf("%s:%d", host, tSettings.Kafka.Port)
		}
	}

	kafkaURL, err := url.Parse(fmt.Sprintf("kafka://%s/%s", strings.Join(hosts, ","), topic))
	if err != nil {
		return nil, errors.NewConfigurationError("invalid kafka URL for topic %s", topic, err)
	}

	producer, err := kafka.NewAsyncProducer(logger, kafkaURL, tSettings)
	if err != nil {
		return nil, err
	}

	producer.Start(ctx)

	return producer, nil
}

func newMempoolEventsProducer(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings) (kafka.AsyncProducerI, error) {
	return newKafkaAsyncProducer(ctx, logger, tSettings, tSettings.Kafka.MempoolEvents)
}

func newBlockEventsProducer(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings) (kafka.AsyncProducerI, error) {
	return newKafkaAsyncProducer(ctx, logger, tSettings, tSettings.Kafka.BlockEvents)
}

func newRejectedTxProducer(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings) (kafka.AsyncProducerI, error) {
	return newKafkaAsyncProducer(ctx, logger, tSettings, tSettings.Kafka.RejectedTx)
}
