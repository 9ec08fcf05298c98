package kafka

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/settings"
	"github.com/utxonet/chainstate/ulogger"
)

// MessageStatus records the outcome of the most recent delivery attempt, for
// health reporting.
type MessageStatus struct {
	Success bool
	Error   error
	Time    time.Time
}

// AsyncProducer publishes messages to a single topic through a sarama async
// producer. Publishing never blocks on the broker; delivery results are
// collected in the background.
type AsyncProducer struct {
	logger   ulogger.Logger
	url      *url.URL
	topic    string
	brokers  []string
	producer sarama.AsyncProducer

	publishCh chan *Message

	mu                sync.Mutex
	lastMessageStatus MessageStatus

	closeOnce sync.Once
}

// NewAsyncProducer connects to the brokers named by kafkaURL
// (kafka://host1,host2/topic) and ensures the topic exists.
func NewAsyncProducer(logger ulogger.Logger, kafkaURL *url.URL, tSettings *settings.Settings) (*AsyncProducer, error) {
	logger.Debugf("[Kafka] starting async producer for %v", kafkaURL)

	if kafkaURL == nil || len(kafkaURL.Path) < 2 {
		return nil, errors.NewConfigurationError("kafka URL must name a topic")
	}

	topic := kafkaURL.Path[1:]
	brokersURL := strings.Split(kafkaURL.Host, ",")

	config := sarama.NewConfig()
	// unique client id per instance, so broker logs and quotas distinguish
	// restarted processes
	config.ClientID = tSettings.ClientName + "-" + uuid.New().String()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	config.Producer.Flush.Bytes = tSettings.Kafka.FlushBytes
	config.Producer.Flush.Messages = tSettings.Kafka.FlushMessages
	config.Producer.Flush.Frequency = tSettings.Kafka.FlushFrequency

	clusterAdmin, err := sarama.NewClusterAdmin(brokersURL, config)
	if err != nil {
		return nil, errors.NewConfigurationError("error while creating cluster admin", err)
	}

	defer func(clusterAdmin sarama.ClusterAdmin) {
		_ = clusterAdmin.Close()
	}(clusterAdmin)

	retentionPeriod := strconv.Itoa(int(10 * time.Minute / time.Millisecond))
	segmentBytes := strconv.Itoa(1 << 30)

	if err = clusterAdmin.CreateTopic(topic, &sarama.TopicDetail{
		NumPartitions:     int32(tSettings.Kafka.Partitions),        // nolint:gosec
		ReplicationFactor: int16(tSettings.Kafka.ReplicationFactor), // nolint:gosec
		ConfigEntries: map[string]*string{
			"retention.ms":        &retentionPeriod,
			"delete.retention.ms": &retentionPeriod,
			"segment.ms":          &retentionPeriod,
			"segment.bytes":       &segmentBytes,
		},
	}, false); err != nil {
		if !errors.Is(err, sarama.ErrTopicAlreadyExists) {
			return nil, errors.NewKafkaError("unable to create topic %s", topic, err)
		}
	}

	producer, err := sarama.NewAsyncProducer(brokersURL, config)
	if err != nil {
		return nil, errors.NewKafkaError("failed to start async producer for %v", kafkaURL, err)
	}

	return &AsyncProducer{
		logger:    logger,
		url:       kafkaURL,
		topic:     topic,
		brokers:   brokersURL,
		producer:  producer,
		publishCh: make(chan *Message, 10_000),
		lastMessageStatus: MessageStatus{
			Success: true,
			Time:    time.Now(),
		},
	}, nil
}

// Start pumps published messages into the broker until the context is done.
func (c *AsyncProducer) Start(ctx context.Context) {
	if c == nil {
		return
	}

	go func() {
		for range c.producer.Successes() {
			c.mu.Lock()
			c.lastMessageStatus = MessageStatus{
				Success: true,
				Time:    time.Now(),
			}
			c.mu.Unlock()
		}
	}()

	go func() {
		for err := range c.producer.Errors() {
			c.logger.Errorf("[Kafka] failed to deliver message to %s: %v", c.topic, err)

			c.mu.Lock()
			c.lastMessageStatus = MessageStatus{
				Success: false,
				Error:   err,
				Time:    time.Now(),
			}
			c.mu.Unlock()
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Infof("[Kafka] context done, shutting down producer %v", c.url)
				_ = c.Stop()

				return
			case msg := <-c.publishCh:
				producerMessage := &sarama.ProducerMessage{
					Topic: c.topic,
					Value: sarama.ByteEncoder(msg.Value),
				}

				if msg.Key != nil {
					producerMessage.Key = sarama.ByteEncoder(msg.Key)
				}

				c.producer.Input() <- producerMessage
			}
		}
	}()
}

// Publish queues a message for delivery. When the buffer is full the message
// is dropped and logged, events are best effort.
func (c *AsyncProducer) Publish(msg *Message) {
	if c == nil {
		return
	}

	select {
	case c.publishCh <- msg:
	default:
		c.logger.Warnf("[Kafka] publish buffer full, dropping message for topic %s", c.topic)
	}
}

// Stop shuts the producer down. Safe to call more than once.
func (c *AsyncProducer) Stop() error {
	if c == nil {
		return nil
	}

	c.closeOnce.Do(func() {
		c.producer.AsyncClose()
	})

	return nil
}

func (c *AsyncProducer) BrokersURL() []string {
	return c.brokers
}

// LastStatus returns the outcome of the most recent delivery attempt.
func (c *AsyncProducer) LastStatus() MessageStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastMessageStatus
}
