package mempool

import (
	"encoding/binary"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"go.uber.org/atomic"

	"github.com/utxonet/chainstate/errors"
	"github.com/utxonet/chainstate/util/kafka"
)

// RemovalReason says why an entry left the pool.
type RemovalReason string

const (
	ReasonExpiry    RemovalReason = "expiry"
	ReasonSizeLimit RemovalReason = "size-limit"
	ReasonConflict  RemovalReason = "conflict"
	ReasonBlock     RemovalReason = "block"
	ReasonReplaced  RemovalReason = "replaced"
	ReasonReorg     RemovalReason = "reorg"
)

// NotificationType separates admissions from removals on the subscriber
// channel.
type NotificationType byte

const (
	NotificationAdmitted NotificationType = iota
	NotificationRemoved
)

// Notification is one pool change. Reason is set for removals only.
type Notification struct {
	Type   NotificationType
	Entry  *Entry
	Reason RemovalReason
}

// notifier fans pool events out to subscribers and kafka without ever
// blocking the pool. A subscriber that stops draining loses events, counted
// in dropped.
type notifier struct {
	mu          sync.Mutex
	subscribers []chan Notification
	closed      bool
	buffer      int

	producer kafka.AsyncProducerI
	dropped  atomic.Uint64
}

// subscribe registers a new subscriber channel. After close it returns a
// closed channel so late subscribers see end of stream, not a hang.
func (n *notifier) subscribe() <-chan Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Notification, n.buffer)

	if n.closed {
		close(ch)
		return ch
	}

	n.subscribers = append(n.subscribers, ch)

	return ch
}

func (n *notifier) publish(notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	for _, ch := range n.subscribers {
		select {
		case ch <- notification:
		default:
			n.dropped.Inc()
			prometheusMempoolDroppedNotifications.Inc()
		}
	}

	if n.producer != nil {
		n.producer.Publish(&kafka.Message{
			Key:   notification.Entry.TxID.CloneBytes(),
			Value: newEventData(notification).Bytes(),
		})
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	n.closed = true

	for _, ch := range n.subscribers {
		close(ch)
	}

	n.subscribers = nil
}

// EventData is the payload published to the mempool events topic: the kind
// of change, the transaction id, its fee and size, and the removal reason.
type EventData struct {
	Type   NotificationType
	TxID   chainhash.Hash
	Fee    uint64
	Size   uint64
	Reason string
}

func newEventData(notification Notification) *EventData {
	return &EventData{
		Type:   notification.Type,
		TxID:   notification.Entry.TxID,
		Fee:    notification.Entry.Fee,
		Size:   notification.Entry.Size,
		Reason: string(notification.Reason),
	}
}

// Bytes serializes the payload as a type byte, 32 bytes of txid, fee and
// size in little-endian and the reason string.
func (d *EventData) Bytes() []byte {
	b := make([]byte, 0, 1+chainhash.HashSize+16+len(d.Reason))
	b = append(b, byte(d.Type))
	b = append(b, d.TxID[:]...)

	var u64 [8]byte

	binary.LittleEndian.PutUint64(u64[:], d.Fee)
	b = append(b, u64[:]...)

	binary.LittleEndian.PutUint64(u64[:], d.Size)
	b = append(b, u64[:]...)

	return append(b, d.Reason...)
}

// NewEventDataFromBytes deserializes a payload written by Bytes.
func NewEventDataFromBytes(b []byte) (*EventData, error) {
	const fixed = 1 + chainhash.HashSize + 16

	if len(b) < fixed {
		return nil, errors.NewInvalidArgumentError("mempool event payload too short, %d bytes", len(b))
	}

	d := &EventData{Type: NotificationType(b[0])}

	copy(d.TxID[:], b[1:1+chainhash.HashSize])
	d.Fee = binary.LittleEndian.Uint64(b[1+chainhash.HashSize:])
	d.Size = binary.LittleEndian.Uint64(b[1+chainhash.HashSize+8:])
	d.Reason = string(b[fixed:])

	return d, nil
}
