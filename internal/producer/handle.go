package producer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/atomic"
)

// Delivery describes where an acknowledged message landed.
type Delivery struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Handle is the record published to worker units: the live client together
// with the serializers resolved for it. Workers may produce through it but
// only the Manager can tear it down.
type Handle struct {
	client          Client
	keySerializer   Serializer
	valueSerializer Serializer
	keyScheme       string
	valueScheme     string
	clientID        string

	// mu is held shared while enqueueing and exclusively during teardown.
	mu      sync.RWMutex
	closing atomic.Bool
	done    chan struct{}
}

func newHandle(client Client, key, value Serializer, keyScheme, valueScheme, clientID string) *Handle {
	return &Handle{
		client:          client,
		keySerializer:   key,
		valueSerializer: value,
		keyScheme:       keyScheme,
		valueScheme:     valueScheme,
		clientID:        clientID,
		done:            make(chan struct{}),
	}
}

// KeySerializer returns the configured key-serialization scheme identifier.
func (h *Handle) KeySerializer() string {
	return h.keyScheme
}

// ValueSerializer returns the configured value-serialization scheme identifier.
func (h *Handle) ValueSerializer() string {
	return h.valueScheme
}

// ClientID returns the client.id the producer was built with.
func (h *Handle) ClientID() string {
	return h.clientID
}

// Closed reports whether teardown has begun.
func (h *Handle) Closed() bool {
	return h.closing.Load()
}

// Produce serializes key and value, enqueues the message and waits for its
// delivery report, ctx cancellation or client teardown.
func (h *Handle) Produce(ctx context.Context, topic string, key, value any) (*Delivery, error) {
	keyBytes, err := h.keySerializer.Serialize(key)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize key: %w", err)
	}
	valueBytes, err := h.valueSerializer.Serialize(value)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize value: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := h.enqueue(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            keyBytes,
		Value:          valueBytes,
	}, deliveryChan); err != nil {
		return nil, err
	}

	select {
	case e := <-deliveryChan:
		return toDelivery(e)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		// a report may have raced with teardown
		select {
		case e := <-deliveryChan:
			return toDelivery(e)
		default:
			return nil, ErrClientClosed
		}
	}
}

func (h *Handle) enqueue(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closing.Load() {
		return ErrClientClosed
	}
	if err := h.client.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func toDelivery(e kafka.Event) (*Delivery, error) {
	switch ev := e.(type) {
	case *kafka.Message:
		if ev.TopicPartition.Error != nil {
			return nil, fmt.Errorf("delivery failed: %w", ev.TopicPartition.Error)
		}
		d := &Delivery{
			Partition: ev.TopicPartition.Partition,
			Offset:    int64(ev.TopicPartition.Offset),
		}
		if ev.TopicPartition.Topic != nil {
			d.Topic = *ev.TopicPartition.Topic
		}
		return d, nil
	case kafka.Error:
		return nil, fmt.Errorf("delivery failed: %w", ev)
	default:
		return nil, fmt.Errorf("unexpected delivery event %T", e)
	}
}

// shutdown blocks new sends, flushes, then closes. Close is issued even if
// flush fails. Errors are returned per stage.
func (h *Handle) shutdown(flushTimeout time.Duration) (flushErr, closeErr error) {
	h.closing.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	defer close(h.done)

	flushErr = h.flush(flushTimeout)
	closeErr = guard("close", h.client.Close)
	return flushErr, closeErr
}

func (h *Handle) flush(timeout time.Duration) error {
	var remaining int
	if err := guard("flush", func() {
		remaining = h.client.Flush(int(timeout / time.Millisecond))
	}); err != nil {
		return err
	}
	if remaining > 0 {
		return fmt.Errorf("%w: %d messages still in flight after %s", ErrFlushIncomplete, remaining, timeout)
	}
	return nil
}

// guard converts a panic raised by the client into an error.
func guard(stage string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("producer %s failed: %w", stage, e)
				return
			}
			err = fmt.Errorf("producer %s failed: %v", stage, r)
		}
	}()
	fn()
	return nil
}
