package sampler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kafkameter/internal/logger"
	"kafkameter/internal/metrics"
	"kafkameter/internal/models"
	"kafkameter/internal/producer"
)

// ClientSource gives worker units read access to the shared producer.
type ClientSource interface {
	Client() (*producer.Handle, bool)
}

// FailureSink records failed samples.
type FailureSink interface {
	Push(ctx context.Context, result models.SampleResult) error
}

// Sampler is the worker unit: it sends one message per Sample call through
// the shared client and records the outcome.
type Sampler struct {
	source ClientSource
	sink   FailureSink
	topic  string
	runID  string
	log    *logrus.Entry
}

// New creates a Sampler. sink may be nil.
func New(source ClientSource, sink FailureSink, topic, runID string) *Sampler {
	return &Sampler{
		source: source,
		sink:   sink,
		topic:  topic,
		runID:  runID,
		log:    logger.WithRun(runID),
	}
}

// Sample sends a single message and returns its result. A missing client
// fails the sample with producer.ErrNoClient.
func (s *Sampler) Sample(ctx context.Context, worker, sequence int, payload string) models.SampleResult {
	msg := models.SampleMessage{
		ID:        uuid.New().String(),
		RunID:     s.runID,
		Worker:    worker,
		Sequence:  sequence,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	result := models.SampleResult{
		RunID:     s.runID,
		Worker:    worker,
		Sequence:  sequence,
		Key:       msg.GetKey(),
		Topic:     s.topic,
		Timestamp: msg.Timestamp,
	}

	start := time.Now()
	delivery, err := s.send(ctx, msg)
	result.Latency = time.Since(start)
	metrics.SampleLatency.Observe(result.Latency.Seconds())

	if err != nil {
		result.Status = models.SampleFailure
		result.Error = err.Error()
		metrics.SamplesTotal.WithLabelValues(string(models.SampleFailure)).Inc()
		s.recordFailure(result)
		return result
	}

	result.Status = models.SampleSuccess
	result.Partition = delivery.Partition
	result.Offset = delivery.Offset
	metrics.SamplesTotal.WithLabelValues(string(models.SampleSuccess)).Inc()
	return result
}

func (s *Sampler) send(ctx context.Context, msg models.SampleMessage) (*producer.Delivery, error) {
	h, ok := s.source.Client()
	if !ok {
		return nil, producer.ErrNoClient
	}
	return h.Produce(ctx, s.topic, KeyFor(h.KeySerializer(), msg), ValueFor(h.ValueSerializer(), msg))
}

func (s *Sampler) recordFailure(result models.SampleResult) {
	s.log.WithFields(logrus.Fields{
		"worker":   result.Worker,
		"sequence": result.Sequence,
		"error":    result.Error,
	}).Debug("Sample failed")

	if s.sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.sink.Push(ctx, result); err != nil {
		s.log.Errorf("Failed to store failed sample: %v", err)
	}
}

// KeyFor shapes a message key to match the published key-serialization
// scheme. Numeric schemes key by sequence number.
func KeyFor(scheme string, msg models.SampleMessage) any {
	switch producer.SchemeName(scheme) {
	case "ByteArraySerializer", "BytesSerializer":
		return []byte(msg.GetKey())
	case "LongSerializer":
		return int64(msg.Sequence)
	case "IntegerSerializer":
		return msg.Sequence
	case "VoidSerializer":
		return nil
	default:
		return msg.GetKey()
	}
}

// ValueFor shapes a message to match the published value-serialization scheme.
func ValueFor(scheme string, msg models.SampleMessage) any {
	switch producer.SchemeName(scheme) {
	case "JsonSerializer", "KafkaJsonSerializer":
		return msg
	case "ByteArraySerializer", "BytesSerializer":
		return []byte(msg.Payload)
	case "LongSerializer":
		return int64(msg.Sequence)
	case "IntegerSerializer":
		return msg.Sequence
	case "VoidSerializer":
		return nil
	default:
		return msg.Payload
	}
}
