package sampler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafkameter/internal/models"
	"kafkameter/internal/producer"
)

type ackClient struct {
	mu       sync.Mutex
	messages []*kafka.Message
	failWith error
}

func (c *ackClient) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)

	reply := *msg
	reply.TopicPartition.Partition = 2
	reply.TopicPartition.Offset = kafka.Offset(len(c.messages))
	reply.TopicPartition.Error = c.failWith
	deliveryChan <- &reply
	return nil
}

func (c *ackClient) Flush(int) int { return 0 }
func (c *ackClient) Close()        {}

type memorySink struct {
	mu      sync.Mutex
	results []models.SampleResult
}

func (s *memorySink) Push(_ context.Context, r models.SampleResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

type emptySource struct{}

func (emptySource) Client() (*producer.Handle, bool) { return nil, false }

func startedManager(t *testing.T, valueSerializer string, c *ackClient) *producer.Manager {
	t.Helper()
	return startedManagerWithKey(t, "StringSerializer", valueSerializer, c)
}

func startedManagerWithKey(t *testing.T, keySerializer, valueSerializer string, c *ackClient) *producer.Manager {
	t.Helper()
	m := producer.NewManager(producer.Settings{
		Brokers:         "localhost:9092",
		BatchSize:       "16384",
		ClientID:        "sampler-test",
		KeySerializer:   keySerializer,
		ValueSerializer: valueSerializer,
	}, nil, producer.WithClientFactory(producer.ClientFactoryFunc(func(*kafka.ConfigMap) (producer.Client, error) {
		return c, nil
	})))
	m.TestStarted()
	t.Cleanup(func() { _ = m.TestEnded() })
	return m
}

func TestSampler_Success(t *testing.T) {
	c := &ackClient{}
	m := startedManager(t, "org.apache.kafka.common.serialization.StringSerializer", c)
	s := New(m, nil, "load", "run-1")

	r := s.Sample(context.Background(), 1, 5, "payload")

	assert.True(t, r.Succeeded(), r.Error)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 1, r.Worker)
	assert.Equal(t, 5, r.Sequence)
	assert.Equal(t, int32(2), r.Partition)
	assert.Equal(t, int64(1), r.Offset)

	require.Len(t, c.messages, 1)
	assert.Equal(t, []byte(r.Key), c.messages[0].Key)
	assert.Equal(t, []byte("payload"), c.messages[0].Value)
}

func TestSampler_JSONValue(t *testing.T) {
	c := &ackClient{}
	m := startedManager(t, "JsonSerializer", c)
	s := New(m, nil, "load", "run-1")

	r := s.Sample(context.Background(), 0, 0, "payload")
	require.True(t, r.Succeeded(), r.Error)

	require.Len(t, c.messages, 1)
	assert.Contains(t, string(c.messages[0].Value), `"payload":"payload"`)
	assert.Contains(t, string(c.messages[0].Value), `"runId":"run-1"`)
}

func TestSampler_NoClient(t *testing.T) {
	sink := &memorySink{}
	s := New(emptySource{}, sink, "load", "run-1")

	r := s.Sample(context.Background(), 0, 0, "payload")

	assert.Equal(t, models.SampleFailure, r.Status)
	assert.Equal(t, producer.ErrNoClient.Error(), r.Error)
	require.Len(t, sink.results, 1)
	assert.Equal(t, r, sink.results[0])
}

func TestSampler_DeliveryFailure(t *testing.T) {
	c := &ackClient{failWith: errors.New("leader not available")}
	m := startedManager(t, "StringSerializer", c)
	sink := &memorySink{}
	s := New(m, sink, "load", "run-1")

	r := s.Sample(context.Background(), 0, 0, "payload")

	assert.False(t, r.Succeeded())
	assert.Contains(t, r.Error, "leader not available")
	assert.Len(t, sink.results, 1)
}

func TestValueFor(t *testing.T) {
	msg := models.SampleMessage{Payload: "p", Sequence: 9}

	assert.Equal(t, "p", ValueFor("StringSerializer", msg))
	assert.Equal(t, []byte("p"), ValueFor("org.apache.kafka.common.serialization.ByteArraySerializer", msg))
	assert.Equal(t, int64(9), ValueFor("LongSerializer", msg))
	assert.Equal(t, 9, ValueFor("IntegerSerializer", msg))
	assert.Equal(t, msg, ValueFor("JsonSerializer", msg))
	assert.Nil(t, ValueFor("VoidSerializer", msg))
}

func TestSampler_KeyShapedByScheme(t *testing.T) {
	tests := []struct {
		scheme string
		want   []byte
	}{
		{"org.apache.kafka.common.serialization.LongSerializer", []byte{0, 0, 0, 0, 0, 0, 0, 7}},
		{"IntegerSerializer", []byte{0, 0, 0, 7}},
		{"VoidSerializer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			c := &ackClient{}
			m := startedManagerWithKey(t, tt.scheme, "StringSerializer", c)
			s := New(m, nil, "load", "run-1")

			r := s.Sample(context.Background(), 0, 7, "payload")
			require.True(t, r.Succeeded(), r.Error)

			require.Len(t, c.messages, 1)
			assert.Equal(t, tt.want, c.messages[0].Key)
		})
	}
}

func TestKeyFor(t *testing.T) {
	msg := models.SampleMessage{ID: "abc", Sequence: 3}

	assert.Equal(t, msg.GetKey(), KeyFor("StringSerializer", msg))
	assert.Equal(t, []byte(msg.GetKey()), KeyFor("ByteArraySerializer", msg))
	assert.Equal(t, int64(3), KeyFor("LongSerializer", msg))
	assert.Equal(t, 3, KeyFor("IntegerSerializer", msg))
	assert.Nil(t, KeyFor("VoidSerializer", msg))
}
