package producer

import (
	"errors"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type fakeClient struct {
	mu             sync.Mutex
	calls          []string
	messages       []*kafka.Message
	flushRemaining int
	flushPanic     any
	closePanic     any
	produceErr     error
	deliveryErr    error
	hold           bool
	flushEntered   chan struct{}
	flushGate      chan struct{}
}

func (f *fakeClient) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "produce")
	if f.produceErr != nil {
		return f.produceErr
	}
	f.messages = append(f.messages, msg)

	if !f.hold && deliveryChan != nil {
		reply := *msg
		reply.TopicPartition.Partition = 0
		reply.TopicPartition.Offset = kafka.Offset(len(f.messages) - 1)
		reply.TopicPartition.Error = f.deliveryErr
		deliveryChan <- &reply
	}
	return nil
}

func (f *fakeClient) Flush(timeoutMs int) int {
	f.mu.Lock()
	f.calls = append(f.calls, "flush")
	p := f.flushPanic
	remaining := f.flushRemaining
	entered, gate := f.flushEntered, f.flushGate
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	if p != nil {
		panic(p)
	}
	return remaining
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	f.calls = append(f.calls, "close")
	p := f.closePanic
	f.mu.Unlock()

	if p != nil {
		panic(p)
	}
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeFactory struct {
	mu      sync.Mutex
	clients []*fakeClient
	confs   []*kafka.ConfigMap
	delay   time.Duration
	err     error
	prepare func(*fakeClient)
}

func (f *fakeFactory) NewClient(conf *kafka.ConfigMap) (Client, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.confs = append(f.confs, conf)
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeClient{}
	if f.prepare != nil {
		f.prepare(c)
	}
	f.clients = append(f.clients, c)
	return c, nil
}

func (f *fakeFactory) Created() []*fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeClient(nil), f.clients...)
}

var errBrokersUnreachable = errors.New("brokers unreachable")

func plaintextSettings() Settings {
	return Settings{
		Brokers:         "localhost:9092",
		BatchSize:       "16384",
		ClientID:        "t1",
		KeySerializer:   "StringSerializer",
		ValueSerializer: "StringSerializer",
	}
}

func tlsSettings() Settings {
	s := plaintextSettings()
	s.TLS = true
	s.Keystore = "/etc/kafka/client.keystore.p12"
	s.KeystorePassword = "ks-secret"
	s.Truststore = "/etc/kafka/ca.pem"
	s.TruststorePassword = "ts-secret"
	return s
}
