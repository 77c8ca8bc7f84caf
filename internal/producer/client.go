package producer

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// sslCALocation is librdkafka's name for the trusted CA bundle.
const sslCALocation = "ssl.ca.location"

// Client is the subset of *kafka.Producer used by the lifecycle manager and workers.
type Client interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// ClientFactory constructs producer clients from a config map.
type ClientFactory interface {
	NewClient(conf *kafka.ConfigMap) (Client, error)
}

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc func(conf *kafka.ConfigMap) (Client, error)

// NewClient calls f(conf).
func (f ClientFactoryFunc) NewClient(conf *kafka.ConfigMap) (Client, error) {
	return f(conf)
}

// ConfluentFactory builds confluent-kafka-go producers.
type ConfluentFactory struct{}

// NewClient creates a new Kafka producer
func (ConfluentFactory) NewClient(conf *kafka.ConfigMap) (Client, error) {
	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ToConfigMap translates a property set into a librdkafka config map.
// Serializer keys are resolved on the Go side and never reach librdkafka.
// The truststore location is passed as ssl.ca.location unless that key is
// set explicitly; librdkafka has no truststore password.
func ToConfigMap(props Properties) (*kafka.ConfigMap, error) {
	cm := kafka.ConfigMap{}
	_, explicitCA := props[sslCALocation]

	for _, key := range props.Keys() {
		value := props[key]
		switch key {
		case KeySerializer, ValueSerializer, SSLTruststorePassword:
			continue
		case SSLTruststoreLocation:
			if explicitCA || value == "" {
				continue
			}
			key = sslCALocation
		}
		if err := cm.SetKey(key, value); err != nil {
			return nil, fmt.Errorf("failed to set producer property %s: %w", key, err)
		}
	}
	return &cm, nil
}
