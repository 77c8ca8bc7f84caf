package producer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kafkameter/internal/config"
)

var securityKeys = []string{
	SecurityProtocol,
	SSLKeystoreLocation,
	SSLKeystorePassword,
	SSLTruststoreLocation,
	SSLTruststorePassword,
}

func TestBuildProperties_Plaintext(t *testing.T) {
	props := BuildProperties(plaintextSettings(), nil)

	assert.Equal(t, Properties{
		BootstrapServers: "localhost:9092",
		BatchSize:        "16384",
		ClientID:         "t1",
		KeySerializer:    "StringSerializer",
		ValueSerializer:  "StringSerializer",
	}, props)
	for _, k := range securityKeys {
		assert.NotContains(t, props, k)
	}
}

func TestBuildProperties_TLS(t *testing.T) {
	s := tlsSettings()
	props := BuildProperties(s, nil)

	assert.Len(t, props, 10)
	assert.Equal(t, "SSL", props[SecurityProtocol])
	assert.Equal(t, s.Keystore, props[SSLKeystoreLocation])
	assert.Equal(t, s.KeystorePassword, props[SSLKeystorePassword])
	assert.Equal(t, s.Truststore, props[SSLTruststoreLocation])
	assert.Equal(t, s.TruststorePassword, props[SSLTruststorePassword])
}

func TestBuildProperties_ExtrasOverrideRequired(t *testing.T) {
	props := BuildProperties(plaintextSettings(), []ExtraSetting{
		{Key: BatchSize, Value: "1"},
		{Key: "linger.ms", Value: "5"},
		{Key: BatchSize, Value: "32768"},
	})

	assert.Equal(t, "32768", props[BatchSize], "last extra wins")
	assert.Equal(t, "5", props["linger.ms"])
	assert.Len(t, props, 6)
}

func TestBuildProperties_TLSWrittenAfterExtras(t *testing.T) {
	props := BuildProperties(tlsSettings(), []ExtraSetting{
		{Key: SecurityProtocol, Value: "PLAINTEXT"},
	})
	assert.Equal(t, "SSL", props[SecurityProtocol])

	props = BuildProperties(plaintextSettings(), []ExtraSetting{
		{Key: SecurityProtocol, Value: "SASL_SSL"},
	})
	assert.Equal(t, "SASL_SSL", props[SecurityProtocol], "without TLS the extra stands")
}

func TestBuildProperties_PassesMalformedValuesThrough(t *testing.T) {
	s := plaintextSettings()
	s.BatchSize = "not-a-number"
	s.Brokers = ""

	props := BuildProperties(s, nil)
	assert.Equal(t, "not-a-number", props[BatchSize])
	assert.Equal(t, "", props[BootstrapServers])
}

func TestProperties_Masked(t *testing.T) {
	props := BuildProperties(tlsSettings(), []ExtraSetting{{Key: "sasl.password", Value: "p"}})
	masked := props.Masked()

	assert.Equal(t, "********", masked[SSLKeystorePassword])
	assert.Equal(t, "********", masked[SSLTruststorePassword])
	assert.Equal(t, "********", masked["sasl.password"])
	assert.Equal(t, props[SSLKeystoreLocation], masked[SSLKeystoreLocation])
	assert.Equal(t, "ks-secret", props[SSLKeystorePassword], "source properties untouched")
}

func TestProperties_Keys(t *testing.T) {
	props := BuildProperties(plaintextSettings(), nil)
	assert.Equal(t, []string{BatchSize, BootstrapServers, ClientID, KeySerializer, ValueSerializer}, props.Keys())
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:               "b1:9092,b2:9092",
		BatchSize:             "100",
		ClientID:              "c",
		KeySerializer:         "k",
		ValueSerializer:       "v",
		SSLEnabled:            true,
		SSLKeystore:           "ks",
		SSLKeystorePassword:   "ksp",
		SSLTruststore:         "ts",
		SSLTruststorePassword: "tsp",
		ExtraConfigs: []config.ExtraConfig{
			{Key: "acks", Value: "all"},
			{Key: "linger.ms", Value: "10"},
		},
	}

	s, extras := SettingsFromConfig(cfg)
	assert.Equal(t, Settings{
		Brokers:            "b1:9092,b2:9092",
		BatchSize:          "100",
		ClientID:           "c",
		KeySerializer:      "k",
		ValueSerializer:    "v",
		TLS:                true,
		Keystore:           "ks",
		KeystorePassword:   "ksp",
		Truststore:         "ts",
		TruststorePassword: "tsp",
	}, s)
	assert.Equal(t, []ExtraSetting{{Key: "acks", Value: "all"}, {Key: "linger.ms", Value: "10"}}, extras)
}
