package producer

import (
	"sort"
	"strings"

	"kafkameter/internal/config"
)

// Producer property keys understood by the Kafka client
const (
	BootstrapServers = "bootstrap.servers"
	BatchSize        = "batch.size"
	ClientID         = "client.id"
	KeySerializer    = "key.serializer"
	ValueSerializer  = "value.serializer"

	SecurityProtocol      = "security.protocol"
	SSLKeystoreLocation   = "ssl.keystore.location"
	SSLKeystorePassword   = "ssl.keystore.password"
	SSLTruststoreLocation = "ssl.truststore.location"
	SSLTruststorePassword = "ssl.truststore.password"

	SecurityProtocolSSL = "SSL"
)

// Settings is the immutable per-run producer configuration.
type Settings struct {
	Brokers         string
	BatchSize       string
	ClientID        string
	KeySerializer   string
	ValueSerializer string

	TLS                bool
	Keystore           string
	KeystorePassword   string
	Truststore         string
	TruststorePassword string
}

// ExtraSetting is a free-form property override applied after the fixed fields.
type ExtraSetting struct {
	Key   string
	Value string
}

// Properties is the flat property set handed to the client library.
type Properties map[string]string

// SettingsFromConfig converts loaded configuration into producer settings
// and the ordered list of overrides.
func SettingsFromConfig(cfg *config.KafkaConfig) (Settings, []ExtraSetting) {
	settings := Settings{
		Brokers:            cfg.Brokers,
		BatchSize:          cfg.BatchSize,
		ClientID:           cfg.ClientID,
		KeySerializer:      cfg.KeySerializer,
		ValueSerializer:    cfg.ValueSerializer,
		TLS:                cfg.SSLEnabled,
		Keystore:           cfg.SSLKeystore,
		KeystorePassword:   cfg.SSLKeystorePassword,
		Truststore:         cfg.SSLTruststore,
		TruststorePassword: cfg.SSLTruststorePassword,
	}

	extras := make([]ExtraSetting, 0, len(cfg.ExtraConfigs))
	for _, e := range cfg.ExtraConfigs {
		extras = append(extras, ExtraSetting{Key: e.Key, Value: e.Value})
	}
	return settings, extras
}

// BuildProperties assembles the producer property set. Required fields are
// written first, then extras in order, then the TLS block when enabled.
// Values are passed through uninterpreted.
func BuildProperties(s Settings, extras []ExtraSetting) Properties {
	props := Properties{
		BootstrapServers: s.Brokers,
		BatchSize:        s.BatchSize,
		ClientID:         s.ClientID,
		KeySerializer:    s.KeySerializer,
		ValueSerializer:  s.ValueSerializer,
	}

	for _, e := range extras {
		props[e.Key] = e.Value
	}

	if s.TLS {
		props[SecurityProtocol] = SecurityProtocolSSL
		props[SSLKeystoreLocation] = s.Keystore
		props[SSLKeystorePassword] = s.KeystorePassword
		props[SSLTruststoreLocation] = s.Truststore
		props[SSLTruststorePassword] = s.TruststorePassword
	}

	return props
}

// Keys returns the property keys in lexical order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Masked returns a copy with every password-like value replaced.
func (p Properties) Masked() Properties {
	masked := make(Properties, len(p))
	for k, v := range p {
		if isSecret(k) && v != "" {
			v = "********"
		}
		masked[k] = v
	}
	return masked
}

func isSecret(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "secret") || strings.HasSuffix(k, "sasl.jaas.config")
}
