package producer

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
)

// Serializer turns a key or value into the bytes written to Kafka.
type Serializer interface {
	Serialize(v any) ([]byte, error)
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(v any) ([]byte, error)

// Serialize calls f(v).
func (f SerializerFunc) Serialize(v any) ([]byte, error) {
	return f(v)
}

var serializers = map[string]Serializer{
	"StringSerializer":    SerializerFunc(serializeString),
	"ByteArraySerializer": SerializerFunc(serializeBytes),
	"BytesSerializer":     SerializerFunc(serializeBytes),
	"JsonSerializer":      SerializerFunc(serializeJSON),
	"KafkaJsonSerializer": SerializerFunc(serializeJSON),
	"LongSerializer":      SerializerFunc(serializeLong),
	"IntegerSerializer":   SerializerFunc(serializeInteger),
	"VoidSerializer":      SerializerFunc(serializeVoid),
}

// SchemeName strips any package qualifier from a serialization scheme
// identifier, so "org.apache.kafka.common.serialization.StringSerializer"
// and "StringSerializer" name the same scheme.
func SchemeName(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}
	return id
}

// ResolveSerializer looks up the serializer for a scheme identifier.
func ResolveSerializer(id string) (Serializer, error) {
	s, ok := serializers[SchemeName(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSerializer, id)
	}
	return s, nil
}

func serializeString(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case fmt.Stringer:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("string serializer: unsupported type %T", v)
	}
}

func serializeBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return nil, fmt.Errorf("byte array serializer: unsupported type %T", v)
	}
}

func serializeJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json serializer: %w", err)
	}
	return data, nil
}

func serializeLong(v any) ([]byte, error) {
	var n int64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int64:
		n = t
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	default:
		return nil, fmt.Errorf("long serializer: unsupported type %T", v)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf, nil
}

func serializeInteger(v any) ([]byte, error) {
	var n int32
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int32:
		n = t
	case int:
		if int(int32(t)) != t {
			return nil, fmt.Errorf("integer serializer: %d overflows int32", t)
		}
		n = int32(t)
	default:
		return nil, fmt.Errorf("integer serializer: unsupported type %T", v)
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(n))
	return buf, nil
}

func serializeVoid(v any) ([]byte, error) {
	if v != nil {
		return nil, fmt.Errorf("void serializer: expected nil, got %T", v)
	}
	return nil, nil
}
