package producer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSerializer(t *testing.T) {
	tests := []struct {
		id      string
		value   any
		want    []byte
		wantErr bool
	}{
		{id: "StringSerializer", value: "abc", want: []byte("abc")},
		{id: "org.apache.kafka.common.serialization.StringSerializer", value: "abc", want: []byte("abc")},
		{id: "org.apache.kafka.common.serialization.ByteArraySerializer", value: []byte{1, 2}, want: []byte{1, 2}},
		{id: "LongSerializer", value: int64(1), want: []byte{0, 0, 0, 0, 0, 0, 0, 1}},
		{id: "IntegerSerializer", value: 258, want: []byte{0, 0, 1, 2}},
		{id: "JsonSerializer", value: map[string]int{"a": 1}, want: []byte(`{"a":1}`)},
		{id: "StringSerializer", value: 42, wantErr: true},
		{id: "VoidSerializer", value: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s, err := ResolveSerializer(tt.id)
			require.NoError(t, err)

			got, err := s.Serialize(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSerializer_Unknown(t *testing.T) {
	_, err := ResolveSerializer("io.confluent.kafka.serializers.KafkaAvroSerializer")
	assert.ErrorIs(t, err, ErrUnknownSerializer)

	_, err = ResolveSerializer("")
	assert.ErrorIs(t, err, ErrUnknownSerializer)
}

func TestSerializers_Nil(t *testing.T) {
	for name := range serializers {
		got, err := serializers[name].Serialize(nil)
		assert.NoError(t, err, name)
		assert.Nil(t, got, name)
	}
}

func TestSchemeName(t *testing.T) {
	assert.Equal(t, "StringSerializer", SchemeName("org.apache.kafka.common.serialization.StringSerializer"))
	assert.Equal(t, "StringSerializer", SchemeName(" StringSerializer "))
}
