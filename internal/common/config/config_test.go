package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "kafka:9092", []string{"kafka:9092"}},
		{"spaces and blanks", " a:9092 ,, b:9092 , ", []string{"a:9092", "b:9092"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.in))
		})
	}
}

func TestLoadKafkaConfig_SplitsBrokers(t *testing.T) {
	t.Setenv("TESTSVC_KAFKA_BROKERS", "k1:9092, k2:9092")

	v, err := Load("TESTSVC")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, LoadKafkaConfig(v).Brokers)
}
