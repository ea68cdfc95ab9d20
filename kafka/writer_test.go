package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/collector/logger"
)

func TestNewWriter(t *testing.T) {
	tests := []struct {
		name        string
		compression string
		want        kafkago.Compression
	}{
		{"snappy", "snappy", kafkago.Snappy},
		{"zstd", "zstd", kafkago.Zstd},
		{"none", "none", 0},
		{"unknown falls back", "brotli", kafkago.Snappy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Enabled: true, Brokers: []string{"b1:9092", "b2:9092"}}
			cfg.ApplyDefaults()
			cfg.Compression = tc.compression

			w, err := newWriter(cfg, logger.Nop())
			if err != nil {
				t.Fatalf("newWriter() error = %v", err)
			}
			if w.Compression != tc.want {
				t.Errorf("Compression = %v, want %v", w.Compression, tc.want)
			}
			if w.MaxAttempts != 1 {
				t.Errorf("MaxAttempts = %d, want 1", w.MaxAttempts)
			}
			if _, ok := w.Balancer.(*kafkago.Hash); !ok {
				t.Errorf("Balancer = %T, want *kafka.Hash", w.Balancer)
			}
		})
	}
}

func TestNewWriterTransportErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing CA file", Config{EnableTLS: true, TLSCAFile: "/nonexistent/ca.pem"}},
		{"unknown SASL mechanism", Config{EnableSASL: true, SASLMechanism: "GSSAPI"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newWriter(tc.cfg, logger.Nop()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSASLMechanism(t *testing.T) {
	for _, mech := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		t.Run(mech, func(t *testing.T) {
			cfg := Config{SASLMechanism: mech, Username: "u", Password: "p"}
			m, err := cfg.saslMechanism()
			if err != nil {
				t.Fatalf("saslMechanism() error = %v", err)
			}
			if m.Name() != mech {
				t.Errorf("Name() = %q, want %q", m.Name(), mech)
			}
		})
	}
}
