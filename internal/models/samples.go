package models

import (
	"time"
)

// SampleStatus is the outcome of a single sample
type SampleStatus string

const (
	SampleSuccess SampleStatus = "success"
	SampleFailure SampleStatus = "failure"
)

// SampleMessage is the payload a worker unit sends
type SampleMessage struct {
	ID        string    `json:"id"`
	RunID     string    `json:"runId"`
	Worker    int       `json:"worker"`
	Sequence  int       `json:"sequence"`
	Payload   string    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// GetKey returns the partition key for the message
func (m SampleMessage) GetKey() string {
	return m.ID
}

// SampleResult records what happened to one sample
type SampleResult struct {
	RunID     string        `json:"runId"`
	Worker    int           `json:"worker"`
	Sequence  int           `json:"sequence"`
	Key       string        `json:"key"`
	Topic     string        `json:"topic"`
	Status    SampleStatus  `json:"status"`
	Error     string        `json:"error,omitempty"`
	Partition int32         `json:"partition"`
	Offset    int64         `json:"offset"`
	Latency   time.Duration `json:"latency"`
	Timestamp time.Time     `json:"timestamp"`
}

// Succeeded reports whether the sample was acknowledged
func (r SampleResult) Succeeded() bool {
	return r.Status == SampleSuccess
}

// RunSummary aggregates a whole run
type RunSummary struct {
	RunID     string    `json:"runId"`
	Topic     string    `json:"topic"`
	ClientID  string    `json:"clientId"`
	Workers   int       `json:"workers"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Samples   int64     `json:"samples"`
	Succeeded int64     `json:"succeeded"`
	Failed    int64     `json:"failed"`
	// TeardownError is set when run-end could not flush or close cleanly
	TeardownError string `json:"teardownError,omitempty"`
}

// Duration returns the wall-clock length of the run
func (s RunSummary) Duration() time.Duration {
	if s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Throughput returns acknowledged samples per second
func (s RunSummary) Throughput() float64 {
	d := s.Duration().Seconds()
	if d == 0 {
		return 0
	}
	return float64(s.Succeeded) / d
}
