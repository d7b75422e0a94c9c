package crunch

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// Stats provides pipeline statistics with thread-safe access. The pipeline
// updates it from a single goroutine, but a ProgressReporter or a monitoring
// goroutine may read it at any time.
type Stats struct {
	read        atomic.Int64
	transformed atomic.Int64
	dropped     atomic.Int64
	written     atomic.Int64
	flushed     atomic.Int64
}

// NewStats creates a Stats with initial counter values.
func NewStats(read, transformed, dropped, written, flushed int64) *Stats {
	s := &Stats{}
	s.read.Store(read)
	s.transformed.Store(transformed)
	s.dropped.Store(dropped)
	s.written.Store(written)
	s.flushed.Store(flushed)
	return s
}

// Read returns the number of records produced by sources.
func (s *Stats) Read() int64 { return s.read.Load() }

// Transformed returns the number of transformation calls that succeeded.
func (s *Stats) Transformed() int64 { return s.transformed.Load() }

// Dropped returns the number of chain passes whose result was empty and
// therefore not written. Records absorbed by a buffer count as dropped until
// the buffer emits them.
func (s *Stats) Dropped() int64 { return s.dropped.Load() }

// Written returns the number of chain results handed to the destinations.
// A result written to three destinations counts once.
func (s *Stats) Written() int64 { return s.written.Load() }

// Flushed returns the number of non-empty results produced by flush passes.
func (s *Stats) Flushed() int64 { return s.flushed.Load() }

// LogValue implements slog.LogValuer for structured logging.
func (s *Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("read", s.Read()),
		slog.Int64("transformed", s.Transformed()),
		slog.Int64("dropped", s.Dropped()),
		slog.Int64("written", s.Written()),
		slog.Int64("flushed", s.Flushed()),
	)
}

// statsJSON is the JSON representation for marshaling/unmarshaling Stats.
type statsJSON struct {
	Read        int64 `json:"read"`
	Transformed int64 `json:"transformed"`
	Dropped     int64 `json:"dropped"`
	Written     int64 `json:"written"`
	Flushed     int64 `json:"flushed"`
}

// MarshalJSON implements json.Marshaler for Stats serialization.
func (s *Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsJSON{
		Read:        s.read.Load(),
		Transformed: s.transformed.Load(),
		Dropped:     s.dropped.Load(),
		Written:     s.written.Load(),
		Flushed:     s.flushed.Load(),
	})
}

// UnmarshalJSON implements json.Unmarshaler for Stats deserialization.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var v statsJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.read.Store(v.Read)
	s.transformed.Store(v.Transformed)
	s.dropped.Store(v.Dropped)
	s.written.Store(v.Written)
	s.flushed.Store(v.Flushed)
	return nil
}

// Internal increment methods. These return the new value after incrementing.
func (s *Stats) incRead(n int64) int64        { return s.read.Add(n) }
func (s *Stats) incTransformed(n int64) int64 { return s.transformed.Add(n) }
func (s *Stats) incDropped(n int64) int64     { return s.dropped.Add(n) }
func (s *Stats) incWritten(n int64) int64     { return s.written.Add(n) }
func (s *Stats) incFlushed(n int64) int64     { return s.flushed.Add(n) }
