package xml2abx

import (
	"go.uber.org/zap"

	"github.com/rhythmcache/xml2abx/pkg/abx"
)

// Stats summarizes one conversion. Map keys are ABX event and value type names.
type Stats struct {
	Events       map[string]uint64 `json:"events"`
	Attributes   map[string]uint64 `json:"attributes"`
	PoolEntries  int               `json:"pool_entries"`
	BytesWritten int64             `json:"bytes_written"`
	Warnings     int               `json:"warnings"`
	MaxDepth     int               `json:"max_depth"`
}

// Count returns the number of tokens written for e.
func (s Stats) Count(e abx.Event) uint64 {
	return s.Events[e.String()]
}

// AttributeCount returns the number of attributes written with type t.
func (s Stats) AttributeCount(t abx.ValueType) uint64 {
	return s.Attributes[t.String()]
}

func newStats(s *abx.Serializer, warnings int) Stats {
	raw := s.Stats()
	out := Stats{
		Events:       make(map[string]uint64),
		Attributes:   make(map[string]uint64),
		PoolEntries:  s.PoolLen(),
		BytesWritten: s.Written(),
		Warnings:     warnings,
		MaxDepth:     raw.MaxDepth,
	}
	for code, n := range raw.Events {
		if n > 0 {
			out.Events[abx.Event(code).String()] = n
		}
	}
	for code, n := range raw.Attributes {
		if n > 0 {
			out.Attributes[abx.ValueType(code<<4).String()] = n
		}
	}
	return out
}

func (s Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int64("bytes", s.BytesWritten),
		zap.Int("pool_entries", s.PoolEntries),
		zap.Int("warnings", s.Warnings),
		zap.Int("max_depth", s.MaxDepth),
		zap.Uint64("start_tags", s.Count(abx.EventStartTag)),
		zap.Uint64("attributes", s.Count(abx.EventAttribute)),
	}
}
