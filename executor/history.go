package executor

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryCapacity bounds how many execution records are retained
// per conversation; the oldest record is evicted first.
const DefaultHistoryCapacity = 100

// defaultBucket holds records executed without a conversation id.
const defaultBucket = "default"

// Record is one archived tool execution.
type Record struct {
	ID        string                 `json:"id"`
	ToolName  string                 `json:"toolName"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Success   bool                   `json:"success"`
	Output    string                 `json:"output,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Duration  time.Duration          `json:"duration"`
	StartedAt time.Time              `json:"startedAt"`
}

// history keeps a bounded ring of records per conversation.
type history struct {
	mu       sync.RWMutex
	capacity int
	buckets  map[string][]Record
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &history{capacity: capacity, buckets: map[string][]Record{}}
}

func (h *history) append(conversationID string, record Record) {
	if conversationID == "" {
		conversationID = defaultBucket
	}
	record.ID = uuid.New().String()
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket := append(h.buckets[conversationID], record)
	if len(bucket) > h.capacity {
		bucket = bucket[len(bucket)-h.capacity:]
	}
	h.buckets[conversationID] = bucket
}

// records returns a copy of one conversation's history, oldest first; an
// empty id selects every conversation.
func (h *history) records(conversationID string) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if conversationID != "" {
		bucket := h.buckets[conversationID]
		ret := make([]Record, len(bucket))
		copy(ret, bucket)
		return ret
	}
	var ret []Record
	for _, bucket := range h.buckets {
		ret = append(ret, bucket...)
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].StartedAt.Before(ret[j].StartedAt)
	})
	return ret
}

// History returns execution records for one conversation, or for every
// conversation when id is empty.
func (s *Service) History(conversationID string) []Record {
	return s.history.records(conversationID)
}

// ToolUsage pairs a tool name with how many times it ran.
type ToolUsage struct {
	ToolName string `json:"toolName"`
	Count    int    `json:"count"`
}

// Stats aggregates one conversation's (or, with an empty id, the global)
// execution history.
type Stats struct {
	Total        int           `json:"total"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	MeanDuration time.Duration `json:"meanDuration"`
	TopTools     []ToolUsage   `json:"topTools,omitempty"`
}

// statsTopN bounds the most-used-tools ranking.
const statsTopN = 5

// Stats aggregates execution counts, mean latency and a most-used-tool
// ranking, scoped to one conversation or globally when id is empty.
func (s *Service) Stats(conversationID string) Stats {
	records := s.history.records(conversationID)
	ret := Stats{Total: len(records)}
	if len(records) == 0 {
		return ret
	}
	var total time.Duration
	usage := map[string]int{}
	for _, record := range records {
		if record.Success {
			ret.Succeeded++
		} else {
			ret.Failed++
		}
		total += record.Duration
		usage[record.ToolName]++
	}
	ret.MeanDuration = total / time.Duration(len(records))

	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if usage[names[i]] != usage[names[j]] {
			return usage[names[i]] > usage[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > statsTopN {
		names = names[:statsTopN]
	}
	for _, name := range names {
		ret.TopTools = append(ret.TopTools, ToolUsage{ToolName: name, Count: usage[name]})
	}
	return ret
}
