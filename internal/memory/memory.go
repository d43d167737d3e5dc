// Package memory keeps a bounded, in-process record of recent questions
// and answers.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const DefaultMaxItems = 50

type Record struct {
	Question string
	Answer   string
	Topic    Topic
	At       time.Time
}

// Memory is a fixed-capacity FIFO ring. Reads never reorder records.
type Memory struct {
	mu    sync.Mutex
	buf   []Record
	head  int // index of the oldest record
	count int
	now   func() time.Time
}

func New(maxItems int) *Memory {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Memory{
		buf: make([]Record, maxItems),
		now: time.Now,
	}
}

func (m *Memory) Cap() int { return len(m.buf) }

// Remember classifies and stores an exchange, evicting the oldest record
// when full.
func (m *Memory) Remember(question, answer string) Record {
	rec := Record{
		Question: question,
		Answer:   answer,
		Topic:    Classify(question),
		At:       m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count < len(m.buf) {
		m.buf[(m.head+m.count)%len(m.buf)] = rec
		m.count++
		return rec
	}
	m.buf[m.head] = rec
	m.head = (m.head + 1) % len(m.buf)
	return rec
}

// Records returns a copy of the buffer, oldest first.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, m.count)
	for i := range out {
		out[i] = m.buf[(m.head+i)%len(m.buf)]
	}
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.buf)
	m.head = 0
	m.count = 0
}

type TopicCount struct {
	Topic Topic
	Count int
}

type Stats struct {
	Total  int
	Topics []TopicCount // most frequent first
}

func (m *Memory) Stats() Stats {
	counts := make(map[Topic]int)
	recs := m.Records()
	for _, r := range recs {
		counts[r.Topic]++
	}

	st := Stats{Total: len(recs)}
	for t, n := range counts {
		st.Topics = append(st.Topics, TopicCount{Topic: t, Count: n})
	}
	sort.Slice(st.Topics, func(i, j int) bool {
		if st.Topics[i].Count != st.Topics[j].Count {
			return st.Topics[i].Count > st.Topics[j].Count
		}
		return st.Topics[i].Topic < st.Topics[j].Topic
	})
	return st
}

func (s Stats) String() string {
	if s.Total == 0 {
		return "My memory is empty. Ask me something and I'll remember it."
	}

	noun := "conversations"
	if s.Total == 1 {
		noun = "conversation"
	}
	parts := make([]string, 0, len(s.Topics))
	for _, tc := range s.Topics {
		parts = append(parts, fmt.Sprintf("%s %d", tc.Topic, tc.Count))
	}
	return fmt.Sprintf("I remember %d %s. Topics: %s.", s.Total, noun, strings.Join(parts, ", "))
}
