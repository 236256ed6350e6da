package metrics

import (
	"math"
	"sync"
	"sync/atomic"
)

// BasicProvider is an in-memory Provider suitable for tests and small
// applications. Instruments are created on first request and reused for the
// same name. Safe for concurrent use.
type BasicProvider struct {
	mu         sync.Mutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicUpDownCounter
	histograms map[string]*BasicHistogram
}

// NewBasicProvider constructs an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicUpDownCounter),
		histograms: make(map[string]*BasicHistogram),
	}
}

func (p *BasicProvider) Counter(name string, _ ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[name]
	if !ok {
		c = &BasicCounter{}
		p.counters[name] = c
	}
	return c
}

func (p *BasicProvider) UpDownCounter(name string, _ ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.updowns[name]
	if !ok {
		c = &BasicUpDownCounter{}
		p.updowns[name] = c
	}
	return c
}

func (p *BasicProvider) Histogram(name string, _ ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		h = &BasicHistogram{min: math.Inf(1), max: math.Inf(-1)}
		p.histograms[name] = h
	}
	return h
}

// CounterValue returns the current value of the named counter, or 0 if it
// was never requested.
func (p *BasicProvider) CounterValue(name string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.counters[name]; ok {
		return c.Value()
	}
	return 0
}

// UpDownValue returns the current value of the named up-down counter, or 0
// if it was never requested.
func (p *BasicProvider) UpDownValue(name string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.updowns[name]; ok {
		return c.Value()
	}
	return 0
}

// HistogramSnapshot returns the recorded distribution of the named
// histogram. The zero snapshot is returned for unknown names.
func (p *BasicProvider) HistogramSnapshot(name string) HistogramSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.histograms[name]; ok {
		return h.Snapshot()
	}
	return HistogramSnapshot{}
}

// BasicCounter is a monotonic atomic counter.
type BasicCounter struct {
	v atomic.Int64
}

func (c *BasicCounter) Add(n int64) { c.v.Add(n) }

// Value returns the current count.
func (c *BasicCounter) Value() int64 { return c.v.Load() }

// BasicUpDownCounter is an atomic counter that can move both ways.
type BasicUpDownCounter struct {
	v atomic.Int64
}

func (c *BasicUpDownCounter) Add(n int64) { c.v.Add(n) }

// Value returns the current value.
func (c *BasicUpDownCounter) Value() int64 { return c.v.Load() }

// BasicHistogram accumulates count, sum, min, and max of recorded values.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	if v < h.min {
		h.min = v
	}
	if v > h.max {
		h.max = v
	}
}

// HistogramSnapshot is a point-in-time copy of a BasicHistogram.
type HistogramSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

// Snapshot returns a copy of the current distribution. Min and Max are 0
// when nothing has been recorded.
func (h *BasicHistogram) Snapshot() HistogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := HistogramSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	if h.count == 0 {
		s.Min, s.Max = 0, 0
	}
	return s
}
