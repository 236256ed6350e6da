// Package metrics defines the instrument surface fetchpool records into,
// with a no-op default and a basic in-memory implementation for tests and
// lightweight applications. Adapters for real backends implement Provider.
package metrics

// Provider constructs instruments by name. Requesting the same name twice
// must return the same instrument. Implementations must be safe for
// concurrent use.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts (attempts, retries, fetched items).
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that move both ways (current in-flight fetches).
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements (attempt durations in seconds).
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional, advisory instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}
