package metrics

// NoopProvider returns no-op instruments. It is the default provider.
type NoopProvider struct{}

// NewNoopProvider constructs a Provider that discards all measurements.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(_ string, _ ...InstrumentOption) Counter {
	return noopCounter{}
}

func (NoopProvider) UpDownCounter(_ string, _ ...InstrumentOption) UpDownCounter {
	return noopUpDownCounter{}
}

func (NoopProvider) Histogram(_ string, _ ...InstrumentOption) Histogram {
	return noopHistogram{}
}

type noopCounter struct{}

func (noopCounter) Add(_ int64) {}

type noopUpDownCounter struct{}

func (noopUpDownCounter) Add(_ int64) {}

type noopHistogram struct{}

func (noopHistogram) Record(_ float64) {}
