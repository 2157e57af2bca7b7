package measure

import (
	"sort"
	"sync"
)

// DefaultMeasure keeps metrics in memory.
type DefaultMeasure struct {
	mu    sync.Mutex
	Steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

// AddMetric registers a metric for the step. Splitter outputs share a name, so an existing metric is reused.
func (m *DefaultMeasure) AddMetric(name string, concurrent int) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.Steps[name]; ok {
		return mt
	}
	if concurrent < 1 {
		concurrent = 1
	}
	mt := &DefaultMetric{
		allTransports: make(map[string]*TransportInfo),
		concurrent:    concurrent,
	}
	m.Steps[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make(map[string]Metric, len(m.Steps))
	for name, mt := range m.Steps {
		all[name] = mt
	}

	return all
}

// StepNames returns the names of the measured steps in lexical order.
func (m *DefaultMeasure) StepNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.Steps))
	for name := range m.Steps {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

var _ Measure = (*DefaultMeasure)(nil)
