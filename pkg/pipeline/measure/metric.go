package measure

import (
	"sync"
	"time"
)

type TransportInfo struct {
	Elapsed time.Duration
	total   int64
}

type DefaultMetric struct {
	mu            sync.Mutex
	allTransports map[string]*TransportInfo
	endDuration   time.Duration
	stepElapsed   time.Duration
	total         int64
	concurrent    int
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

// Count returns the number of elements the step produced or consumed.
func (mt *DefaultMetric) Count() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.total
}

func (mt *DefaultMetric) AddTransportDuration(inputStepName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.allTransports[inputStepName] == nil {
		mt.allTransports[inputStepName] = &TransportInfo{}
	}
	ch := mt.allTransports[inputStepName]
	ch.Elapsed += elapsed
	ch.total++
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.total == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

// AVGTransportDuration returns, per input step, the average time spent waiting on the input channel.
// The result is a copy.
func (mt *DefaultMetric) AVGTransportDuration() map[string]*TransportInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	avg := make(map[string]*TransportInfo, len(mt.allTransports))
	for name, ch := range mt.allTransports {
		info := &TransportInfo{total: ch.total}
		if ch.total > 0 {
			info.Elapsed = round(time.Duration(float64(ch.Elapsed) / float64(ch.total) / float64(mt.concurrent)))
		}
		avg[name] = info
	}

	return avg
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Hour)
	case d > time.Minute:
		d = d.Round(time.Minute)
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

var _ Metric = (*DefaultMetric)(nil)
