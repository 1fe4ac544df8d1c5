package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for webhook traffic and engine
// invocations.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	handledCount map[string]int64
	abortCount   map[string]int64
	failureCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		handledCount: make(map[string]int64),
		abortCount:   make(map[string]int64),
		failureCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for webhook requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters for webhook requests.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordHandled counts a trigger invocation that ran to completion.
func (m *Metrics) RecordHandled(component string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handledCount[component]++
}

// RecordAbort counts a silent precondition abort, keyed by reason.
func (m *Metrics) RecordAbort(component, reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortCount[component+"|"+reason]++
}

// RecordFailure counts a fatal invocation error, keyed by error code.
func (m *Metrics) RecordFailure(component, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failureCount[component+"|"+code]++
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
