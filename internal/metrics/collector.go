package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"coverletter-service/internal/logging"
)

// EndpointMetrics holds counters for one HTTP route or gRPC method
type EndpointMetrics struct {
	Endpoint        string        `json:"endpoint"`
	RequestCount    int64         `json:"request_count"`
	SuccessCount    int64         `json:"success_count"`
	ErrorCount      int64         `json:"error_count"`
	TotalDuration   time.Duration `json:"-"`
	AverageDuration time.Duration `json:"average_duration"`
	LastUpdated     time.Time     `json:"last_updated"`
}

// Collector records per-endpoint request counts and durations in memory
type Collector struct {
	endpoints map[string]*EndpointMetrics
	mu        sync.RWMutex
}

func NewCollector() *Collector {
	return &Collector{endpoints: make(map[string]*EndpointMetrics)}
}

// Record adds one call to endpoint. failed marks it as an error (5xx or non-OK gRPC status).
func (c *Collector) Record(endpoint string, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, exists := c.endpoints[endpoint]
	if !exists {
		m = &EndpointMetrics{Endpoint: endpoint}
		c.endpoints[endpoint] = m
	}

	m.RequestCount++
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.RequestCount)
	m.LastUpdated = time.Now()

	if failed {
		m.ErrorCount++
	} else {
		m.SuccessCount++
	}
}

// Get returns a copy of one endpoint's metrics, nil if it was never recorded
func (c *Collector) Get(endpoint string) *EndpointMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, exists := c.endpoints[endpoint]; exists {
		copied := *m
		return &copied
	}
	return nil
}

// Snapshot returns copies of all metrics sorted by endpoint
func (c *Collector) Snapshot() []EndpointMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]EndpointMetrics, 0, len(c.endpoints))
	for _, m := range c.endpoints {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Endpoint < result[j].Endpoint })
	return result
}

// Reset clears all metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endpoints = make(map[string]*EndpointMetrics)
}

// LogSummary logs one line per endpoint
func (c *Collector) LogSummary(logger logging.Logger) {
	for _, m := range c.Snapshot() {
		successRate := float64(0)
		if m.RequestCount > 0 {
			successRate = float64(m.SuccessCount) / float64(m.RequestCount) * 100
		}

		logger.Info("Endpoint metrics summary", map[string]interface{}{
			"endpoint":         m.Endpoint,
			"request_count":    m.RequestCount,
			"success_count":    m.SuccessCount,
			"error_count":      m.ErrorCount,
			"success_rate":     successRate,
			"average_duration": m.AverageDuration.String(),
			"type":             "metrics_summary",
		})
	}
}

// StartReporting logs a summary every interval until ctx is done
func (c *Collector) StartReporting(ctx context.Context, interval time.Duration, logger logging.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.LogSummary(logger)
			case <-ctx.Done():
				return
			}
		}
	}()
}
