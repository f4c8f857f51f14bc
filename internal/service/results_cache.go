package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"decision-ai/internal/domain"
	"decision-ai/internal/ml"
)

// ResultsCache guarda el último paquete de resultados y los reportes por umbral.
type ResultsCache interface {
	GetResults(ctx context.Context) (domain.Results, bool, error)
	SetResults(ctx context.Context, results domain.Results) error
	GetReport(ctx context.Context, runID string, threshold float64) (ml.Report, bool, error)
	SetReport(ctx context.Context, runID string, report ml.Report) error
}

// reportKey usa la representación exacta del umbral: dos umbrales distintos nunca comparten reporte.
func reportKey(runID string, threshold float64) string {
	return runID + ":" + strconv.FormatFloat(threshold, 'g', -1, 64)
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

type memoryResultsCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cacheEntry
}

// NewMemoryResultsCache crea un cache en proceso; ttl <= 0 significa sin vencimiento.
func NewMemoryResultsCache(ttl time.Duration) ResultsCache {
	return &memoryResultsCache{
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

func (c *memoryResultsCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().UTC().After(entry.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return entry.value, true
}

func (c *memoryResultsCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{value: value}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().UTC().Add(c.ttl)
	}
	c.items[key] = entry
}

func (c *memoryResultsCache) GetResults(_ context.Context) (domain.Results, bool, error) {
	v, ok := c.get("results")
	if !ok {
		return domain.Results{}, false, nil
	}
	return v.(domain.Results), true, nil
}

func (c *memoryResultsCache) SetResults(_ context.Context, results domain.Results) error {
	c.set("results", results)
	return nil
}

func (c *memoryResultsCache) GetReport(_ context.Context, runID string, threshold float64) (ml.Report, bool, error) {
	v, ok := c.get("report:" + reportKey(runID, threshold))
	if !ok {
		return ml.Report{}, false, nil
	}
	return v.(ml.Report), true, nil
}

func (c *memoryResultsCache) SetReport(_ context.Context, runID string, report ml.Report) error {
	c.set("report:"+reportKey(runID, report.Threshold), report)
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisResultsCache struct {
	client redisKV
	prefix string
	ttl    time.Duration
}

// NewRedisResultsCache publica los resultados en Redis para que el dashboard los lea sin tocar disco.
func NewRedisResultsCache(client *redis.Client, ttl time.Duration) ResultsCache {
	if client == nil {
		return nil
	}
	return &redisResultsCache{
		client: client,
		prefix: "decision:",
		ttl:    ttl,
	}
}

func (c *redisResultsCache) GetResults(ctx context.Context) (domain.Results, bool, error) {
	var results domain.Results
	ok, err := c.getJSON(ctx, c.prefix+"results:latest", &results)
	return results, ok, err
}

func (c *redisResultsCache) SetResults(ctx context.Context, results domain.Results) error {
	return c.setJSON(ctx, c.prefix+"results:latest", results)
}

func (c *redisResultsCache) GetReport(ctx context.Context, runID string, threshold float64) (ml.Report, bool, error) {
	var report ml.Report
	ok, err := c.getJSON(ctx, c.prefix+"report:"+reportKey(runID, threshold), &report)
	return report, ok, err
}

func (c *redisResultsCache) SetReport(ctx context.Context, runID string, report ml.Report) error {
	return c.setJSON(ctx, c.prefix+"report:"+reportKey(runID, report.Threshold), report)
}

func (c *redisResultsCache) getJSON(ctx context.Context, key string, v any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *redisResultsCache) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
