// Package datadog implements a Datadog backend for the internal/metrics
// facade.
//
// The backend buffers metrics in memory and submits them on Flush(). For the
// typical one-shot pipeline run that means a single submission at shutdown;
// long-running server processes also get a periodic flush so dashboards show a
// time series instead of a single spike at exit.
//
// Concurrency model:
//   - pipeline goroutines call IncCounter/ObserveStage at any time
//   - Flush snapshots and resets the buffers under a mutex, then submits
//     out-of-lock
//   - Close stops the flush loop and performs one final Flush
package datadog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// Options controls backend construction.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric. Defaults to "movie_dw".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod"}).
	Tags []string

	// FlushEvery controls the periodic submission interval. If <= 0 the
	// backend only flushes on explicit Flush/Close calls.
	FlushEvery time.Duration

	// Unexported test seams. Production code never sets these.
	now       func() time.Time
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal slice of the Datadog SDK the backend needs.
// The concrete *datadogV2.MetricsApi satisfies it; tests supply a fake to
// avoid real HTTP.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend against the Datadog metrics intake.
type Backend struct {
	api      metricsSubmitter
	ctx      context.Context
	baseTags []string
	now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}

	mu       sync.Mutex
	counters map[string]*counter
	stages   map[string][]float64
}

type counter struct {
	value float64
	tags  []string
}

// NewBackend builds a Backend using DD_API_KEY (and optionally DD_SITE) from
// the environment, as the Datadog SDK expects.
func NewBackend(ctx context.Context, opts Options) (*Backend, error) {
	if strings.TrimSpace(os.Getenv("DD_API_KEY")) == "" {
		return nil, fmt.Errorf("datadog: DD_API_KEY is not set")
	}

	job := opts.JobName
	if job == "" {
		job = "movie_dw"
	}

	tags := append([]string{"job:" + job}, opts.Tags...)
	sort.Strings(tags)

	sub := opts.submitter
	if sub == nil {
		cfg := dd.NewConfiguration()
		sub = datadogV2.NewMetricsApi(dd.NewAPIClient(cfg))
		ctx = dd.NewDefaultContext(ctx)
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}

	b := &Backend{
		api:      sub,
		ctx:      ctx,
		baseTags: tags,
		now:      now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		counters: map[string]*counter{},
		stages:   map[string][]float64{},
	}

	if opts.FlushEvery > 0 {
		go b.flushLoop(opts.FlushEvery)
	} else {
		close(b.doneCh)
	}

	return b, nil
}

func (b *Backend) flushLoop(every time.Duration) {
	defer close(b.doneCh)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// IncCounter buffers a counter increment.
func (b *Backend) IncCounter(name string, delta float64, tags ...string) {
	key := name
	if len(tags) > 0 {
		sorted := append([]string(nil), tags...)
		sort.Strings(sorted)
		key = name + "|" + strings.Join(sorted, ",")
		tags = sorted
	}

	b.mu.Lock()
	c := b.counters[key]
	if c == nil {
		c = &counter{tags: tags}
		b.counters[key] = c
	}
	c.value += delta
	b.mu.Unlock()
}

// ObserveStage buffers a stage duration sample in seconds.
func (b *Backend) ObserveStage(stage string, seconds float64) {
	b.mu.Lock()
	b.stages[stage] = append(b.stages[stage], seconds)
	b.mu.Unlock()
}

// Flush submits everything buffered since the previous flush. An empty buffer
// is a no-op.
func (b *Backend) Flush() error {
	b.mu.Lock()
	counters := b.counters
	stages := b.stages
	b.counters = map[string]*counter{}
	b.stages = map[string][]float64{}
	b.mu.Unlock()

	if len(counters) == 0 && len(stages) == 0 {
		return nil
	}

	ts := b.now().Unix()
	series := make([]datadogV2.MetricSeries, 0, len(counters)+len(stages))

	for key, c := range counters {
		name := key
		if i := strings.IndexByte(key, '|'); i >= 0 {
			name = key[:i]
		}
		series = append(series, datadogV2.MetricSeries{
			Metric: name,
			Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
			Tags:   append(append([]string{}, b.baseTags...), c.tags...),
			Points: []datadogV2.MetricPoint{{
				Timestamp: dd.PtrInt64(ts),
				Value:     dd.PtrFloat64(c.value),
			}},
		})
	}

	for stage, samples := range stages {
		points := make([]datadogV2.MetricPoint, 0, len(samples))
		for _, s := range samples {
			points = append(points, datadogV2.MetricPoint{
				Timestamp: dd.PtrInt64(ts),
				Value:     dd.PtrFloat64(s),
			})
		}
		series = append(series, datadogV2.MetricSeries{
			Metric: "etl.stage.duration_seconds",
			Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
			Tags:   append(append([]string{}, b.baseTags...), "stage:"+stage),
			Points: points,
		})
	}

	// Sorting keeps payloads deterministic, which makes the fake-submitter
	// tests stable.
	sort.Slice(series, func(i, j int) bool {
		if series[i].Metric != series[j].Metric {
			return series[i].Metric < series[j].Metric
		}
		return strings.Join(series[i].Tags, ",") < strings.Join(series[j].Tags, ",")
	})

	_, _, err := b.api.SubmitMetrics(b.ctx, datadogV2.MetricPayload{Series: series})
	if err != nil {
		return fmt.Errorf("datadog: submit metrics: %w", err)
	}
	return nil
}

// Close stops the periodic flush loop (if any) and submits one final time.
func (b *Backend) Close() error {
	select {
	case <-b.stopCh:
	default:
		close(b.stopCh)
	}
	<-b.doneCh
	return b.Flush()
}

// ParseTagsCSV splits a comma-separated "k:v,k:v" string into tags, dropping
// empties.
func ParseTagsCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
