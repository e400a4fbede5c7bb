// Package metrics exports Prometheus counters for blob storage and the HTTP API.
package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// Prom holds the collectors. Register them on a registry of your own; the
// global default registry is never touched.
type Prom struct {
	blobOps        *prometheus.CounterVec
	blobLatency    *prometheus.HistogramVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewProm creates the collectors and registers them on reg.
func NewProm(namespace string, reg prometheus.Registerer) (*Prom, error) {
	p := &Prom{
		blobOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_operations_total",
			Help:      "Blob store operations by operation and result",
		}, []string{"op", "result"}),
		blobLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "blob_operation_duration_seconds",
			Help:      "Blob store operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{p.blobOps, p.blobLatency, p.requests, p.requestLatency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (p *Prom) observeBlob(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, sitecontent.ErrObjectNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	p.blobOps.WithLabelValues(op, result).Inc()
	p.blobLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Middleware records every request under its chi route pattern.
func (p *Prom) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		p.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		p.requestLatency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// InstrumentBlobStore counts and times every call made to store.
func (p *Prom) InstrumentBlobStore(store sitecontent.BlobStore) sitecontent.BlobStore {
	return &instrumentedStore{next: store, prom: p}
}

type instrumentedStore struct {
	next sitecontent.BlobStore
	prom *Prom
}

func (s *instrumentedStore) UploadWithParams(ctx context.Context, reader io.Reader, params sitecontent.UploadParams) (err error) {
	defer func(start time.Time) { s.prom.observeBlob("upload", start, err) }(time.Now())
	return s.next.UploadWithParams(ctx, reader, params)
}

func (s *instrumentedStore) Download(ctx context.Context, objectKey string) (rc io.ReadCloser, err error) {
	defer func(start time.Time) { s.prom.observeBlob("download", start, err) }(time.Now())
	return s.next.Download(ctx, objectKey)
}

func (s *instrumentedStore) Delete(ctx context.Context, objectKey string) (err error) {
	defer func(start time.Time) { s.prom.observeBlob("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, objectKey)
}

func (s *instrumentedStore) DeleteMany(ctx context.Context, objectKeys []string) (err error) {
	defer func(start time.Time) { s.prom.observeBlob("delete_many", start, err) }(time.Now())
	return s.next.DeleteMany(ctx, objectKeys)
}

func (s *instrumentedStore) List(ctx context.Context, prefix string) (objs []sitecontent.ObjectMeta, err error) {
	defer func(start time.Time) { s.prom.observeBlob("list", start, err) }(time.Now())
	return s.next.List(ctx, prefix)
}

func (s *instrumentedStore) GetObjectMeta(ctx context.Context, objectKey string) (meta *sitecontent.ObjectMeta, err error) {
	defer func(start time.Time) { s.prom.observeBlob("get_meta", start, err) }(time.Now())
	return s.next.GetObjectMeta(ctx, objectKey)
}
