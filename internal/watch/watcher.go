package watch

import (
	"context"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"flood-geoservice/internal/cap"
	"flood-geoservice/internal/logging"
	"flood-geoservice/internal/models"
	"flood-geoservice/internal/observability"
)

// seenRetention bounds how long published identifiers are remembered. An
// area whose state persists past this window is announced again.
const seenRetention = 24 * time.Hour

// AreaSource produces the flood situation the watcher scans for new alerts.
type AreaSource interface {
	FloodAreas(ctx context.Context) (models.RecordSet, error)
}

// Publisher pushes one alert to a downstream channel.
type Publisher interface {
	Publish(ctx context.Context, alert models.Alert) error
	Name() string
}

// Watcher periodically rebuilds alerts from the flood situation and pushes
// the ones not seen before to every configured channel. Channel failures are
// logged and never abort a run.
type Watcher struct {
	source     AreaSource
	builder    *cap.Builder
	logger     *logging.Logger
	metrics    *observability.Metrics
	publishers []Publisher
	seen       map[string]time.Time
}

func New(source AreaSource, builder *cap.Builder, logger *logging.Logger, metrics *observability.Metrics, publishers ...Publisher) *Watcher {
	return &Watcher{
		source:     source,
		builder:    builder,
		logger:     logger,
		metrics:    metrics,
		publishers: publishers,
		seen:       make(map[string]time.Time),
	}
}

// Check runs one scan. It is called from a single scheduler goroutine, so
// the seen map needs no locking.
func (w *Watcher) Check(ctx context.Context) {
	rs, err := w.source.FloodAreas(ctx)
	if err != nil {
		w.logger.Errorf("Alert watch query failed: %v", err)
		return
	}

	w.prune()

	published := 0
	for _, f := range rs.Features() {
		if w.dispatch(ctx, f) {
			published++
		}
	}
	if published > 0 {
		w.logger.Infof("Published %d new alerts", published)
	}
}

func (w *Watcher) dispatch(ctx context.Context, f *geojson.Feature) bool {
	alert := w.builder.BuildAlert(f)
	if alert.Info == nil {
		return false
	}
	if _, ok := w.seen[alert.Identifier]; ok {
		return false
	}
	w.seen[alert.Identifier] = time.Now()

	for _, p := range w.publishers {
		if err := p.Publish(ctx, alert); err != nil {
			w.logger.Errorf("Failed to publish alert %s via %s: %v", alert.Identifier, p.Name(), err)
			continue
		}
		if w.metrics != nil {
			w.metrics.AlertsPublished.WithLabelValues(p.Name()).Inc()
		}
	}
	return true
}

func (w *Watcher) prune() {
	cutoff := time.Now().Add(-seenRetention)
	for id, at := range w.seen {
		if at.Before(cutoff) {
			delete(w.seen, id)
		}
	}
}
