package cap

import (
	"encoding/xml"
	"fmt"

	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"

	"flood-geoservice/internal/logging"
	"flood-geoservice/internal/models"
	"flood-geoservice/internal/observability"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// FeedSerializer assembles CAP alerts into a single ATOM feed document.
type FeedSerializer struct {
	builder *Builder
	title   string
	logger  *logging.Logger
	metrics *observability.Metrics
}

func NewFeedSerializer(builder *Builder, title string, logger *logging.Logger, metrics *observability.Metrics) *FeedSerializer {
	return &FeedSerializer{
		builder: builder,
		title:   title,
		logger:  logger,
		metrics: metrics,
	}
}

// Serialize maps every feature through the alert builder and renders the
// surviving alerts as one XML document. Features that yield no info block are
// excluded from the feed entirely; a feature with an active state but
// unconvertible geometry is logged as a conversion failure, not an error.
func (s *FeedSerializer) Serialize(features []*geojson.Feature) ([]byte, error) {
	entries := make([]models.Entry, 0, len(features))
	for _, f := range features {
		alert := s.builder.BuildAlert(f)
		if alert.Info == nil {
			if propInt(f, "state") > 0 {
				s.logger.Warnf("Dropping feature %q from CAP feed: geometry not convertible", propString(f, "name"))
				if s.metrics != nil {
					s.metrics.ConversionFailures.Inc()
				}
			}
			continue
		}

		entries = append(entries, models.Entry{
			ID:      alert.Identifier,
			Title:   alert.Info.Headline,
			Updated: alert.Sent,
			Alert:   alert,
		})
	}

	feed := models.Feed{
		Xmlns:   atomNamespace,
		ID:      "urn:uuid:" + uuid.NewString(),
		Title:   s.title,
		Updated: s.builder.clock.Now().In(s.builder.loc).Format(capTimeLayout),
		Entries: entries,
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal CAP feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
