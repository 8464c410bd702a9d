package format

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rubenv/topojson"

	"flood-geoservice/internal/cap"
	"flood-geoservice/internal/models"
)

// Recognized format selector values. Anything else selects plain GeoJSON.
const (
	FormatGeoJSON  = "geojson"
	FormatTopoJSON = "topojson"
	FormatCAP      = "cap"
)

// queryTimeLayout renders local civil time in the reference timezone with no
// offset suffix. This is a display contract for downstream clients, not a
// technical timestamp.
const queryTimeLayout = "2006-01-02T15:04:05"

// Builder turns a record set into a response envelope in the requested
// format. It performs no I/O; the data layer has already delivered results.
type Builder struct {
	feed  *cap.FeedSerializer
	loc   *time.Location
	clock clockwork.Clock
}

func NewBuilder(feed *cap.FeedSerializer, loc *time.Location, clock clockwork.Clock) *Builder {
	return &Builder{feed: feed, loc: loc, clock: clock}
}

// Normalize maps a raw format parameter onto one of the three recognized
// values, defaulting to GeoJSON.
func Normalize(format string) string {
	switch format {
	case FormatTopoJSON, FormatCAP:
		return format
	}
	return FormatGeoJSON
}

// Build produces the response for a record set. An empty or absent record
// set yields 204 with no body; "no content" is modeled explicitly rather
// than as an empty payload.
func (b *Builder) Build(format string, rs models.RecordSet) (models.ResponseEnvelope, error) {
	if rs.Empty() {
		return models.NoContent(), nil
	}

	if format == FormatCAP {
		body, err := b.feed.Serialize(rs.Features())
		if err != nil {
			return models.ResponseEnvelope{}, err
		}
		return envelope("application/xml", body), nil
	}

	// TopoJSON only applies when the record set carries a feature
	// collection; otherwise the request falls through to plain GeoJSON.
	if format == FormatTopoJSON && rs.Collection != nil {
		topo := topojson.NewTopology(rs.Collection, nil)
		raw, err := json.Marshal(topo)
		if err != nil {
			return models.ResponseEnvelope{}, fmt.Errorf("failed to marshal topology: %w", err)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return models.ResponseEnvelope{}, fmt.Errorf("failed to reshape topology: %w", err)
		}
		return b.jsonEnvelope(payload)
	}

	return b.jsonEnvelope(rs.Payload())
}

// jsonEnvelope stamps QueryTime at the top level of the payload and
// serializes it.
func (b *Builder) jsonEnvelope(payload map[string]interface{}) (models.ResponseEnvelope, error) {
	payload["QueryTime"] = b.clock.Now().In(b.loc).Format(queryTimeLayout)
	body, err := json.Marshal(payload)
	if err != nil {
		return models.ResponseEnvelope{}, fmt.Errorf("failed to marshal response payload: %w", err)
	}
	return envelope("application/json", body), nil
}

func envelope(contentType string, body []byte) models.ResponseEnvelope {
	return models.ResponseEnvelope{
		Status: 200,
		Header: map[string]string{"Content-Type": contentType},
		Body:   body,
	}
}
