package cap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	geojson "github.com/paulmach/go.geojson"

	"flood-geoservice/internal/models"
)

// capTimeLayout is the CAP 1.2 dateTime profile: local time with a numeric
// timezone offset.
const capTimeLayout = "2006-01-02T15:04:05-07:00"

// Builder turns flood-area features into CAP alerts.
type Builder struct {
	states map[int]models.StateClass
	sender string
	expiry time.Duration
	loc    *time.Location
	clock  clockwork.Clock
}

// NewBuilder creates a Builder. The state table maps flood state codes to
// CAP classification text and is deployment configuration, not fixed logic.
func NewBuilder(states map[int]models.StateClass, sender string, expiry time.Duration, loc *time.Location, clock clockwork.Clock) *Builder {
	return &Builder{
		states: states,
		sender: sender,
		expiry: expiry,
		loc:    loc,
		clock:  clock,
	}
}

// BuildInfo derives the CAP info block for a feature. It returns false both
// for the explicit no-alert condition (state <= 0) and when the geometry has
// no valid CAP area; an alert without a valid area is not emitted.
func (b *Builder) BuildInfo(f *geojson.Feature) (*models.Info, bool) {
	state := propInt(f, "state")
	if state <= 0 {
		return nil, false
	}

	area, ok := ToCapArea(f.Geometry)
	if !ok {
		return nil, false
	}

	cls := b.states[state]
	effective := b.effectiveTime(f)

	name := propString(f, "name")
	headline := cls.Headline
	if name != "" {
		headline = fmt.Sprintf("%s: %s", cls.Headline, name)
	}

	return &models.Info{
		Category:    "Met",
		Event:       cls.Event,
		Urgency:     cls.Urgency,
		Severity:    cls.Severity,
		Certainty:   cls.Certainty,
		Headline:    headline,
		Description: cls.Description,
		Effective:   effective.Format(capTimeLayout),
		Expires:     effective.Add(b.expiry).Format(capTimeLayout),
		Area: &models.Area{
			AreaDesc: name,
			Polygons: area,
		},
	}, true
}

// BuildAlert always produces an alert record; its Info is nil when BuildInfo
// yields nothing, and callers filter on that before serialization. The
// identifier concatenates stable feature properties and percent-encodes
// markup-significant characters so it is safe to embed in XML.
func (b *Builder) BuildAlert(f *geojson.Feature) models.Alert {
	info, _ := b.BuildInfo(f)

	raw := fmt.Sprintf("%s.%s.%s",
		propString(f, "parent_name"),
		propString(f, "name"),
		propString(f, "last_updated"),
	)

	return models.Alert{
		Xmlns:      "urn:oasis:names:tc:emergency:cap:1.2",
		Identifier: url.QueryEscape(raw),
		Sender:     b.sender,
		Sent:       b.clock.Now().In(b.loc).Format(capTimeLayout),
		Status:     "Actual",
		MsgType:    "Alert",
		Scope:      "Public",
		Info:       info,
	}
}

// effectiveTime parses the feature's last-updated property, falling back to
// the current time when it is missing or malformed.
func (b *Builder) effectiveTime(f *geojson.Feature) time.Time {
	raw := propString(f, "last_updated")
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, b.loc); err == nil {
			return t.In(b.loc)
		}
	}
	return b.clock.Now().In(b.loc)
}

func propString(f *geojson.Feature, key string) string {
	if f == nil || f.Properties == nil {
		return ""
	}
	if s, ok := f.Properties[key].(string); ok {
		return s
	}
	return ""
}

func propInt(f *geojson.Feature, key string) int {
	if f == nil || f.Properties == nil {
		return 0
	}
	// Properties round-tripped through JSON arrive as float64.
	switch v := f.Properties[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
