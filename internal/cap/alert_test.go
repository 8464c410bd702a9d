package cap

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flood-geoservice/internal/config"
)

var testLoc = time.FixedZone("ICT", 7*3600)

func testBuilder() *Builder {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 20, 12, 0, 0, 0, testLoc))
	return NewBuilder(config.DefaultStateTable(), "flood-geoservice", 6*time.Hour, testLoc, clock)
}

func testFeature(state int) *geojson.Feature {
	f := geojson.NewFeature(&geojson.Geometry{
		Type:    geojson.GeometryPolygon,
		Polygon: [][][]float64{{{1, 2}, {3, 4}}},
	})
	f.SetProperty("state", state)
	f.SetProperty("name", "Khlong U Taphao")
	f.SetProperty("parent_name", "Hat Yai")
	f.SetProperty("last_updated", "2026-08-20 10:30:00")
	return f
}

func TestBuildInfo(t *testing.T) {
	b := testBuilder()

	t.Run("inactive state yields nothing", func(t *testing.T) {
		for _, state := range []int{0, -1, -7} {
			info, ok := b.BuildInfo(testFeature(state))
			assert.False(t, ok, "state %d", state)
			assert.Nil(t, info)
		}
	})

	t.Run("active state yields classified info", func(t *testing.T) {
		info, ok := b.BuildInfo(testFeature(1))

		require.True(t, ok)
		require.NotNil(t, info)
		assert.Equal(t, "Minor", info.Severity)
		assert.Equal(t, "Future", info.Urgency)
		assert.Equal(t, "Possible", info.Certainty)
		assert.Equal(t, "Flood watch: Khlong U Taphao", info.Headline)
		assert.Equal(t, "2026-08-20T10:30:00+07:00", info.Effective)
		assert.Equal(t, "2026-08-20T16:30:00+07:00", info.Expires)
		require.NotNil(t, info.Area)
		assert.Equal(t, []string{"2,1 4,3"}, info.Area.Polygons)
		assert.Equal(t, "Khlong U Taphao", info.Area.AreaDesc)
	})

	t.Run("severity follows the state table", func(t *testing.T) {
		f := testFeature(3)
		info, ok := b.BuildInfo(f)

		require.True(t, ok)
		assert.Equal(t, "Severe", info.Severity)
		assert.Equal(t, "Immediate", info.Urgency)
		assert.Equal(t, "Observed", info.Certainty)
	})

	t.Run("unconvertible geometry yields nothing", func(t *testing.T) {
		f := testFeature(1)
		f.Geometry = &geojson.Geometry{Type: "Unknown"}

		info, ok := b.BuildInfo(f)
		assert.False(t, ok)
		assert.Nil(t, info)
	})

	t.Run("unparsable timestamp falls back to clock time", func(t *testing.T) {
		f := testFeature(1)
		f.SetProperty("last_updated", "yesterday-ish")

		info, ok := b.BuildInfo(f)
		require.True(t, ok)
		assert.Equal(t, "2026-08-20T12:00:00+07:00", info.Effective)
	})
}

func TestBuildAlert(t *testing.T) {
	b := testBuilder()

	t.Run("active feature", func(t *testing.T) {
		alert := b.BuildAlert(testFeature(1))

		assert.Equal(t, "flood-geoservice", alert.Sender)
		assert.Equal(t, "2026-08-20T12:00:00+07:00", alert.Sent)
		assert.Equal(t, "Actual", alert.Status)
		assert.Equal(t, "Alert", alert.MsgType)
		assert.Equal(t, "Public", alert.Scope)
		assert.Equal(t, "urn:oasis:names:tc:emergency:cap:1.2", alert.Xmlns)
		require.NotNil(t, alert.Info)
	})

	t.Run("inactive feature still yields an alert record", func(t *testing.T) {
		alert := b.BuildAlert(testFeature(0))

		assert.NotEmpty(t, alert.Identifier)
		assert.Nil(t, alert.Info)
	})

	t.Run("identifier neutralizes markup characters", func(t *testing.T) {
		f := testFeature(1)
		f.SetProperty("parent_name", `Hat Yai <& "friends">`)

		alert := b.BuildAlert(f)
		assert.NotContains(t, alert.Identifier, "<")
		assert.NotContains(t, alert.Identifier, "&")
		assert.NotContains(t, alert.Identifier, `"`)
		assert.Contains(t, alert.Identifier, "%3C")
	})

	t.Run("identifier is stable across builds", func(t *testing.T) {
		a1 := b.BuildAlert(testFeature(1))
		a2 := b.BuildAlert(testFeature(2))
		assert.Equal(t, a1.Identifier, a2.Identifier)
	})

	t.Run("scenario: minimal polygon feature", func(t *testing.T) {
		f := geojson.NewFeature(&geojson.Geometry{
			Type:    geojson.GeometryPolygon,
			Polygon: [][][]float64{{{1, 2}, {3, 4}}},
		})
		f.SetProperty("state", 1)
		f.SetProperty("parent_name", "X")

		area, ok := ToCapArea(f.Geometry)
		require.True(t, ok)
		assert.Equal(t, []string{"2,1 4,3"}, area)

		info, ok := b.BuildInfo(f)
		require.True(t, ok)
		require.NotNil(t, info)

		alert := b.BuildAlert(f)
		assert.NotNil(t, alert.Info)
		assert.True(t, strings.Contains(alert.Identifier, "X"))
	})
}
