package db

import (
	"context"
	"fmt"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"flood-geoservice/internal/models"
)

const floodAreasQuery = `
	SELECT a.id, a.name, a.parent_name, a.state, a.last_updated,
	       ST_AsGeoJSON(a.geom)
	FROM flood_area a
	ORDER BY a.id`

const waterLevelsQuery = `
	SELECT s.id, s.name, r.level_m, r.recorded_at
	FROM station s
	JOIN LATERAL (
		SELECT level_m, recorded_at
		FROM water_level
		WHERE station_id = s.id
		ORDER BY recorded_at DESC
		LIMIT 1
	) r ON true
	ORDER BY s.id`

// FloodAreas returns the current flood situation as a feature collection
// record set. An absent record set (no rows) is returned as-is; the response
// builder models it as "no content".
func (d *DB) FloodAreas(ctx context.Context) (models.RecordSet, error) {
	rows, err := d.Pool.Query(ctx, floodAreasQuery)
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to query flood areas: %w", err)
	}
	defer rows.Close()

	fc := geojson.NewFeatureCollection()
	for rows.Next() {
		var (
			id          int64
			name        string
			parentName  string
			state       int
			lastUpdated time.Time
			geomJSON    []byte
		)
		if err := rows.Scan(&id, &name, &parentName, &state, &lastUpdated, &geomJSON); err != nil {
			return models.RecordSet{}, fmt.Errorf("failed to scan flood area: %w", err)
		}

		geom, err := geojson.UnmarshalGeometry(geomJSON)
		if err != nil {
			return models.RecordSet{}, fmt.Errorf("failed to decode geometry for area %d: %w", id, err)
		}

		f := geojson.NewFeature(geom)
		f.ID = id
		f.SetProperty("name", name)
		f.SetProperty("parent_name", parentName)
		f.SetProperty("state", state)
		f.SetProperty("last_updated", lastUpdated.Format("2006-01-02 15:04:05"))
		fc.AddFeature(f)
	}
	if err := rows.Err(); err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to read flood areas: %w", err)
	}

	if len(fc.Features) == 0 {
		return models.RecordSet{}, nil
	}
	return models.RecordSet{Collection: fc}, nil
}

// WaterLevels returns the latest gauge reading per station as a bare row
// list record set.
func (d *DB) WaterLevels(ctx context.Context) (models.RecordSet, error) {
	rows, err := d.Pool.Query(ctx, waterLevelsQuery)
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to query water levels: %w", err)
	}
	defer rows.Close()

	var list []map[string]interface{}
	for rows.Next() {
		var (
			id         int64
			name       string
			level      float64
			recordedAt time.Time
		)
		if err := rows.Scan(&id, &name, &level, &recordedAt); err != nil {
			return models.RecordSet{}, fmt.Errorf("failed to scan water level: %w", err)
		}
		list = append(list, map[string]interface{}{
			"station_id":   id,
			"station_name": name,
			"level_m":      level,
			"recorded_at":  recordedAt.Format("2006-01-02 15:04:05"),
		})
	}
	if err := rows.Err(); err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to read water levels: %w", err)
	}

	return models.RecordSet{Rows: list}, nil
}
