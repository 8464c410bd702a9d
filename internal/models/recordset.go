package models

import (
	geojson "github.com/paulmach/go.geojson"
)

// RecordSet is what the data layer hands to the response builder: either a
// feature-collection-shaped result or a bare row list, never both.
type RecordSet struct {
	Collection *geojson.FeatureCollection
	Rows       []map[string]interface{}
}

// Empty reports whether the record set carries no data at all. A present
// collection with zero features is not empty.
func (rs RecordSet) Empty() bool {
	return rs.Collection == nil && len(rs.Rows) == 0
}

// Features returns the features of the underlying collection, or nil for a
// bare row list.
func (rs RecordSet) Features() []*geojson.Feature {
	if rs.Collection == nil {
		return nil
	}
	return rs.Collection.Features
}

// Payload returns the JSON-serializable top-level object for this record set.
// Bare row lists are wrapped in an object so a top-level field can be attached
// before serialization.
func (rs RecordSet) Payload() map[string]interface{} {
	if rs.Collection != nil {
		return map[string]interface{}{
			"type":     "FeatureCollection",
			"features": rs.Collection.Features,
		}
	}
	return map[string]interface{}{"records": rs.Rows}
}
