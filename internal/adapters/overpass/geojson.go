package overpass

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Member is one ordered member reference of a trail relation.
type Member struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

// RelationToFeatureCollection resolves a relation's ordered way members
// against fetched way geometries.
//
// Exactly one resolvable way yields a LineString feature; several yield a
// MultiLineString with one part per way. Parts are deliberately not
// concatenated into a continuous line: real trail relations contain gaps,
// loops and alternate branches, and stitching members by proximity would
// fabricate geometry. A relation with no resolvable ways yields an empty
// collection, never an error.
func RelationToFeatureCollection(members []Member, ways map[int64]orb.LineString) *geojson.FeatureCollection {
	segments := make([]orb.LineString, 0, len(members))
	for _, m := range members {
		if m.Type != "way" {
			continue
		}
		line, ok := ways[m.Ref]
		if !ok || len(line) == 0 {
			continue
		}
		segments = append(segments, line)
	}

	fc := geojson.NewFeatureCollection()
	switch len(segments) {
	case 0:
		return fc
	case 1:
		fc.Append(geojson.NewFeature(segments[0]))
	default:
		fc.Append(geojson.NewFeature(orb.MultiLineString(segments)))
	}
	return fc
}
