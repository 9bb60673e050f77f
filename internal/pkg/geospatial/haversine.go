package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// LineLengthKm sums consecutive-point haversine distances along a line.
func LineLengthKm(line orb.LineString) float64 {
	var meters float64
	for i := 1; i < len(line); i++ {
		meters += Haversine(line[i-1].Lat(), line[i-1].Lon(), line[i].Lat(), line[i].Lon())
	}
	return meters / 1000
}

// GeometryLengthKm returns the path length of a LineString or the summed
// part lengths of a MultiLineString. Other geometries have zero length.
func GeometryLengthKm(g orb.Geometry) float64 {
	switch geom := g.(type) {
	case orb.LineString:
		return LineLengthKm(geom)
	case orb.MultiLineString:
		var km float64
		for _, part := range geom {
			km += LineLengthKm(part)
		}
		return km
	default:
		return 0
	}
}

// BoundingBox returns a bounding box around a point with the given radius
// in meters, in (south, west, north, east) order.
func BoundingBox(lat, lon, radiusMeters float64) (south, west, north, east float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// RoundKm rounds a kilometer value to 2 decimals, the canonical precision
// for user-facing distances.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
