// Package routing measures how far a reported position is from a trip's
// planned route.
package routing

import "math"

const earthRadiusKm = 6371.0

// LatLng is a point in degrees
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HaversineDistance returns the great-circle distance in kilometers
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceToSegment returns the distance in km from p to the segment a-b.
// The nearest point is found on a local equirectangular projection centred
// on p, then measured with haversine.
func DistanceToSegment(p, a, b LatLng) float64 {
	scale := math.Cos(p.Latitude * math.Pi / 180)

	ax, ay := (a.Longitude-p.Longitude)*scale, a.Latitude-p.Latitude
	bx, by := (b.Longitude-p.Longitude)*scale, b.Latitude-p.Latitude

	dx, dy := bx-ax, by-ay
	t := 0.0
	if lenSq := dx*dx + dy*dy; lenSq > 0 {
		// p is the origin, so the projection is -a·d / |d|²
		t = -(ax*dx + ay*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}

	nearest := LatLng{
		Latitude:  a.Latitude + t*(b.Latitude-a.Latitude),
		Longitude: a.Longitude + t*(b.Longitude-a.Longitude),
	}
	return HaversineDistance(p.Latitude, p.Longitude, nearest.Latitude, nearest.Longitude)
}

// DistanceToRoute returns the distance in km from p to the closest point of
// the polyline. An empty route yields +Inf.
func DistanceToRoute(p LatLng, route []LatLng) float64 {
	switch len(route) {
	case 0:
		return math.Inf(1)
	case 1:
		return HaversineDistance(p.Latitude, p.Longitude, route[0].Latitude, route[0].Longitude)
	}

	best := math.Inf(1)
	for i := 1; i < len(route); i++ {
		if d := DistanceToSegment(p, route[i-1], route[i]); d < best {
			best = d
		}
	}
	return best
}
