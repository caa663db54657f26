package geo

import (
	"math"
)

type Coord [2]float32

func (self Coord) Lon() float32 {
	return self[0]
}

func (self Coord) Lat() float32 {
	return self[1]
}

const earth_radius = 6371000.0

// Great-circle distance between two coordinates in meters.
func HaversineDist(a Coord, b Coord) float64 {
	lat1 := float64(a[1]) * math.Pi / 180
	lat2 := float64(b[1]) * math.Pi / 180
	dlat := lat2 - lat1
	dlon := (float64(b[0]) - float64(a[0])) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earth_radius * math.Asin(math.Sqrt(h))
}
