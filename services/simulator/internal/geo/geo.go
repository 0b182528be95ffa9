// Package geo holds the coordinate math behind the simulator: great-circle
// distances and the speed-based path segmenter.
package geo

import (
	"math"
	"time"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371008.8

// Coordinate is a (longitude, latitude) pair in decimal degrees. It encodes
// as a two element JSON array, matching the device registry payload.
type Coordinate [2]float64

// Lng returns the longitude.
func (c Coordinate) Lng() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinate) Lat() float64 { return c[1] }

// Path is an ordered list of waypoints.
type Path []Coordinate

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula on a spherical earth.
// Ref: http://www.movable-type.co.uk/scripts/latlong.html
func Distance(a, b Coordinate) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }

	phi1, phi2 := rad(a.Lat()), rad(b.Lat())
	dPhi := phi2 - phi1
	dLambda := rad(b.Lng() - a.Lng())

	h := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ClosePath returns p with its first waypoint appended when the last one
// differs, so that walking it ends where it started. p is not modified.
func ClosePath(p Path) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	if len(p) > 1 && p[0] != p[len(p)-1] {
		out = append(out, p[0])
	}
	return out
}

// Segment interpolates the path into the positions a device moving at speed
// (m/s) occupies every interval. For each pair of consecutive waypoints
// (a, b) it emits n = floor(Distance(a, b) / (speed*interval)) points
// a + (b-a)*j/n for j in [0, n); b itself is only emitted as the start of the
// next pair. Interpolation is linear in degrees, which is fine at city scale.
// The path is not closed; see ClosePath.
func Segment(p Path, speed float64, interval time.Duration) []Coordinate {
	step := speed * interval.Seconds()
	if step <= 0 {
		return nil
	}

	steps := make([]Coordinate, 0)
	for i := 0; i+1 < len(p); i++ {
		a, b := p[i], p[i+1]
		n := int(math.Floor(Distance(a, b) / step))
		for j := 0; j < n; j++ {
			f := float64(j) / float64(n)
			steps = append(steps, Coordinate{
				a.Lng() + (b.Lng()-a.Lng())*f,
				a.Lat() + (b.Lat()-a.Lat())*f,
			})
		}
	}
	return steps
}
