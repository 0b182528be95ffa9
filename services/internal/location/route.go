package location

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/location"
	"github.com/aws/aws-sdk-go-v2/service/location/types"
)

// Travel modes accepted by CalculateRoute.
const (
	TravelModeCar     = types.TravelMode("Car")
	TravelModeTruck   = types.TravelMode("Truck")
	TravelModeWalking = types.TravelMode("Walking")
)

const distanceKilometers = types.DistanceUnit("Kilometers")

// RouteQuery describes a point-to-point route request. Positions are [lng, lat].
type RouteQuery struct {
	Departure   []float64
	Destination []float64
	Waypoints   [][]float64
	TravelMode  string
}

// Route is the reshaped CalculateRoute response.
type Route struct {
	Distance        float64   `json:"Distance"`
	DistanceUnit    string    `json:"DistanceUnit"`
	DurationSeconds float64   `json:"DurationSeconds"`
	BBox            []float64 `json:"RouteBBox,omitempty"`
	Legs            []Leg     `json:"Legs"`
}

// Leg is the part of a route between two consecutive positions.
type Leg struct {
	Distance        float64     `json:"Distance"`
	DurationSeconds float64     `json:"DurationSeconds"`
	StartPosition   []float64   `json:"StartPosition"`
	EndPosition     []float64   `json:"EndPosition"`
	Geometry        [][]float64 `json:"Geometry,omitempty"`
}

// ParseTravelMode accepts car, truck, walking (any case). Empty means car.
func ParseTravelMode(s string) (types.TravelMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "car":
		return TravelModeCar, nil
	case "truck":
		return TravelModeTruck, nil
	case "walking":
		return TravelModeWalking, nil
	default:
		return "", fmt.Errorf("invalid travel mode: %s", s)
	}
}

// CalculateRoute asks the configured route calculator for a route and
// includes each leg's line geometry.
func (c *Client) CalculateRoute(ctx context.Context, q RouteQuery) (Route, error) {
	mode, err := ParseTravelMode(q.TravelMode)
	if err != nil {
		return Route{}, err
	}

	out, err := c.api.CalculateRoute(ctx, &sdk.CalculateRouteInput{
		CalculatorName:      aws.String(c.names.RouteCalculator),
		DeparturePosition:   q.Departure,
		DestinationPosition: q.Destination,
		WaypointPositions:   q.Waypoints,
		TravelMode:          mode,
		DistanceUnit:        distanceKilometers,
		IncludeLegGeometry:  aws.Bool(true),
	})
	if err != nil {
		return Route{}, fmt.Errorf("calculate route: %w", err)
	}

	route := Route{Legs: make([]Leg, 0, len(out.Legs))}
	if s := out.Summary; s != nil {
		route.Distance = aws.ToFloat64(s.Distance)
		route.DistanceUnit = string(s.DistanceUnit)
		route.DurationSeconds = aws.ToFloat64(s.DurationSeconds)
		route.BBox = s.RouteBBox
	}
	for _, l := range out.Legs {
		leg := Leg{
			Distance:        aws.ToFloat64(l.Distance),
			DurationSeconds: aws.ToFloat64(l.DurationSeconds),
			StartPosition:   l.StartPosition,
			EndPosition:     l.EndPosition,
		}
		if l.Geometry != nil {
			leg.Geometry = l.Geometry.LineString
		}
		route.Legs = append(route.Legs, leg)
	}
	return route, nil
}
