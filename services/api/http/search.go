package http

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/trackerlab/geotrack/services/internal/location"
)

const maxPlaceResults = 50

// GET /places?text=&max_results=&bias=lng,lat
func (s *Server) searchPlaces(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	q := req.QueryStringParameters

	text := strings.TrimSpace(q["text"])
	if text == "" {
		return badRequest("text is required"), nil
	}
	query := location.SearchQuery{Text: text}

	if v := q["max_results"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPlaceResults {
			return badRequest("invalid max_results"), nil
		}
		query.MaxResults = int32(n)
	}
	if v := q["bias"]; v != "" {
		pos, err := parsePosition(v)
		if err != nil {
			return badRequest(err.Error()), nil
		}
		query.BiasPosition = pos
	}

	places, err := s.location.SearchPlaces(ctx, query)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(places), nil
}

// GET /routes?departure=lng,lat&destination=lng,lat&waypoints=lng,lat|lng,lat&travel_mode=
// waypoints may also be repeated, one position per parameter.
func (s *Server) calculateRoute(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	q := req.QueryStringParameters

	if q["departure"] == "" || q["destination"] == "" {
		return badRequest("departure and destination are required"), nil
	}
	departure, err := parsePosition(q["departure"])
	if err != nil {
		return badRequest(err.Error()), nil
	}
	destination, err := parsePosition(q["destination"])
	if err != nil {
		return badRequest(err.Error()), nil
	}
	waypoints, err := parsePositions(queryValues(req, "waypoints"))
	if err != nil {
		return badRequest(err.Error()), nil
	}
	if _, err := location.ParseTravelMode(q["travel_mode"]); err != nil {
		return badRequest(err.Error()), nil
	}

	route, err := s.location.CalculateRoute(ctx, location.RouteQuery{
		Departure:   departure,
		Destination: destination,
		Waypoints:   waypoints,
		TravelMode:  q["travel_mode"],
	})
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(route), nil
}
