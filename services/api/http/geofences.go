package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/trackerlab/geotrack/services/internal/location"
)

type geofenceRequest struct {
	ID     string      `json:"Id"`
	Points [][]float64 `json:"Points"`
}

type deleteGeofenceResponse struct {
	Errors []string `json:"Errors"`
}

// GET /geofences
func (s *Server) getGeofences(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	geofences, err := s.location.ListGeofences(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(geofences), nil
}

// POST /geofences
func (s *Server) createGeofence(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var body geofenceRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return badRequest("invalid JSON body: " + err.Error()), nil
	}
	if err := checkRing(body.Points); err != nil {
		return badRequest(err.Error()), nil
	}
	if body.ID == "" {
		body.ID = s.newID()
	}

	res, err := s.location.PutGeofence(ctx, body.ID, body.Points)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(res), nil
}

// DELETE /geofences/{id}
func (s *Server) deleteGeofence(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return badRequest("geofence id is required"), nil
	}

	err := s.location.DeleteGeofence(ctx, id)
	var itemErr *location.Error
	switch {
	case err == nil:
		return success(deleteGeofenceResponse{Errors: []string{}}), nil
	case errors.Is(err, location.ErrNotFound):
		return notFound(err.Error()), nil
	case errors.As(err, &itemErr):
		return serverError(itemErr.Error()), nil
	default:
		return events.APIGatewayProxyResponse{}, err
	}
}

// checkRing requires at least three distinct vertices; a closing point equal
// to the first does not count.
func checkRing(points [][]float64) error {
	n := len(points)
	if n > 1 && samePosition(points[0], points[n-1]) {
		n--
	}
	if n < 3 {
		return errors.New("a geofence needs at least 3 points")
	}
	for i, p := range points {
		if err := checkPosition(p); err != nil {
			return fmt.Errorf("Points[%d]: %w", i, err)
		}
	}
	return nil
}

func samePosition(a, b []float64) bool {
	return len(a) == 2 && len(b) == 2 && a[0] == b[0] && a[1] == b[1]
}
