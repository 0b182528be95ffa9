package http

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/trackerlab/geotrack/services/internal/location"
)

type positionRequest struct {
	Position   []float64  `json:"Position"`
	SampleTime *time.Time `json:"SampleTime"`
}

type positionResponse struct {
	DeviceID   string    `json:"DeviceId"`
	Position   []float64 `json:"Position"`
	SampleTime time.Time `json:"SampleTime"`
}

func (s *Server) getDevicePosition(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return s.devicePosition(ctx, req.PathParameters["id"])
}

// getDefaultPosition reports the configured DEVICE_ID.
func (s *Server) getDefaultPosition(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return s.devicePosition(ctx, s.cfg.DefaultDeviceID)
}

func (s *Server) devicePosition(ctx context.Context, id string) (events.APIGatewayProxyResponse, error) {
	pos, err := s.location.GetDevicePosition(ctx, id)
	if errors.Is(err, location.ErrNotFound) {
		return notFound(err.Error()), nil
	}
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(pos), nil
}

func (s *Server) updateDevicePosition(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]

	var body positionRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return badRequest("invalid JSON body: " + err.Error()), nil
	}
	if err := checkPosition(body.Position); err != nil {
		return badRequest(err.Error()), nil
	}

	sampleTime := s.now().UTC()
	if body.SampleTime != nil {
		sampleTime = body.SampleTime.UTC()
	}

	if err := s.location.UpdateDevicePosition(ctx, "", id, body.Position, sampleTime); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(positionResponse{DeviceID: id, Position: body.Position, SampleTime: sampleTime}), nil
}
