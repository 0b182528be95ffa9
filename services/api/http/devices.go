package http

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"

	"github.com/trackerlab/geotrack/services/api/db"
)

type createDeviceResponse struct {
	Status   string `json:"status"`
	DeviceID string `json:"DeviceId"`
}

func (s *Server) getDevices(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	items, err := s.registry.ListDevices(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(items), nil
}

// createDevice stores the body as-is. Numbers keep their decimal text.
func (s *Server) createDevice(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	item, err := db.DecodeItem([]byte(req.Body))
	if err != nil {
		return badRequest(err.Error()), nil
	}

	switch id := item[db.KeyAttribute].(type) {
	case nil:
		item[db.KeyAttribute] = s.newID()
	case string:
		if id == "" {
			item[db.KeyAttribute] = s.newID()
		}
	default:
		return badRequest("DeviceId must be a string"), nil
	}

	if path, ok := item["Path"]; ok {
		if err := checkPath(path); err != nil {
			return badRequest(err.Error()), nil
		}
	}

	if err := s.registry.PutDevice(ctx, item); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(createDeviceResponse{Status: "ok", DeviceID: item.ID()}), nil
}

func (s *Server) getDevice(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	item, err := s.registry.GetDevice(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return notFound("Device " + id + " not found"), nil
	}
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(item), nil
}

func (s *Server) deleteDevice(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := s.registry.DeleteDevice(ctx, req.PathParameters["id"]); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return statusOK(), nil
}
