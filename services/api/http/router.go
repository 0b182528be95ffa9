package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

type route struct {
	method   string
	resource string // API Gateway form, e.g. /devices/{id}
	name     string
	fn       Action
}

func (s *Server) buildRoutes() []route {
	routes := []route{
		{http.MethodGet, "/geofences", "get_geofences", s.getGeofences},
		{http.MethodPost, "/geofences", "create_geofence", s.createGeofence},
		{http.MethodDelete, "/geofences/{id}", "delete_geofence", s.deleteGeofence},
		{http.MethodGet, "/devices", "get_devices", s.getDevices},
		{http.MethodPost, "/devices", "create_device", s.createDevice},
		{http.MethodGet, "/devices/{id}", "get_device", s.getDevice},
		{http.MethodDelete, "/devices/{id}", "delete_device", s.deleteDevice},
		{http.MethodGet, "/devices/{id}/position", "get_device_position", s.getDevicePosition},
		{http.MethodPost, "/devices/{id}/position", "update_device_position", s.updateDevicePosition},
		{http.MethodGet, "/position", "get_default_position", s.getDefaultPosition},
		{http.MethodGet, "/places", "search_places", s.searchPlaces},
		{http.MethodGet, "/routes", "calculate_route", s.calculateRoute},
	}
	for i := range routes {
		routes[i].fn = s.action(routes[i].name, routes[i].fn)
	}
	return routes
}

// HandleLambda dispatches an API Gateway proxy event to the matching route.
// Events are matched on their resource template first and on the raw path
// when the integration is a greedy proxy.
func (s *Server) HandleLambda(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		resp := success(statusBody{Status: "ok"})
		resp.Headers["Access-Control-Allow-Methods"] = allowMethods
		resp.Headers["Access-Control-Allow-Headers"] = allowHeaders
		return resp, nil
	}
	if !s.authorized(req.Headers) {
		return unauthorized(), nil
	}

	for _, r := range s.routes {
		if r.method == req.HTTPMethod && r.resource == req.Resource {
			return r.fn(ctx, req)
		}
	}
	for _, r := range s.routes {
		if r.method != req.HTTPMethod {
			continue
		}
		if params, ok := matchPath(r.resource, req.Path); ok {
			req.Resource = r.resource
			req.PathParameters = params
			return r.fn(ctx, req)
		}
	}

	s.logger.Warn("no route", "method", req.HTTPMethod, "resource", req.Resource, "path", req.Path)
	return notFound("no route for " + req.HTTPMethod + " " + req.Path), nil
}

func (s *Server) authorized(headers map[string]string) bool {
	if s.cfg.APIKey == "" {
		return true
	}
	for k, v := range headers {
		if strings.EqualFold(k, apiKeyHeader) {
			return v == s.cfg.APIKey
		}
	}
	return false
}

// matchPath matches a concrete path against a resource template and returns
// the path parameters.
func matchPath(resource, path string) (map[string]string, bool) {
	want := splitPath(resource)
	got := splitPath(path)
	if len(want) != len(got) {
		return nil, false
	}

	params := make(map[string]string)
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if got[i] == "" {
				return nil, false
			}
			params[strings.Trim(seg, "{}")] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// ginPath converts /devices/{id} into gin's /devices/:id.
func ginPath(resource string) string {
	segs := splitPath(resource)
	for i, seg := range segs {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			segs[i] = ":" + strings.Trim(seg, "{}")
		}
	}
	return "/" + strings.Join(segs, "/")
}
