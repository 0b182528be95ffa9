package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// parsePosition parses "lng,lat".
func parsePosition(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid position %q: want lng,lat", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in %q", s)
	}
	pos := []float64{lng, lat}
	if err := checkPosition(pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// parsePositions parses positions given as repeated parameters, each value
// holding one or more "lng,lat" pairs separated by "|". Empty values are skipped.
func parsePositions(values []string) ([][]float64, error) {
	var out [][]float64
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		for _, part := range strings.Split(v, "|") {
			pos, err := parsePosition(part)
			if err != nil {
				return nil, err
			}
			out = append(out, pos)
		}
	}
	return out, nil
}

// queryValues returns every value of a query parameter, falling back to the
// single-value map when the event carries no multi-value parameters.
func queryValues(req events.APIGatewayProxyRequest, key string) []string {
	if vs, ok := req.MultiValueQueryStringParameters[key]; ok {
		return vs
	}
	if v, ok := req.QueryStringParameters[key]; ok {
		return []string{v}
	}
	return nil
}

func checkPosition(pos []float64) error {
	if len(pos) != 2 {
		return fmt.Errorf("position must be [lng, lat], got %d values", len(pos))
	}
	if pos[0] < -180 || pos[0] > 180 {
		return fmt.Errorf("longitude %v out of range", pos[0])
	}
	if pos[1] < -90 || pos[1] > 90 {
		return fmt.Errorf("latitude %v out of range", pos[1])
	}
	return nil
}

// checkPath validates a decoded device Path: a list of [lng, lat] pairs.
func checkPath(v any) error {
	points, ok := v.([]any)
	if !ok {
		return errors.New("Path must be a list of [lng, lat] positions")
	}
	for i, p := range points {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("Path[%d] must be [lng, lat]", i)
		}
		pos := make([]float64, 2)
		for j, c := range pair {
			n, ok := c.(json.Number)
			if !ok {
				return fmt.Errorf("Path[%d] must hold numbers", i)
			}
			f, err := n.Float64()
			if err != nil {
				return fmt.Errorf("Path[%d]: %w", i, err)
			}
			pos[j] = f
		}
		if err := checkPosition(pos); err != nil {
			return fmt.Errorf("Path[%d]: %w", i, err)
		}
	}
	return nil
}
