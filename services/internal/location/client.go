// Package location wraps the Amazon Location Service SDK with the resource
// names a deployment is configured with and reshapes its responses into
// plain JSON-friendly values.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/location"
	"github.com/aws/aws-sdk-go-v2/service/location/types"
)

// ErrNotFound matches (via errors.Is) any upstream "resource not found" error.
var ErrNotFound = errors.New("resource not found")

// Not-found codes: the first is reported per batch item, the second as an
// operation error.
const (
	CodeResourceNotFound          = "ResourceNotFoundError"
	CodeResourceNotFoundException = "ResourceNotFoundException"
)

// API is the subset of the Location SDK client used here.
type API interface {
	ListGeofences(ctx context.Context, params *sdk.ListGeofencesInput, optFns ...func(*sdk.Options)) (*sdk.ListGeofencesOutput, error)
	PutGeofence(ctx context.Context, params *sdk.PutGeofenceInput, optFns ...func(*sdk.Options)) (*sdk.PutGeofenceOutput, error)
	BatchDeleteGeofence(ctx context.Context, params *sdk.BatchDeleteGeofenceInput, optFns ...func(*sdk.Options)) (*sdk.BatchDeleteGeofenceOutput, error)
	BatchUpdateDevicePosition(ctx context.Context, params *sdk.BatchUpdateDevicePositionInput, optFns ...func(*sdk.Options)) (*sdk.BatchUpdateDevicePositionOutput, error)
	GetDevicePosition(ctx context.Context, params *sdk.GetDevicePositionInput, optFns ...func(*sdk.Options)) (*sdk.GetDevicePositionOutput, error)
	SearchPlaceIndexForText(ctx context.Context, params *sdk.SearchPlaceIndexForTextInput, optFns ...func(*sdk.Options)) (*sdk.SearchPlaceIndexForTextOutput, error)
	CalculateRoute(ctx context.Context, params *sdk.CalculateRouteInput, optFns ...func(*sdk.Options)) (*sdk.CalculateRouteOutput, error)
}

// Names holds the Location resources a Client talks to.
type Names struct {
	GeofenceCollection string
	Tracker            string
	PlaceIndex         string
	RouteCalculator    string
}

// Client exposes the handful of Location operations the services need.
type Client struct {
	api   API
	names Names
}

// New builds a Client on top of an SDK client (or a fake of one).
func New(api API, names Names) *Client {
	return &Client{api: api, names: names}
}

// NewFromConfig builds a Client from a loaded AWS config.
func NewFromConfig(cfg aws.Config, names Names) *Client {
	return New(sdk.NewFromConfig(cfg), names)
}

// Names returns the configured resource names.
func (c *Client) Names() Names {
	return c.names
}

// Error is an error reported by the service for a single item or resource.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

// Is reports ErrNotFound for the service's not-found codes.
func (e *Error) Is(target error) bool {
	if target != ErrNotFound {
		return false
	}
	return e.Code == CodeResourceNotFound || e.Code == CodeResourceNotFoundException
}

// Geofence is one entry of a geofence collection.
type Geofence struct {
	GeofenceId string     `json:"GeofenceId"`
	Geometry   Geometry   `json:"Geometry"`
	Status     string     `json:"Status"`
	CreateTime *time.Time `json:"CreateTime,omitempty"`
	UpdateTime *time.Time `json:"UpdateTime,omitempty"`
}

// Geometry is either a polygon (list of linear rings) or a circle.
type Geometry struct {
	Polygon [][][]float64 `json:"Polygon,omitempty"`
	Circle  *Circle       `json:"Circle,omitempty"`
}

// Circle is a circular geofence.
type Circle struct {
	Center []float64 `json:"Center"`
	Radius float64   `json:"Radius"`
}

// ListGeofences returns every geofence in the collection, following pagination.
func (c *Client) ListGeofences(ctx context.Context) ([]Geofence, error) {
	p := sdk.NewListGeofencesPaginator(c.api, &sdk.ListGeofencesInput{
		CollectionName: aws.String(c.names.GeofenceCollection),
	})

	geofences := make([]Geofence, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list geofences: %w", err)
		}
		for _, e := range page.Entries {
			g := Geofence{
				GeofenceId: aws.ToString(e.GeofenceId),
				Status:     aws.ToString(e.Status),
				CreateTime: e.CreateTime,
				UpdateTime: e.UpdateTime,
			}
			if e.Geometry != nil {
				g.Geometry.Polygon = e.Geometry.Polygon
				if e.Geometry.Circle != nil {
					g.Geometry.Circle = &Circle{
						Center: e.Geometry.Circle.Center,
						Radius: aws.ToFloat64(e.Geometry.Circle.Radius),
					}
				}
			}
			geofences = append(geofences, g)
		}
	}
	return geofences, nil
}

// PutGeofenceResult is the reshaped PutGeofence response.
type PutGeofenceResult struct {
	GeofenceId string     `json:"GeofenceId"`
	CreateTime *time.Time `json:"CreateTime,omitempty"`
	UpdateTime *time.Time `json:"UpdateTime,omitempty"`
}

// PutGeofence creates or replaces a polygon geofence. The ring is closed
// before it is sent.
func (c *Client) PutGeofence(ctx context.Context, id string, ring [][]float64) (PutGeofenceResult, error) {
	out, err := c.api.PutGeofence(ctx, &sdk.PutGeofenceInput{
		CollectionName: aws.String(c.names.GeofenceCollection),
		GeofenceId:     aws.String(id),
		Geometry: &types.GeofenceGeometry{
			Polygon: [][][]float64{CloseRing(ring)},
		},
	})
	if err != nil {
		return PutGeofenceResult{}, fmt.Errorf("put geofence %s: %w", id, err)
	}
	return PutGeofenceResult{
		GeofenceId: aws.ToString(out.GeofenceId),
		CreateTime: out.CreateTime,
		UpdateTime: out.UpdateTime,
	}, nil
}

// DeleteGeofence removes one geofence. A per-item failure is returned as
// *Error; a missing geofence matches ErrNotFound.
func (c *Client) DeleteGeofence(ctx context.Context, id string) error {
	out, err := c.api.BatchDeleteGeofence(ctx, &sdk.BatchDeleteGeofenceInput{
		CollectionName: aws.String(c.names.GeofenceCollection),
		GeofenceIds:    []string{id},
	})
	if err != nil {
		return fmt.Errorf("delete geofence %s: %w", id, err)
	}
	if len(out.Errors) > 0 {
		return batchError(out.Errors[0].Error)
	}
	return nil
}

// UpdateDevicePosition sends a single position sample to a tracker. An empty
// tracker name selects the configured one.
func (c *Client) UpdateDevicePosition(ctx context.Context, tracker, deviceID string, position []float64, sampleTime time.Time) error {
	if tracker == "" {
		tracker = c.names.Tracker
	}
	out, err := c.api.BatchUpdateDevicePosition(ctx, &sdk.BatchUpdateDevicePositionInput{
		TrackerName: aws.String(tracker),
		Updates: []types.DevicePositionUpdate{
			{
				DeviceId:   aws.String(deviceID),
				Position:   position,
				SampleTime: aws.Time(sampleTime),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("update position of %s: %w", deviceID, err)
	}
	if len(out.Errors) > 0 {
		return batchError(out.Errors[0].Error)
	}
	return nil
}

// DevicePosition is the last known position of a device.
type DevicePosition struct {
	DeviceId     string     `json:"DeviceId"`
	Position     []float64  `json:"Position"`
	SampleTime   *time.Time `json:"SampleTime,omitempty"`
	ReceivedTime *time.Time `json:"ReceivedTime,omitempty"`
	Accuracy     *float64   `json:"Accuracy,omitempty"`
}

// GetDevicePosition returns the latest position of a device on the configured
// tracker. A device that never reported matches ErrNotFound.
func (c *Client) GetDevicePosition(ctx context.Context, deviceID string) (DevicePosition, error) {
	out, err := c.api.GetDevicePosition(ctx, &sdk.GetDevicePositionInput{
		DeviceId:    aws.String(deviceID),
		TrackerName: aws.String(c.names.Tracker),
	})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return DevicePosition{}, &Error{Code: rnf.ErrorCode(), Message: rnf.ErrorMessage()}
		}
		return DevicePosition{}, fmt.Errorf("get position of %s: %w", deviceID, err)
	}

	pos := DevicePosition{
		DeviceId:     aws.ToString(out.DeviceId),
		Position:     out.Position,
		SampleTime:   out.SampleTime,
		ReceivedTime: out.ReceivedTime,
	}
	if pos.DeviceId == "" {
		pos.DeviceId = deviceID
	}
	if out.Accuracy != nil {
		pos.Accuracy = out.Accuracy.Horizontal
	}
	return pos, nil
}

// CloseRing returns the ring with its first point appended when it is not
// already closed. The input is not modified.
func CloseRing(ring [][]float64) [][]float64 {
	out := make([][]float64, len(ring), len(ring)+1)
	copy(out, ring)
	if len(ring) == 0 {
		return out
	}
	first, last := ring[0], ring[len(ring)-1]
	if !samePoint(first, last) {
		out = append(out, first)
	}
	return out
}

func samePoint(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func batchError(e *types.BatchItemError) error {
	if e == nil {
		return &Error{Code: "Unknown", Message: "unknown batch item error"}
	}
	return &Error{Code: string(e.Code), Message: aws.ToString(e.Message)}
}
