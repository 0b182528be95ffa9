// Package locationtest provides an in-memory stand-in for the Amazon
// Location Service client.
package locationtest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/location"
	"github.com/aws/aws-sdk-go-v2/service/location/types"
)

// Update is a position update recorded by the fake.
type Update struct {
	Tracker    string
	DeviceID   string
	Position   []float64
	SampleTime time.Time
}

// Fake implements location.API in memory. Set Err to make every call fail.
type Fake struct {
	mu sync.Mutex

	Err      error
	PageSize int

	Geofences map[string]types.GeofenceGeometry
	Updates   []Update
	Places    []types.SearchForTextResult
	Route     *sdk.CalculateRouteOutput

	LastSearch *sdk.SearchPlaceIndexForTextInput
	LastRoute  *sdk.CalculateRouteInput
}

// NewFake returns an empty fake.
func NewFake() *Fake {
	return &Fake{Geofences: make(map[string]types.GeofenceGeometry)}
}

// RecordedUpdates returns a copy of the updates received so far.
func (f *Fake) RecordedUpdates() []Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Update(nil), f.Updates...)
}

func (f *Fake) ListGeofences(ctx context.Context, params *sdk.ListGeofencesInput, optFns ...func(*sdk.Options)) (*sdk.ListGeofencesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	ids := make([]string, 0, len(f.Geofences))
	for id := range f.Geofences {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if params.NextToken != nil {
		start, _ = strconv.Atoi(*params.NextToken)
	}
	end := len(ids)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}

	out := &sdk.ListGeofencesOutput{}
	for _, id := range ids[start:end] {
		geom := f.Geofences[id]
		out.Entries = append(out.Entries, types.ListGeofenceResponseEntry{
			GeofenceId: aws.String(id),
			Geometry:   &geom,
			Status:     aws.String("ACTIVE"),
		})
	}
	if end < len(ids) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *Fake) PutGeofence(ctx context.Context, params *sdk.PutGeofenceInput, optFns ...func(*sdk.Options)) (*sdk.PutGeofenceOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	id := aws.ToString(params.GeofenceId)
	f.Geofences[id] = *params.Geometry
	now := time.Now().UTC()
	return &sdk.PutGeofenceOutput{GeofenceId: aws.String(id), CreateTime: &now, UpdateTime: &now}, nil
}

func (f *Fake) BatchDeleteGeofence(ctx context.Context, params *sdk.BatchDeleteGeofenceInput, optFns ...func(*sdk.Options)) (*sdk.BatchDeleteGeofenceOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	out := &sdk.BatchDeleteGeofenceOutput{}
	for _, id := range params.GeofenceIds {
		if _, ok := f.Geofences[id]; !ok {
			out.Errors = append(out.Errors, types.BatchDeleteGeofenceError{
				GeofenceId: aws.String(id),
				Error: &types.BatchItemError{
					Code:    types.BatchItemErrorCode("ResourceNotFoundError"),
					Message: aws.String("Geofence " + id + " not found"),
				},
			})
			continue
		}
		delete(f.Geofences, id)
	}
	return out, nil
}

func (f *Fake) BatchUpdateDevicePosition(ctx context.Context, params *sdk.BatchUpdateDevicePositionInput, optFns ...func(*sdk.Options)) (*sdk.BatchUpdateDevicePositionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	for _, u := range params.Updates {
		f.Updates = append(f.Updates, Update{
			Tracker:    aws.ToString(params.TrackerName),
			DeviceID:   aws.ToString(u.DeviceId),
			Position:   u.Position,
			SampleTime: aws.ToTime(u.SampleTime),
		})
	}
	return &sdk.BatchUpdateDevicePositionOutput{}, nil
}

func (f *Fake) GetDevicePosition(ctx context.Context, params *sdk.GetDevicePositionInput, optFns ...func(*sdk.Options)) (*sdk.GetDevicePositionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	id := aws.ToString(params.DeviceId)
	for i := len(f.Updates) - 1; i >= 0; i-- {
		u := f.Updates[i]
		if u.DeviceID != id || u.Tracker != aws.ToString(params.TrackerName) {
			continue
		}
		sample := u.SampleTime
		return &sdk.GetDevicePositionOutput{
			DeviceId:     aws.String(id),
			Position:     u.Position,
			SampleTime:   &sample,
			ReceivedTime: &sample,
		}, nil
	}
	return nil, &types.ResourceNotFoundException{Message: aws.String("Device " + id + " not found")}
}

func (f *Fake) SearchPlaceIndexForText(ctx context.Context, params *sdk.SearchPlaceIndexForTextInput, optFns ...func(*sdk.Options)) (*sdk.SearchPlaceIndexForTextOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastSearch = params
	if f.Err != nil {
		return nil, f.Err
	}
	return &sdk.SearchPlaceIndexForTextOutput{Results: f.Places}, nil
}

func (f *Fake) CalculateRoute(ctx context.Context, params *sdk.CalculateRouteInput, optFns ...func(*sdk.Options)) (*sdk.CalculateRouteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastRoute = params
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Route != nil {
		return f.Route, nil
	}
	return &sdk.CalculateRouteOutput{}, nil
}
