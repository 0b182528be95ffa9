// Package registry loads the devices a simulation drives, either from the
// API's device endpoint or from a local file.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trackerlab/geotrack/services/simulator/internal/models"
)

// FetchDevices retrieves the device list from <endpoint>/devices. The API key,
// when set, is sent as X-API-Key.
func FetchDevices(ctx context.Context, client *http.Client, endpoint, apiKey string) ([]models.Device, error) {
	url := strings.TrimRight(endpoint, "/") + "/devices"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request devices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var devices []models.Device
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	return devices, nil
}

// LoadFile reads a device list from a YAML or JSON file with the same shape
// as the endpoint's payload.
func LoadFile(path string) ([]models.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read devices file: %w", err)
	}

	var devices []models.Device
	if err := yaml.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("decode devices file %s: %w", path, err)
	}
	return devices, nil
}
