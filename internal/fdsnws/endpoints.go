// Package fdsnws locates the FDSN/IRIS web services and provides the
// sequential HTTP client the fetch pipeline issues its requests through.
package fdsnws

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables honored for service location. SERVICEBASE rebases
// every derived default; the per-service variables override individually.
const (
	EnvServiceBase  = "SERVICEBASE"
	EnvMetadataWS   = "METADATAWS"
	EnvTimeSeriesWS = "TIMESERIESWS"
	EnvEventWS      = "EVENTWS"
	EnvSACPZWS      = "SACPZWS"
	EnvRespWS       = "RESPWS"
)

const defaultServiceBase = "https://service.iris.edu"

// Endpoints holds the resolved query URL for each service.
type Endpoints struct {
	Metadata   string `yaml:"metadata"`
	TimeSeries string `yaml:"timeseries"`
	Event      string `yaml:"event"`
	SACPZ      string `yaml:"sacpz"`
	Resp       string `yaml:"resp"`
}

// DefaultEndpoints derives every service URL from a base URL.
func DefaultEndpoints(base string) Endpoints {
	base = strings.TrimRight(base, "/")
	return Endpoints{
		Metadata:   base + "/fdsnws/station/1/query",
		TimeSeries: base + "/fdsnws/dataselect/1/query",
		Event:      base + "/fdsnws/event/1/query",
		SACPZ:      base + "/irisws/sacpz/1/query",
		Resp:       base + "/irisws/resp/1/query",
	}
}

// ResolveEndpoints computes the effective service URLs with precedence
// flags > config file > per-service env > base-derived default.
// The overrides argument carries flag values; empty fields defer to the
// next layer down.
func ResolveEndpoints(configPath string, overrides Endpoints) (Endpoints, error) {
	base := os.Getenv(EnvServiceBase)
	if base == "" {
		base = defaultServiceBase
	}
	eps := DefaultEndpoints(base)

	applyEnv(&eps.Metadata, EnvMetadataWS)
	applyEnv(&eps.TimeSeries, EnvTimeSeriesWS)
	applyEnv(&eps.Event, EnvEventWS)
	applyEnv(&eps.SACPZ, EnvSACPZWS)
	applyEnv(&eps.Resp, EnvRespWS)

	if configPath != "" {
		fileEps, err := loadEndpointsFile(configPath)
		if err != nil {
			return Endpoints{}, err
		}
		eps.merge(fileEps)
	}

	eps.merge(overrides)
	return eps, nil
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (e *Endpoints) merge(over Endpoints) {
	if over.Metadata != "" {
		e.Metadata = over.Metadata
	}
	if over.TimeSeries != "" {
		e.TimeSeries = over.TimeSeries
	}
	if over.Event != "" {
		e.Event = over.Event
	}
	if over.SACPZ != "" {
		e.SACPZ = over.SACPZ
	}
	if over.Resp != "" {
		e.Resp = over.Resp
	}
}

// loadEndpointsFile reads a YAML service map, e.g.
//
//	metadata: https://example.org/fdsnws/station/1/query
//	timeseries: https://example.org/fdsnws/dataselect/1/query
func loadEndpointsFile(path string) (Endpoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Endpoints{}, fmt.Errorf("failed to read endpoints file: %w", err)
	}
	var eps Endpoints
	if err := yaml.Unmarshal(data, &eps); err != nil {
		return Endpoints{}, fmt.Errorf("failed to parse endpoints file: %w", err)
	}
	return eps, nil
}
