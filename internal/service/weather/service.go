package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	client "github.com/mamadbah2/plantcare/pkg/clients/weather"
)

var (
	// ErrInvalidCoordinate is returned for a latitude or longitude out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrUpstream wraps failures of the forecast API.
	ErrUpstream = errors.New("weather service failed")
)

// Level buckets the temperature for care hints.
type Level string

const (
	LevelHot  Level = "hot"
	LevelWarm Level = "warm"
	LevelCool Level = "cool"
	LevelCold Level = "cold"
)

// Advice is a short watering hint derived from the temperature.
type Advice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Advise maps a temperature in °C to a watering hint.
func Advise(tempC float64) Advice {
	switch {
	case tempC >= 27:
		return Advice{Level: LevelHot, Message: "Hot day: soil dries fast, check plants in the afternoon and water in the morning or evening."}
	case tempC >= 20:
		return Advice{Level: LevelWarm, Message: "Warm and pleasant: keep the usual watering schedule."}
	case tempC >= 10:
		return Advice{Level: LevelCool, Message: "Cool weather: soil stays moist longer, water a little less often."}
	default:
		return Advice{Level: LevelCold, Message: "Cold: move sensitive plants away from windows and water sparingly with room-temperature water."}
	}
}

// Forecaster fetches the forecast for a coordinate.
type Forecaster interface {
	Current(ctx context.Context, lat, lon float64) (*client.Observation, error)
}

// Cache stores serialized observations per grid cell.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Report is an observation together with its care hint.
type Report struct {
	*client.Observation
	Advice Advice `json:"advice"`
	Cached bool   `json:"cached"`
}

// Service looks up the weather with a per-grid-cell cache in front of the API.
type Service struct {
	forecaster Forecaster
	cache      Cache
	logger     *zap.Logger
}

// NewService wires the weather service. cache may be nil.
func NewService(forecaster Forecaster, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{forecaster: forecaster, cache: cache, logger: logger}
}

// Lookup returns the forecast for the coordinate. Cache failures are logged
// and fall through to the API.
func (s *Service) Lookup(ctx context.Context, lat, lon float64) (*Report, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: %v,%v", ErrInvalidCoordinate, lat, lon)
	}

	grid := client.ConvertToGrid(lat, lon)
	key := fmt.Sprintf("%d:%d", grid.X, grid.Y)

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("weather cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			obs := new(client.Observation)
			if err := json.Unmarshal(raw, obs); err == nil {
				return &Report{Observation: obs, Advice: Advise(obs.TemperatureC), Cached: true}, nil
			}
			s.logger.Warn("discarding undecodable cached forecast", zap.String("key", key))
		}
	}

	obs, err := s.forecaster.Current(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(obs); err == nil {
			if err := s.cache.Set(ctx, key, raw); err != nil {
				s.logger.Warn("weather cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return &Report{Observation: obs, Advice: Advise(obs.TemperatureC)}, nil
}
