package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/plantcare/internal/config"
)

// ErrNoForecast is returned when the API answers without data for the target hour.
var ErrNoForecast = errors.New("no forecast for the requested hour")

var kst = time.FixedZone("KST", 9*60*60)

var skyCodes = map[string]string{
	"1": "clear",
	"3": "mostly cloudy",
	"4": "overcast",
}

var precipitationCodes = map[string]string{
	"0": "none",
	"1": "rain",
	"2": "rain/snow",
	"3": "snow",
	"4": "shower",
}

// Client looks up the short-term forecast for a coordinate.
type Client interface {
	Current(ctx context.Context, lat, lon float64) (*Observation, error)
}

// Observation is the forecast for the hour following the request.
type Observation struct {
	Grid

	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	TemperatureC    float64 `json:"temperature"`
	Humidity        int     `json:"humidity"`
	Sky             string  `json:"sky"`
	Precipitation   string  `json:"precipitation"`
	RainProbability int     `json:"rain_probability"`
	ForecastTime    string  `json:"forecast_time"`
}

type forecastItem struct {
	Category  string `json:"category"`
	FcstDate  string `json:"fcstDate"`
	FcstTime  string `json:"fcstTime"`
	FcstValue string `json:"fcstValue"`
}

type forecastResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items struct {
				Item []forecastItem `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	apiKey     string
	now        func() time.Time
}

// NewClient builds a forecast client using the provided configuration values.
func NewClient(cfg config.WeatherConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &APIClient{
		httpClient: restyClient,
		apiKey:     cfg.APIKey,
		now:        time.Now,
	}
}

// Current fetches the forecast for the next whole hour at the coordinate.
func (c *APIClient) Current(ctx context.Context, lat, lon float64) (*Observation, error) {
	now := c.now().In(kst)
	grid := ConvertToGrid(lat, lon)
	baseDate, baseTime := BaseTime(now)

	body := new(forecastResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"serviceKey": c.apiKey,
			"pageNo":     "1",
			"numOfRows":  "1000",
			"dataType":   "JSON",
			"base_date":  baseDate,
			"base_time":  baseTime,
			"nx":         strconv.Itoa(grid.X),
			"ny":         strconv.Itoa(grid.Y),
		}).
		SetResult(body).
		Get("/getVilageFcst")
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("weather api error: status=%d", resp.StatusCode())
	}
	if code := body.Response.Header.ResultCode; code != "00" {
		return nil, fmt.Errorf("weather api error: code=%s, message=%s", code, body.Response.Header.ResultMsg)
	}

	target := now.Truncate(time.Hour).Add(time.Hour)
	obs := &Observation{
		Grid:          grid,
		Latitude:      lat,
		Longitude:     lon,
		Sky:           "unknown",
		Precipitation: "none",
		ForecastTime:  target.Format(time.RFC3339),
	}
	if !parseItems(obs, body.Response.Body.Items.Item, target.Format("20060102"), target.Format("1504")) {
		return nil, ErrNoForecast
	}

	return obs, nil
}

func parseItems(obs *Observation, items []forecastItem, date, hour string) bool {
	found := false
	for _, item := range items {
		if item.FcstDate != date || item.FcstTime != hour {
			continue
		}
		found = true

		switch item.Category {
		case "TMP":
			if v, err := strconv.ParseFloat(item.FcstValue, 64); err == nil {
				obs.TemperatureC = v
			}
		case "REH":
			if v, err := strconv.Atoi(item.FcstValue); err == nil {
				obs.Humidity = v
			}
		case "SKY":
			if v, ok := skyCodes[item.FcstValue]; ok {
				obs.Sky = v
			}
		case "PTY":
			if v, ok := precipitationCodes[item.FcstValue]; ok {
				obs.Precipitation = v
			}
		case "POP":
			if v, err := strconv.Atoi(item.FcstValue); err == nil {
				obs.RainProbability = v
			}
		}
	}
	return found
}
