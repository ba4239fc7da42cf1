package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/plantcare/internal/config"
)

// ErrClassification is returned when the inference service rejects an image or
// answers with a payload that cannot be trusted.
var ErrClassification = errors.New("classification failed")

// Mode selects the model the inference service routes the upload to.
type Mode string

const (
	ModeSpecies Mode = "species"
	ModeDisease Mode = "disease"
)

func (m Mode) filePrefix() string {
	if m == ModeDisease {
		return "leaf_"
	}
	return "plant_"
}

// Client identifies a plant species or leaf disease from a photo.
type Client interface {
	Classify(ctx context.Context, mode Mode, filename string, image io.Reader) (*Result, error)
}

// Result is the subset of the inference response the application relies on.
type Result struct {
	Label        string  `json:"species_label"`
	LabelKo      string  `json:"species_label_ko"`
	Confidence   float64 `json:"confidence"`
	PlantID      string  `json:"-"`
	WateringDays int     `json:"-"`
}

type analyzeResponse struct {
	Success        bool     `json:"success"`
	SpeciesLabel   string   `json:"species_label"`
	SpeciesLabelKo string   `json:"species_label_ko"`
	Confidence     *float64 `json:"confidence"`
	PlantInfo      *struct {
		PlantID      any `json:"plant_id"`
		WateringDays int `json:"watering_days"`
	} `json:"plant_info"`
	Error string `json:"error"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a classifier client for the configured inference service.
func NewClient(cfg config.ClassifierConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &APIClient{httpClient: restyClient}
}

// Classify uploads the image and returns the top prediction. The request is
// attempted once.
func (c *APIClient) Classify(ctx context.Context, mode Mode, filename string, image io.Reader) (*Result, error) {
	if image == nil {
		return nil, fmt.Errorf("%w: image is required", ErrClassification)
	}

	name := path.Base(filename)
	if name == "." || name == "/" || name == "" {
		name = "upload.jpg"
	}

	body := new(analyzeResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", mode.filePrefix()+name, image).
		SetResult(body).
		SetError(body).
		Post("/ai/analyze")
	if err != nil {
		return nil, fmt.Errorf("classify %s image: %w", mode, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest || !body.Success {
		message := body.Error
		if message == "" {
			message = resp.Status()
		}
		return nil, fmt.Errorf("%w: status=%d, message=%s", ErrClassification, resp.StatusCode(), message)
	}

	if body.Confidence == nil || *body.Confidence < 0 || *body.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence missing or out of range", ErrClassification)
	}
	if body.SpeciesLabel == "" && body.SpeciesLabelKo == "" {
		return nil, fmt.Errorf("%w: empty label", ErrClassification)
	}

	result := &Result{
		Label:      body.SpeciesLabel,
		LabelKo:    body.SpeciesLabelKo,
		Confidence: *body.Confidence,
	}
	if body.PlantInfo != nil {
		result.WateringDays = body.PlantInfo.WateringDays
		if body.PlantInfo.PlantID != nil {
			result.PlantID = fmt.Sprint(body.PlantInfo.PlantID)
		}
	}

	return result, nil
}
