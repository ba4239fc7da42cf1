package classifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mamadbah2/plantcare/internal/config"
)

func TestClassifySpecies(t *testing.T) {
	var gotName, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/analyze" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file field: %v", err)
		}
		data, _ := io.ReadAll(file)
		gotName, gotBody = header.Filename, string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"species_label":"Monstera deliciosa","species_label_ko":"몬스테라","confidence":0.91,"plant_info":{"plant_id":12,"watering_days":10}}`)
	}))
	defer srv.Close()

	client := NewClient(config.ClassifierConfig{URL: srv.URL, Timeout: time.Second})
	res, err := client.Classify(context.Background(), ModeSpecies, "photos/IMG_1.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if gotName != "plant_IMG_1.jpg" {
		t.Errorf("uploaded filename = %q", gotName)
	}
	if gotBody != "jpeg-bytes" {
		t.Errorf("uploaded body = %q", gotBody)
	}
	if res.Label != "Monstera deliciosa" || res.LabelKo != "몬스테라" {
		t.Errorf("labels = %q / %q", res.Label, res.LabelKo)
	}
	if res.Confidence != 0.91 || res.WateringDays != 10 || res.PlantID != "12" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClassifyDiseasePrefix(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err == nil {
			gotName = header.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"species_label":"Leaf spot","confidence":0.5}`)
	}))
	defer srv.Close()

	client := NewClient(config.ClassifierConfig{URL: srv.URL, Timeout: time.Second})
	if _, err := client.Classify(context.Background(), ModeDisease, "leaf.png", strings.NewReader("x")); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if gotName != "leaf_leaf.png" {
		t.Errorf("uploaded filename = %q", gotName)
	}
}

func TestClassifyFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"service error", http.StatusInternalServerError, `{"success":false,"error":"model not loaded"}`},
		{"unsuccessful", http.StatusOK, `{"success":false,"error":"not a plant"}`},
		{"confidence out of range", http.StatusOK, `{"success":true,"species_label":"Fern","confidence":1.7}`},
		{"confidence missing", http.StatusOK, `{"success":true,"species_label":"Fern"}`},
		{"empty label", http.StatusOK, `{"success":true,"confidence":0.4}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client := NewClient(config.ClassifierConfig{URL: srv.URL, Timeout: time.Second})
			_, err := client.Classify(context.Background(), ModeSpecies, "a.jpg", strings.NewReader("x"))
			if !errors.Is(err, ErrClassification) {
				t.Errorf("err = %v, want ErrClassification", err)
			}
		})
	}
}

func TestClassifyTimeoutNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(config.ClassifierConfig{URL: srv.URL, Timeout: 50 * time.Millisecond})
	if _, err := client.Classify(context.Background(), ModeSpecies, "a.jpg", strings.NewReader("x")); err == nil {
		t.Fatal("expected timeout error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}
