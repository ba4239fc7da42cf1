package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

var reportHeader = []interface{}{"date", "plant_id", "name", "mode", "expected", "success", "rate"}

func newTestRepository(t *testing.T, handler http.HandlerFunc) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	return &GoogleSheetRepository{service: svc, spreadsheetID: "sheet-1", logger: zap.NewNop()}
}

// fakeSheet serves the header read and records the appended values.
type fakeSheet struct {
	firstRow   []interface{}
	headerPath string
	appendPath string
	option     string
	appended   sheetsapi.ValueRange
	appends    int
}

func (f *fakeSheet) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		f.headerPath = r.URL.Path
		resp := sheetsapi.ValueRange{Range: "Report!A1:G1"}
		if f.firstRow != nil {
			resp.Values = [][]interface{}{f.firstRow}
		}
		_ = json.NewEncoder(w).Encode(resp)
	case http.MethodPost:
		f.appends++
		f.appendPath = r.URL.Path
		f.option = r.URL.Query().Get("valueInputOption")
		_ = json.NewDecoder(r.Body).Decode(&f.appended)
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestAppendRows(t *testing.T) {
	sheet := &fakeSheet{}
	repo := newTestRepository(t, sheet.handle)

	rows := [][]interface{}{{"2024-11-20", 1, "Fern", "recent", 4, 3, 75}}
	if err := repo.AppendRows(context.Background(), "Report!A:G", nil, rows); err != nil {
		t.Fatalf("AppendRows failed: %v", err)
	}

	if sheet.headerPath != "" {
		t.Errorf("header read without a header: %q", sheet.headerPath)
	}
	if !strings.Contains(sheet.appendPath, "/spreadsheets/sheet-1/values/Report!A:G:append") {
		t.Errorf("path = %q", sheet.appendPath)
	}
	if sheet.option != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q", sheet.option)
	}
	if len(sheet.appended.Values) != 1 || sheet.appended.Values[0][2] != "Fern" {
		t.Errorf("values = %v", sheet.appended.Values)
	}
}

func TestAppendRowsWritesHeaderToEmptyTab(t *testing.T) {
	tests := []struct {
		name      string
		firstRow  []interface{}
		wantRows  int
		wantFirst string
	}{
		{"empty tab", nil, 3, "date"},
		{"header present", reportHeader, 2, "2024-11-20"},
		{"foreign header is left alone", []interface{}{"Date", "Plant"}, 2, "2024-11-20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := &fakeSheet{firstRow: tt.firstRow}
			repo := newTestRepository(t, sheet.handle)

			rows := [][]interface{}{
				{"2024-11-20", 1, "Fern", "recent", 4, 3, 75},
				{"2024-11-20", 2, "Cactus", "recent", 1, 1, 100},
			}
			if err := repo.AppendRows(context.Background(), "Report!A:G", reportHeader, rows); err != nil {
				t.Fatalf("AppendRows failed: %v", err)
			}

			if !strings.Contains(sheet.headerPath, "/values/Report!1:1") {
				t.Errorf("header path = %q", sheet.headerPath)
			}
			if len(sheet.appended.Values) != tt.wantRows {
				t.Fatalf("appended %d rows, want %d", len(sheet.appended.Values), tt.wantRows)
			}
			if got := sheet.appended.Values[0][0]; got != tt.wantFirst {
				t.Errorf("first cell = %v, want %s", got, tt.wantFirst)
			}
		})
	}
}

func TestAppendRowsRejectsRaggedRows(t *testing.T) {
	sheet := &fakeSheet{}
	repo := newTestRepository(t, sheet.handle)

	rows := [][]interface{}{{"2024-11-20", 1, "Fern"}}
	if err := repo.AppendRows(context.Background(), "Report!A:G", reportHeader, rows); err == nil {
		t.Error("expected an error for a row narrower than the header")
	}
	if sheet.headerPath != "" || sheet.appends != 0 {
		t.Error("nothing should reach the api")
	}
}

func TestAppendRowsShortCircuits(t *testing.T) {
	calls := 0
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})

	if err := repo.AppendRows(context.Background(), "", nil, [][]interface{}{{"x"}}); err == nil {
		t.Error("empty range should fail")
	}
	if err := repo.AppendRows(context.Background(), "Report!A:G", reportHeader, nil); err != nil {
		t.Errorf("no rows should be a no-op, got %v", err)
	}
	if calls != 0 {
		t.Errorf("api called %d times", calls)
	}

	if err := repo.AppendRows(context.Background(), "Report!A:G", nil, [][]interface{}{{"x"}}); err == nil {
		t.Error("api error should surface")
	}
	if err := repo.AppendRows(context.Background(), "Report!A:G", []interface{}{"x"}, [][]interface{}{{"x"}}); err == nil {
		t.Error("header read error should surface")
	}
}

func TestTabName(t *testing.T) {
	cases := map[string]string{
		"Report!A:G":     "Report",
		"'My Report'!A1": "'My Report'",
		"Report":         "Report",
	}
	for in, want := range cases {
		if got := tabName(in); got != want {
			t.Errorf("tabName(%q) = %q, want %q", in, got, want)
		}
	}
}
