package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/plantcare/internal/config"
)

// Repository appends report rows to a spreadsheet tab.
type Repository interface {
	AppendRows(ctx context.Context, sheetRange string, header []interface{}, rows [][]interface{}) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRows appends rows below the data of sheetRange. When header is set,
// every row must have one cell per header column, and the header is written
// first if the tab is still empty.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, sheetRange string, header []interface{}, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	values := rows
	if len(header) > 0 {
		for i, row := range rows {
			if len(row) != len(header) {
				return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(header))
			}
		}

		existing, err := r.firstRow(ctx, sheetRange)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			values = append([][]interface{}{header}, rows...)
			r.logger.Info("writing report header", zap.String("range", sheetRange))
		case !sameHeader(existing, header):
			r.logger.Warn("sheet header differs from report columns",
				zap.String("range", sheetRange),
				zap.Any("found", existing))
		}
	}

	payload := &sheetsapi.ValueRange{Values: values}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(values)))
	return nil
}

// firstRow reads row 1 of the tab sheetRange points at. It returns nil for an
// empty tab.
func (r *GoogleSheetRepository) firstRow(ctx context.Context, sheetRange string) ([]interface{}, error) {
	headerRange := tabName(sheetRange) + "!1:1"
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", headerRange, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return nil, nil
	}
	return resp.Values[0], nil
}

func tabName(sheetRange string) string {
	if i := strings.LastIndex(sheetRange, "!"); i >= 0 {
		return sheetRange[:i]
	}
	return sheetRange
}

func sameHeader(found, want []interface{}) bool {
	if len(found) != len(want) {
		return false
	}
	for i := range want {
		if fmt.Sprint(found[i]) != fmt.Sprint(want[i]) {
			return false
		}
	}
	return true
}
