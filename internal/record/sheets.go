package record

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	coreconfig "github.com/arashpd/surveybot/core/config"
	"github.com/arashpd/surveybot/core/logger"
	"log/slog"
)

// Sheets appends records to a Google spreadsheet, one record per row.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	writeRange    string
}

// NewSheets builds the Sheets gateway from configuration. Credentials come
// either inline as raw service-account JSON or from a key file.
func NewSheets(ctx context.Context, cfg coreconfig.SheetsConfig) (*Sheets, error) {
	var opt option.ClientOption
	switch {
	case strings.TrimSpace(cfg.Credentials) != "":
		opt = option.WithCredentialsJSON([]byte(cfg.Credentials))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("record: sheets credentials missing")
	}

	svc, err := sheets.NewService(ctx, opt, option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("record: sheets client: %w", err)
	}

	writeRange := cfg.Range
	if strings.TrimSpace(writeRange) == "" {
		writeRange = "A1"
	}

	return &Sheets{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		writeRange:    writeRange,
	}, nil
}

// Append adds the record as a new row below the existing data.
func (s *Sheets) Append(ctx context.Context, fields []string) error {
	row := make([]interface{}, len(fields))
	for i, f := range fields {
		row[i] = f
	}

	start := time.Now()
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.writeRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	took := time.Since(start)

	if err != nil {
		logger.RECSheets.Error("append failed",
			slog.String("event", "sheets.append"),
			slog.String("status", "fail"),
			slog.String("spreadsheet", s.spreadsheetID),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("record: sheets append: %w", err)
	}

	logger.RECSheets.Info("row appended",
		slog.String("event", "sheets.append"),
		slog.String("status", "ok"),
		slog.String("spreadsheet", s.spreadsheetID),
		slog.Int("fields", len(fields)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}
