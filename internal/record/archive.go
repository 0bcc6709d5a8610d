package record

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/arashpd/surveybot/core/logger"
	"log/slog"
)

// Archive stores records in Postgres next to the spreadsheet, keeping a
// queryable copy of every submitted survey.
type Archive struct {
	db *sqlx.DB
}

// NewArchive wraps an open database handle.
func NewArchive(db *sqlx.DB) (*Archive, error) {
	if db == nil {
		return nil, fmt.Errorf("record: nil database handle")
	}
	return &Archive{db: db}, nil
}

const insertResponse = `
	INSERT INTO survey_responses (id, respondent_name, category, answers, created_at)
	VALUES ($1, $2, $3, $4, $5)`

// Append inserts the record as one row. The first two fields are the
// respondent name and category; the rest are answers in question order.
func (a *Archive) Append(ctx context.Context, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("record: short record, got %d fields", len(fields))
	}

	id := uuid.New()
	start := time.Now()
	_, err := a.db.ExecContext(ctx, insertResponse,
		id, fields[0], fields[1], pq.Array(fields[2:]), time.Now().UTC())
	took := time.Since(start)

	if err != nil {
		logger.RECArchive.Error("insert failed",
			slog.String("event", "archive.insert"),
			slog.String("status", "fail"),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("record: archive insert: %w", err)
	}

	logger.RECArchive.Info("record archived",
		slog.String("event", "archive.insert"),
		slog.String("status", "ok"),
		slog.String("record_id", id.String()),
		slog.Int("fields", len(fields)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}
