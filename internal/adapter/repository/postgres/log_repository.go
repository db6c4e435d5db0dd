package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/V4T54L/voicewatch/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	log_id         TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	transaction_id TEXT NOT NULL,
	log_type       TEXT NOT NULL,
	"timestamp"    TIMESTAMPTZ NOT NULL,
	payload        JSONB,
	stack          TEXT NOT NULL DEFAULT '',
	tags           TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS logs_source_timestamp_idx ON logs (source, "timestamp" DESC);
`

// originExpr classifies a request payload the same way conversation derivation does.
const originExpr = `
CASE
	WHEN jsonb_typeof(payload) <> 'object' THEN 'Unknown'
	WHEN payload ?| array['originalRequest', 'originalDetectIntentRequest', 'queryResult', 'result'] THEN 'Google.Home'
	WHEN jsonb_typeof(payload->'request') = 'object'
		AND (jsonb_typeof(payload->'session') = 'object' OR jsonb_typeof(payload->'context') = 'object') THEN 'Amazon.Alexa'
	ELSE 'Unknown'
END`

const userExpr = `COALESCE(payload #>> '{context,System,user,userId}', payload #>> '{session,user,userId}')`

// LogRepository reads platform logs stored in PostgreSQL. It implements
// domain.LogSource and domain.SummarySource.
type LogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLogRepository creates a new PostgreSQL log repository.
func NewLogRepository(db *sql.DB, logger *slog.Logger) *LogRepository {
	return &LogRepository{db: db, logger: logger.With("component", "postgres_logs")}
}

// EnsureSchema creates the logs table if it does not exist.
func (r *LogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create logs schema: %w", err)
	}
	return nil
}

// ListLogs returns the newest logs of a source inside the query window.
func (r *LogRepository) ListLogs(ctx context.Context, q domain.LogQuery) ([]domain.LogRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT log_id, source, transaction_id, log_type, "timestamp", payload, stack, tags
		FROM logs
		WHERE source = $1 AND "timestamp" >= $2 AND "timestamp" <= $3
		ORDER BY "timestamp" DESC
		LIMIT $4`,
		q.Source, q.Start, q.End, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query logs: %v", domain.ErrUpstream, err)
	}
	defer rows.Close()

	var records []domain.LogRecord
	for rows.Next() {
		var (
			rec     domain.LogRecord
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.TransactionID, &rec.Level, &rec.Timestamp, &payload, &rec.Stack, pq.Array(&rec.Tags)); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		if payload != nil {
			rec.Payload = json.RawMessage(payload)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate log rows: %w", err)
	}
	return records, nil
}

// TimeSummary counts request logs per hour, total and per origin.
func (r *LogRepository) TimeSummary(ctx context.Context, q domain.SummaryQuery) (*domain.TimeSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('hour', "timestamp" AT TIME ZONE 'UTC') AT TIME ZONE 'UTC' AS bucket,
			COUNT(*),
			COUNT(*) FILTER (WHERE origin = 'Amazon.Alexa'),
			COUNT(*) FILTER (WHERE origin = 'Google.Home')
		FROM (
			SELECT "timestamp", `+originExpr+` AS origin
			FROM logs
			WHERE source = $1 AND "timestamp" >= $2 AND "timestamp" < $3 AND 'request' = ANY(tags)
		) t
		GROUP BY bucket
		ORDER BY bucket`,
		q.Source, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query time summary: %v", domain.ErrUpstream, err)
	}
	defer rows.Close()

	summary := &domain.TimeSummary{
		Buckets:       []domain.TimeBucket{},
		AmazonBuckets: []domain.TimeBucket{},
		GoogleBuckets: []domain.TimeBucket{},
	}
	for rows.Next() {
		var (
			bucket               time.Time
			total, alexa, google int64
		)
		if err := rows.Scan(&bucket, &total, &alexa, &google); err != nil {
			return nil, fmt.Errorf("failed to scan time summary row: %w", err)
		}
		date := bucket.UTC().Format(time.RFC3339)
		summary.Buckets = append(summary.Buckets, domain.TimeBucket{Date: date, Count: total})
		if alexa > 0 {
			summary.AmazonBuckets = append(summary.AmazonBuckets, domain.TimeBucket{Date: date, Count: alexa})
		}
		if google > 0 {
			summary.GoogleBuckets = append(summary.GoogleBuckets, domain.TimeBucket{Date: date, Count: google})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time summary rows: %w", err)
	}
	return summary, nil
}

// IntentSummary counts intent requests per intent name and origin.
func (r *LogRepository) IntentSummary(ctx context.Context, q domain.SummaryQuery) (*domain.IntentSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload #>> '{request,intent,name}' AS intent, `+originExpr+` AS origin, COUNT(*)
		FROM logs
		WHERE source = $1 AND "timestamp" >= $2 AND "timestamp" < $3 AND 'request' = ANY(tags)
			AND payload #>> '{request,intent,name}' IS NOT NULL
		GROUP BY 1, 2
		ORDER BY 3 DESC, 1`,
		q.Source, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query intent summary: %v", domain.ErrUpstream, err)
	}
	defer rows.Close()

	summary := &domain.IntentSummary{Count: []domain.IntentBucket{}}
	for rows.Next() {
		var b domain.IntentBucket
		if err := rows.Scan(&b.Name, &b.Origin, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan intent summary row: %w", err)
		}
		summary.Count = append(summary.Count, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intent summary rows: %w", err)
	}
	return summary, nil
}

// SourceStats returns distinct users, crashed transactions and request counts, overall
// and per origin.
func (r *LogRepository) SourceStats(ctx context.Context, q domain.SummaryQuery) (*domain.SourceStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH requests AS (
			SELECT transaction_id, `+originExpr+` AS origin, `+userExpr+` AS user_id
			FROM logs
			WHERE source = $1 AND "timestamp" >= $2 AND "timestamp" < $3 AND 'request' = ANY(tags)
		), crashes AS (
			SELECT DISTINCT transaction_id
			FROM logs
			WHERE source = $1 AND "timestamp" >= $2 AND "timestamp" < $3 AND stack <> ''
		)
		SELECT COALESCE(origin, 'total'),
			COUNT(DISTINCT user_id),
			COUNT(DISTINCT c.transaction_id),
			COUNT(*)
		FROM requests r
		LEFT JOIN crashes c USING (transaction_id)
		GROUP BY ROLLUP (origin)`,
		q.Source, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query source stats: %v", domain.ErrUpstream, err)
	}
	defer rows.Close()

	stats := &domain.SourceStats{Source: q.Source}
	for rows.Next() {
		var (
			origin string
			s      domain.TotalStat
		)
		if err := rows.Scan(&origin, &s.TotalUsers, &s.TotalExceptions, &s.TotalEvents); err != nil {
			return nil, fmt.Errorf("failed to scan source stats row: %w", err)
		}
		switch origin {
		case "total":
			stats.Stats = s
		case string(domain.OriginAmazonAlexa):
			stats.AmazonAlexa = s
		case string(domain.OriginGoogleHome):
			stats.GoogleHome = s
		default:
			stats.Unknown = s
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source stats rows: %w", err)
	}
	return stats, nil
}

// WriteLogs stores a batch of records using the COPY protocol. Existing log ids are
// overwritten, so replaying a batch is idempotent.
func (r *LogRepository) WriteLogs(ctx context.Context, records []domain.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer txn.Rollback() // Rollback is a no-op if Commit() is called

	tempTableName := "logs_temp_import"
	_, err = txn.ExecContext(ctx, `CREATE TEMP TABLE `+tempTableName+` (LIKE logs INCLUDING DEFAULTS) ON COMMIT DROP;`)
	if err != nil {
		return err
	}

	stmt, err := txn.Prepare(pq.CopyIn(tempTableName, "log_id", "source", "transaction_id", "log_type", "timestamp", "payload", "stack", "tags"))
	if err != nil {
		return err
	}

	for _, rec := range records {
		var payload any
		if len(rec.Payload) > 0 {
			payload = string(rec.Payload)
		}
		tags := rec.Tags
		if tags == nil {
			tags = []string{}
		}
		_, err = stmt.ExecContext(ctx, rec.ID, rec.Source, rec.TransactionID, rec.Level, rec.Timestamp, payload, rec.Stack, pq.Array(tags))
		if err != nil {
			_ = stmt.Close()
			return err
		}
	}

	if err := stmt.Close(); err != nil {
		return err
	}

	_, err = txn.ExecContext(ctx, `
		INSERT INTO logs (log_id, source, transaction_id, log_type, "timestamp", payload, stack, tags)
		SELECT log_id, source, transaction_id, log_type, "timestamp", payload, stack, tags FROM `+tempTableName+`
		ON CONFLICT (log_id) DO UPDATE SET
			source = EXCLUDED.source,
			transaction_id = EXCLUDED.transaction_id,
			log_type = EXCLUDED.log_type,
			"timestamp" = EXCLUDED."timestamp",
			payload = EXCLUDED.payload,
			stack = EXCLUDED.stack,
			tags = EXCLUDED.tags;
	`)
	if err != nil {
		return err
	}

	r.logger.Debug("Wrote log batch", "count", len(records))
	return txn.Commit()
}
