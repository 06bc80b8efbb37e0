package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/wxbot/wxbot/core"
)

// maxReplySnippet bounds the stored reply text so alert lists and other
// long replies cannot bloat the table.
const maxReplySnippet = 200

// defaultSummaryWindow is the lookback when no window is given.
const defaultSummaryWindow = 24 * time.Hour

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	id            TEXT PRIMARY KEY,
	recorded_at   TIMESTAMPTZ NOT NULL,
	session_id    TEXT NOT NULL,
	intent        TEXT NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	datetime      TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL,
	reply_snippet TEXT NOT NULL DEFAULT '',
	latency_ms    BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_recorded_at ON interactions (recorded_at);
CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions (session_id);
`

// PostgresRecorder implements core.Recorder on a PostgreSQL table.
type PostgresRecorder struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.Recorder = (*PostgresRecorder)(nil)

// Options configure a PostgresRecorder.
type Options struct {
	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// NewPostgresRecorder wraps an existing database handle.
func NewPostgresRecorder(db *sql.DB, optFns ...func(o *Options)) *PostgresRecorder {
	opts := Options{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &PostgresRecorder{db: db, now: opts.Now}
}

// Open connects to PostgreSQL, verifies the connection and ensures the
// interactions table exists.
func Open(ctx context.Context, dsn string, optFns ...func(o *Options)) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening metrics database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging metrics database: %w", err)
	}
	r := NewPostgresRecorder(db, optFns...)
	if err := r.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// InitSchema creates the interactions table and its indexes if missing.
func (r *PostgresRecorder) InitSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing metrics schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

// Record inserts one completed turn.
func (r *PostgresRecorder) Record(ctx context.Context, turn core.Turn) error {
	query, args, err := psq.Insert("interactions").
		Columns("id", "recorded_at", "session_id", "intent", "confidence",
			"location", "datetime", "state", "reply_snippet", "latency_ms").
		Values(uuid.NewString(), r.now(), turn.SessionID, turn.Intent, turn.Confidence,
			turn.Entities.Location, turn.Entities.Datetime, string(turn.State),
			snippet(turn.Reply), turn.Latency.Milliseconds()).
		ToSql()
	if err != nil {
		return fmt.Errorf("building interaction insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// Summary holds aggregate turn statistics for a time window.
type Summary struct {
	TotalTurns      int64   `json:"total_turns"`
	ClarifiedTurns  int64   `json:"clarified_turns"`
	UnknownLocation int64   `json:"unknown_location_turns"`
	AvgConfidence   float64 `json:"avg_confidence"`
	AvgLatencyMS    float64 `json:"avg_latency_ms"`
	UniqueSessions  int64   `json:"unique_sessions"`
}

// Summarize aggregates turns recorded within the given window. A zero
// window defaults to the last 24 hours.
func (r *PostgresRecorder) Summarize(ctx context.Context, window time.Duration) (*Summary, error) {
	if window <= 0 {
		window = defaultSummaryWindow
	}
	query, args, err := psq.Select(
		"COUNT(*) AS total_turns",
		"COUNT(*) FILTER (WHERE state = 'clarification_needed') AS clarified_turns",
		"COUNT(*) FILTER (WHERE state = 'location_unknown') AS unknown_location_turns",
		"COALESCE(AVG(confidence), 0) AS avg_confidence",
		"COALESCE(AVG(latency_ms), 0) AS avg_latency_ms",
		"COUNT(DISTINCT session_id) AS unique_sessions",
	).From("interactions").
		Where(sq.GtOrEq{"recorded_at": r.now().Add(-window)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building summary query: %w", err)
	}

	var s Summary
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.TotalTurns,
		&s.ClarifiedTurns,
		&s.UnknownLocation,
		&s.AvgConfidence,
		&s.AvgLatencyMS,
		&s.UniqueSessions,
	)
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	return &s, nil
}

// IntentCount is one row of the per-intent breakdown.
type IntentCount struct {
	Intent        string  `json:"intent"`
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
}

// IntentBreakdown groups turns by intent within the given window, most
// frequent first.
func (r *PostgresRecorder) IntentBreakdown(ctx context.Context, window time.Duration) ([]IntentCount, error) {
	if window <= 0 {
		window = defaultSummaryWindow
	}
	query, args, err := psq.Select(
		"intent",
		"COUNT(*) AS count",
		"COALESCE(AVG(confidence), 0) AS avg_confidence",
		"COALESCE(AVG(latency_ms), 0) AS avg_latency_ms",
	).From("interactions").
		Where(sq.GtOrEq{"recorded_at": r.now().Add(-window)}).
		GroupBy("intent").
		OrderBy("count DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building intent breakdown query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying intent breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []IntentCount
	for rows.Next() {
		var c IntentCount
		if err := rows.Scan(&c.Intent, &c.Count, &c.AvgConfidence, &c.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("scanning intent breakdown row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating intent breakdown rows: %w", err)
	}
	if counts == nil {
		counts = []IntentCount{}
	}
	return counts, nil
}

// snippet truncates on a rune boundary so cutting a multi-byte character
// (degree signs in forecast replies) cannot produce invalid UTF-8.
func snippet(reply string) string {
	if len(reply) <= maxReplySnippet {
		return reply
	}
	cut := maxReplySnippet
	for cut > 0 && !utf8.RuneStart(reply[cut]) {
		cut--
	}
	return reply[:cut]
}

// NoOpRecorder discards all turns. It stands in when no metrics DSN is
// configured.
type NoOpRecorder struct{}

var _ core.Recorder = NoOpRecorder{}

// Record implements core.Recorder.
func (NoOpRecorder) Record(ctx context.Context, turn core.Turn) error { return nil }
