package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
)

// AuditRepository is the append-only classification trail. Records
// are never updated or deleted; review tooling reads them back.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS classification_audit (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	text_excerpt TEXT NOT NULL,
	category TEXT NOT NULL,
	document_type TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	tier_used TEXT NOT NULL,
	needs_review BOOLEAN NOT NULL,
	entailment DOUBLE PRECISION NOT NULL,
	validator_degraded BOOLEAN NOT NULL,
	context_empty BOOLEAN NOT NULL,
	attempts JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_classification_audit_created_at ON classification_audit(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_classification_audit_needs_review ON classification_audit(needs_review) WHERE needs_review;
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AuditRepository) Append(ctx context.Context, record domain.AuditRecord) error {
	attemptsJSON, err := json.Marshal(record.Attempts)
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO classification_audit (
	id, filename, text_excerpt, category, document_type, confidence, tier_used, needs_review, entailment, validator_degraded, context_empty, attempts, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		record.ID, record.Filename, record.TextExcerpt, record.Category, record.DocumentType,
		record.ConfidenceScore, string(record.TierUsed), record.NeedsReview, record.Entailment,
		record.ValidatorDegraded, record.ContextEmpty, attemptsJSON, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int, needsReviewOnly bool) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT id, filename, text_excerpt, category, document_type, confidence, tier_used, needs_review, entailment, validator_degraded, context_empty, attempts, created_at
FROM classification_audit
`
	if needsReviewOnly {
		query += "WHERE needs_review\n"
	}
	query += "ORDER BY created_at DESC\nLIMIT $1"

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var record domain.AuditRecord
		var attemptsRaw []byte
		var tier string

		err := rows.Scan(
			&record.ID, &record.Filename, &record.TextExcerpt, &record.Category, &record.DocumentType,
			&record.ConfidenceScore, &tier, &record.NeedsReview, &record.Entailment,
			&record.ValidatorDegraded, &record.ContextEmpty, &attemptsRaw, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if err := json.Unmarshal(attemptsRaw, &record.Attempts); err != nil {
			return nil, fmt.Errorf("unmarshal attempts: %w", err)
		}
		record.TierUsed = domain.Tier(tier)
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return out, nil
}
