package staging

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/db"
)

// Beginner opens transactions on the merge session.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresTarget stages into a session-scoped TEMP table and merges into
// the target table with MERGE (PostgreSQL 15+).
type PostgresTarget struct {
	db      Beginner
	target  string
	staging string
}

// NewPostgresTarget creates a target over the canonical tables.
func NewPostgresTarget(conn Beginner) *PostgresTarget {
	return &PostgresTarget{db: conn, target: proposals.TargetTable, staging: proposals.StagingTable}
}

// Prepare drops and recreates the staging table.
func (t *PostgresTarget) Prepare(ctx context.Context) error {
	return t.inTx(ctx, "stage_create", func(tx pgx.Tx) error {
		for _, stmt := range createStagingStatements(t.staging) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load copies one batch into staging.
func (t *PostgresTarget) Load(ctx context.Context, batch []proposals.Row) error {
	rows := make([][]any, len(batch))
	for i, r := range batch {
		rows[i] = r.Values()
	}
	return t.inTx(ctx, "stage_load", func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{t.staging}, proposals.Columns, pgx.CopyFromRows(rows))
		if err != nil {
			return err
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copied %d of %d rows", n, len(rows))
		}
		return nil
	})
}

// Dedupe deletes every staged row but the first loaded per merge key.
func (t *PostgresTarget) Dedupe(ctx context.Context) (int64, error) {
	var removed int64
	err := t.inTx(ctx, "stage_dedupe", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, dedupeSQL(t.staging))
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}

// Upsert merges staging into the target table.
func (t *PostgresTarget) Upsert(ctx context.Context) (UpsertStats, error) {
	var stats UpsertStats
	err := t.inTx(ctx, "merge", func(tx pgx.Tx) error {
		var unmatched int64
		if err := tx.QueryRow(ctx, unmatchedCountSQL(t.target, t.staging)).Scan(&unmatched); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, mergeSQL(t.target, t.staging))
		if err != nil {
			return err
		}
		stats.Inserted = unmatched
		if affected := tag.RowsAffected(); affected > unmatched {
			stats.Updated = affected - unmatched
		}
		return nil
	})
	return stats, err
}

func (t *PostgresTarget) inTx(ctx context.Context, op string, fn func(pgx.Tx) error) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return db.Classify(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(tx); err != nil {
		return db.Classify(op, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return db.Classify(op, err)
	}
	return nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// keyTrimSQL is proposals.KeyTrimSet as a PostgreSQL escape string.
const keyTrimSQL = `E' \t\r\n'`

// keyExpr is the merge key comparison form of col: null as empty, trimmed
// of proposals.KeyTrimSet, case folded. The target table carries an
// expression index over it.
func keyExpr(alias, col string) string {
	ref := ident(col)
	if alias != "" {
		ref = alias + "." + ref
	}
	return fmt.Sprintf("lower(btrim(coalesce(%s, ''), %s))", ref, keyTrimSQL)
}

func keyExprs(alias string) []string {
	out := make([]string, len(proposals.MergeKeyColumns))
	for i, c := range proposals.MergeKeyColumns {
		out[i] = keyExpr(alias, c)
	}
	return out
}

func keyMatch(left, right string) string {
	parts := make([]string, len(proposals.MergeKeyColumns))
	for i, c := range proposals.MergeKeyColumns {
		parts[i] = keyExpr(left, c) + " = " + keyExpr(right, c)
	}
	return strings.Join(parts, "\n  AND ")
}

func createStagingStatements(staging string) []string {
	cols := make([]string, len(proposals.Columns))
	for i, c := range proposals.Columns {
		cols[i] = fmt.Sprintf("%s varchar(%d)", ident(c), proposals.StorageLen(c))
	}
	return []string{
		"DROP TABLE IF EXISTS " + ident(staging),
		fmt.Sprintf("CREATE TEMP TABLE %s (\n  %s\n)", ident(staging), strings.Join(cols, ",\n  ")),
		fmt.Sprintf("CREATE INDEX ON %s (%s)", ident(staging), strings.Join(keyExprs(""), ", ")),
	}
}

func dedupeSQL(staging string) string {
	return fmt.Sprintf(`DELETE FROM %[1]s s
USING (
  SELECT ctid AS row_ctid,
         row_number() OVER (PARTITION BY %[2]s ORDER BY ctid) AS rn
  FROM %[1]s
) d
WHERE s.ctid = d.row_ctid AND d.rn > 1`, ident(staging), strings.Join(keyExprs(""), ", "))
}

func unmatchedCountSQL(target, staging string) string {
	return fmt.Sprintf(`SELECT count(*) FROM %s s
WHERE NOT EXISTS (
  SELECT 1 FROM %s t
  WHERE %s
)`, ident(staging), ident(target), keyMatch("t", "s"))
}

func mergeSQL(target, staging string) string {
	cols := make([]string, len(proposals.Columns))
	sets := make([]string, len(proposals.Columns))
	vals := make([]string, len(proposals.Columns))
	for i, c := range proposals.Columns {
		cols[i] = ident(c)
		sets[i] = fmt.Sprintf("%s = s.%s", ident(c), ident(c))
		vals[i] = "s." + ident(c)
	}
	return fmt.Sprintf(`MERGE INTO %s AS t
USING %s AS s
ON %s
WHEN MATCHED THEN
  UPDATE SET %s
WHEN NOT MATCHED THEN
  INSERT (%s)
  VALUES (%s)`,
		ident(target), ident(staging), keyMatch("t", "s"),
		strings.Join(sets, ", "), strings.Join(cols, ", "), strings.Join(vals, ", "))
}
