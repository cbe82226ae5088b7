package staging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/apperr"
	"proposal_sync/platform/db"
)

type beginnerStub struct {
	beginFn func(context.Context) (pgx.Tx, error)
}

func (b beginnerStub) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.beginFn != nil {
		return b.beginFn(ctx)
	}
	return &txStub{}, nil
}

type rowStub struct {
	scanFn func(dest ...any) error
}

func (r rowStub) Scan(dest ...any) error { return r.scanFn(dest...) }

type txStub struct {
	pgx.Tx

	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	copyFn     func(table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error)

	statements []string
	committed  bool
	rolledBack bool
}

func (t *txStub) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.statements = append(t.statements, sql)
	if t.execFn != nil {
		return t.execFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (t *txStub) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.statements = append(t.statements, sql)
	if t.queryRowFn != nil {
		return t.queryRowFn(ctx, sql, args...)
	}
	return rowStub{scanFn: func(...any) error { return nil }}
}

func (t *txStub) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	if t.copyFn != nil {
		return t.copyFn(table, cols, src)
	}
	var n int64
	for src.Next() {
		n++
	}
	return n, nil
}

func (t *txStub) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *txStub) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func targetWith(tx *txStub) *PostgresTarget {
	return NewPostgresTarget(beginnerStub{beginFn: func(context.Context) (pgx.Tx, error) { return tx, nil }})
}

func TestPrepareRecreatesStagingTable(t *testing.T) {
	tx := &txStub{}
	require.NoError(t, targetWith(tx).Prepare(context.Background()))

	require.Len(t, tx.statements, 3)
	assert.Contains(t, tx.statements[0], `DROP TABLE IF EXISTS "cadastrados_stage"`)
	assert.Contains(t, tx.statements[1], "CREATE TEMP TABLE")
	assert.Contains(t, tx.statements[1], `"proposta_id" varchar(450)`)
	assert.Contains(t, tx.statements[1], `"cidade" varchar(4000)`)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestLoadCopiesCanonicalColumns(t *testing.T) {
	var gotCols []string
	var gotTable pgx.Identifier
	tx := &txStub{copyFn: func(table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
		gotTable, gotCols = table, cols
		var n int64
		for src.Next() {
			vals, err := src.Values()
			if err != nil {
				return n, err
			}
			if len(vals) != len(proposals.Columns) {
				return n, errors.New("wrong arity")
			}
			n++
		}
		return n, nil
	}}

	err := targetWith(tx).Load(context.Background(), []proposals.Row{proposals.NewRow(), proposals.NewRow()})
	require.NoError(t, err)
	assert.Equal(t, pgx.Identifier{proposals.StagingTable}, gotTable)
	assert.Equal(t, proposals.Columns, gotCols)
	assert.True(t, tx.committed)
}

func TestLoadShortCopyRollsBack(t *testing.T) {
	tx := &txStub{copyFn: func(pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) { return 1, nil }}

	err := targetWith(tx).Load(context.Background(), []proposals.Row{proposals.NewRow(), proposals.NewRow()})
	require.Error(t, err)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestDedupeReportsRemovedRows(t *testing.T) {
	tx := &txStub{execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.NewCommandTag("DELETE 3"), nil
	}}
	removed, err := targetWith(tx).Dedupe(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.Contains(t, tx.statements[0], "row_number() OVER (PARTITION BY")
}

func TestUpsertCountsInsertsAndUpdates(t *testing.T) {
	tx := &txStub{
		queryRowFn: func(context.Context, string, ...any) pgx.Row {
			return rowStub{scanFn: func(dest ...any) error {
				*dest[0].(*int64) = 4
				return nil
			}}
		},
		execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("MERGE 10"), nil
		},
	}
	stats, err := targetWith(tx).Upsert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UpsertStats{Inserted: 4, Updated: 6}, stats)

	merge := tx.statements[1]
	assert.True(t, strings.HasPrefix(merge, `MERGE INTO "cadastrados" AS t`))
	assert.Contains(t, merge, `lower(btrim(coalesce(t."proposta_id", ''), E' \t\r\n')) = lower(btrim(coalesce(s."proposta_id", ''), E' \t\r\n'))`)
	assert.Contains(t, merge, "WHEN NOT MATCHED THEN")
}

func TestUpsertFailureRollsBackAndClassifies(t *testing.T) {
	tx := &txStub{execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	}}
	_, err := targetWith(tx).Upsert(context.Background())
	require.Error(t, err)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
	assert.Equal(t, apperr.KindDatabase, apperr.GetKind(err))
}

func TestBeginFailureIsReported(t *testing.T) {
	target := NewPostgresTarget(beginnerStub{beginFn: func(context.Context) (pgx.Tx, error) {
		return nil, errors.New("conn closed")
	}})
	require.Error(t, target.Prepare(context.Background()))
}

func TestMergeKeyExpressionMatchesTargetIndex(t *testing.T) {
	raw, err := db.Migrations().ReadFile("migrations/00001_create_cadastrados.sql")
	require.NoError(t, err)
	migration := string(raw)

	for _, col := range proposals.MergeKeyColumns {
		expr := strings.ReplaceAll(keyExpr("", col), `"`, "")
		assert.Contains(t, migration, expr, "index must use the merge comparison for %s", col)
	}
}

func TestMergeKeyTrimsSamePaddingAsMemoryTarget(t *testing.T) {
	for _, r := range proposals.KeyTrimSet {
		escaped := map[rune]string{' ': " ", '\t': `\t`, '\r': `\r`, '\n': `\n`}[r]
		require.NotEmpty(t, escaped, "no SQL escape for %q", r)
		assert.Contains(t, keyTrimSQL, escaped)
	}

	padded := "\t P1\r\n"
	assert.Equal(t, "p1", proposals.NormalizeKeyPart(&padded))
}
