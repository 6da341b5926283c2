package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/schemaforge/schemaforge/pkg/dialect"
	"github.com/schemaforge/schemaforge/pkg/schema"
)

// rebuildSuffix names the shadow table during a rebuild.
const rebuildSuffix = "__rebuild"

// Rebuild replaces the table with one matching the desired model while
// preserving row data: create the shadow table, copy the rows shared by
// both column sets, drop the original, rename the shadow into place, then
// recreate the indexes. Everything runs in one transaction, so a failure
// in any phase rolls the whole rebuild back; the phase in the returned
// RebuildError still tells the caller where it stopped.
func (p *Provider) Rebuild(ctx context.Context, db *sql.DB, desired *schema.Table) error {
	if err := desired.Validate(); err != nil {
		return err
	}

	current, err := p.GetTable(ctx, db, dialect.Ref(desired))
	if err != nil {
		return err
	}

	shadow := desired.Name + rebuildSuffix
	createSQL, err := p.createTableSQL(desired, shadow, false)
	if err != nil {
		return err
	}

	shared := sharedColumns(current, desired)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return dialect.WrapError(p.ID(), "rebuild", err)
	}
	defer tx.Rollback()

	fail := func(phase dialect.RebuildPhase, cause error) error {
		return &dialect.RebuildError{Dialect: p.ID(), Table: desired.Name, Phase: phase, Cause: cause}
	}

	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fail(dialect.RebuildPhaseCreate, err)
	}

	if len(shared) > 0 {
		cols := p.quoteJoin(shared)
		copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			p.Quote(shadow), cols, cols, p.Quote(desired.Name))
		if _, err := tx.ExecContext(ctx, copySQL); err != nil {
			return fail(dialect.RebuildPhaseCopy, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE "+p.Quote(desired.Name)); err != nil {
		return fail(dialect.RebuildPhaseDrop, err)
	}

	renameSQL := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", p.Quote(shadow), p.Quote(desired.Name))
	if _, err := tx.ExecContext(ctx, renameSQL); err != nil {
		return fail(dialect.RebuildPhaseRename, err)
	}

	for _, idx := range desired.Indexes {
		if _, err := tx.ExecContext(ctx, p.indexStatement(desired, idx)); err != nil {
			return fail(dialect.RebuildPhaseIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dialect.WrapError(p.ID(), "rebuild", err)
	}
	return nil
}

// sharedColumns returns the desired-order list of column names present in
// both tables. Only these survive the copy; columns new to the desired
// model start empty or at their default.
func sharedColumns(current, desired *schema.Table) []string {
	var shared []string
	for _, col := range desired.Columns {
		if current.Column(col.Name) != nil {
			shared = append(shared, col.Name)
		}
	}
	return shared
}
