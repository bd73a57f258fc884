package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"kirum/internal/derive"
)

// DefaultTable is the lexicon table name used when none is configured.
const DefaultTable = "lexicon"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WriteSQLite writes recs into a SQLite database at path, replacing any
// previous contents of table and its etymon table (<table>_etymons).
func WriteSQLite(ctx context.Context, path, table string, recs []derive.Record) error {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schema(table)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	lex, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, word, language, definition, part_of_speech, type, archaic, tags_json, historical_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare lexis insert: %w", err)
	}
	defer lex.Close()

	ety, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s_etymons (lexis_id, etymon_id, agglutination_order, transforms) VALUES (?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare etymon insert: %w", err)
	}
	defer ety.Close()

	for _, r := range recs {
		tags, _ := json.Marshal(nonNil(r.Tags))
		hist, _ := json.Marshal(nonNil(r.Historical))
		archaic := 0
		if r.Archaic {
			archaic = 1
		}
		if _, err := lex.ExecContext(ctx, r.ID, r.Word, r.Language, r.Definition, r.PartOfSpeech.String(), r.Type, archaic, string(tags), string(hist)); err != nil {
			return fmt.Errorf("insert lexis %q: %w", r.ID, err)
		}
		for _, e := range r.Etymons {
			if _, err := ety.ExecContext(ctx, r.ID, e.ID, e.Order, strings.Join(e.Transforms, ",")); err != nil {
				return fmt.Errorf("insert etymon of %q: %w", r.ID, err)
			}
		}
	}
	return tx.Commit()
}

func schema(table string) string {
	return fmt.Sprintf(`
	DROP TABLE IF EXISTS %[1]s_etymons;
	DROP TABLE IF EXISTS %[1]s;
	CREATE TABLE %[1]s (
		id TEXT PRIMARY KEY,
		word TEXT NOT NULL,
		language TEXT NOT NULL,
		definition TEXT NOT NULL,
		part_of_speech TEXT NOT NULL,
		type TEXT NOT NULL,
		archaic INTEGER NOT NULL DEFAULT 0,
		tags_json TEXT,
		historical_json TEXT
	);
	CREATE INDEX idx_%[1]s_language ON %[1]s(language);
	CREATE TABLE %[1]s_etymons (
		lexis_id TEXT NOT NULL REFERENCES %[1]s(id),
		etymon_id TEXT NOT NULL,
		agglutination_order INTEGER NOT NULL,
		transforms TEXT
	);
	CREATE INDEX idx_%[1]s_etymons_lexis ON %[1]s_etymons(lexis_id);
	`, table)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
