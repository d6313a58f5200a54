package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/eslsoft/vocquiz/internal/infrastructure/database"
)

const (
	tableVocabulary = "vocabulary"
	tableProgress   = "progress"
	tableMeanings   = "meanings"
)

func schemaStatements(dialect string) []*entsql.TableBuilder {
	b := entsql.Dialect(dialect)
	return []*entsql.TableBuilder{
		b.CreateTable(tableVocabulary).IfNotExists().
			Columns(
				entsql.Column("position").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("source").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("target").Type("TEXT").Attr("NOT NULL"),
			).
			PrimaryKey("position"),
		b.CreateTable(tableProgress).IfNotExists().
			Columns(
				entsql.Column("source_key").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("last_reviewed").Type("TEXT"),
				entsql.Column("next_review").Type("TEXT"),
				entsql.Column("correct_streak").Type("INTEGER").Attr("NOT NULL DEFAULT 0"),
				entsql.Column("total_correct").Type("INTEGER").Attr("NOT NULL DEFAULT 0"),
				entsql.Column("total_incorrect").Type("INTEGER").Attr("NOT NULL DEFAULT 0"),
			).
			PrimaryKey("source_key"),
		b.CreateTable(tableMeanings).IfNotExists().
			Columns(
				entsql.Column("position").Type("INTEGER").Attr("NOT NULL"),
				entsql.Column("word").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("meaning").Type("TEXT").Attr("NOT NULL"),
			).
			PrimaryKey("position"),
	}
}

// EnsureSchema creates the catalogue tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	for _, stmt := range schemaStatements(db.Dialect) {
		query, args := stmt.Query()
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
