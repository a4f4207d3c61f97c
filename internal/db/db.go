package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database инкапсулирует пул соединений к PostgreSQL с историей рендеров.
type Database struct {
	Pool *pgxpool.Pool
}

// CategoryRow - упоминания и отношение по одной категории в рендере.
type CategoryRow struct {
	Category string   `json:"category"`
	Mentions int      `json:"mentions"`
	Ratio    *float64 `json:"ratio,omitempty"`
}

// Render - краткая запись об одном рендере.
type Render struct {
	ID         uuid.UUID     `json:"id"`
	RenderedAt time.Time     `json:"rendered_at"`
	Articles   int           `json:"articles"`
	Source     string        `json:"source"`
	Live       bool          `json:"live"`
	Categories []CategoryRow `json:"categories"`
}

const schema = `
CREATE TABLE IF NOT EXISTS renders (
	id UUID PRIMARY KEY,
	rendered_at TIMESTAMP WITH TIME ZONE NOT NULL,
	articles INTEGER NOT NULL,
	source TEXT NOT NULL,
	live BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS render_categories (
	render_id UUID NOT NULL REFERENCES renders(id) ON DELETE CASCADE,
	category TEXT NOT NULL,
	mentions INTEGER NOT NULL,
	ratio DOUBLE PRECISION,
	PRIMARY KEY (render_id, category)
);
`

// NewDB создаёт новый пул соединений по connString и возвращает Database.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %v", err)
	}
	return &Database{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (db *Database) Close() {
	db.Pool.Close()
}

// Migrate создаёт таблицы, если их ещё нет.
func (db *Database) Migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}

// Ping проверяет доступность базы.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// SaveRender сохраняет рендер и строки по категориям в одной транзакции.
// Повторная запись с тем же id игнорируется.
func (db *Database) SaveRender(ctx context.Context, r Render) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        INSERT INTO renders (id, rendered_at, articles, source, live)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO NOTHING
    `, r.ID, r.RenderedAt, r.Articles, r.Source, r.Live)
	if err != nil {
		return fmt.Errorf("insert render: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range r.Categories {
		batch.Queue(`
            INSERT INTO render_categories (render_id, category, mentions, ratio)
            VALUES ($1, $2, $3, $4)
        `, r.ID, c.Category, c.Mentions, c.Ratio)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}

	return tx.Commit(ctx)
}

// RecentRenders возвращает последние limit рендеров, новые первыми.
func (db *Database) RecentRenders(ctx context.Context, limit int) ([]Render, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT r.id, r.rendered_at, r.articles, r.source, r.live, c.category, c.mentions, c.ratio
        FROM (SELECT * FROM renders ORDER BY rendered_at DESC LIMIT $1) r
        LEFT JOIN render_categories c ON c.render_id = r.id
        ORDER BY r.rendered_at DESC, c.category
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []Render
		index = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var (
			r        Render
			category *string
			mentions *int
			ratio    *float64
		)
		if err := rows.Scan(&r.ID, &r.RenderedAt, &r.Articles, &r.Source, &r.Live, &category, &mentions, &ratio); err != nil {
			return nil, err
		}

		i, ok := index[r.ID]
		if !ok {
			out = append(out, r)
			i = len(out) - 1
			index[r.ID] = i
		}
		if category != nil && mentions != nil {
			out[i].Categories = append(out[i].Categories, CategoryRow{Category: *category, Mentions: *mentions, Ratio: ratio})
		}
	}
	return out, rows.Err()
}
