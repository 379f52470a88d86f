package db

import (
	"context"
	"database/sql"
	"fmt"

	"factposter/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database инкапсулирует пул соединений к PostgreSQL для журнала запусков.
type Database struct {
	Pool *pgxpool.Pool
}

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

// EnsureSchema создаёт таблицу fact_posts, если её ещё нет.
func (db *Database) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS fact_posts (
            id BIGSERIAL PRIMARY KEY,
            started_at TIMESTAMP WITH TIME ZONE NOT NULL,
            finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
            status TEXT NOT NULL,
            fact_id TEXT,
            fact_text TEXT,
            fact_fallback BOOLEAN NOT NULL DEFAULT FALSE,
            post_title TEXT,
            post_url TEXT,
            failed_step TEXT,
            error TEXT
        )
    `)
	return err
}

// SaveRun сохраняет итог запуска и возвращает id записи.
func (db *Database) SaveRun(ctx context.Context, run models.Run) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO fact_posts (started_at, finished_at, status, fact_id, fact_text, fact_fallback,
                                post_title, post_url, failed_step, error)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `,
		run.StartedAt,
		run.FinishedAt,
		string(run.Status),
		nullable(run.Fact.ID),
		nullable(run.Fact.Text),
		run.Fact.Fallback,
		nullable(run.Post.Title),
		nullable(run.Post.URL),
		nullable(run.FailedStep),
		nullable(run.Error),
	).Scan(&id)
	return id, err
}

// RecentRuns возвращает последние limit запусков, новые первыми.
// limit вне диапазона 1..100 приводится к нему так же, как в старом API новостей.
func (db *Database) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT id, started_at, finished_at, status, fact_id, fact_text, fact_fallback,
               post_title, post_url, failed_step, error
        FROM fact_posts
        ORDER BY started_at DESC, id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var (
			run                          models.Run
			status                       string
			factID, factText, title, url sql.NullString
			failedStep, errText          sql.NullString
		)
		if err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &status,
			&factID, &factText, &run.Fact.Fallback,
			&title, &url, &failedStep, &errText,
		); err != nil {
			return nil, err
		}

		run.Status = models.RunStatus(status)
		run.Fact.ID = factID.String
		run.Fact.Text = factText.String
		run.Post.Title = title.String
		run.Post.Body = factText.String
		run.Post.URL = url.String
		run.FailedStep = failedStep.String
		run.Error = errText.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
