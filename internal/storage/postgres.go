package storage

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"

	"readscore/pkg/logger"
	"readscore/pkg/model"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

type PostgresStorage struct {
	pool *pgxpool.Pool
}

// New PostgreSQL storage instance
func NewPostgresStorage(databaseURL string) (*PostgresStorage, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")

	if err := runMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed successfully")

	return &PostgresStorage{pool: pool}, nil
}

// Executing database migrations
func runMigrations(databaseURL string) error {
	migrationsPath, err := filepath.Abs("migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	// file URL works on both Windows and Unix
	var migrationsURL string
	if runtime.GOOS == "windows" {
		u := &url.URL{
			Scheme: "file",
			Path:   filepath.ToSlash(migrationsPath),
		}
		migrationsURL = u.String()
	} else {
		migrationsURL = fmt.Sprintf("file://%s", migrationsPath)
	}

	logger.Info("Running migrations", zap.String("path", migrationsURL))

	db := stdlib.OpenDB(*parseConfig(databaseURL))
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationsURL,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// Parses database URL into pgx config
func parseConfig(databaseURL string) *pgx.ConnConfig {
	config, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("Failed to parse database URL", zap.Error(err))
	}
	return config
}

// Closes the database connection pool
func (s *PostgresStorage) Close() {
	s.pool.Close()
}

// CreateTask inserts a new assessment task into the database
func (s *PostgresStorage) CreateTask(ctx context.Context, task *model.AssessmentTask) error {
	query := `
		INSERT INTO assessment_tasks (
			id, passage_id, reference_text, age, audio_key, elapsed_seconds,
			status, operation_id, attempts, error_text, meta, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := s.pool.Exec(ctx, query,
		task.ID,
		task.PassageID,
		task.ReferenceText,
		task.Age,
		task.AudioKey,
		task.ElapsedSeconds,
		task.Status,
		task.OperationID,
		task.Attempts,
		task.ErrorText,
		task.Meta,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTaskByID retrieves an assessment task by its ID
func (s *PostgresStorage) GetTaskByID(ctx context.Context, id string) (*model.AssessmentTask, error) {
	query := `
		SELECT id, passage_id, reference_text, age, audio_key, elapsed_seconds,
		       status, operation_id, attempts, error_text, meta, created_at, updated_at
		FROM assessment_tasks
		WHERE id = $1`

	var task model.AssessmentTask
	row := s.pool.QueryRow(ctx, query, id)

	err := row.Scan(
		&task.ID,
		&task.PassageID,
		&task.ReferenceText,
		&task.Age,
		&task.AudioKey,
		&task.ElapsedSeconds,
		&task.Status,
		&task.OperationID,
		&task.Attempts,
		&task.ErrorText,
		&task.Meta,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("task not found")
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// UpdateTask updates a full assessment task
func (s *PostgresStorage) UpdateTask(ctx context.Context, task *model.AssessmentTask) error {
	query := `
		UPDATE assessment_tasks
		SET passage_id = $2, reference_text = $3, age = $4, audio_key = $5,
		    elapsed_seconds = $6, status = $7, operation_id = $8, attempts = $9,
		    error_text = $10, meta = $11, updated_at = $12
		WHERE id = $1`

	result, err := s.pool.Exec(ctx, query,
		task.ID,
		task.PassageID,
		task.ReferenceText,
		task.Age,
		task.AudioKey,
		task.ElapsedSeconds,
		task.Status,
		task.OperationID,
		task.Attempts,
		task.ErrorText,
		task.Meta,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

// UpdateTaskStatus updates only the status of a task
func (s *PostgresStorage) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	query := `
		UPDATE assessment_tasks
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := s.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}

// GetQueuedTasks retrieves tasks with queued status, oldest first
func (s *PostgresStorage) GetQueuedTasks(ctx context.Context, limit int) ([]*model.AssessmentTask, error) {
	query := `
		SELECT id, passage_id, reference_text, age, audio_key, elapsed_seconds,
		       status, operation_id, attempts, error_text, meta, created_at, updated_at
		FROM assessment_tasks
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, model.TaskStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get queued tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.AssessmentTask
	for rows.Next() {
		var task model.AssessmentTask
		err := rows.Scan(
			&task.ID,
			&task.PassageID,
			&task.ReferenceText,
			&task.Age,
			&task.AudioKey,
			&task.ElapsedSeconds,
			&task.Status,
			&task.OperationID,
			&task.Attempts,
			&task.ErrorText,
			&task.Meta,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// GetFailedTasks retrieves failed tasks, oldest update first
func (s *PostgresStorage) GetFailedTasks(ctx context.Context, limit int) ([]*model.AssessmentTask, error) {
	query := `
		SELECT id, passage_id, reference_text, age, audio_key, elapsed_seconds,
		       status, operation_id, attempts, error_text, meta, created_at, updated_at
		FROM assessment_tasks
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, model.TaskStatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.AssessmentTask
	for rows.Next() {
		var task model.AssessmentTask
		err := rows.Scan(
			&task.ID,
			&task.PassageID,
			&task.ReferenceText,
			&task.Age,
			&task.AudioKey,
			&task.ElapsedSeconds,
			&task.Status,
			&task.OperationID,
			&task.Attempts,
			&task.ErrorText,
			&task.Meta,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// CreatePassage inserts a new reference passage
func (s *PostgresStorage) CreatePassage(ctx context.Context, passage *model.Passage) error {
	query := `
		INSERT INTO passages (id, title, text, word_count, min_age, max_age, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		passage.ID,
		passage.Title,
		passage.Text,
		passage.WordCount,
		passage.MinAge,
		passage.MaxAge,
		passage.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create passage: %w", err)
	}

	return nil
}

// GetPassageByID retrieves a passage by its ID
func (s *PostgresStorage) GetPassageByID(ctx context.Context, id string) (*model.Passage, error) {
	query := `
		SELECT id, title, text, word_count, min_age, max_age, created_at
		FROM passages
		WHERE id = $1`

	var passage model.Passage
	row := s.pool.QueryRow(ctx, query, id)

	err := row.Scan(
		&passage.ID,
		&passage.Title,
		&passage.Text,
		&passage.WordCount,
		&passage.MinAge,
		&passage.MaxAge,
		&passage.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("passage not found")
		}
		return nil, fmt.Errorf("failed to get passage: %w", err)
	}

	return &passage, nil
}

// ListPassagesForAge retrieves passages whose age range covers the reader
func (s *PostgresStorage) ListPassagesForAge(ctx context.Context, age int) ([]*model.Passage, error) {
	query := `
		SELECT id, title, text, word_count, min_age, max_age, created_at
		FROM passages
		WHERE min_age <= $1 AND max_age >= $1
		ORDER BY word_count ASC`

	rows, err := s.pool.Query(ctx, query, age)
	if err != nil {
		return nil, fmt.Errorf("failed to list passages: %w", err)
	}
	defer rows.Close()

	var passages []*model.Passage
	for rows.Next() {
		var passage model.Passage
		err := rows.Scan(
			&passage.ID,
			&passage.Title,
			&passage.Text,
			&passage.WordCount,
			&passage.MinAge,
			&passage.MaxAge,
			&passage.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, &passage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passages: %w", err)
	}

	return passages, nil
}

// DeletePassage removes a passage by ID
func (s *PostgresStorage) DeletePassage(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM passages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete passage: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("passage not found")
	}

	return nil
}
