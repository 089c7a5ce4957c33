package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"project-portal/internal/domain"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO
)

// Store persists projects in SQLite through gorm
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the SQLite database at path and migrates the schema
func Open(path string, logger *zap.Logger) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// WAL keeps readers unblocked while the single writer commits
	if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA synchronous = NORMAL;").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	// SQLite only supports one writer at a time
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&domain.Project{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database initialized", zap.String("path", path))

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// ListProjects retrieves all projects sorted by name
func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %w", err)
	}
	return projects, nil
}

// ListEnabledProjects retrieves enabled projects sorted by name
func (s *Store) ListEnabledProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("name ASC, id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve enabled projects: %w", err)
	}
	return projects, nil
}

func (s *Store) GetProject(ctx context.Context, id uint) (*domain.Project, error) {
	var project domain.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve project: %w", err)
	}
	return &project, nil
}

func (s *Store) GetProjectByPath(ctx context.Context, directoryPath string) (*domain.Project, error) {
	var project domain.Project
	err := s.db.WithContext(ctx).Where("directory_path = ?", directoryPath).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve project: %w", err)
	}
	return &project, nil
}

// CreateProject inserts a new project and assigns its id
func (s *Store) CreateProject(ctx context.Context, project *domain.Project) error {
	if err := normalize(project); err != nil {
		return err
	}
	project.ID = 0

	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePath
		}
		return fmt.Errorf("failed to add project: %w", err)
	}
	return nil
}

// UpdateProject replaces every mutable field of an existing project
func (s *Store) UpdateProject(ctx context.Context, project *domain.Project) error {
	if err := normalize(project); err != nil {
		return err
	}

	existing, err := s.GetProject(ctx, project.ID)
	if err != nil {
		return err
	}
	project.CreatedAt = existing.CreatedAt

	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePath
		}
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&domain.Project{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleProject flips the enabled flag and returns the updated record
func (s *Store) ToggleProject(ctx context.Context, id uint) (*domain.Project, error) {
	var toggled *domain.Project
	err := s.WithinTransaction(ctx, func(tx domain.ProjectStore) error {
		project, err := tx.GetProject(ctx, id)
		if err != nil {
			return err
		}
		project.Enabled = !project.Enabled
		if err := tx.UpdateProject(ctx, project); err != nil {
			return err
		}
		toggled = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// CountProjects returns total and enabled counts
func (s *Store) CountProjects(ctx context.Context) (int64, int64, error) {
	var total, enabled int64
	if err := s.db.WithContext(ctx).Model(&domain.Project{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count projects: %w", err)
	}
	err := s.db.WithContext(ctx).Model(&domain.Project{}).Where("enabled = ?", true).Count(&enabled).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count enabled projects: %w", err)
	}
	return total, enabled, nil
}

// WithinTransaction runs fn against a store bound to a single transaction
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx domain.ProjectStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, logger: s.logger})
	})
}

// normalize fills defaults and rejects records the schema cannot hold
func normalize(project *domain.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidProject)
	}
	if strings.TrimSpace(project.DirectoryPath) == "" {
		return fmt.Errorf("%w: directory_path is required", domain.ErrInvalidProject)
	}
	if project.Port <= 0 || project.Port > 65535 {
		return fmt.Errorf("%w: port %d is out of range", domain.ErrInvalidProject, project.Port)
	}
	if project.FrontendPath == "" {
		project.FrontendPath = "/"
	}
	if project.SetupType == "" {
		project.SetupType = domain.SetupUnknown
	}
	if project.URLs == nil {
		project.URLs = []domain.URLEntry{}
	}
	return nil
}

// isUniqueViolation detects UNIQUE failures; the pure Go driver's errors are not translated by gorm
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
