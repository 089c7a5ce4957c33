package usecases

import (
	"context"
	"errors"
	"fmt"
	"project-portal/internal/domain"

	"go.uber.org/zap"
)

// ImportResponse represents the result of an import
type ImportResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ImportUseCase upserts scanned or exported projects by directory path
type ImportUseCase struct {
	store       domain.ProjectStore
	defaultPort int
	logger      *zap.Logger
}

// NewImportUseCase creates a new import use case with dependency injection
func NewImportUseCase(store domain.ProjectStore, defaultPort int, logger *zap.Logger) *ImportUseCase {
	if defaultPort <= 0 {
		defaultPort = 3000
	}
	return &ImportUseCase{
		store:       store,
		defaultPort: defaultPort,
		logger:      logger,
	}
}

// Execute applies every project in one transaction; any failure leaves the store untouched
func (uc *ImportUseCase) Execute(ctx context.Context, projects []domain.ProjectInfo) (*ImportResponse, error) {
	uc.logger.Info("Starting project import", zap.Int("projects", len(projects)))

	response := &ImportResponse{}
	err := uc.store.WithinTransaction(ctx, func(tx domain.ProjectStore) error {
		for i := range projects {
			created, err := uc.upsert(ctx, tx, &projects[i])
			if err != nil {
				return fmt.Errorf("failed to import project %s: %w", projects[i].DirectoryPath, err)
			}
			if created {
				response.Created++
			} else {
				response.Updated++
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("Project import rolled back", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Project import completed",
		zap.Int("created", response.Created),
		zap.Int("updated", response.Updated))

	return response, nil
}

// upsert reports whether a new record was created
func (uc *ImportUseCase) upsert(ctx context.Context, tx domain.ProjectStore, info *domain.ProjectInfo) (bool, error) {
	urls := info.URLs
	if urls == nil {
		urls = []domain.URLEntry{}
	}

	existing, err := tx.GetProjectByPath(ctx, info.DirectoryPath)
	if errors.Is(err, domain.ErrNotFound) {
		project := &domain.Project{
			Name:          info.Name,
			Description:   info.Description,
			DirectoryPath: info.DirectoryPath,
			Port:          uc.port(info),
			Enabled:       true,
			SetupType:     firstSetupType(info.SetupType, domain.SetupUnknown),
			URLs:          urls,
			FrontendPath:  firstNonEmpty(info.FrontendPath, "/"),
		}
		if info.Enabled != nil {
			project.Enabled = *info.Enabled
		}
		if err := tx.CreateProject(ctx, project); err != nil {
			return false, err
		}
		uc.logger.Debug("Created project", zap.String("name", project.Name), zap.Uint("id", project.ID))
		return true, nil
	}
	if err != nil {
		return false, err
	}

	existing.Name = info.Name
	existing.Description = firstNonEmpty(info.Description, existing.Description)
	existing.Port = uc.port(info)
	existing.SetupType = firstSetupType(info.SetupType, existing.SetupType)
	existing.URLs = urls
	existing.FrontendPath = firstNonEmpty(info.FrontendPath, existing.FrontendPath)
	if info.Enabled != nil {
		existing.Enabled = *info.Enabled
	}
	if err := tx.UpdateProject(ctx, existing); err != nil {
		return false, err
	}
	uc.logger.Debug("Updated project", zap.String("name", existing.Name), zap.Uint("id", existing.ID))
	return false, nil
}

// port picks the first scanned port, then an explicit port, then the default
func (uc *ImportUseCase) port(info *domain.ProjectInfo) int {
	if len(info.Ports) > 0 {
		return info.Ports[0]
	}
	if info.Port > 0 {
		return info.Port
	}
	return uc.defaultPort
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstSetupType(values ...domain.SetupType) domain.SetupType {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return domain.SetupUnknown
}
