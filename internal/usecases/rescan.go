package usecases

import (
	"context"
	"fmt"
	"project-portal/internal/domain"
	"slices"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Default number of workers for concurrent project re-analysis
const defaultRescanWorkers = 4

// RescanResponse represents the result of a rescan
type RescanResponse struct {
	TotalProjects int `json:"total_projects"`
	Updated       int `json:"updated"`
	Unchanged     int `json:"unchanged"`
	Errors        int `json:"errors"`
}

// RescanUseCase re-analyzes every stored project and refreshes its detected URLs
type RescanUseCase struct {
	store   domain.ProjectStore
	scanner domain.ProjectScanner
	fs      afero.Fs
	workers int
	logger  *zap.Logger
}

// NewRescanUseCase creates a new rescan use case with dependency injection
func NewRescanUseCase(
	store domain.ProjectStore,
	scanner domain.ProjectScanner,
	fs afero.Fs,
	workers int,
	logger *zap.Logger,
) *RescanUseCase {
	if workers <= 0 {
		workers = defaultRescanWorkers
	}
	return &RescanUseCase{
		store:   store,
		scanner: scanner,
		fs:      fs,
		workers: workers,
		logger:  logger,
	}
}

// Execute runs the rescan; per-project failures are counted, not returned
func (uc *RescanUseCase) Execute(ctx context.Context) (*RescanResponse, error) {
	projects, err := uc.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for rescan: %w", err)
	}

	uc.logger.Info("Starting concurrent project rescan",
		zap.Int("total_projects", len(projects)),
		zap.Int("workers", uc.workers))

	response := &RescanResponse{TotalProjects: len(projects)}
	var mu sync.Mutex

	projectChan := make(chan domain.Project, len(projects))

	var wg sync.WaitGroup
	for i := 0; i < uc.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for project := range projectChan {
				uc.logger.Debug("Rescanning project in worker",
					zap.Int("worker_id", workerID),
					zap.Uint("project_id", project.ID),
					zap.String("project_name", project.Name))

				changed, err := uc.rescanProject(ctx, project)

				mu.Lock()
				switch {
				case err != nil:
					response.Errors++
				case changed:
					response.Updated++
				default:
					response.Unchanged++
				}
				mu.Unlock()

				if err != nil {
					uc.logger.Error("Failed to rescan project",
						zap.Uint("project_id", project.ID),
						zap.String("project_name", project.Name),
						zap.Error(err))
				}
			}
		}(i)
	}

	for _, project := range projects {
		projectChan <- project
	}
	close(projectChan)

	wg.Wait()

	uc.logger.Info("Completed project rescan",
		zap.Int("updated", response.Updated),
		zap.Int("unchanged", response.Unchanged),
		zap.Int("errors", response.Errors))

	return response, nil
}

// rescanProject reports whether the stored record was rewritten
func (uc *RescanUseCase) rescanProject(ctx context.Context, project domain.Project) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	exists, err := afero.DirExists(uc.fs, project.DirectoryPath)
	if err != nil {
		return false, fmt.Errorf("failed to stat project directory: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("project directory %s does not exist", project.DirectoryPath)
	}

	info := uc.scanner.Analyze(ctx, project.DirectoryPath, project.Name)

	updated := project
	updated.URLs = info.URLs
	updated.Description = firstNonEmpty(info.Description, project.Description)
	updated.SetupType = firstSetupType(info.SetupType, project.SetupType)
	if len(info.Ports) > 0 {
		updated.Port = info.Ports[0]
	}
	if sameAnalysis(project, updated) {
		return false, nil
	}
	project = updated

	if err := uc.store.UpdateProject(ctx, &project); err != nil {
		return false, err
	}

	uc.logger.Info("Updated project URLs",
		zap.Uint("project_id", project.ID),
		zap.String("project_name", project.Name),
		zap.Int("urls", len(project.URLs)))

	return true, nil
}

func sameAnalysis(stored, fresh domain.Project) bool {
	return stored.Port == fresh.Port &&
		stored.Description == fresh.Description &&
		stored.SetupType == fresh.SetupType &&
		slices.Equal(stored.URLs, fresh.URLs)
}
