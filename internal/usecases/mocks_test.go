package usecases_test

import (
	"context"
	"project-portal/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockProjectStore is a mock implementation of the ProjectStore interface
type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]domain.Project)
	return projects, args.Error(1)
}

func (m *MockProjectStore) ListEnabledProjects(ctx context.Context) ([]domain.Project, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]domain.Project)
	return projects, args.Error(1)
}

func (m *MockProjectStore) GetProject(ctx context.Context, id uint) (*domain.Project, error) {
	args := m.Called(ctx, id)
	project, _ := args.Get(0).(*domain.Project)
	return project, args.Error(1)
}

func (m *MockProjectStore) GetProjectByPath(ctx context.Context, directoryPath string) (*domain.Project, error) {
	args := m.Called(ctx, directoryPath)
	project, _ := args.Get(0).(*domain.Project)
	return project, args.Error(1)
}

func (m *MockProjectStore) CreateProject(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) UpdateProject(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) DeleteProject(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectStore) ToggleProject(ctx context.Context, id uint) (*domain.Project, error) {
	args := m.Called(ctx, id)
	project, _ := args.Get(0).(*domain.Project)
	return project, args.Error(1)
}

func (m *MockProjectStore) CountProjects(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// WithinTransaction runs fn against the mock itself
func (m *MockProjectStore) WithinTransaction(ctx context.Context, fn func(tx domain.ProjectStore) error) error {
	m.Called(ctx)
	return fn(m)
}

// MockProjectScanner is a mock implementation of the ProjectScanner interface
type MockProjectScanner struct {
	mock.Mock
}

func (m *MockProjectScanner) Scan(ctx context.Context, dir string) ([]domain.ProjectInfo, error) {
	args := m.Called(ctx, dir)
	projects, _ := args.Get(0).([]domain.ProjectInfo)
	return projects, args.Error(1)
}

func (m *MockProjectScanner) Analyze(ctx context.Context, path, name string) domain.ProjectInfo {
	args := m.Called(ctx, path, name)
	return args.Get(0).(domain.ProjectInfo)
}
