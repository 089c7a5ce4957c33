package status_test

import (
	"context"
	"fmt"
	"project-portal/internal/deriver"
	"project-portal/internal/domain"
	"project-portal/internal/status"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProber is a mock implementation of the ReachabilityProber interface
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, host string, port int) bool {
	args := m.Called(ctx, host, port)
	return args.Bool(0)
}

func (m *MockProber) ProbeAll(ctx context.Context, candidates []domain.ProbeCandidate) []domain.ProbeResult {
	args := m.Called(ctx, candidates)
	if fn, ok := args.Get(0).(func([]domain.ProbeCandidate) []domain.ProbeResult); ok {
		return fn(candidates)
	}
	return args.Get(0).([]domain.ProbeResult)
}

func (m *MockProber) CacheSize() int {
	args := m.Called()
	return args.Int(0)
}

// onlineAt reports candidates listening on the given host:port pairs as online
func onlineAt(endpoints ...string) func([]domain.ProbeCandidate) []domain.ProbeResult {
	online := make(map[string]bool, len(endpoints))
	for _, endpoint := range endpoints {
		online[endpoint] = true
	}
	return func(candidates []domain.ProbeCandidate) []domain.ProbeResult {
		results := make([]domain.ProbeResult, len(candidates))
		for i, candidate := range candidates {
			results[i] = domain.ProbeResult{
				Candidate: candidate,
				Online:    online[fmt.Sprintf("%s:%d", candidate.Host, candidate.Port)],
			}
		}
		return results
	}
}

func testDeriver() *deriver.Deriver {
	return deriver.NewDeriver(deriver.Config{
		LANIP:         "192.168.1.5",
		VPNIP:         "10.8.0.2",
		ShowLocalhost: true,
		ShowLAN:       true,
		ShowVPN:       true,
	})
}

func testProject(id uint, enabled bool, frontendPath string, urls ...string) domain.Project {
	entries := make([]domain.URLEntry, 0, len(urls))
	for _, u := range urls {
		entries = append(entries, domain.URLEntry{Type: domain.URLDevelopment, URL: u})
	}
	return domain.Project{
		ID:            id,
		Name:          fmt.Sprintf("project-%d", id),
		DirectoryPath: fmt.Sprintf("/srv/project-%d", id),
		Port:          3000,
		Enabled:       enabled,
		URLs:          entries,
		FrontendPath:  frontendPath,
	}
}

func TestProjectStatus_DisabledIsNotProbed(t *testing.T) {
	t.Parallel()
	mockProber := &MockProber{}
	agg := status.NewAggregator(testDeriver(), mockProber, status.Config{ShowOffline: true}, zap.NewNop())

	view := agg.ProjectStatus(context.Background(), testProject(1, false, "/", "http://localhost:3000"))

	assert.False(t, view.Online)
	assert.Empty(t, view.PrimaryURL)
	require.Len(t, view.URLs, 3)
	for _, u := range view.URLs {
		assert.False(t, u.Online)
	}
	mockProber.AssertNotCalled(t, "ProbeAll", mock.Anything, mock.Anything)
}

func TestProjectStatus_PrimarySelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		networks     []domain.Network
		online       []string
		frontendPath string
		urls         []string
		expected     string
	}{
		{
			name:         "lan preferred",
			online:       []string{"192.168.1.5:3000", "localhost:3000", "10.8.0.2:3000"},
			frontendPath: "/app",
			urls:         []string{"http://localhost:3000"},
			expected:     "http://192.168.1.5:3000/app",
		},
		{
			name:     "vpn when lan is down",
			online:   []string{"10.8.0.2:3000", "localhost:3000"},
			urls:     []string{"http://localhost:3000"},
			expected: "http://10.8.0.2:3000",
		},
		{
			name:     "localhost last resort",
			online:   []string{"localhost:3000"},
			urls:     []string{"http://localhost:3000"},
			expected: "http://localhost:3000",
		},
		{
			name:         "external with trailing slash",
			online:       []string{"example.com:443"},
			frontendPath: "/",
			urls:         []string{"http://localhost:3000", "https://example.com/"},
			expected:     "https://example.com",
		},
		{
			name:     "first online entry within a network",
			online:   []string{"localhost:3001", "localhost:3002"},
			urls:     []string{"http://localhost:3000", "http://localhost:3001", "http://localhost:3002"},
			expected: "http://localhost:3001",
		},
		{
			name:     "configured order",
			networks: []domain.Network{domain.NetworkLocalhost, domain.NetworkLAN},
			online:   []string{"192.168.1.5:3000", "localhost:3000"},
			urls:     []string{"http://localhost:3000"},
			expected: "http://localhost:3000",
		},
		{
			name:     "network missing from order is never primary",
			networks: []domain.Network{domain.NetworkLAN},
			online:   []string{"localhost:3000"},
			urls:     []string{"http://localhost:3000"},
			expected: "",
		},
		{
			name:     "nothing online",
			urls:     []string{"http://localhost:3000"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mockProber := &MockProber{}
			mockProber.On("ProbeAll", mock.Anything, mock.Anything).Return(onlineAt(tt.online...))
			config := status.Config{PrimaryNetworks: tt.networks, ShowOffline: true}
			agg := status.NewAggregator(testDeriver(), mockProber, config, zap.NewNop())

			view := agg.ProjectStatus(context.Background(), testProject(1, true, tt.frontendPath, tt.urls...))

			assert.Equal(t, tt.expected, view.PrimaryURL)
			assert.Equal(t, len(tt.online) > 0, view.Online)
		})
	}
}

func TestProjectStatus_PerURLFlags(t *testing.T) {
	t.Parallel()
	mockProber := &MockProber{}
	mockProber.On("ProbeAll", mock.Anything, mock.MatchedBy(func(c []domain.ProbeCandidate) bool {
		return len(c) == 3
	})).Return(onlineAt("192.168.1.5:4000"))
	agg := status.NewAggregator(testDeriver(), mockProber, status.Config{ShowOffline: true}, zap.NewNop())

	project := testProject(7, true, "/", "http://localhost:4000", "ftp://files.example.com")
	view := agg.ProjectStatus(context.Background(), project)

	require.Len(t, view.URLs, 4)
	assert.Equal(t, domain.NetworkLocalhost, view.URLs[0].Network)
	assert.False(t, view.URLs[0].Online)
	assert.Equal(t, domain.NetworkLAN, view.URLs[1].Network)
	assert.True(t, view.URLs[1].Online)
	assert.False(t, view.URLs[2].Online)
	assert.Equal(t, "ftp://files.example.com", view.URLs[3].URL)
	assert.False(t, view.URLs[3].Online)
	assert.Equal(t, project, view.Project)
	mockProber.AssertExpectations(t)
}

func TestOverview(t *testing.T) {
	t.Parallel()
	projects := []domain.Project{
		testProject(1, true, "/", "http://localhost:3001"),
		testProject(2, true, "/", "http://localhost:3002"),
		testProject(3, false, "/", "http://localhost:3003"),
		testProject(4, true, "/", "http://localhost:3004"),
	}

	tests := []struct {
		name        string
		showOffline bool
		expectedIDs []uint
	}{
		{name: "show offline", showOffline: true, expectedIDs: []uint{1, 2, 3, 4}},
		{name: "hide offline", showOffline: false, expectedIDs: []uint{2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mockProber := &MockProber{}
			mockProber.On("ProbeAll", mock.Anything, mock.Anything).
				Return(onlineAt("localhost:3002", "localhost:3003", "192.168.1.5:3004"))
			config := status.Config{ShowOffline: tt.showOffline}
			agg := status.NewAggregator(testDeriver(), mockProber, config, zap.NewNop())

			views := agg.Overview(context.Background(), projects)

			ids := make([]uint, 0, len(views))
			for _, view := range views {
				ids = append(ids, view.Project.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
			mockProber.AssertNumberOfCalls(t, "ProbeAll", 3)
		})
	}
}

func TestOverview_OnlineOutsidePrimaryNetworks(t *testing.T) {
	t.Parallel()
	mockProber := &MockProber{}
	mockProber.On("ProbeAll", mock.Anything, mock.Anything).Return(onlineAt("localhost:3001"))
	config := status.Config{
		PrimaryNetworks: []domain.Network{domain.NetworkLAN, domain.NetworkVPN},
		ShowOffline:     false,
	}
	agg := status.NewAggregator(testDeriver(), mockProber, config, zap.NewNop())
	projects := []domain.Project{testProject(1, true, "/", "http://localhost:3001")}

	views := agg.Overview(context.Background(), projects)

	require.Len(t, views, 1)
	assert.True(t, views[0].Online)
	assert.Empty(t, views[0].PrimaryURL)
	assert.True(t, views[0].URLs[0].Online)
	assert.Empty(t, agg.Portal(context.Background(), projects))
}

func TestPortal_OnlyOnlineProjects(t *testing.T) {
	t.Parallel()
	mockProber := &MockProber{}
	mockProber.On("ProbeAll", mock.Anything, mock.Anything).Return(onlineAt("192.168.1.5:3002"))
	agg := status.NewAggregator(testDeriver(), mockProber, status.Config{ShowOffline: true}, zap.NewNop())

	views := agg.Portal(context.Background(), []domain.Project{
		testProject(1, true, "/", "http://localhost:3001"),
		testProject(2, true, "/admin", "http://localhost:3002"),
	})

	require.Len(t, views, 1)
	assert.Equal(t, uint(2), views[0].Project.ID)
	assert.Equal(t, "http://192.168.1.5:3002/admin", views[0].PrimaryURL)
}

func TestJoinFrontendPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base         string
		frontendPath string
		expected     string
	}{
		{base: "http://host:3000", frontendPath: "/", expected: "http://host:3000"},
		{base: "http://host:3000/", frontendPath: "", expected: "http://host:3000"},
		{base: "http://host:3000/", frontendPath: "/app", expected: "http://host:3000/app"},
		{base: "http://host:3000//", frontendPath: "/app", expected: "http://host:3000//app"},
		{base: "http://host:3000", frontendPath: "/dashboard/", expected: "http://host:3000/dashboard/"},
	}

	for _, tt := range tests {
		t.Run(tt.base+tt.frontendPath, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, status.JoinFrontendPath(tt.base, tt.frontendPath))
		})
	}
}
