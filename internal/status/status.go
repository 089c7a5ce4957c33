package status

import (
	"context"
	"project-portal/internal/domain"
	"project-portal/internal/prober"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultPrimaryNetworks is the order in which a primary URL is looked for
var DefaultPrimaryNetworks = []domain.Network{
	domain.NetworkLAN,
	domain.NetworkVPN,
	domain.NetworkLocalhost,
	domain.NetworkExternal,
}

// Config controls status presentation
type Config struct {
	PrimaryNetworks []domain.Network
	ShowOffline     bool
}

// Aggregator combines URL expansion and reachability probes into project views
type Aggregator struct {
	deriver domain.URLDeriver
	prober  domain.ReachabilityProber
	config  Config
	logger  *zap.Logger
}

// NewAggregator creates a new status aggregator
func NewAggregator(
	deriver domain.URLDeriver,
	prober domain.ReachabilityProber,
	config Config,
	logger *zap.Logger,
) *Aggregator {
	if len(config.PrimaryNetworks) == 0 {
		config.PrimaryNetworks = DefaultPrimaryNetworks
	}
	return &Aggregator{
		deriver: deriver,
		prober:  prober,
		config:  config,
		logger:  logger,
	}
}

// ProjectStatus probes every expanded URL of an enabled project.
// Disabled projects are reported offline without touching the network.
func (a *Aggregator) ProjectStatus(ctx context.Context, project domain.Project) domain.ProjectView {
	expanded := a.deriver.Expand(project.URLs)
	view := domain.ProjectView{
		Project: project,
		URLs:    make([]domain.URLStatus, len(expanded)),
	}
	for i, entry := range expanded {
		view.URLs[i] = domain.URLStatus{URLEntry: entry}
	}

	if !project.Enabled {
		return view
	}

	var candidates []domain.ProbeCandidate
	var indexes []int
	for i, entry := range expanded {
		host, port, ok := prober.Endpoint(entry.URL)
		if !ok {
			a.logger.Debug("Skipping URL without endpoint",
				zap.Uint("project_id", project.ID),
				zap.String("url", entry.URL))
			continue
		}
		candidates = append(candidates, domain.ProbeCandidate{Host: host, Port: port, Entry: entry})
		indexes = append(indexes, i)
	}

	for i, result := range a.prober.ProbeAll(ctx, candidates) {
		view.URLs[indexes[i]].Online = result.Online
		view.Online = view.Online || result.Online
	}

	if primary := a.primaryURL(view.URLs); primary != "" {
		view.PrimaryURL = JoinFrontendPath(primary, project.FrontendPath)
	}

	return view
}

// Overview returns views for all projects, probed concurrently, in input order
func (a *Aggregator) Overview(ctx context.Context, projects []domain.Project) []domain.ProjectView {
	views := a.statusAll(ctx, projects)
	if a.config.ShowOffline {
		return views
	}

	filtered := make([]domain.ProjectView, 0, len(views))
	for _, view := range views {
		if view.Online {
			filtered = append(filtered, view)
		}
	}
	return filtered
}

// Portal returns only the projects that can be opened right now
func (a *Aggregator) Portal(ctx context.Context, projects []domain.Project) []domain.ProjectView {
	views := a.statusAll(ctx, projects)

	online := make([]domain.ProjectView, 0, len(views))
	for _, view := range views {
		if view.Online && view.PrimaryURL != "" {
			online = append(online, view)
		}
	}
	return online
}

func (a *Aggregator) statusAll(ctx context.Context, projects []domain.Project) []domain.ProjectView {
	views := make([]domain.ProjectView, len(projects))

	var wg sync.WaitGroup
	for i, project := range projects {
		wg.Add(1)
		go func(i int, project domain.Project) {
			defer wg.Done()
			views[i] = a.ProjectStatus(ctx, project)
		}(i, project)
	}
	wg.Wait()

	return views
}

// primaryURL picks the first online entry of the most preferred network
func (a *Aggregator) primaryURL(urls []domain.URLStatus) string {
	for _, network := range a.config.PrimaryNetworks {
		for _, status := range urls {
			if status.Online && status.Network == network {
				return status.URL
			}
		}
	}
	return ""
}

// JoinFrontendPath appends a project's frontend path to its base URL
func JoinFrontendPath(base, frontendPath string) string {
	base = strings.TrimSuffix(base, "/")
	if frontendPath == "" || frontendPath == "/" {
		return base
	}
	return base + frontendPath
}
