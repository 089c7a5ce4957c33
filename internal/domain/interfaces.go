package domain

import "context"

type ProjectStore interface {
	// returns every project ordered by name
	ListProjects(ctx context.Context) ([]Project, error)

	// returns enabled projects ordered by name
	ListEnabledProjects(ctx context.Context) ([]Project, error)

	// returns ErrNotFound when no record has the id
	GetProject(ctx context.Context, id uint) (*Project, error)

	// returns ErrNotFound when no record has the directory path
	GetProjectByPath(ctx context.Context, directoryPath string) (*Project, error)

	// returns ErrDuplicatePath when the directory path is already registered
	CreateProject(ctx context.Context, project *Project) error

	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id uint) error

	// flips the enabled flag and returns the updated record
	ToggleProject(ctx context.Context, id uint) (*Project, error)

	// returns total and enabled project counts
	CountProjects(ctx context.Context) (int64, int64, error)

	Ping(ctx context.Context) error

	// runs fn against a store bound to one transaction; an error rolls everything back
	WithinTransaction(ctx context.Context, fn func(tx ProjectStore) error) error
}

type ProjectScanner interface {
	// analyzes every immediate, non-hidden subdirectory of dir
	Scan(ctx context.Context, dir string) ([]ProjectInfo, error)

	// best-effort analysis of a single project directory, never fails
	Analyze(ctx context.Context, path, name string) ProjectInfo
}

type ReachabilityProber interface {
	// checks a single host:port, folding every failure into false
	Probe(ctx context.Context, host string, port int) bool

	// probes all candidates concurrently; result i belongs to candidate i
	ProbeAll(ctx context.Context, candidates []ProbeCandidate) []ProbeResult

	CacheSize() int
}

type URLDeriver interface {
	// expands loopback URLs into network-scoped variants
	Expand(urls []URLEntry) []URLEntry
}

type StatusAggregator interface {
	// expands, probes and picks the primary URL for one project
	ProjectStatus(ctx context.Context, project Project) ProjectView

	// statuses for many projects, honouring the show-offline setting
	Overview(ctx context.Context, projects []Project) []ProjectView

	// online projects with a primary URL only
	Portal(ctx context.Context, projects []Project) []ProjectView
}
