package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"project-portal/internal/classifier"
	"project-portal/internal/domain"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// Default number of workers for concurrent directory analysis
	defaultWorkers = 4
	// Port assumed when nothing in the directory names one
	defaultProjectPort = 3000
)

// Config tunes the scanner heuristics
type Config struct {
	DefaultPort int
	// ProcessManagerOverride makes a pm2 config win over every earlier detection
	ProcessManagerOverride bool
	Workers                int
}

// Scanner inspects project directories and guesses how they are served
type Scanner struct {
	fs         afero.Fs
	classifier *classifier.Classifier
	config     Config
	logger     *zap.Logger
}

// NewScanner creates a new project scanner
func NewScanner(fs afero.Fs, config Config, logger *zap.Logger) *Scanner {
	if config.DefaultPort <= 0 {
		config.DefaultPort = defaultProjectPort
	}
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}

	return &Scanner{
		fs:         fs,
		classifier: classifier.NewClassifier(),
		config:     config,
		logger:     logger,
	}
}

// Scan analyzes every immediate, non-hidden subdirectory of dir in name order
func (s *Scanner) Scan(ctx context.Context, dir string) ([]domain.ProjectInfo, error) {
	s.logger.Info("Scanning directory for projects", zap.String("path", dir))

	stat, err := s.fs.Stat(dir)
	if err != nil {
		return nil, &domain.ScanError{Path: dir, Err: err}
	}
	if !stat.IsDir() {
		return nil, &domain.ScanError{Path: dir, Err: errors.New("not a directory")}
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, &domain.ScanError{Path: dir, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}

	projects := s.analyzeConcurrently(ctx, dir, names)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan of %s interrupted: %w", dir, err)
	}

	s.logger.Info("Directory scan completed",
		zap.String("path", dir),
		zap.Int("project_count", len(projects)))

	return projects, nil
}

// analyzeConcurrently runs Analyze on a worker pool; result i belongs to names[i]
func (s *Scanner) analyzeConcurrently(ctx context.Context, dir string, names []string) []domain.ProjectInfo {
	projects := make([]domain.ProjectInfo, len(names))
	if len(names) == 0 {
		return projects
	}

	workers := s.config.Workers
	if len(names) < workers {
		workers = len(names)
	}

	jobs := make(chan int, len(names))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				s.logger.Debug("Analyzing project in worker",
					zap.Int("worker_id", workerID),
					zap.String("project_name", names[idx]))
				projects[idx] = s.Analyze(ctx, filepath.Join(dir, names[idx]), names[idx])
			}
		}(i)
	}

	for i := range names {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return projects
}

// Analyze infers setup type, ports and URLs for one project directory.
// Unreadable files are logged and skipped; the result is always usable.
func (s *Scanner) Analyze(ctx context.Context, path, name string) domain.ProjectInfo {
	a := &analysis{
		info: domain.ProjectInfo{
			Name:          name,
			DirectoryPath: path,
			SetupType:     domain.SetupUnknown,
			Ports:         []int{},
			URLs:          []domain.URLEntry{},
		},
		dir:     path,
		scanner: s,
	}

	hasPackageJSON := a.exists("package.json")
	if hasPackageJSON {
		a.detectPackageJSON()
	}
	a.detectContainers()
	a.detectProcessManager()
	if !hasPackageJSON {
		a.detectPython()
	}
	a.detectEnvFiles()
	a.detectServerFiles()
	a.detectMakefile()
	a.detectReadme()

	a.finalize(s.config.DefaultPort)

	s.logger.Debug("Analyzed project",
		zap.String("project_name", name),
		zap.String("setup_type", string(a.info.SetupType)),
		zap.Ints("ports", a.info.Ports),
		zap.Int("url_count", len(a.info.URLs)))

	return a.info
}

// analysis accumulates findings for a single directory
type analysis struct {
	info    domain.ProjectInfo
	dir     string
	scanner *Scanner
}

func (a *analysis) exists(file string) bool {
	ok, err := afero.Exists(a.scanner.fs, filepath.Join(a.dir, file))
	return err == nil && ok
}

// read returns file content; missing files are silent, other failures are logged
func (a *analysis) read(file string) (string, bool) {
	content, err := afero.ReadFile(a.scanner.fs, filepath.Join(a.dir, file))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.scanner.logger.Warn("Failed to read project file",
				zap.String("project_name", a.info.Name),
				zap.String("file", file),
				zap.Error(err))
		}
		return "", false
	}
	return string(content), true
}

func (a *analysis) hasPort(port int) bool {
	for _, p := range a.info.Ports {
		if p == port {
			return true
		}
	}
	return false
}

// addPort records a port once
func (a *analysis) addPort(port int) {
	if !a.hasPort(port) {
		a.info.Ports = append(a.info.Ports, port)
	}
}

func (a *analysis) addURL(entry domain.URLEntry) {
	a.info.URLs = append(a.info.URLs, entry)
}

// canOverrideSetup reports whether a container or process-manager hint may replace the setup type
func (a *analysis) canOverrideSetup() bool {
	return a.info.SetupType == domain.SetupUnknown || a.info.SetupType == domain.SetupNode
}
