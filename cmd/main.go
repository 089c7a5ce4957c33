package main

import (
	"fmt"
	"os"
	"os/signal"
	"project-portal/internal/config"
	"project-portal/internal/deriver"
	"project-portal/internal/domain"
	"project-portal/internal/generator"
	"project-portal/internal/logger"
	"project-portal/internal/parser"
	"project-portal/internal/prober"
	"project-portal/internal/scanner"
	"project-portal/internal/server"
	"project-portal/internal/status"
	"project-portal/internal/store"
	"project-portal/internal/usecases"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// options carries flag values for one command tree
type options struct {
	configFile string
	envFile    string
	debug      bool
	importScan bool
	format     string
	output     string
}

// app holds the wired components shared by the subcommands
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      *store.Store
	prober     *prober.Prober
	scanner    *scanner.Scanner
	aggregator *status.Aggregator
	importer   *usecases.ImportUseCase
	rescanner  *usecases.RescanUseCase
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Project Portal - register, monitor and proxy locally-hosted web applications",
		Long: `A small portal that discovers locally-hosted web applications by scanning their
directories, tracks whether their ports are reachable, and reverse-proxies browser
traffic to them under /project/{id}/.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file loaded before configuration")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging with verbose output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portal HTTP API and project proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	scanCmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Scan a directory for projects and print what was detected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0])
		},
	}
	scanCmd.Flags().BoolVar(&opts.importScan, "import", false, "Import the scan result into the store")

	rescanCmd := &cobra.Command{
		Use:   "rescan",
		Short: "Re-analyze every stored project and refresh its URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRescan(cmd, opts)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import projects from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored projects as JSON or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}
	exportCmd.Flags().StringVarP(&opts.format, "format", "f", string(generator.FormatJSON), "Export format (json or csv)")
	exportCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (defaults to stdout)")

	rootCmd.AddCommand(serveCmd, scanCmd, rescanCmd, importCmd, exportCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, configuration and sets up logging
func loadConfig(opts *options) (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	// Debug flag overrides the configured level
	if opts.debug {
		level = zap.DebugLevel
	}
	logger.SetLevel(level)

	l := logger.GetLogger()
	if cfg.Logging.File != "" {
		l, err = logger.EnableFile(logger.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to enable file logging: %w", err)
		}
	}

	return cfg, l, nil
}

// newApp opens the store and wires every component with dependency injection
func newApp(cfg *config.Config, l *zap.Logger, fs afero.Fs) (*app, error) {
	projectStore, err := store.Open(cfg.Database.Path, l)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	reachability := prober.New(
		prober.WithTimeout(cfg.Probe.Timeout()),
		prober.WithCacheTTL(cfg.Probe.CacheTTL()),
		prober.WithDefaultHost(cfg.Probe.DefaultHost),
		prober.WithLogger(l),
	)

	urlDeriver := deriver.NewDeriver(deriver.Config{
		LANIP:         cfg.Network.LANIP,
		VPNIP:         cfg.Network.VPNIP,
		ShowLocalhost: cfg.Network.ShowLocalhost,
		ShowLAN:       cfg.Network.ShowLAN,
		ShowVPN:       cfg.Network.ShowVPN,
	})

	aggregator := status.NewAggregator(urlDeriver, reachability, status.Config{
		PrimaryNetworks: cfg.Status.Networks(),
		ShowOffline:     cfg.Status.ShowOffline,
	}, l)

	projectScanner := scanner.NewScanner(fs, scanner.Config{
		DefaultPort:            cfg.Scanner.DefaultPort,
		ProcessManagerOverride: cfg.Scanner.ProcessManagerOverride,
		Workers:                cfg.Scanner.Workers,
	}, l)

	return &app{
		cfg:        cfg,
		logger:     l,
		store:      projectStore,
		prober:     reachability,
		scanner:    projectScanner,
		aggregator: aggregator,
		importer:   usecases.NewImportUseCase(projectStore, cfg.Scanner.DefaultPort, l),
		rescanner:  usecases.NewRescanUseCase(projectStore, projectScanner, fs, cfg.Rescan.Workers, l),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", zap.Error(err))
	}
	_ = logger.Close()
}

func setup(opts *options) (*app, error) {
	cfg, l, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, l, afero.NewOsFs())
}

func runServe(cmd *cobra.Command, opts *options) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Dependencies{
		Store:      a.store,
		Scanner:    a.scanner,
		Prober:     a.prober,
		Aggregator: a.aggregator,
		Importer:   a.importer,
		Rescanner:  a.rescanner,
	}, server.Config{
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		UpstreamHost: a.cfg.Proxy.UpstreamHost,
		CacheTTL:     a.prober.CacheTTL(),
		Version:      version,
	}, a.logger)

	a.logger.Info("Starting project portal",
		zap.String("address", a.cfg.Server.Address()),
		zap.String("database", a.cfg.Database.Path),
		zap.String("version", version))

	if err := srv.Run(ctx, a.cfg.Server.Address()); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func runScan(cmd *cobra.Command, opts *options, dir string) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	projects, err := a.scanner.Scan(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	text, err := generator.ExportJSON(projects)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if !opts.importScan {
		return nil
	}

	response, err := a.importer.Execute(ctx, projects)
	if err != nil {
		return fmt.Errorf("failed to import scan result: %w", err)
	}
	a.logger.Info("Scan result imported",
		zap.Int("created", response.Created),
		zap.Int("updated", response.Updated))
	return nil
}

func runRescan(cmd *cobra.Command, opts *options) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	response, err := a.rescanner.Execute(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to rescan projects: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rescanned %d projects\n", response.TotalProjects)
	fmt.Fprintf(out, "  • Updated: %d\n", response.Updated)
	fmt.Fprintf(out, "  • Unchanged: %d\n", response.Unchanged)
	fmt.Fprintf(out, "  • Errors: %d\n", response.Errors)
	return nil
}

func runImport(cmd *cobra.Command, opts *options, path string) error {
	a, err := setup(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	projects, err := parser.ImportJSON(string(content))
	if err != nil {
		return err
	}

	response, err := a.importer.Execute(cmd.Context(), projects)
	if err != nil {
		return fmt.Errorf("failed to import projects: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects (%d created, %d updated)\n",
		response.Created+response.Updated, response.Created, response.Updated)
	return nil
}

func runExport(cmd *cobra.Command, opts *options) error {
	format, err := generator.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	a, err := setup(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	projects, err := a.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	infos := make([]domain.ProjectInfo, 0, len(projects))
	for _, project := range projects {
		infos = append(infos, domain.InfoFromProject(project))
	}

	a.logger.Info("Exporting projects", zap.Any("summary", generator.GenerateSummary(infos)))

	if opts.output == "" {
		if format == generator.FormatCSV {
			return generator.WriteCSV(ctx, cmd.OutOrStdout(), infos)
		}
		return generator.WriteJSON(ctx, cmd.OutOrStdout(), infos)
	}

	exportGenerator := generator.NewGenerator(opts.output)
	if err := exportGenerator.Generate(ctx, format, infos); err != nil {
		return fmt.Errorf("failed to export projects: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d projects to %s\n", len(infos), exportGenerator.OutputPath())
	return nil
}
