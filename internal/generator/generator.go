package generator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"project-portal/internal/domain"
	"sort"
	"strconv"
	"strings"
)

// Format selects the export encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a user-supplied export format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Generator writes project exports to a file
type Generator struct {
	outputPath string
}

// NewGenerator creates a new export generator
func NewGenerator(outputPath string) *Generator {
	return &Generator{
		outputPath: outputPath,
	}
}

// OutputPath returns the output path for the export
func (g *Generator) OutputPath() string {
	return g.outputPath
}

// ExportJSON renders projects in the interchange format accepted by parser.ImportJSON
func ExportJSON(projects []domain.ProjectInfo) (string, error) {
	if projects == nil {
		projects = []domain.ProjectInfo{}
	}
	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode projects: %w", err)
	}
	return string(data), nil
}

// WriteJSON writes the interchange JSON followed by a newline
func WriteJSON(ctx context.Context, w io.Writer, projects []domain.ProjectInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := ExportJSON(projects)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, content+"\n"); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}

// WriteCSV writes one row per project
func WriteCSV(ctx context.Context, w io.Writer, projects []domain.ProjectInfo) error {
	writer := csv.NewWriter(w)

	header := []string{
		"ID",
		"Name",
		"Description",
		"Directory Path",
		"Setup Type",
		"Port",
		"Enabled",
		"Frontend Path",
		"URLs",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}

		enabled := ""
		if project.Enabled != nil {
			enabled = strconv.FormatBool(*project.Enabled)
		}
		id := ""
		if project.ID != 0 {
			id = strconv.FormatUint(uint64(project.ID), 10)
		}

		record := []string{
			id,
			project.Name,
			project.Description,
			project.DirectoryPath,
			string(project.SetupType),
			strconv.Itoa(primaryPort(project)),
			enabled,
			project.FrontendPath,
			joinURLs(project.URLs),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Generate writes projects to the output path in the given format
func (g *Generator) Generate(ctx context.Context, format Format, projects []domain.ProjectInfo) error {
	// Create output directory if it doesn't exist
	dir := filepath.Dir(g.outputPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(g.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatCSV:
		err = WriteCSV(ctx, file, projects)
	default:
		err = WriteJSON(ctx, file, projects)
	}
	if err != nil {
		return err
	}

	return file.Close()
}

// GenerateSummary returns aggregate statistics about the exported projects
func GenerateSummary(projects []domain.ProjectInfo) map[string]interface{} {
	setupTypes := make(map[string]int)
	enabled := 0
	totalURLs := 0

	for _, project := range projects {
		setupTypes[string(project.SetupType)]++
		if project.Enabled == nil || *project.Enabled {
			enabled++
		}
		totalURLs += len(project.URLs)
	}

	return map[string]interface{}{
		"total_projects":   len(projects),
		"enabled_projects": enabled,
		"total_urls":       totalURLs,
		"setup_types":      setupTypes,
	}
}

func primaryPort(project domain.ProjectInfo) int {
	if len(project.Ports) > 0 {
		return project.Ports[0]
	}
	return project.Port
}

// joinURLs flattens entries into "type=url" pairs in a stable order
func joinURLs(urls []domain.URLEntry) string {
	parts := make([]string, 0, len(urls))
	for _, entry := range urls {
		parts = append(parts, string(entry.Type)+"="+entry.URL)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
