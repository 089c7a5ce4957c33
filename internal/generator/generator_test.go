package generator_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"project-portal/internal/domain"
	"project-portal/internal/generator"
	"project-portal/internal/parser"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool {
	return &b
}

func createTestProjects() []domain.ProjectInfo {
	return []domain.ProjectInfo{
		{
			ID:            1,
			Name:          "dashboard",
			Description:   "Ops dashboard, \"beta\"",
			DirectoryPath: "/srv/dashboard",
			SetupType:     domain.SetupNextJS,
			Port:          3000,
			URLs: []domain.URLEntry{
				{Type: domain.URLDevelopment, URL: "http://localhost:3000", Label: "Next.js Dev (port 3000)", Port: 3000},
				{Type: domain.URLProduction, URL: "https://dash.example.com", Label: "PROD_URL", Source: ".env"},
			},
			Enabled:      boolPtr(true),
			FrontendPath: "/",
		},
		{
			Name:          "wiki",
			DirectoryPath: "/srv/wiki",
			SetupType:     domain.SetupPythonFlask,
			Ports:         []int{5000, 5001},
			URLs:          []domain.URLEntry{},
			Enabled:       boolPtr(false),
			FrontendPath:  "/docs",
		},
	}
}

func TestNewGenerator(t *testing.T) {
	t.Parallel()
	outputPath := "/tmp/projects-export.json"
	gen := generator.NewGenerator(outputPath)

	assert.NotNil(t, gen)
	assert.Equal(t, outputPath, gen.OutputPath())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected generator.Format
		wantErr  bool
	}{
		{input: "json", expected: generator.FormatJSON},
		{input: "CSV", expected: generator.FormatCSV},
		{input: "html", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			format, err := generator.ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestExportJSON_RoundTrip(t *testing.T) {
	t.Parallel()
	projects := createTestProjects()

	content, err := generator.ExportJSON(projects)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "[\n  {"))

	imported, err := parser.ImportJSON(content)
	require.NoError(t, err)
	assert.Equal(t, projects, imported)
}

func TestExportJSON_Empty(t *testing.T) {
	t.Parallel()

	content, err := generator.ExportJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", content)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := generator.WriteJSON(context.Background(), &buf, createTestProjects())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(buf.String(), "]\n"))
	assert.Contains(t, buf.String(), `"directory_path": "/srv/wiki"`)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := generator.WriteCSV(context.Background(), &buf, createTestProjects())
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"ID", "Name", "Description", "Directory Path", "Setup Type", "Port", "Enabled", "Frontend Path", "URLs",
	}, records[0])
	assert.Equal(t, []string{
		"1", "dashboard", "Ops dashboard, \"beta\"", "/srv/dashboard", "nextjs", "3000", "true", "/",
		"development=http://localhost:3000 production=https://dash.example.com",
	}, records[1])
	assert.Equal(t, []string{
		"", "wiki", "", "/srv/wiki", "python-flask", "5000", "false", "/docs", "",
	}, records[2])
}

func TestWriteCSV_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := generator.WriteCSV(ctx, &bytes.Buffer{}, createTestProjects())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_WritesFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   generator.Format
		fileName string
		contains string
	}{
		{name: "json", format: generator.FormatJSON, fileName: "out/projects.json", contains: `"name": "dashboard"`},
		{name: "csv", format: generator.FormatCSV, fileName: "out/projects.csv", contains: "dashboard,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			outputPath := filepath.Join(t.TempDir(), tt.fileName)
			gen := generator.NewGenerator(outputPath)

			err := gen.Generate(context.Background(), tt.format, createTestProjects())
			require.NoError(t, err)

			content, err := os.ReadFile(outputPath)
			require.NoError(t, err)
			assert.Contains(t, string(content), tt.contains)
		})
	}
}

func TestGenerateSummary(t *testing.T) {
	t.Parallel()
	projects := append(createTestProjects(), domain.ProjectInfo{
		Name:          "fresh",
		DirectoryPath: "/srv/fresh",
		SetupType:     domain.SetupNextJS,
	})

	summary := generator.GenerateSummary(projects)

	assert.Equal(t, 3, summary["total_projects"])
	assert.Equal(t, 2, summary["enabled_projects"])
	assert.Equal(t, 2, summary["total_urls"])
	assert.Equal(t, map[string]int{"nextjs": 2, "python-flask": 1}, summary["setup_types"])
}
