package classifier_test

import (
	"project-portal/internal/classifier"
	"project-portal/internal/domain"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_ScriptCategory(t *testing.T) {
	t.Parallel()
	c := classifier.NewClassifier()

	tests := []struct {
		name       string
		scriptName string
		expected   domain.URLType
	}{
		{name: "production build", scriptName: "start:prod", expected: domain.URLProduction},
		{name: "staging", scriptName: "serve-staging", expected: domain.URLStaging},
		{name: "short staging", scriptName: "stag", expected: domain.URLStaging},
		{name: "dev server", scriptName: "dev", expected: domain.URLDevelopment},
		{name: "start", scriptName: "start", expected: domain.URLProduction},
		{name: "prod wins over dev", scriptName: "dev-prod", expected: domain.URLProduction},
		{name: "unrelated", scriptName: "preview", expected: domain.URLDevelopment},
		{name: "case sensitive", scriptName: "PROD", expected: domain.URLDevelopment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, c.ScriptCategory(tt.scriptName))
		})
	}
}

func TestClassifier_VariableCategory(t *testing.T) {
	t.Parallel()
	c := classifier.NewClassifier()

	tests := []struct {
		name     string
		varName  string
		fallback domain.URLType
		expected domain.URLType
	}{
		{name: "production", varName: "PROD_URL", fallback: domain.URLOther, expected: domain.URLProduction},
		{name: "development", varName: "DEV_API_URL", fallback: domain.URLOther, expected: domain.URLDevelopment},
		{name: "staging", varName: "STAGING_URL", fallback: domain.URLOther, expected: domain.URLStaging},
		{name: "demo", varName: "DemoUrl", fallback: domain.URLOther, expected: domain.URLDemo},
		{name: "prod before dev", varName: "PROD_DEV_URL", fallback: domain.URLOther, expected: domain.URLProduction},
		{name: "fallback", varName: "PUBLIC_URL", fallback: domain.URLStaging, expected: domain.URLStaging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, c.VariableCategory(tt.varName, tt.fallback))
		})
	}
}

func TestClassifier_PortVariable(t *testing.T) {
	t.Parallel()
	c := classifier.NewClassifier()

	tests := []struct {
		name          string
		varName       string
		expectedLabel string
		expectedType  domain.URLType
	}{
		{name: "frontend", varName: "PORT_FRONTEND", expectedLabel: "Frontend (.env: port 3001)", expectedType: domain.URLDevelopment},
		{name: "client", varName: "PORT_CLIENT", expectedLabel: "Frontend (.env: port 3001)", expectedType: domain.URLDevelopment},
		{name: "backend", varName: "PORT_BACKEND", expectedLabel: "Backend (.env: port 3001)", expectedType: domain.URLProduction},
		{name: "server", varName: "PORT_SERVER", expectedLabel: "Backend (.env: port 3001)", expectedType: domain.URLProduction},
		{name: "api", varName: "PORT_API", expectedLabel: "API (.env: port 3001)", expectedType: domain.URLProduction},
		{name: "docs", varName: "PORT_DOCS", expectedLabel: "Docs (.env: port 3001)", expectedType: domain.URLDevelopment},
		{name: "plain", varName: "PORT", expectedLabel: "PORT (.env: port 3001)", expectedType: domain.URLOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			label, urlType := c.PortVariable(tt.varName, ".env", 3001, domain.URLOther)
			assert.Equal(t, tt.expectedLabel, label)
			assert.Equal(t, tt.expectedType, urlType)
		})
	}
}

func TestPriority_Order(t *testing.T) {
	t.Parallel()
	types := []domain.URLType{
		"custom",
		domain.URLOther,
		domain.URLMain,
		domain.URLDemo,
		domain.URLDocker,
		domain.URLStaging,
		domain.URLDevelopment,
		domain.URLProduction,
	}

	sort.SliceStable(types, func(i, j int) bool {
		return classifier.Priority(types[i]) < classifier.Priority(types[j])
	})

	assert.Equal(t, []domain.URLType{
		domain.URLProduction,
		domain.URLDevelopment,
		domain.URLStaging,
		domain.URLDocker,
		domain.URLDemo,
		domain.URLMain,
		domain.URLOther,
		"custom",
	}, types)
}
