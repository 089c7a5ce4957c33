package classifier

import (
	"fmt"
	"project-portal/internal/domain"
	"strings"
)

// rule assigns a category when a name contains any of its patterns
type rule struct {
	patterns []string
	urlType  domain.URLType
}

// portRule names and categorizes a PORT_* variable
type portRule struct {
	patterns []string
	label    string
	urlType  domain.URLType
}

// Classifier determines the environment category of scanned URLs
type Classifier struct {
	scriptRules   []rule
	variableRules []rule
	portRules     []portRule
}

// NewClassifier creates a classifier with the built-in naming rules
func NewClassifier() *Classifier {
	return &Classifier{
		// script names are matched case-sensitively, variable names are lowered first
		scriptRules: []rule{
			{patterns: []string{"prod"}, urlType: domain.URLProduction},
			{patterns: []string{"stage", "stag"}, urlType: domain.URLStaging},
			{patterns: []string{"dev"}, urlType: domain.URLDevelopment},
		},
		variableRules: []rule{
			{patterns: []string{"prod"}, urlType: domain.URLProduction},
			{patterns: []string{"dev"}, urlType: domain.URLDevelopment},
			{patterns: []string{"stage", "stag"}, urlType: domain.URLStaging},
			{patterns: []string{"demo"}, urlType: domain.URLDemo},
		},
		portRules: []portRule{
			{patterns: []string{"frontend", "client"}, label: "Frontend", urlType: domain.URLDevelopment},
			{patterns: []string{"backend", "server"}, label: "Backend", urlType: domain.URLProduction},
			{patterns: []string{"api"}, label: "API", urlType: domain.URLProduction},
			{patterns: []string{"docs"}, label: "Docs", urlType: domain.URLDevelopment},
		},
	}
}

// ScriptCategory classifies a package.json script by its name
func (c *Classifier) ScriptCategory(scriptName string) domain.URLType {
	if urlType, ok := c.match(c.scriptRules, scriptName); ok {
		return urlType
	}
	if scriptName == "start" {
		return domain.URLProduction
	}
	return domain.URLDevelopment
}

// VariableCategory classifies a *URL* variable, falling back when no rule applies
func (c *Classifier) VariableCategory(varName string, fallback domain.URLType) domain.URLType {
	if urlType, ok := c.match(c.variableRules, strings.ToLower(varName)); ok {
		return urlType
	}
	return fallback
}

// PortVariable builds the label and category for a PORT_* variable found in an env file
func (c *Classifier) PortVariable(
	varName, file string,
	port int,
	fallback domain.URLType,
) (string, domain.URLType) {
	lower := strings.ToLower(varName)
	for _, r := range c.portRules {
		if matchesAny(lower, r.patterns) {
			return fmt.Sprintf("%s (%s: port %d)", r.label, file, port), r.urlType
		}
	}
	return fmt.Sprintf("%s (%s: port %d)", varName, file, port), fallback
}

// Priority orders categories for display; unknown categories sort last
func Priority(urlType domain.URLType) int {
	switch urlType {
	case domain.URLProduction:
		return 1
	case domain.URLDevelopment:
		return 2
	case domain.URLStaging:
		return 3
	case domain.URLDocker:
		return 4
	case domain.URLDemo:
		return 5
	case domain.URLMain:
		return 6
	case domain.URLOther:
		return 7
	default:
		return 99
	}
}

func (c *Classifier) match(rules []rule, name string) (domain.URLType, bool) {
	for _, r := range rules {
		if matchesAny(name, r.patterns) {
			return r.urlType, true
		}
	}
	return "", false
}

// matchesAny checks if name contains any of the patterns
func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}
