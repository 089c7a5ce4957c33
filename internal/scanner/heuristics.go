package scanner

import (
	"fmt"
	"project-portal/internal/domain"
	"project-portal/internal/parser"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	scriptPortRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)port[=:\s]+(\d+)`),
		regexp.MustCompile(`--port[=\s]+(\d+)`),
		regexp.MustCompile(`:(\d+)`),
	}

	composePortRegex = regexp.MustCompile(`['"]?(\d+):(\d+)['"]?`)
	composeURLRegex  = regexp.MustCompile(`(?i)(\w*URL\w*)[=:]\s*['"]?(https?://[^\s'"]+)`)
	envPortRegex     = regexp.MustCompile(`(?im)^(PORT[_A-Z]*)\s*=\s*(\d+)`)
	envURLRegex      = regexp.MustCompile(`(?im)^(\w*URL\w*)\s*=\s*['"]?(https?://[^\s'"]+)`)

	serverPortRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)port[:\s]*=\s*(\d+)`),
		regexp.MustCompile(`(?i)listen\((\d+)`),
		regexp.MustCompile(`(?i)PORT\s*\|\|\s*(\d+)`),
		regexp.MustCompile(`(?i)PORT\s*\?\s*PORT\s*:\s*(\d+)`),
		regexp.MustCompile(`\|\|\s*(\d+)\s*;`),
		regexp.MustCompile(`(?i)\.env\(['"]PORT['"]\)\s*\|\|\s*(\d+)`),
	}
	makefilePortRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)PORT[_A-Z]*\s*[:?]?=\s*(\d+)`),
		regexp.MustCompile(`(?i)https?://localhost:(\d+)`),
	}
	readmePortRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:localhost|127\.0\.0\.1|0\.0\.0\.0):(\d+)`),
		regexp.MustCompile(`(?i)port\s+(\d+)`),
	}
)

// envFile pairs an env file with the category its URLs get by default
type envFile struct {
	name        string
	defaultType domain.URLType
}

var envFiles = []envFile{
	{name: ".env.example", defaultType: domain.URLOther},
	{name: ".env", defaultType: domain.URLOther},
	{name: ".env.local", defaultType: domain.URLDevelopment},
	{name: ".env.development", defaultType: domain.URLDevelopment},
	{name: ".env.development.local", defaultType: domain.URLDevelopment},
	{name: ".env.staging", defaultType: domain.URLStaging},
	{name: ".env.production", defaultType: domain.URLProduction},
	{name: ".env.production.local", defaultType: domain.URLProduction},
}

var serverFiles = []string{
	"server.js", "app.js", "index.js", "main.js", "server.ts", "app.ts", "index.ts",
	"main.py", "app.py", "server.py", "wsgi.py", "asgi.py",
	"src/server.js", "src/app.js", "src/index.js", "src/main.js",
	"src/main.py", "src/app.py",
}

var readmeFiles = []string{"README.md", "readme.md", "README.txt", "README"}

// pythonFramework is a requirements.txt sniff with its conventional dev port
type pythonFramework struct {
	marker    string
	setupType domain.SetupType
	port      int
	label     string
}

var pythonFrameworks = []pythonFramework{
	{marker: "flask", setupType: domain.SetupPythonFlask, port: 5000, label: "Flask Dev"},
	{marker: "django", setupType: domain.SetupPythonDjango, port: 8000, label: "Django Dev"},
	{marker: "fastapi", setupType: domain.SetupPythonFastAPI, port: 8000, label: "FastAPI"},
	{marker: "streamlit", setupType: domain.SetupPythonStreamlit, port: 8501, label: "Streamlit"},
}

// validPort parses a captured port; out-of-range and overflowing values are rejected
func validPort(digits string) (int, bool) {
	port, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return port, port > 1000 && port < 65536
}

func localURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

func (a *analysis) detectPackageJSON() {
	content, ok := a.read("package.json")
	if !ok {
		return
	}

	manifest, err := parser.ParseManifest([]byte(content))
	if err != nil {
		a.scanner.logger.Warn("Failed to parse package.json",
			zap.String("project_name", a.info.Name),
			zap.Error(err))
		return
	}

	a.info.Description = manifest.Description
	a.info.SetupType = manifest.Framework()

	for _, scriptName := range manifest.ScriptNames() {
		script := manifest.Scripts[scriptName]

		var match []string
		for _, re := range scriptPortRegexes {
			if match = re.FindStringSubmatch(script); match != nil {
				break
			}
		}
		if match == nil {
			continue
		}

		port, ok := validPort(match[1])
		if !ok {
			continue
		}
		a.addURL(domain.URLEntry{
			Type:  a.scanner.classifier.ScriptCategory(scriptName),
			URL:   localURL(port),
			Label: fmt.Sprintf("%s (port %d)", scriptName, port),
			Port:  port,
		})
		a.addPort(port)
	}

	if len(a.info.Ports) > 0 {
		return
	}
	switch a.info.SetupType {
	case domain.SetupNextJS:
		a.addDefault(3000, "Next.js Dev")
	case domain.SetupReact, domain.SetupVue:
		a.addDefault(3000, "Dev Server")
	}
}

// addDefault records a framework's conventional development port
func (a *analysis) addDefault(port int, label string) {
	a.addPort(port)
	a.addURL(domain.URLEntry{
		Type:  domain.URLDevelopment,
		URL:   localURL(port),
		Label: fmt.Sprintf("%s (port %d)", label, port),
		Port:  port,
	})
}

func (a *analysis) detectContainers() {
	composeFile := ""
	switch {
	case a.exists("docker-compose.yml"):
		composeFile = "docker-compose.yml"
	case a.exists("docker-compose.yaml"):
		composeFile = "docker-compose.yaml"
	}

	if composeFile == "" {
		if a.exists("Dockerfile") && a.canOverrideSetup() {
			a.info.SetupType = domain.SetupDocker
		}
		return
	}

	if a.canOverrideSetup() {
		a.info.SetupType = domain.SetupDockerCompose
	}

	content, ok := a.read(composeFile)
	if !ok {
		return
	}

	for _, match := range composePortRegex.FindAllStringSubmatch(content, -1) {
		port, ok := validPort(match[1])
		if !ok || a.hasPort(port) {
			continue
		}
		a.addPort(port)
		a.addURL(domain.URLEntry{
			Type:  domain.URLDocker,
			URL:   localURL(port),
			Label: fmt.Sprintf("Docker (port %d)", port),
			Port:  port,
		})
	}

	for _, match := range composeURLRegex.FindAllStringSubmatch(content, -1) {
		a.addURL(domain.URLEntry{
			Type:  a.scanner.classifier.VariableCategory(match[1], domain.URLOther),
			URL:   match[2],
			Label: match[1],
		})
	}
}

func (a *analysis) detectProcessManager() {
	if !a.exists("ecosystem.config.js") && !a.exists("pm2.config.js") {
		return
	}
	if a.scanner.config.ProcessManagerOverride || a.canOverrideSetup() {
		a.info.SetupType = domain.SetupPM2
	}
}

func (a *analysis) detectPython() {
	hasRequirements := a.exists("requirements.txt")
	if !hasRequirements && !a.exists("Pipfile") {
		return
	}
	a.info.SetupType = domain.SetupPython

	if !hasRequirements {
		return
	}
	content, ok := a.read("requirements.txt")
	if !ok {
		return
	}

	for _, framework := range pythonFrameworks {
		if !strings.Contains(content, framework.marker) {
			continue
		}
		a.info.SetupType = framework.setupType
		if len(a.info.Ports) == 0 {
			a.addDefault(framework.port, framework.label)
		}
		return
	}
}

func (a *analysis) detectEnvFiles() {
	for _, file := range envFiles {
		if !a.exists(file.name) {
			continue
		}
		content, ok := a.read(file.name)
		if !ok {
			continue
		}

		for _, match := range envPortRegex.FindAllStringSubmatch(content, -1) {
			port, ok := validPort(match[2])
			if !ok || a.hasPort(port) {
				continue
			}
			a.addPort(port)

			label, urlType := a.scanner.classifier.PortVariable(match[1], file.name, port, file.defaultType)
			a.addURL(domain.URLEntry{
				Type:   urlType,
				URL:    localURL(port),
				Label:  label,
				Port:   port,
				Source: file.name,
			})
		}

		for _, match := range envURLRegex.FindAllStringSubmatch(content, -1) {
			if a.hasURL(match[2]) {
				continue
			}
			a.addURL(domain.URLEntry{
				Type:   a.scanner.classifier.VariableCategory(match[1], file.defaultType),
				URL:    match[2],
				Label:  match[1],
				Source: file.name,
			})
		}
	}
}

func (a *analysis) hasURL(rawURL string) bool {
	for _, entry := range a.info.URLs {
		if entry.URL == rawURL {
			return true
		}
	}
	return false
}

func (a *analysis) detectServerFiles() {
	for _, file := range serverFiles {
		if !a.exists(file) {
			continue
		}
		content, ok := a.read(file)
		if !ok {
			continue
		}
		a.collectPorts(content, file, serverPortRegexes, file)
	}
}

func (a *analysis) detectMakefile() {
	if !a.exists("Makefile") {
		return
	}
	content, ok := a.read("Makefile")
	if !ok {
		return
	}
	a.collectPorts(content, "Makefile", makefilePortRegexes, "Makefile")
}

// detectReadme only looks at the first README variant present
func (a *analysis) detectReadme() {
	for _, file := range readmeFiles {
		if !a.exists(file) {
			continue
		}
		if content, ok := a.read(file); ok {
			a.collectPorts(content, file, readmePortRegexes, file)
		}
		return
	}
}

// collectPorts turns every new in-range port matched by the patterns into a development entry
func (a *analysis) collectPorts(content, labelPrefix string, patterns []*regexp.Regexp, source string) {
	for _, re := range patterns {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			port, ok := validPort(match[1])
			if !ok || a.hasPort(port) {
				continue
			}
			a.addPort(port)
			a.addURL(domain.URLEntry{
				Type:   domain.URLDevelopment,
				URL:    localURL(port),
				Label:  fmt.Sprintf("%s (port %d)", labelPrefix, port),
				Port:   port,
				Source: source,
			})
		}
	}
}
