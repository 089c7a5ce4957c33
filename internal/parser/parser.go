package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"project-portal/internal/domain"
	"sort"
)

// Manifest holds the parts of a package.json the scanner relies on
type Manifest struct {
	Description  string
	Dependencies map[string]struct{}
	Scripts      map[string]string
	scriptNames  []string
}

type rawManifest struct {
	Description     any            `json:"description"`
	Dependencies    map[string]any `json:"dependencies"`
	DevDependencies map[string]any `json:"devDependencies"`
	Scripts         map[string]any `json:"scripts"`
}

// ParseManifest decodes package.json content. Fields with unexpected types are
// ignored rather than failing the whole manifest.
func ParseManifest(content []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	manifest := &Manifest{
		Dependencies: make(map[string]struct{}, len(raw.Dependencies)+len(raw.DevDependencies)),
		Scripts:      make(map[string]string, len(raw.Scripts)),
	}
	if description, ok := raw.Description.(string); ok {
		manifest.Description = description
	}
	for name := range raw.Dependencies {
		manifest.Dependencies[name] = struct{}{}
	}
	for name := range raw.DevDependencies {
		manifest.Dependencies[name] = struct{}{}
	}
	for name, value := range raw.Scripts {
		if script, ok := value.(string); ok {
			manifest.Scripts[name] = script
			manifest.scriptNames = append(manifest.scriptNames, name)
		}
	}
	sort.Strings(manifest.scriptNames)

	return manifest, nil
}

// HasDependency checks dependencies and devDependencies
func (m *Manifest) HasDependency(name string) bool {
	_, ok := m.Dependencies[name]
	return ok
}

// ScriptNames returns the script names in sorted order
func (m *Manifest) ScriptNames() []string {
	return m.scriptNames
}

// Framework infers the setup type from the dependency map
func (m *Manifest) Framework() domain.SetupType {
	switch {
	case m.HasDependency("next"):
		return domain.SetupNextJS
	case m.HasDependency("react"):
		return domain.SetupReact
	case m.HasDependency("vue"):
		return domain.SetupVue
	case m.HasDependency("express"):
		return domain.SetupNodeExpress
	default:
		return domain.SetupNode
	}
}

type rawProjectInfo struct {
	ID            any `json:"id"`
	Name          any `json:"name"`
	Description   any `json:"description"`
	DirectoryPath any `json:"directory_path"`
	SetupType     any `json:"setup_type"`
	Port          any `json:"port"`
	Ports         any `json:"ports"`
	URLs          any `json:"urls"`
	Enabled       any `json:"enabled"`
	FrontendPath  any `json:"frontend_path"`
}

// ImportJSON validates and decodes an exported project list. Only name and
// directory_path are required; optional fields with unexpected types are
// dropped. Either every element is accepted or an *domain.ImportError is returned.
func ImportJSON(text string) ([]domain.ProjectInfo, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return nil, &domain.ImportError{Reason: "JSON must be an array of projects", Err: err}
	}
	if elements == nil {
		return nil, &domain.ImportError{Reason: "JSON must be an array of projects"}
	}

	projects := make([]domain.ProjectInfo, 0, len(elements))
	for i, element := range elements {
		if !bytes.HasPrefix(bytes.TrimSpace(element), []byte("{")) {
			return nil, &domain.ImportError{Reason: fmt.Sprintf("project %d is not an object", i)}
		}

		var raw rawProjectInfo
		if err := json.Unmarshal(element, &raw); err != nil {
			return nil, &domain.ImportError{Reason: fmt.Sprintf("project %d is malformed", i), Err: err}
		}
		info := raw.toInfo()
		if info.Name == "" || info.DirectoryPath == "" {
			return nil, &domain.ImportError{
				Reason: fmt.Sprintf("project %d must have at least a name and directory_path", i),
			}
		}

		projects = append(projects, info)
	}

	return projects, nil
}

func (r rawProjectInfo) toInfo() domain.ProjectInfo {
	info := domain.ProjectInfo{
		Name:          stringValue(r.Name),
		Description:   stringValue(r.Description),
		DirectoryPath: stringValue(r.DirectoryPath),
		SetupType:     domain.SetupType(stringValue(r.SetupType)),
		FrontendPath:  stringValue(r.FrontendPath),
		URLs:          urlEntries(r.URLs),
	}
	if id, ok := intValue(r.ID); ok && id > 0 {
		info.ID = uint(id)
	}
	if port, ok := portValue(r.Port); ok {
		info.Port = port
	}
	if ports, ok := r.Ports.([]any); ok {
		for _, value := range ports {
			if port, ok := portValue(value); ok {
				info.Ports = append(info.Ports, port)
			}
		}
	}
	if enabled, ok := r.Enabled.(bool); ok {
		info.Enabled = &enabled
	}
	return info
}

func urlEntries(value any) []domain.URLEntry {
	entries := []domain.URLEntry{}
	items, ok := value.([]any)
	if !ok {
		return entries
	}

	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := domain.URLEntry{
			Type:   domain.URLType(stringValue(fields["type"])),
			URL:    stringValue(fields["url"]),
			Label:  stringValue(fields["label"]),
			Source: stringValue(fields["source"]),
		}
		if entry.URL == "" {
			continue
		}
		if port, ok := portValue(fields["port"]); ok {
			entry.Port = port
		}
		entries = append(entries, entry)
	}
	return entries
}

func stringValue(value any) string {
	s, _ := value.(string)
	return s
}

// intValue accepts JSON numbers without a fractional part
func intValue(value any) (int, bool) {
	n, ok := value.(float64)
	if !ok || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

func portValue(value any) (int, bool) {
	port, ok := intValue(value)
	if !ok || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}
