package domain

import (
	"time"
)

// SetupType is the scanner's inferred framework/runtime classification
type SetupType string

const (
	SetupNextJS          SetupType = "nextjs"
	SetupReact           SetupType = "react"
	SetupVue             SetupType = "vue"
	SetupNodeExpress     SetupType = "nodejs-express"
	SetupNode            SetupType = "nodejs"
	SetupDockerCompose   SetupType = "docker-compose"
	SetupDocker          SetupType = "docker"
	SetupPM2             SetupType = "pm2"
	SetupPython          SetupType = "python"
	SetupPythonFlask     SetupType = "python-flask"
	SetupPythonDjango    SetupType = "python-django"
	SetupPythonFastAPI   SetupType = "python-fastapi"
	SetupPythonStreamlit SetupType = "python-streamlit"
	SetupManual          SetupType = "manual"
	SetupUnknown         SetupType = "unknown"
)

// URLType is the environment category of a URL entry
type URLType string

const (
	URLProduction  URLType = "production"
	URLDevelopment URLType = "development"
	URLStaging     URLType = "staging"
	URLDocker      URLType = "docker"
	URLDemo        URLType = "demo"
	URLMain        URLType = "main"
	URLOther       URLType = "other"
)

// Network describes which address class a derived URL targets
type Network string

const (
	NetworkLocalhost Network = "localhost"
	NetworkLAN       Network = "lan"
	NetworkVPN       Network = "vpn"
	NetworkExternal  Network = "external"
)

// ValidNetwork reports whether n is one of the known network variants
func ValidNetwork(n Network) bool {
	switch n {
	case NetworkLocalhost, NetworkLAN, NetworkVPN, NetworkExternal:
		return true
	default:
		return false
	}
}

type URLEntry struct {
	Type    URLType `json:"type"`              // "development"
	URL     string  `json:"url"`               // "http://localhost:3000"
	Label   string  `json:"label,omitempty"`   // "dev (port 3000)"
	Port    int     `json:"port,omitempty"`    // 3000
	Source  string  `json:"source,omitempty"`  // ".env.local"
	Network Network `json:"network,omitempty"` // set by the deriver only
}

// DisplayLabel returns the label, falling back to the entry type
func (e URLEntry) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	if e.Type != "" {
		return string(e.Type)
	}
	return "URL"
}

// Project is a registered locally-hosted application
type Project struct {
	ID            uint       `json:"id"             gorm:"primaryKey"`
	Name          string     `json:"name"           gorm:"not null;index"`
	Description   string     `json:"description"`
	DirectoryPath string     `json:"directory_path" gorm:"not null;uniqueIndex"`
	Port          int        `json:"port"           gorm:"not null;index"`
	Enabled       bool       `json:"enabled"        gorm:"not null;index"`
	SetupType     SetupType  `json:"setup_type"`
	URLs          []URLEntry `json:"urls"           gorm:"column:urls;type:text;serializer:json"`
	FrontendPath  string     `json:"frontend_path"  gorm:"not null"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProjectInfo is the scanner's guess for one directory and the JSON interchange shape.
// The optional fields carry stored state through an export/import round trip.
type ProjectInfo struct {
	ID            uint       `json:"id,omitempty"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	DirectoryPath string     `json:"directory_path"`
	SetupType     SetupType  `json:"setup_type"`
	Port          int        `json:"port,omitempty"`
	Ports         []int      `json:"ports,omitempty"`
	URLs          []URLEntry `json:"urls"`
	Enabled       *bool      `json:"enabled,omitempty"`
	FrontendPath  string     `json:"frontend_path,omitempty"`
}

// InfoFromProject converts a stored project into the interchange shape
func InfoFromProject(p Project) ProjectInfo {
	enabled := p.Enabled
	urls := p.URLs
	if urls == nil {
		urls = []URLEntry{}
	}
	return ProjectInfo{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		DirectoryPath: p.DirectoryPath,
		SetupType:     p.SetupType,
		Port:          p.Port,
		URLs:          urls,
		Enabled:       &enabled,
		FrontendPath:  p.FrontendPath,
	}
}

// URLStatus is a URL entry with its observed reachability
type URLStatus struct {
	URLEntry
	Online bool `json:"online"`
}

// ProjectView is the request-time presentation of a project; the stored record is never mutated
type ProjectView struct {
	Project    Project     `json:"project"`
	URLs       []URLStatus `json:"urls"`
	Online     bool        `json:"online"`
	PrimaryURL string      `json:"primary_url,omitempty"`
}

// ProbeCandidate is one endpoint queued for a reachability check
type ProbeCandidate struct {
	Host  string
	Port  int
	Entry URLEntry
}

// ProbeResult carries a candidate back with its outcome
type ProbeResult struct {
	Candidate ProbeCandidate
	Online    bool
}
