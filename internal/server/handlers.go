package server

import (
	"bytes"
	"errors"
	"net/http"
	"project-portal/internal/domain"
	"project-portal/internal/generator"
	"project-portal/internal/parser"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errInvalidID = errors.New("project id must be a positive integer")

type projectRequest struct {
	Name          string            `json:"name"           binding:"required"`
	Description   string            `json:"description"`
	DirectoryPath string            `json:"directory_path" binding:"required"`
	Port          int               `json:"port"           binding:"required,min=1,max=65535"`
	Enabled       *bool             `json:"enabled"`
	SetupType     domain.SetupType  `json:"setup_type"`
	URLs          []domain.URLEntry `json:"urls"`
	FrontendPath  string            `json:"frontend_path"`
}

type scanRequest struct {
	Path string `json:"path" binding:"required"`
}

type healthResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Uptime    int64           `json:"uptime,omitempty"`
	Database  *healthDatabase `json:"database,omitempty"`
	Cache     *healthCache    `json:"cache,omitempty"`
	Version   string          `json:"version,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type healthDatabase struct {
	Connected bool           `json:"connected"`
	Projects  healthProjects `json:"projects"`
}

type healthProjects struct {
	Total   int64 `json:"total"`
	Enabled int64 `json:"enabled"`
}

type healthCache struct {
	Size  int   `json:"size"`
	TTLMS int64 `json:"ttl"`
}

// respondError logs unexpected failures and writes the envelope
func (s *Server) respondError(c *gin.Context, err error, message string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	fail(c, status, err, message)
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().UTC()

	total, enabled, err := s.store.CountProjects(ctx)
	if err == nil {
		err = s.store.Ping(ctx)
	}
	if err != nil {
		s.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Timestamp: now,
			Error:     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: now,
		Uptime:    int64(time.Since(s.startedAt).Seconds()),
		Database: &healthDatabase{
			Connected: true,
			Projects:  healthProjects{Total: total, Enabled: enabled},
		},
		Cache: &healthCache{
			Size:  s.prober.CacheSize(),
			TTLMS: s.config.CacheTTL.Milliseconds(),
		},
		Version: s.config.Version,
	})
}

// portal handles GET /api/portal
func (s *Server) portal(c *gin.Context) {
	ctx := c.Request.Context()

	projects, err := s.store.ListEnabledProjects(ctx)
	if err != nil {
		s.respondError(c, err, "Failed to load projects")
		return
	}

	success(c, http.StatusOK, s.aggregator.Portal(ctx, projects), "Online projects retrieved successfully")
}

// listProjects handles GET /api/projects
func (s *Server) listProjects(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		projects []domain.Project
		err      error
	)
	if c.Query("enabled") == "true" {
		projects, err = s.store.ListEnabledProjects(ctx)
	} else {
		projects, err = s.store.ListProjects(ctx)
	}
	if err != nil {
		s.respondError(c, err, "Failed to retrieve projects")
		return
	}

	success(c, http.StatusOK, projects, "Projects retrieved successfully")
}

// overview handles GET /api/projects/overview
func (s *Server) overview(c *gin.Context) {
	ctx := c.Request.Context()

	projects, err := s.store.ListEnabledProjects(ctx)
	if err != nil {
		s.respondError(c, err, "Failed to load projects")
		return
	}

	success(c, http.StatusOK, s.aggregator.Overview(ctx, projects), "Project overview retrieved successfully")
}

// createProject handles POST /api/projects
func (s *Server) createProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	project := domain.Project{
		Name:          req.Name,
		Description:   req.Description,
		DirectoryPath: req.DirectoryPath,
		Port:          req.Port,
		Enabled:       true,
		SetupType:     req.SetupType,
		URLs:          req.URLs,
		FrontendPath:  req.FrontendPath,
	}
	if req.Enabled != nil {
		project.Enabled = *req.Enabled
	}
	if project.SetupType == "" {
		project.SetupType = domain.SetupManual
	}
	if len(project.URLs) == 0 {
		project.URLs = []domain.URLEntry{{
			Type: domain.URLMain,
			URL:  "http://localhost:" + strconv.Itoa(req.Port),
			Port: req.Port,
		}}
	}

	if err := s.store.CreateProject(c.Request.Context(), &project); err != nil {
		s.respondError(c, err, "Failed to create project")
		return
	}

	success(c, http.StatusCreated, project, "Project created successfully")
}

// getProject handles GET /api/projects/:id
func (s *Server) getProject(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid project id")
		return
	}

	project, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, "Failed to retrieve project")
		return
	}

	success(c, http.StatusOK, project, "Project retrieved successfully")
}

// updateProject handles PUT /api/projects/:id; omitted optional fields keep their stored value
func (s *Server) updateProject(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid project id")
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		s.respondError(c, err, "Failed to update project")
		return
	}

	project.Name = req.Name
	project.Description = req.Description
	project.DirectoryPath = req.DirectoryPath
	project.Port = req.Port
	if req.Enabled != nil {
		project.Enabled = *req.Enabled
	}
	if req.SetupType != "" {
		project.SetupType = req.SetupType
	}
	if req.URLs != nil {
		project.URLs = req.URLs
	}
	if req.FrontendPath != "" {
		project.FrontendPath = req.FrontendPath
	}

	if err := s.store.UpdateProject(ctx, project); err != nil {
		s.respondError(c, err, "Failed to update project")
		return
	}

	success(c, http.StatusOK, project, "Project updated successfully")
}

// deleteProject handles DELETE /api/projects/:id
func (s *Server) deleteProject(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid project id")
		return
	}

	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err, "Failed to delete project")
		return
	}

	success(c, http.StatusOK, nil, "Project deleted successfully")
}

// toggleProject handles POST /api/projects/:id/toggle
func (s *Server) toggleProject(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid project id")
		return
	}

	project, err := s.store.ToggleProject(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, "Failed to toggle project")
		return
	}

	success(c, http.StatusOK, project, "Project toggled successfully")
}

// projectStatus handles GET /api/projects/:id/status
func (s *Server) projectStatus(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid project id")
		return
	}

	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		s.respondError(c, err, "Failed to check project status")
		return
	}

	success(c, http.StatusOK, s.aggregator.ProjectStatus(ctx, *project), "Project status retrieved successfully")
}

// scan handles POST /api/scan; the result is returned for review and never persisted
func (s *Server) scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	projects, err := s.scanner.Scan(c.Request.Context(), req.Path)
	if err != nil {
		s.respondError(c, err, "Failed to scan directory")
		return
	}

	success(c, http.StatusOK, projects, "Directory scanned successfully")
}

// importProjects handles POST /api/import with a JSON array of projects
func (s *Server) importProjects(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	projects, err := parser.ImportJSON(string(body))
	if err != nil {
		s.respondError(c, err, "Failed to import projects")
		return
	}

	result, err := s.importer.Execute(c.Request.Context(), projects)
	if err != nil {
		s.respondError(c, err, "Failed to import projects")
		return
	}

	success(c, http.StatusOK, result, "Projects imported successfully")
}

// exportProjects handles GET /api/export as a file download
func (s *Server) exportProjects(c *gin.Context) {
	ctx := c.Request.Context()

	format, err := generator.ParseFormat(c.DefaultQuery("format", string(generator.FormatJSON)))
	if err != nil {
		fail(c, http.StatusBadRequest, err, "Invalid export format")
		return
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		s.respondError(c, err, "Failed to export projects")
		return
	}

	infos := make([]domain.ProjectInfo, 0, len(projects))
	for _, project := range projects {
		infos = append(infos, domain.InfoFromProject(project))
	}

	if format == generator.FormatCSV {
		var buf bytes.Buffer
		if err := generator.WriteCSV(ctx, &buf, infos); err != nil {
			s.respondError(c, err, "Failed to export projects")
			return
		}
		c.Header("Content-Disposition", "attachment; filename=projects-export.csv")
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}

	text, err := generator.ExportJSON(infos)
	if err != nil {
		s.respondError(c, err, "Failed to export projects")
		return
	}
	c.Header("Content-Disposition", "attachment; filename=projects-export.json")
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(text))
}

// rescan handles POST /api/rescan
func (s *Server) rescan(c *gin.Context) {
	result, err := s.rescanner.Execute(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to rescan projects")
		return
	}

	success(c, http.StatusOK, result, "Projects rescanned successfully")
}
