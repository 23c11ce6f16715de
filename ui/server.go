package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"datastudio/adapters/cloud"
	"datastudio/adapters/ingest"
	"datastudio/domain/core"
	"datastudio/domain/table"
	"datastudio/internal/cleaning"
	"datastudio/internal/config"
	apperrors "datastudio/internal/errors"
)

//go:embed templates/*
var embeddedFiles embed.FS

// session holds all state for the current analysis. State lives only for
// the lifetime of the process; there is no cross-session memory.
type session struct {
	ID          core.SessionID
	Filename    string
	SourceType  string
	Notes       []string
	Raw         *table.Table
	Cleaned     *table.Table
	CleanResult *cleaning.Result
	Report      string
	UploadedAt  time.Time
	CleanedAt   time.Time
}

// Server is the interactive presentation shell: upload, clean, EDA views,
// downloads and cloud export
type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	reader   *ingest.Reader
	exporter *cloud.Exporter

	mu      sync.RWMutex
	session *session
}

// NewServer wires the routes and templates
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		reader:   ingest.NewReader(),
		exporter: cloud.NewExporter(),
	}

	tmpl, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = cfg.Upload.MaxUploadMB << 20

	router.GET("/", s.handleIndex)
	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/clean", s.handleClean)
		api.GET("/eda/summary", s.handleEDASummary)
		api.GET("/eda/correlation", s.handleEDACorrelation)
		api.GET("/eda/distribution", s.handleEDADistribution)
		api.GET("/eda/categories", s.handleEDACategories)
		api.GET("/eda/timeseries", s.handleEDATimeSeries)
		api.GET("/report", s.handleReport)
		api.GET("/report/preview", s.handleReportPreview)
		api.POST("/export", s.handleExport)
	}

	router.GET("/download/dataset", s.handleDownloadDataset)
	router.GET("/download/report", s.handleDownloadReport)

	s.router = router
	return s, nil
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves HTTP until the process exits
func (s *Server) Start(addr string) error {
	log.Printf("[ui] Starting Data Analysis Studio on %s", addr)
	return s.router.Run(addr)
}

// handleIndex renders the single analysis page
func (s *Server) handleIndex(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := gin.H{
		"Title":       "Data Analysis Studio",
		"HasDataset":  s.session != nil,
		"HasCleaned":  s.session != nil && s.session.Cleaned != nil,
		"MaxUploadMB": s.cfg.Upload.MaxUploadMB,
	}
	if s.session != nil {
		data["Filename"] = s.session.Filename
		data["SourceType"] = s.session.SourceType
		data["RawRows"] = s.session.Raw.RowCount()
		data["Columns"] = s.session.Raw.ColumnCount()
		if s.session.Cleaned != nil {
			data["CleanRows"] = s.session.Cleaned.RowCount()
		}
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// handleHealth reports readiness for the serving runtime
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// abortWithError maps application errors onto user-visible JSON messages.
// Errors never kill the session; the user may retry with other input.
func (s *Server) abortWithError(c *gin.Context, status int, err error) {
	log.Printf("[ui] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}

// currentCleaned returns the cleaned table or reports the missing step
func (s *Server) currentCleaned(c *gin.Context) (*table.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.session.Cleaned == nil {
		s.abortWithError(c, http.StatusBadRequest,
			apperrors.InvalidInput("no cleaned dataset available: upload a file and run the pipeline first"))
		return nil, false
	}
	return s.session.Cleaned, true
}
