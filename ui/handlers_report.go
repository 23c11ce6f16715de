package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"datastudio/adapters/cloud"
	apperrors "datastudio/internal/errors"
)

// currentReport returns the stored report markdown plus the timestamp used
// to name downloaded artifacts
func (s *Server) currentReport(c *gin.Context) (md string, stamp string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.session.Report == "" {
		s.abortWithError(c, http.StatusBadRequest,
			apperrors.InvalidInput("no report available: run the cleaning pipeline first"))
		return "", "", false
	}
	return s.session.Report, s.session.CleanedAt.Format("20060102_150405"), true
}

// handleReport returns the analysis report as markdown
func (s *Server) handleReport(c *gin.Context) {
	md, _, ok := s.currentReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"markdown": md})
}

// handleReportPreview renders the report markdown as HTML for the page
func (s *Server) handleReportPreview(c *gin.Context) {
	md, _, ok := s.currentReport(c)
	if !ok {
		return
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML([]byte(md), p, renderer)
	c.Data(http.StatusOK, "text/html; charset=utf-8", rendered)
}

// handleDownloadDataset streams the cleaned dataset as CSV
func (s *Server) handleDownloadDataset(c *gin.Context) {
	s.mu.RLock()
	if s.session == nil || s.session.Cleaned == nil {
		s.mu.RUnlock()
		s.abortWithError(c, http.StatusBadRequest,
			apperrors.InvalidInput("no cleaned dataset available: run the cleaning pipeline first"))
		return
	}
	var buf bytes.Buffer
	err := s.session.Cleaned.WriteCSV(&buf)
	base := strings.TrimSuffix(s.session.Filename, filepath.Ext(s.session.Filename))
	s.mu.RUnlock()

	if err != nil {
		s.abortWithError(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "failed to render cleaned CSV"))
		return
	}
	filename := fmt.Sprintf("cleaned_%s.csv", base)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// handleDownloadReport streams the markdown report
func (s *Server) handleDownloadReport(c *gin.Context) {
	md, stamp, ok := s.currentReport(c)
	if !ok {
		return
	}
	filename := fmt.Sprintf("analysis_report_%s.md", stamp)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// exportRequest carries user-supplied credentials and destination for a
// one-shot S3 export. Credentials are used for this request only.
type exportRequest struct {
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// handleExport uploads the cleaned CSV and the report to object storage
func (s *Server) handleExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, http.StatusBadRequest,
			apperrors.InvalidInput("malformed export request"))
		return
	}
	if req.Region == "" {
		req.Region = s.cfg.Export.DefaultRegion
	}
	if req.Prefix == "" {
		req.Prefix = s.cfg.Export.DefaultPrefix
	}

	s.mu.RLock()
	if s.session == nil || s.session.Cleaned == nil || s.session.Report == "" {
		s.mu.RUnlock()
		s.abortWithError(c, http.StatusBadRequest,
			apperrors.InvalidInput("nothing to export: run the cleaning pipeline first"))
		return
	}
	var csvBuf bytes.Buffer
	err := s.session.Cleaned.WriteCSV(&csvBuf)
	reportMD := s.session.Report
	stamp := s.session.CleanedAt.Format("20060102_150405")
	base := strings.TrimSuffix(s.session.Filename, filepath.Ext(s.session.Filename))
	s.mu.RUnlock()

	if err != nil {
		s.abortWithError(c, http.StatusInternalServerError,
			apperrors.Wrap(err, "failed to render cleaned CSV"))
		return
	}

	objects := []cloud.Object{
		{
			Key:         fmt.Sprintf("cleaned_%s_%s.csv", base, stamp),
			Body:        csvBuf.Bytes(),
			ContentType: "text/csv",
		},
		{
			Key:         fmt.Sprintf("analysis_report_%s.md", stamp),
			Body:        []byte(reportMD),
			ContentType: "text/markdown",
		},
	}

	locations, err := s.exporter.Upload(c.Request.Context(),
		cloud.Credentials{
			AccessKeyID:     req.AccessKeyID,
			SecretAccessKey: req.SecretAccessKey,
			Region:          req.Region,
		},
		cloud.Destination{Bucket: req.Bucket, Prefix: req.Prefix},
		objects)
	if err != nil {
		status := http.StatusBadGateway
		if apperrors.GetCode(err) == apperrors.CodeInvalidInput {
			status = http.StatusBadRequest
		}
		s.abortWithError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploaded": locations})
}
