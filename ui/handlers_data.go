package ui

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"datastudio/domain/core"
	"datastudio/domain/table"
	"datastudio/internal/cleaning"
	"datastudio/internal/eda"
	apperrors "datastudio/internal/errors"
	"datastudio/internal/report"
)

// previewRows caps the sample rows returned with upload/clean responses
const previewRows = 20

// handleUpload ingests a dataset file and replaces the current session.
// A failed upload leaves any existing session untouched.
func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("dataset")
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest,
			apperrors.InvalidInput("no dataset file provided"))
		return
	}

	maxBytes := s.cfg.Upload.MaxUploadMB << 20
	if fileHeader.Size > maxBytes {
		s.abortWithError(c, http.StatusRequestEntityTooLarge,
			apperrors.InvalidInput(fmt.Sprintf("file exceeds the %dMB upload limit", s.cfg.Upload.MaxUploadMB)))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, apperrors.ReadErrorf(err, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, apperrors.ReadErrorf(err, "failed to read uploaded file"))
		return
	}
	if int64(len(data)) > maxBytes {
		s.abortWithError(c, http.StatusRequestEntityTooLarge,
			apperrors.InvalidInput(fmt.Sprintf("file exceeds the %dMB upload limit", s.cfg.Upload.MaxUploadMB)))
		return
	}

	result, err := s.reader.Ingest(fileHeader.Filename, data)
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	s.session = &session{
		ID:         core.SessionID(core.NewID()),
		Filename:   result.Filename,
		SourceType: string(result.SourceType),
		Notes:      result.Notes,
		Raw:        result.Table,
		UploadedAt: time.Now().UTC(),
	}
	snapshot := s.datasetSnapshot()
	s.mu.Unlock()

	log.Printf("[ui] Loaded %s: %d rows x %d columns (%s)",
		result.Filename, result.Table.RowCount(), result.Table.ColumnCount(), result.SourceType)
	c.JSON(http.StatusOK, snapshot)
}

// datasetSnapshot summarizes session state for API responses.
// Caller must hold at least a read lock.
func (s *Server) datasetSnapshot() gin.H {
	sess := s.session
	snapshot := gin.H{
		"session_id":  sess.ID,
		"filename":    sess.Filename,
		"source_type": sess.SourceType,
		"rows":        sess.Raw.RowCount(),
		"columns":     sess.Raw.Columns,
		"fields":      sess.Raw.Fields,
		"notes":       sess.Notes,
		"preview":     sess.Raw.Head(previewRows),
		"cleaned":     sess.Cleaned != nil,
	}
	if sess.Cleaned != nil {
		snapshot["clean_rows"] = sess.Cleaned.RowCount()
		snapshot["clean_columns"] = sess.Cleaned.Columns
	}
	return snapshot
}

// cleanRequest lets the caller toggle pipeline steps; thresholds fall back
// to the configured defaults when omitted
type cleanRequest struct {
	DropDuplicates *bool    `json:"drop_duplicates"`
	TrimWhitespace *bool    `json:"trim_whitespace"`
	ImputeMissing  *bool    `json:"impute_missing"`
	ParseDatetimes *bool    `json:"parse_datetimes"`
	CapOutliers    *bool    `json:"cap_outliers"`
	LowerQuantile  *float64 `json:"lower_quantile"`
	UpperQuantile  *float64 `json:"upper_quantile"`
}

// handleClean runs the cleaning pipeline over the raw dataset and stores
// the result. Re-running replaces any previous cleaned state; the raw
// table is never modified.
func (s *Server) handleClean(c *gin.Context) {
	var req cleanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.abortWithError(c, http.StatusBadRequest,
				apperrors.InvalidInput("malformed cleaning options"))
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		s.abortWithError(c, http.StatusBadRequest,
			apperrors.InvalidInput("no dataset uploaded"))
		return
	}

	opts := s.pipelineOptions(req)
	pipeline := cleaning.New(opts)
	result := pipeline.Run(s.session.Raw)

	s.session.Cleaned = result.Cleaned
	s.session.CleanResult = result
	s.session.CleanedAt = time.Now().UTC()
	s.session.Report = report.Build(report.Meta{
		SourceType:  s.session.SourceType,
		RawRows:     s.session.Raw.RowCount(),
		RawColumns:  s.session.Raw.ColumnCount(),
		CleanRows:   result.Cleaned.RowCount(),
		CleanCols:   result.Cleaned.ColumnCount(),
		Columns:     result.Cleaned.Columns,
		Notes:       s.session.Notes,
		ProcessLog:  result.Log.Lines(),
		GeneratedAt: s.session.CleanedAt,
	}, eda.NumericSummary(result.Cleaned))

	c.JSON(http.StatusOK, gin.H{
		"raw_rows":           s.session.Raw.RowCount(),
		"clean_rows":         result.Cleaned.RowCount(),
		"columns":            result.Cleaned.Columns,
		"fields":             result.Cleaned.Fields,
		"dropped_duplicates": result.DroppedDuplicates,
		"imputed_cells":      result.ImputedCells,
		"dropped_columns":    result.DroppedColumns,
		"log":                result.Log,
		"preview":            result.Cleaned.Head(previewRows),
	})
}

func (s *Server) pipelineOptions(req cleanRequest) cleaning.Options {
	opts := cleaning.DefaultOptions()
	opts.MissingDropRatio = s.cfg.Cleaning.MissingDropRatio
	opts.LowerQuantile = s.cfg.Cleaning.LowerQuantile
	opts.UpperQuantile = s.cfg.Cleaning.UpperQuantile

	if req.DropDuplicates != nil {
		opts.DropDuplicates = *req.DropDuplicates
	}
	if req.TrimWhitespace != nil {
		opts.TrimWhitespace = *req.TrimWhitespace
	}
	if req.ImputeMissing != nil {
		opts.ImputeMissing = *req.ImputeMissing
	}
	if req.ParseDatetimes != nil {
		opts.ParseDatetimes = *req.ParseDatetimes
	}
	if req.CapOutliers != nil {
		opts.CapOutliers = *req.CapOutliers
	}
	if req.LowerQuantile != nil {
		opts.LowerQuantile = *req.LowerQuantile
	}
	if req.UpperQuantile != nil {
		opts.UpperQuantile = *req.UpperQuantile
	}
	return opts
}

// handleEDASummary returns descriptive statistics for all numeric columns
func (s *Server) handleEDASummary(c *gin.Context) {
	t, ok := s.currentCleaned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": eda.NumericSummary(t)})
}

// handleEDACorrelation returns the pairwise correlation matrix, or an
// explanation when the dataset cannot support one
func (s *Server) handleEDACorrelation(c *gin.Context) {
	t, ok := s.currentCleaned(c)
	if !ok {
		return
	}
	corr := eda.CorrelationMatrix(t)
	if corr == nil {
		c.JSON(http.StatusOK, gin.H{
			"correlation": nil,
			"reason":      "need at least two numeric columns and three complete rows",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"correlation": corr})
}

// handleEDADistribution returns a histogram for one numeric column
func (s *Server) handleEDADistribution(c *gin.Context) {
	t, ok := s.currentCleaned(c)
	if !ok {
		return
	}
	col := c.Query("column")
	if col == "" {
		c.JSON(http.StatusOK, gin.H{"numeric_columns": eda.NumericColumns(t)})
		return
	}
	hist, err := eda.NewHistogram(t, col)
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distribution": hist})
}

// handleEDACategories returns value frequencies for categorical columns
func (s *Server) handleEDACategories(c *gin.Context) {
	t, ok := s.currentCleaned(c)
	if !ok {
		return
	}
	if col := c.Query("column"); col != "" {
		if f, exists := t.Field(col); !exists ||
			(f.Type != table.ValueTypeString && f.Type != table.ValueTypeBoolean) {
			s.abortWithError(c, http.StatusBadRequest,
				apperrors.InvalidInput(fmt.Sprintf("column %q is not categorical", col)))
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": []eda.CategorySummary{eda.Categories(t, col)}})
		return
	}

	cols := eda.CategoricalColumns(t)
	summaries := make([]eda.CategorySummary, 0, len(cols))
	for _, col := range cols {
		summaries = append(summaries, eda.Categories(t, col))
	}
	c.JSON(http.StatusOK, gin.H{"categories": summaries})
}

// handleEDATimeSeries aggregates a numeric column over a datetime column
func (s *Server) handleEDATimeSeries(c *gin.Context) {
	t, ok := s.currentCleaned(c)
	if !ok {
		return
	}
	timeCol := c.Query("time")
	valueCol := c.Query("value")
	if timeCol == "" || valueCol == "" {
		c.JSON(http.StatusOK, gin.H{
			"datetime_columns": eda.DatetimeColumns(t),
			"numeric_columns":  eda.NumericColumns(t),
		})
		return
	}

	granularity := eda.Bucket(c.DefaultQuery("granularity", string(eda.BucketDaily)))
	series, err := eda.NewTimeSeries(t, timeCol, valueCol, granularity)
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timeseries": series})
}
