package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"blog_to_video/video-converter/models"
	"blog_to_video/video-converter/service"
)

const (
	resultSuccess = "success"
	resultError   = "error"

	defaultHistoryLimit = 50
)

// Response is the envelope of every API reply
type Response struct {
	Result string      `json:"result"`
	Data   interface{} `json:"data"`
}

type messageData struct {
	Message string `json:"message"`
}

// CreateVideoRequest carries the document to convert
type CreateVideoRequest struct {
	Content *models.ContentDocument `json:"content"`
}

// SequenceRequest groups a flat document's blocks. With Convert set the
// result is submitted for conversion as well.
type SequenceRequest struct {
	Content  *models.ContentDocument   `json:"content"`
	Commands []service.SequenceCommand `json:"commands"`
	Convert  bool                      `json:"convert,omitempty"`
}

type jobData struct {
	JobID      string  `json:"jobId"`
	Progress   string  `json:"progress"`
	Percent    float64 `json:"percent"`
	OutputPath string  `json:"outputPath,omitempty"`
	VideoURL   string  `json:"videoUrl,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type sequenceData struct {
	Content  models.ContentDocument `json:"content"`
	JobID    string                 `json:"jobId,omitempty"`
	Progress string                 `json:"progress,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   s.version,
	})
}

func (s *Server) createVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	if req.Content == nil {
		respondError(c, http.StatusBadRequest, "Content is required")
		return
	}

	res, err := s.jobs.Submit(c.Request.Context(), *req.Content)
	if err != nil {
		s.logger.Warn().Err(err).Str("title", req.Content.Title).Msg("failed to submit content")
		respondError(c, submitErrorStatus(err), err.Error())
		return
	}

	s.logger.Info().Str("job", res.JobID).Str("title", req.Content.Title).Msg("video job created")
	c.JSON(http.StatusOK, Response{
		Result: resultSuccess,
		Data:   jobData{JobID: res.JobID, Progress: res.Progress},
	})
}

func (s *Server) videoStatus(c *gin.Context) {
	jobID := c.Query("jobId")
	if jobID == "" {
		respondError(c, http.StatusBadRequest, "jobId is required")
		return
	}

	status, err := s.jobs.Status(jobID)
	if errors.Is(err, service.ErrJobNotFound) {
		respondError(c, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, Response{Result: resultSuccess, Data: toJobData(status)})
}

func (s *Server) sequence(c *gin.Context) {
	var req SequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	if req.Content == nil {
		respondError(c, http.StatusBadRequest, "Content is required")
		return
	}

	doc, err := s.sequencer.Apply(*req.Content, req.Commands)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	data := sequenceData{Content: doc}
	if req.Convert {
		res, err := s.jobs.Submit(c.Request.Context(), doc)
		if err != nil {
			respondError(c, submitErrorStatus(err), err.Error())
			return
		}
		data.JobID, data.Progress = res.JobID, res.Progress
	}

	c.JSON(http.StatusOK, Response{Result: resultSuccess, Data: data})
}

func (s *Server) listJobs(c *gin.Context) {
	statuses := s.jobs.Jobs()
	jobs := make([]jobData, 0, len(statuses))
	for _, status := range statuses {
		jobs = append(jobs, toJobData(status))
	}
	c.JSON(http.StatusOK, Response{Result: resultSuccess, Data: jobs})
}

func (s *Server) listHistory(c *gin.Context) {
	limit := int64(defaultHistoryLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load history")
		respondError(c, http.StatusInternalServerError, "failed to load history")
		return
	}
	c.JSON(http.StatusOK, Response{Result: resultSuccess, Data: records})
}

func toJobData(status service.StatusResult) jobData {
	data := jobData{
		JobID:      status.JobID,
		Progress:   status.Progress,
		Percent:    status.Percent,
		OutputPath: status.OutputPath,
		Error:      status.Error,
	}
	if status.OutputPath != "" {
		data.VideoURL = "/videos/" + filepath.Base(status.OutputPath)
	}
	return data
}

// submitErrorStatus separates bad documents from server failures
func submitErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownBlockType),
		errors.Is(err, service.ErrEmptyBlock),
		errors.Is(err, service.ErrEmptyContent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Result: resultError, Data: messageData{Message: message}})
}
