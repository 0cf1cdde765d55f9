package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"blog_to_video/video-converter/models"
	"blog_to_video/video-converter/service"
	"blog_to_video/video-converter/store"
	"blog_to_video/video-converter/utils"
)

// JobService submits documents and reports job state
type JobService interface {
	Submit(ctx context.Context, doc models.ContentDocument) (service.SubmitResult, error)
	Status(jobID string) (service.StatusResult, error)
	Jobs() []service.StatusResult
}

// HistoryReader lists persisted jobs
type HistoryReader interface {
	Recent(ctx context.Context, limit int64) ([]store.JobRecord, error)
}

// Server holds the HTTP handlers
type Server struct {
	jobs      JobService
	sequencer *service.Sequencer
	history   HistoryReader
	outputDir string
	version   string
	logger    zerolog.Logger
}

// Option customizes a Server
type Option func(*Server)

// WithHistory enables GET /api/history
func WithHistory(history HistoryReader) Option {
	return func(s *Server) {
		s.history = history
	}
}

// WithVersion sets the version reported by /health
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func NewServer(jobs JobService, sequencer *service.Sequencer, outputDir string, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		jobs:      jobs,
		sequencer: sequencer,
		outputDir: outputDir,
		version:   "1.0.0",
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route mounted
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", s.healthCheck)

	api := r.Group("/api")
	{
		api.POST("/to-video", s.createVideo)
		api.GET("/to-video", s.videoStatus)
		api.POST("/sequence", s.sequence)
		api.GET("/jobs", s.listJobs)
		if s.history != nil {
			api.GET("/history", s.listHistory)
		}
	}

	files := s.fileRouter()
	r.GET("/videos/*filepath", gin.WrapH(files))
	r.HEAD("/videos/*filepath", gin.WrapH(files))

	return r
}

// fileRouter serves rendered videos from the output directory. Only video
// containers are reachable; concat manifests and directory listings are not.
func (s *Server) fileRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/videos/jobs/{jobId}", s.serveJobVideo).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(`/videos/{file:[A-Za-z0-9_.\-]+\.(?:mp4|mov|mkv|webm)}`, s.serveVideoFile).Methods(http.MethodGet, http.MethodHead)
	return r
}

func (s *Server) serveVideoFile(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.outputDir, mux.Vars(r)["file"])
	if !utils.FileExists(path) {
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// serveJobVideo serves a job's final video once it is done
func (s *Server) serveJobVideo(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	status, err := s.jobs.Status(jobID)
	if errors.Is(err, service.ErrJobNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if status.OutputPath == "" {
		http.Error(w, "Video is not ready, job is "+status.Progress, http.StatusConflict)
		return
	}
	if !utils.FileExists(status.OutputPath) {
		s.logger.Warn().Str("job", jobID).Str("output", status.OutputPath).Msg("final video missing on disk")
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, status.OutputPath)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
