package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"blog_to_video/video-converter/models"
	"blog_to_video/video-converter/utils"
)

// SubmitResult is returned when a document is accepted
type SubmitResult struct {
	JobID    string `json:"jobId"`
	Progress string `json:"progress"`
}

// StatusResult is the externally visible state of a job
type StatusResult struct {
	JobID      string  `json:"jobId"`
	Progress   string  `json:"progress"`
	Percent    float64 `json:"percent"`
	OutputPath string  `json:"outputPath,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Converter is the entry point for turning documents into videos
type Converter struct {
	translator *Translator
	worker     *Worker
	registry   *Registry
	logger     zerolog.Logger

	// probe reads the duration of a finished video
	probe func(ctx context.Context, path string) (float64, error)
}

func NewConverter(translator *Translator, worker *Worker, registry *Registry, logger zerolog.Logger) *Converter {
	return &Converter{
		translator: translator,
		worker:     worker,
		registry:   registry,
		logger:     logger,
		probe:      utils.GetVideoDuration,
	}
}

// Submit translates the document and starts the job in the background.
// The job outlives ctx's cancellation but keeps its values.
func (c *Converter) Submit(ctx context.Context, doc models.ContentDocument) (SubmitResult, error) {
	job, err := c.translator.Translate(doc)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to translate content: %w", err)
	}
	if len(job.Scenes) == 0 {
		return SubmitResult{}, ErrEmptyContent
	}

	results, err := c.worker.Enqueue(context.WithoutCancel(ctx), job)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("failed to enqueue job: %w", err)
	}

	go c.report(context.WithoutCancel(ctx), results)

	return SubmitResult{JobID: job.ID, Progress: externalStatus(models.JobStatusPending)}, nil
}

func (c *Converter) report(ctx context.Context, results <-chan Result) {
	res := <-results
	if res.Err != nil {
		c.logger.Warn().Err(res.Err).Str("job", res.JobID).Msg("conversion failed")
		return
	}

	event := c.logger.Info().Str("job", res.JobID).Str("output", res.OutputPath)
	if c.probe != nil {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if duration, err := c.probe(ctx, res.OutputPath); err == nil {
			event = event.Float64("duration", duration)
		} else {
			c.logger.Debug().Err(err).Str("job", res.JobID).Msg("could not probe output duration")
		}
	}
	event.Msg("conversion finished")
}

// Status reports a job's progress. OutputPath is set only when done.
func (c *Converter) Status(jobID string) (StatusResult, error) {
	job, err := c.registry.Get(jobID)
	if err != nil {
		return StatusResult{}, err
	}
	return c.statusOf(job), nil
}

// Jobs lists the status of every job in submission order
func (c *Converter) Jobs() []StatusResult {
	jobs := c.registry.List()
	results := make([]StatusResult, 0, len(jobs))
	for _, job := range jobs {
		results = append(results, c.statusOf(job))
	}
	return results
}

func (c *Converter) statusOf(job *models.Job) StatusResult {
	res := StatusResult{
		JobID:    job.ID,
		Progress: externalStatus(job.Status),
		Percent:  job.Progress,
		Error:    job.Error,
	}
	if job.Status == models.JobStatusDone {
		res.OutputPath = c.worker.FinalOutputPath(job.ID)
	}
	return res
}

// externalStatus hides the internal queued state from callers
func externalStatus(status models.JobStatus) string {
	if status == models.JobStatusQueued {
		return string(models.JobStatusPending)
	}
	return string(status)
}
