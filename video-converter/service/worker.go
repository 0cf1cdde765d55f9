package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"blog_to_video/video-converter/models"
)

const (
	// cutsProgressShare is the part of a scene's progress spent on its cuts;
	// the rest is its concat step.
	cutsProgressShare = 80.0
	// progressBeforeFinalConcat is where a job waits while scenes are joined
	progressBeforeFinalConcat = 90.0
)

// SegmentRenderer renders single cuts and joins rendered segments
type SegmentRenderer interface {
	RenderCut(ctx context.Context, cut models.Cut, outputPath string) (string, error)
	Concat(ctx context.Context, inputs []string, outputPath string) (string, error)
	Extension() string
}

// Limits bounds concurrent work at each level
type Limits struct {
	Job   int
	Scene int
	Cut   int
}

// DefaultLimits derives limits from the CPU count: cut = min(cpu-1, 4),
// job = ceil(cpu/4), scene = floor(cut/2), each at least 1.
func DefaultLimits(cpus int) Limits {
	cut := max(1, min(cpus-1, 4))
	return Limits{
		Cut:   cut,
		Job:   max(1, int(math.Ceil(float64(cpus)/4))),
		Scene: max(1, cut/2),
	}
}

// WithOverrides replaces limits with the positive values given
func (l Limits) WithOverrides(job, scene, cut int) Limits {
	if job > 0 {
		l.Job = job
	}
	if scene > 0 {
		l.Scene = scene
	}
	if cut > 0 {
		l.Cut = cut
	}
	return l
}

// Result is the outcome of one job
type Result struct {
	JobID      string
	OutputPath string
	Err        error
}

// Worker runs jobs under job, scene and cut concurrency limits
type Worker struct {
	registry   *Registry
	renderer   SegmentRenderer
	outputDir  string
	limits     Limits
	jobTimeout time.Duration
	logger     zerolog.Logger

	jobSem *semaphore.Weighted

	// admitted is closed once the previously enqueued job has acquired a slot
	admitMu  sync.Mutex
	admitted chan struct{}

	wg sync.WaitGroup
}

func NewWorker(registry *Registry, renderer SegmentRenderer, outputDir string, limits Limits, jobTimeout time.Duration, logger zerolog.Logger) *Worker {
	limits.Job = max(1, limits.Job)
	limits.Scene = max(1, limits.Scene)
	limits.Cut = max(1, limits.Cut)

	admitted := make(chan struct{})
	close(admitted)

	return &Worker{
		registry:   registry,
		renderer:   renderer,
		outputDir:  outputDir,
		limits:     limits,
		jobTimeout: jobTimeout,
		logger:     logger,
		jobSem:     semaphore.NewWeighted(int64(limits.Job)),
		admitted:   admitted,
	}
}

// Limits returns the effective limits
func (w *Worker) Limits() Limits {
	return w.limits
}

// FinalOutputPath is where a job's video is written
func (w *Worker) FinalOutputPath(jobID string) string {
	return filepath.Join(w.outputDir, jobID+"_final"+w.renderer.Extension())
}

// Enqueue registers the job, marks it queued and processes it once a job
// slot is free. Jobs are admitted in the order they were enqueued. The
// returned channel yields exactly one Result.
func (w *Worker) Enqueue(ctx context.Context, job *models.Job) (<-chan Result, error) {
	if len(job.Scenes) == 0 {
		return nil, ErrEmptyContent
	}
	if err := w.registry.Register(job); err != nil {
		return nil, err
	}
	if err := w.registry.UpdateStatus(job.ID, models.JobStatusQueued); err != nil {
		return nil, err
	}

	w.admitMu.Lock()
	prev := w.admitted
	mine := make(chan struct{})
	w.admitted = mine
	w.admitMu.Unlock()

	results := make(chan Result, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(results)
		results <- w.run(ctx, job.ID, prev, mine)
	}()

	w.logger.Info().Str("job", job.ID).Int("scenes", len(job.Scenes)).Int("cuts", job.TotalCuts()).Msg("job queued")
	return results, nil
}

// Wait blocks until every enqueued job has finished
func (w *Worker) Wait() {
	w.wg.Wait()
}

// WaitContext waits like Wait but gives up when ctx is done, returning
// ctx's error while jobs are still running.
func (w *Worker) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run(ctx context.Context, jobID string, prev <-chan struct{}, mine chan struct{}) Result {
	if err := w.admit(ctx, prev, mine); err != nil {
		return w.fail(jobID, err)
	}
	defer w.jobSem.Release(1)

	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	output, err := w.processJob(ctx, jobID)
	if err != nil {
		return w.fail(jobID, err)
	}

	w.logger.Info().Str("job", jobID).Str("output", output).Dur("elapsed", time.Since(start)).Msg("job done")
	return Result{JobID: jobID, OutputPath: output}
}

// admit waits for the previous job's admission, then for a job slot
func (w *Worker) admit(ctx context.Context, prev <-chan struct{}, mine chan struct{}) error {
	select {
	case <-prev:
	case <-ctx.Done():
		go func() {
			<-prev
			close(mine)
		}()
		return ctx.Err()
	}

	err := w.jobSem.Acquire(ctx, 1)
	close(mine)
	return err
}

func (w *Worker) fail(jobID string, err error) Result {
	if markErr := w.registry.MarkFailed(jobID, err); markErr != nil {
		w.logger.Error().Err(markErr).Str("job", jobID).Msg("failed to record job error")
	}
	w.logger.Error().Err(err).Str("job", jobID).Str("output_dir", w.outputDir).
		Msg("job failed, rendered segments kept for inspection")
	return Result{JobID: jobID, Err: err}
}

func (w *Worker) processJob(ctx context.Context, jobID string) (string, error) {
	if err := w.registry.UpdateStatus(jobID, models.JobStatusProcessing); err != nil {
		return "", err
	}
	job, err := w.registry.Get(jobID)
	if err != nil {
		return "", err
	}

	w.logger.Info().Str("job", jobID).Str("title", job.Title).Msg("processing job")

	progress := newProgressTracker(sceneWeights(job), func(p float64) {
		if _, err := w.registry.SetProgress(jobID, math.Min(p, progressBeforeFinalConcat)); err != nil {
			w.logger.Warn().Err(err).Str("job", jobID).Msg("failed to update progress")
		}
	})

	sceneOutputs := make([]string, len(job.Scenes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limits.Scene)

	for i, scene := range job.Scenes {
		i, scene := i, scene
		g.Go(func() error {
			output, err := w.processScene(gctx, scene, func(sub float64) {
				progress.update(i, sub)
			})
			if err != nil {
				return fmt.Errorf("scene %d (%s): %w", i, scene.ID, err)
			}
			sceneOutputs[i] = output
			if err := w.registry.SetSceneOutput(jobID, scene.ID, output); err != nil {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	if _, err := w.registry.SetProgress(jobID, progressBeforeFinalConcat); err != nil {
		return "", err
	}

	finalPath, err := w.renderer.Concat(ctx, sceneOutputs, w.FinalOutputPath(jobID))
	if err != nil {
		return "", fmt.Errorf("final concat: %w", err)
	}

	if err := w.registry.MarkDone(jobID, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

// processScene renders the scene's cuts and joins them in declaration order
func (w *Worker) processScene(ctx context.Context, scene models.Scene, report func(sub float64)) (string, error) {
	if len(scene.Cuts) == 0 {
		return "", errors.New("scene has no cuts")
	}

	logger := w.logger.With().Str("scene", scene.ID).Logger()
	logger.Debug().Int("cuts", len(scene.Cuts)).Msg("rendering scene")

	outputs := make([]string, len(scene.Cuts))
	var completed atomic.Int64
	total := float64(len(scene.Cuts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limits.Cut)

	for i, cut := range scene.Cuts {
		i, cut := i, cut
		g.Go(func() error {
			out := filepath.Join(w.outputDir, cut.ID+w.renderer.Extension())
			path, err := w.renderer.RenderCut(gctx, cut, out)
			if err != nil {
				return fmt.Errorf("cut %d (%s): %w", i, cut.ID, err)
			}
			outputs[i] = path

			done := completed.Add(1)
			report(float64(done) / total * cutsProgressShare)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	sceneOutput := filepath.Join(w.outputDir, scene.ID+w.renderer.Extension())
	path, err := w.renderer.Concat(ctx, outputs, sceneOutput)
	if err != nil {
		return "", fmt.Errorf("scene concat: %w", err)
	}

	report(100)
	logger.Debug().Str("output", path).Msg("scene rendered")
	return path, nil
}

// sceneWeights weighs each scene by its share of the job's cuts
func sceneWeights(job *models.Job) []float64 {
	weights := make([]float64, len(job.Scenes))
	total := job.TotalCuts()
	for i, scene := range job.Scenes {
		if total == 0 {
			weights[i] = 1 / float64(len(job.Scenes))
			continue
		}
		weights[i] = float64(len(scene.Cuts)) / float64(total)
	}
	return weights
}

// progressTracker combines per-scene progress (0-100) into job progress
type progressTracker struct {
	mu      sync.Mutex
	weights []float64
	subs    []float64
	apply   func(float64)
}

func newProgressTracker(weights []float64, apply func(float64)) *progressTracker {
	return &progressTracker{
		weights: weights,
		subs:    make([]float64, len(weights)),
		apply:   apply,
	}
}

func (p *progressTracker) update(scene int, sub float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sub > p.subs[scene] {
		p.subs[scene] = sub
	}

	var total float64
	for i, s := range p.subs {
		total += s * p.weights[i]
	}
	p.apply(total)
}
