package service

import (
	"fmt"
	"sync"

	"blog_to_video/video-converter/models"
)

// MaxProgressBeforeDone caps progress of jobs that are not done yet
const MaxProgressBeforeDone = 99.0

// StatusObserver receives a snapshot after every status change, in order.
// Observers must not call back into the registry.
type StatusObserver func(job *models.Job)

// Registry tracks every job known to this process
type Registry struct {
	mu        sync.RWMutex
	notifyMu  sync.Mutex
	jobs      map[string]*models.Job
	order     []string
	observers []StatusObserver
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*models.Job)}
}

// Observe registers fn for status change notifications
func (r *Registry) Observe(fn StatusObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Register adds a pending job
func (r *Registry) Register(job *models.Job) error {
	r.mu.Lock()
	if _, ok := r.jobs[job.ID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}
	stored := job.Clone()
	if stored.Status == "" {
		stored.Status = models.JobStatusPending
	}
	r.jobs[job.ID] = stored
	r.order = append(r.order, job.ID)
	snapshot, observers := stored.Clone(), r.observers
	r.notifyMu.Lock()
	r.mu.Unlock()

	notify(observers, snapshot)
	r.notifyMu.Unlock()
	return nil
}

// Get returns a snapshot of the job
func (r *Registry) Get(id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

// List returns snapshots of all jobs in registration order
func (r *Registry) List() []*models.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(r.order))
	for _, id := range r.order {
		jobs = append(jobs, r.jobs[id].Clone())
	}
	return jobs
}

// UpdateStatus moves a job along pending -> queued -> processing -> done|error
func (r *Registry) UpdateStatus(id string, status models.JobStatus) error {
	return r.mutate(id, true, func(job *models.Job) error {
		return transition(job, status)
	})
}

// SetProgress raises the job's progress. Lower values are ignored and
// unfinished jobs never reach 100.
func (r *Registry) SetProgress(id string, progress float64) (float64, error) {
	var applied float64
	err := r.mutate(id, false, func(job *models.Job) error {
		if job.Status.IsTerminal() {
			applied = job.Progress
			return nil
		}
		if progress > MaxProgressBeforeDone {
			progress = MaxProgressBeforeDone
		}
		if progress > job.Progress {
			job.Progress = progress
		}
		applied = job.Progress
		return nil
	})
	return applied, err
}

// MarkDone completes the job with its final output
func (r *Registry) MarkDone(id, outputPath string) error {
	return r.mutate(id, true, func(job *models.Job) error {
		if err := transition(job, models.JobStatusDone); err != nil {
			return err
		}
		job.Progress = 100
		job.OutputPath = outputPath
		return nil
	})
}

// MarkFailed records the error, leaving progress at its last value
func (r *Registry) MarkFailed(id string, cause error) error {
	return r.mutate(id, true, func(job *models.Job) error {
		if err := transition(job, models.JobStatusError); err != nil {
			return err
		}
		if cause != nil {
			job.Error = cause.Error()
		}
		return nil
	})
}

// SetSceneOutput records a scene's rendered file, once
func (r *Registry) SetSceneOutput(jobID, sceneID, outputPath string) error {
	return r.mutate(jobID, false, func(job *models.Job) error {
		for i := range job.Scenes {
			if job.Scenes[i].ID != sceneID {
				continue
			}
			if job.Scenes[i].OutputPath != "" {
				return fmt.Errorf("%w: %s", ErrSceneOutputSet, sceneID)
			}
			job.Scenes[i].OutputPath = outputPath
			return nil
		}
		return fmt.Errorf("%w: %s", ErrSceneNotFound, sceneID)
	})
}

func (r *Registry) mutate(id string, statusChange bool, fn func(job *models.Job) error) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err := fn(job); err != nil {
		r.mu.Unlock()
		return err
	}
	if !statusChange {
		r.mu.Unlock()
		return nil
	}
	snapshot, observers := job.Clone(), r.observers
	r.notifyMu.Lock()
	r.mu.Unlock()

	notify(observers, snapshot)
	r.notifyMu.Unlock()
	return nil
}

func notify(observers []StatusObserver, job *models.Job) {
	for _, fn := range observers {
		fn(job)
	}
}

func transition(job *models.Job, to models.JobStatus) error {
	if !isValidTransition(job.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, to)
	}
	job.Status = to
	return nil
}

// isValidTransition enforces the allowed job state machine edges
func isValidTransition(from, to models.JobStatus) bool {
	switch from {
	case models.JobStatusPending:
		return to == models.JobStatusQueued || to == models.JobStatusError
	case models.JobStatusQueued:
		return to == models.JobStatusProcessing || to == models.JobStatusError
	case models.JobStatusProcessing:
		return to == models.JobStatusDone || to == models.JobStatusError
	default:
		return false
	}
}
