package models

import "time"

// JobStatus is the lifecycle state of a conversion job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// IsTerminal reports whether no further transition is allowed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Job is one end-to-end conversion request
type Job struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Scenes     []Scene   `json:"scenes"`
	CreatedAt  time.Time `json:"created_at"`
	Status     JobStatus `json:"status"`
	Progress   float64   `json:"progress"` // 0-100
	OutputPath string    `json:"output_path,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// TotalCuts counts the cuts of every scene
func (j *Job) TotalCuts() int {
	total := 0
	for _, scene := range j.Scenes {
		total += len(scene.Cuts)
	}
	return total
}

// Clone returns a deep copy so snapshots can leave the registry lock
func (j *Job) Clone() *Job {
	c := *j
	c.Scenes = make([]Scene, len(j.Scenes))
	for i, scene := range j.Scenes {
		c.Scenes[i] = scene
		c.Scenes[i].Cuts = append([]Cut(nil), scene.Cuts...)
	}
	return &c
}

// Scene is a contiguous part of a job built from one content block
type Scene struct {
	ID         string `json:"id"`
	JobID      string `json:"job_id"`
	Cuts       []Cut  `json:"cuts"`
	OutputPath string `json:"output_path,omitempty"`
}

// Duration sums the durations of the scene's cuts
func (s *Scene) Duration() float64 {
	var total float64
	for _, cut := range s.Cuts {
		total += cut.Duration
	}
	return total
}

// Cut is the smallest renderable unit: one ffmpeg invocation
type Cut struct {
	ID       string  `json:"id"`
	SceneID  string  `json:"scene_id"`
	Duration float64 `json:"duration"` // in seconds, always > 0
	ImageURL string  `json:"image_url,omitempty"`
	Header   string  `json:"header,omitempty"`
	Subtitle string  `json:"subtitle,omitempty"`
	Footer   string  `json:"footer,omitempty"`
}

// HasText reports whether any text region is populated
func (c *Cut) HasText() bool {
	return c.Header != "" || c.Subtitle != "" || c.Footer != ""
}
