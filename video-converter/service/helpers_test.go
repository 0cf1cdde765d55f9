package service

import (
	"context"
	"fmt"
	"sync"

	"blog_to_video/video-converter/models"
)

// fakeRenderer records every call instead of running ffmpeg
type fakeRenderer struct {
	mu      sync.Mutex
	renders []string
	concats [][]string
	outputs []string

	// hooks run before the call returns; a non-nil error fails the call
	onRender func(ctx context.Context, cut models.Cut) error
	onConcat func(ctx context.Context, inputs []string, output string) error
}

func (f *fakeRenderer) RenderCut(ctx context.Context, cut models.Cut, outputPath string) (string, error) {
	if f.onRender != nil {
		if err := f.onRender(ctx, cut); err != nil {
			return "", err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders = append(f.renders, cut.ID)
	return outputPath, nil
}

func (f *fakeRenderer) Concat(ctx context.Context, inputs []string, outputPath string) (string, error) {
	if f.onConcat != nil {
		if err := f.onConcat(ctx, inputs, outputPath); err != nil {
			return "", err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.concats = append(f.concats, append([]string(nil), inputs...))
	f.outputs = append(f.outputs, outputPath)
	return outputPath, nil
}

func (f *fakeRenderer) Extension() string {
	return ".mp4"
}

func (f *fakeRenderer) concatCalls() ([][]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.concats...), append([]string(nil), f.outputs...)
}

// testJob builds a pending job with the given number of cuts per scene
func testJob(id string, cutsPerScene ...int) *models.Job {
	job := &models.Job{ID: id, Title: "title " + id, Status: models.JobStatusPending}
	for s, n := range cutsPerScene {
		scene := models.Scene{ID: fmt.Sprintf("%s-s%d", id, s), JobID: id}
		for c := 0; c < n; c++ {
			scene.Cuts = append(scene.Cuts, models.Cut{
				ID:       fmt.Sprintf("%s-s%d-c%d", id, s, c),
				SceneID:  scene.ID,
				Duration: 1,
			})
		}
		job.Scenes = append(job.Scenes, scene)
	}
	return job
}

// counter hands out sequential ids
func counter(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}
