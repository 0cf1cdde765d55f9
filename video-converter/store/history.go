package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog_to_video/video-converter/models"
)

const (
	jobsCollection = "video_jobs"
	queueSize      = 256
	writeTimeout   = 5 * time.Second
)

// JobRecord is the persisted summary of a job
type JobRecord struct {
	ID         string    `bson:"_id" json:"jobId"`
	Title      string    `bson:"title" json:"title"`
	Status     string    `bson:"status" json:"status"`
	Progress   float64   `bson:"progress" json:"progress"`
	Scenes     int       `bson:"scenes" json:"scenes"`
	Cuts       int       `bson:"cuts" json:"cuts"`
	OutputPath string    `bson:"output_path,omitempty" json:"outputPath,omitempty"`
	Error      string    `bson:"error_message,omitempty" json:"error,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// updater is the part of *mongo.Collection the writer needs
type updater interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// History mirrors job status changes into MongoDB. Writes happen on a
// background goroutine and never block the registry.
type History struct {
	client     *mongo.Client
	collection *mongo.Collection
	writer     updater
	logger     zerolog.Logger

	// mu guards closed so Observe never sends on a closed queue
	mu      sync.RWMutex
	closed  bool
	updates chan *models.Job
	done    chan struct{}
	now     func() time.Time
}

// Connect opens the database and starts the writer
func Connect(ctx context.Context, uri, database string, logger zerolog.Logger) (*History, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(database).Collection(jobsCollection)
	_, err = collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	h := newHistory(collection, logger)
	h.client = client
	h.collection = collection
	h.logger.Info().Str("database", database).Msg("MongoDB connected")
	return h, nil
}

func newHistory(writer updater, logger zerolog.Logger) *History {
	h := &History{
		writer:  writer,
		logger:  logger,
		updates: make(chan *models.Job, queueSize),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go h.run()
	return h
}

// Observe queues a job snapshot. Snapshots are dropped when the queue is full.
func (h *History) Observe(job *models.Job) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.logger.Debug().Str("job", job.ID).Str("status", string(job.Status)).Msg("history closed, dropping update")
		return
	}

	select {
	case h.updates <- job:
	default:
		h.logger.Warn().Str("job", job.ID).Str("status", string(job.Status)).Msg("history queue full, dropping update")
	}
}

// Recent returns the latest jobs, newest first
func (h *History) Recent(ctx context.Context, limit int64) ([]JobRecord, error) {
	if h.collection == nil {
		return nil, nil
	}
	cursor, err := h.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	records := []JobRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

// Close flushes queued updates and disconnects. Updates observed after
// Close are dropped.
func (h *History) Close(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.updates)
	}
	h.mu.Unlock()

	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if h.client == nil {
		return nil
	}
	return h.client.Disconnect(ctx)
}

func (h *History) run() {
	defer close(h.done)
	for job := range h.updates {
		h.write(job)
	}
}

func (h *History) write(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := h.writer.UpdateOne(ctx,
		bson.M{"_id": job.ID},
		bson.M{
			"$set":         jobUpdate(job, h.now()),
			"$setOnInsert": bson.M{"created_at": job.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		h.logger.Warn().Err(err).Str("job", job.ID).Msg("failed to save job status")
	}
}

func jobUpdate(job *models.Job, now time.Time) bson.M {
	update := bson.M{
		"title":      job.Title,
		"status":     string(job.Status),
		"progress":   job.Progress,
		"scenes":     len(job.Scenes),
		"cuts":       job.TotalCuts(),
		"updated_at": now,
	}
	if job.OutputPath != "" {
		update["output_path"] = job.OutputPath
	}
	if job.Error != "" {
		update["error_message"] = job.Error
	}
	return update
}
