package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/vm2656/travel-itinerary-generator/internal/models"
	"github.com/vm2656/travel-itinerary-generator/internal/notifications"
)

const (
	DefaultJobTTL     = time.Hour
	DefaultJobTimeout = 10 * time.Minute
)

var ErrJobNotFound = errors.New("enrichment job not found")

type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

type Job struct {
	ID        uuid.UUID         `json:"id"`
	Status    JobStatus         `json:"status"`
	Progress  Progress          `json:"progress"`
	Result    *models.Itinerary `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (j Job) Finished() bool {
	return j.Status != JobRunning
}

// Jobs запускает фоновое обогащение и хранит снимки задач с ограниченным сроком жизни.
type Jobs struct {
	orchestrator *Orchestrator
	hub          *notifications.Hub
	store        *cache.Cache
	timeout      time.Duration
	logger       *slog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewJobs создает реестр фоновых задач обогащения.
func NewJobs(orchestrator *Orchestrator, hub *notifications.Hub, ttl, timeout time.Duration, logger *slog.Logger) *Jobs {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Jobs{
		orchestrator: orchestrator,
		hub:          hub,
		store:        cache.New(ttl, ttl/2),
		timeout:      timeout,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start запускает обогащение в фоне и сразу возвращает снимок задачи.
func (j *Jobs) Start(it models.Itinerary) Job {
	now := time.Now().UTC()
	total := it.LeafCount()
	job := Job{
		ID:        uuid.New(),
		Status:    JobRunning,
		Progress:  Progress{Total: total},
		CreatedAt: now,
		UpdatedAt: now,
	}
	j.store.Set(job.ID.String(), job, cache.DefaultExpiration)

	input := it.Clone()
	j.wg.Add(1)
	go j.run(job.ID, input)

	return job
}

func (j *Jobs) run(id uuid.UUID, it models.Itinerary) {
	defer j.wg.Done()

	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	started := time.Now()
	result, err := j.orchestrator.Enrich(ctx, it, func(p Progress) {
		j.update(id, func(job *Job) { job.Progress = p })
		j.publish(id, notifications.Event{Type: notifications.EventProgress, Data: p})
	})

	final := j.update(id, func(job *Job) {
		if err != nil {
			job.Status = JobFailed
			job.Error = err.Error()
			return
		}
		job.Status = JobDone
		job.Result = &result
	})

	if err != nil {
		j.logger.Warn("enrichment job failed",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()),
		)
	} else {
		j.logger.Info("enrichment job finished",
			slog.String("job_id", id.String()),
			slog.Int("leaves", final.Progress.Total),
			slog.Duration("duration", time.Since(started)),
		)
	}

	j.publish(id, notifications.Event{Type: notifications.EventDone, Data: final})
	if j.hub != nil {
		j.hub.CloseTopic(id)
	}
}

func (j *Jobs) update(id uuid.UUID, mutate func(job *Job)) Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := id.String()
	value, ok := j.store.Get(key)
	if !ok {
		return Job{ID: id}
	}

	job := value.(Job)
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	j.store.Set(key, job, cache.DefaultExpiration)
	return job
}

func (j *Jobs) publish(id uuid.UUID, event notifications.Event) {
	if j.hub == nil {
		return
	}
	j.hub.Publish(id, event)
}

// Get возвращает снимок задачи.
func (j *Jobs) Get(id uuid.UUID) (Job, error) {
	value, ok := j.store.Get(id.String())
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return value.(Job), nil
}

// Wait ждет завершения всех запущенных задач.
func (j *Jobs) Wait() {
	j.wg.Wait()
}

// Close отменяет незавершенные задачи и ждет их остановки.
func (j *Jobs) Close() {
	j.cancel()
	j.wg.Wait()
}
