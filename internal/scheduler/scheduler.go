// Package scheduler provides the default-queue job scheduler handle used
// by background jobs. Jobs are JSON blobs pushed onto a Redis list;
// periodic enqueueing runs on a cron.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/civicworks/idlewatch/internal/config"
	"github.com/civicworks/idlewatch/internal/logger"
)

// DefaultQueue is the Redis list background workers consume from.
const DefaultQueue = "idlewatch:queue:default"

// Job is a unit of background work.
type Job struct {
	Name       string                 `json:"name"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	EnqueuedAt time.Time              `json:"enqueued_at"`
}

// Scheduler connects to the key-value store and hands out the default
// queue. Worker processes are out of scope here; they share the queue
// name and payload format.
type Scheduler struct {
	rdb  *redis.Client
	cron *cron.Cron
	log  *logger.Logger
}

// New creates a Scheduler from explicit Redis configuration.
func New(cfg config.RedisConfig, log *logger.Logger) *Scheduler {
	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       0,
	})
	return &Scheduler{
		rdb:  rdb,
		cron: cron.New(),
		log:  log,
	}
}

// Ping verifies the queue backend is reachable.
func (s *Scheduler) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Enqueue pushes a job onto the default queue.
func (s *Scheduler) Enqueue(ctx context.Context, job Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %q: %w", job.Name, err)
	}

	if err := s.rdb.LPush(ctx, DefaultQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue job %q: %w", job.Name, err)
	}

	s.log.Debug("Job enqueued", map[string]interface{}{
		"job":   job.Name,
		"queue": DefaultQueue,
	})
	return nil
}

// Every schedules a job to be enqueued on the given cron spec
// (standard 5-field syntax). Returns an error for an invalid spec.
func (s *Scheduler) Every(spec string, job Job) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Enqueue(ctx, job); err != nil {
			s.log.Error("Periodic enqueue failed", err, map[string]interface{}{
				"job":  job.Name,
				"spec": spec,
			})
		}
	})
	return err
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron and closes the Redis connection.
func (s *Scheduler) Stop() error {
	s.cron.Stop()
	return s.rdb.Close()
}
