// SPDX-License-Identifier: MIT

// Package queue runs the background workers that take generation requests
// off the HTTP handlers. Two pools exist at runtime: one for message
// processing (chat, generate, translation) and a separate one for audio
// rendering so long TTS calls do not starve text turnaround.
package queue

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aitalkmaster/aitalkmaster/internal/log"
)

// Kind labels a queued job for logs and metrics.
type Kind string

const (
	KindAit          Kind = "ait"
	KindConversation Kind = "conversation"
	KindGenerate     Kind = "generate"
	KindTranslation  Kind = "translation"
	KindAudio        Kind = "audio"
)

// ErrQueueFull is returned when the bounded queue cannot take another job.
var ErrQueueFull = errors.New("queue full")

var (
	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aitalkmaster_queue_jobs_total",
		Help: "Jobs taken off a queue, by pool, kind and outcome.",
	}, []string{"pool", "kind", "outcome"})

	jobsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aitalkmaster_queue_dropped_total",
		Help: "Jobs rejected because the queue was full.",
	}, []string{"pool"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "aitalkmaster_queue_depth",
		Help: "Jobs currently waiting in a queue.",
	}, []string{"pool"})
)

// Job is one unit of background work. Run carries everything it needs via
// closure; ID identifies the job in logs (message id or session key).
type Job struct {
	Kind     Kind
	ID       string
	ClientIP string
	Run      func(ctx context.Context)
}

// Pool is a bounded job queue with a fixed worker count.
type Pool struct {
	name    string
	jobs    chan Job
	workers int

	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	once     sync.Once
	stopOnce sync.Once
}

// NewPool creates a pool. Zero or negative arguments fall back to one worker
// and an unbuffered-equivalent queue of one slot.
func NewPool(name string, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		name:    name,
		jobs:    make(chan Job, queueSize),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. Safe to call more than once.
func (p *Pool) Start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(i + 1)
		}
		logger := log.WithComponent("queue")
		logger.Info().
			Str(log.FieldEvent, "queue.start").
			Str("pool", p.name).
			Int("workers", p.workers).
			Int("queue_size", cap(p.jobs)).
			Msg("worker pool started")
	})
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	logger := log.WithComponent("queue")
	for job := range p.jobs {
		queueDepth.WithLabelValues(p.name).Dec()
		logger.Debug().
			Str(log.FieldEvent, "queue.job").
			Str("pool", p.name).
			Int(log.FieldWorker, n).
			Str(log.FieldKind, string(job.Kind)).
			Str(log.FieldMessageID, job.ID).
			Msg("processing job")

		start := time.Now()
		outcome := p.runOne(job)
		jobsProcessed.WithLabelValues(p.name, string(job.Kind), outcome).Inc()

		logger.Debug().
			Str(log.FieldEvent, "queue.done").
			Str("pool", p.name).
			Int(log.FieldWorker, n).
			Str(log.FieldKind, string(job.Kind)).
			Str(log.FieldMessageID, job.ID).
			Dur(log.FieldDuration, time.Since(start)).
			Msg("job finished")
	}
}

// runOne executes a job, containing panics so a misbehaving processor never
// kills the worker.
func (p *Pool) runOne(job Job) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			logger := log.WithComponent("queue")
			logger.Error().
				Str(log.FieldEvent, "queue.panic").
				Str("pool", p.name).
				Str(log.FieldKind, string(job.Kind)).
				Str(log.FieldMessageID, job.ID).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("job panicked")
		}
	}()
	job.Run(p.ctx)
	return "ok"
}

// Enqueue adds a job without blocking. A full queue returns ErrQueueFull so
// the HTTP layer can shed load instead of hanging.
func (p *Pool) Enqueue(job Job) error {
	select {
	case p.jobs <- job:
		queueDepth.WithLabelValues(p.name).Inc()
		return nil
	default:
		jobsDropped.WithLabelValues(p.name).Inc()
		return ErrQueueFull
	}
}

// Depth reports the number of jobs waiting in the queue.
func (p *Pool) Depth() int {
	return len(p.jobs)
}

// Stop closes the queue and drains outstanding jobs. When ctx expires before
// the drain completes, in-flight jobs are cancelled and Stop waits for the
// workers to exit.
func (p *Pool) Stop(ctx context.Context) {
	p.stopOnce.Do(func() {
		close(p.jobs)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			p.cancel()
			<-done
		}
		p.cancel()
	})
}
