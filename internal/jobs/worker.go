package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sjperalta/fintera-lending/internal/metrics"
	"github.com/sjperalta/fintera-lending/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Task is a named job
type Task struct {
	Name string
	Run  Job
}

// Worker manages background jobs and scheduled tasks
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan Task
	maxConcurrent int
	stats         WorkerStats
	statsMu       sync.RWMutex
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int                `json:"active_jobs"`
	CompletedJobs int64              `json:"completed_jobs"`
	FailedJobs    int64              `json:"failed_jobs"`
	QueueLength   int                `json:"queue_length"`
	MaxConcurrent int                `json:"max_concurrent"`
	LastRuns      map[string]RunInfo `json:"last_runs"`
}

// RunInfo describes the most recent run of a named job
type RunInfo struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan Task, 100),
		maxConcurrent: numWorkers,
		stats:         WorkerStats{LastRuns: make(map[string]RunInfo)},
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to be processed by the worker pool. When the queue is
// full the job runs on the caller's goroutine.
func (w *Worker) Enqueue(name string, job Job) {
	task := Task{Name: name, Run: job}
	select {
	case w.queue <- task:
	default:
		logger.Warn("[Worker] Queue full, running job synchronously", slog.String("job", name))
		w.run("Worker", task)
	}
}

// process handles jobs from the queue
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	source := fmt.Sprintf("Worker %d", workerID)
	for {
		select {
		case <-w.ctx.Done():
			return
		case task, ok := <-w.queue:
			if !ok {
				return
			}
			w.run(source, task)
		}
	}
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after the interval.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.schedule(Task{Name: name, Run: job}, interval, false)
}

// ScheduleEveryImmediate runs a job once at startup, then at fixed intervals
func (w *Worker) ScheduleEveryImmediate(name string, interval time.Duration, job Job) {
	w.schedule(Task{Name: name, Run: job}, interval, true)
}

func (w *Worker) schedule(task Task, interval time.Duration, immediate bool) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.run("Scheduler", task)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("Scheduler", task)
			}
		}
	}()
}

// run executes one task, recovering panics and recording stats
func (w *Worker) run(source string, task Task) {
	w.trackJobStart()
	start := time.Now()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = task.Run(w.ctx)
	}()

	elapsed := time.Since(start)
	if err != nil {
		logger.Error(fmt.Sprintf("[%s] Job error", source), slog.String("job", task.Name), slog.String("error", err.Error()))
	} else {
		logger.Info(fmt.Sprintf("[%s] Job completed", source), slog.String("job", task.Name), slog.Duration("elapsed", elapsed))
	}
	metrics.ObserveJob(task.Name, elapsed, err)
	w.trackJobEnd(task.Name, start, elapsed, err)
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	stats.LastRuns = make(map[string]RunInfo, len(w.stats.LastRuns))
	for name, info := range w.stats.LastRuns {
		stats.LastRuns[name] = info
	}
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

// trackJobEnd counts every finished job as completed; failures are also
// counted in FailedJobs
func (w *Worker) trackJobEnd(name string, start time.Time, elapsed time.Duration, err error) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	info := RunInfo{StartedAt: start, Duration: elapsed}
	if err != nil {
		w.stats.FailedJobs++
		info.Error = err.Error()
	}
	if name != "" {
		w.stats.LastRuns[name] = info
	}
}
