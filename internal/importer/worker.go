package importer

import (
	"context"
	"log/slog"
	"sync"
)

// ImportTask is one queued upload handed to the pool. A task runs to
// completion on a single worker; rows within a job are never parallelized
// because later rows depend on earlier outcomes.
type ImportTask struct {
	JobID   string
	Kind    Kind
	Content []byte
}

// ProcessorAPI is implemented by the import service.
type ProcessorAPI interface {
	Process(ctx context.Context, jobID string, content []byte)
}

type worker struct {
	id         int
	workerPool chan chan ImportTask
	taskChan   chan ImportTask
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan ImportTask, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		taskChan:   make(chan ImportTask),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, processor ProcessorAPI) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.taskChan

			select {
			case task := <-w.taskChan:
				w.logger.Debug("worker processing import job",
					"worker_id", w.id, "job_id", task.JobID, "kind", task.Kind)
				processor.Process(ctx, task.JobID, task.Content)
			case <-ctx.Done():
				w.logger.Debug("worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Dispatcher owns the job queue and worker pool for background imports.
type Dispatcher struct {
	taskQueue  chan ImportTask
	workerPool chan chan ImportTask
	maxWorkers int
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(maxWorkers, queueSize int, logger *slog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		taskQueue:  make(chan ImportTask, queueSize),
		workerPool: make(chan chan ImportTask, maxWorkers),
		maxWorkers: maxWorkers,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the workers and the dispatch loop. Safe to call once; later
// calls are no-ops.
func (d *Dispatcher) Start(processor ProcessorAPI) {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			newWorker(i, d.workerPool, d.logger).start(d.ctx, &d.wg, processor)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("import worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.taskQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case task := <-d.taskQueue:
			select {
			case taskChan := <-d.workerPool:
				select {
				case taskChan <- task:
				case <-d.ctx.Done():
					d.logger.Info("import dispatcher shutting down")
					return
				}
			case <-d.ctx.Done():
				d.logger.Info("import dispatcher shutting down")
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("import dispatcher shutting down")
			return
		}
	}
}

// Enqueue hands a job to the pool without blocking the submitting request.
func (d *Dispatcher) Enqueue(jobID string, kind Kind, content []byte) error {
	select {
	case d.taskQueue <- ImportTask{JobID: jobID, Kind: kind, Content: content}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for in-flight jobs' workers to
// exit.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down import dispatcher")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("import dispatcher shutdown complete")
}
