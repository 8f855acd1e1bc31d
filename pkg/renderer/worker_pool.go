package renderer

import (
	"context"
	"runtime"
	"sync"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// RowTask represents a single image row to render
type RowTask struct {
	Row  int   // Image row, 0 = top
	Seed int64 // Seed for the row's private sampler
}

// RowResult contains the rendered pixels of one row
type RowResult struct {
	Row     int
	Pixels  []core.Vec3
	Samples int
	Error   error
}

// WorkerPool manages parallel row rendering
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual row rendering tasks
type Worker struct {
	ID          int
	ctx         context.Context
	raytracer   *Raytracer
	taskQueue   chan RowTask
	resultQueue chan RowResult
}

// NewWorkerPool creates a worker pool sized for numRows tasks.
// numWorkers <= 0 uses one worker per CPU.
func NewWorkerPool(ctx context.Context, raytracer *Raytracer, numRows, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, numRows),   // Buffer for every row
		resultQueue: make(chan RowResult, numRows), // Buffer for every result
		numWorkers:  numWorkers,
	}

	// The scene graph is read-only, so all workers share one raytracer
	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			ctx:         ctx,
			raytracer:   raytracer,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a row task to the worker pool
func (wp *WorkerPool) SubmitTask(task RowTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed row result
func (wp *WorkerPool) GetResult() (RowResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := w.ctx.Err(); err != nil {
			w.resultQueue <- RowResult{Row: task.Row, Error: err}
			continue
		}

		sampler := core.NewSeededSampler(task.Seed)
		pixels := w.raytracer.RenderRow(task.Row, sampler)

		w.resultQueue <- RowResult{
			Row:     task.Row,
			Pixels:  pixels,
			Samples: len(pixels) * w.raytracer.samplesPerPixel(),
		}
	}
}
