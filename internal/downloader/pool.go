package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

// Job is a single media file to fetch and store
type Job struct {
	ID       uuid.UUID
	Index    int
	Kind     media.SlideKind
	URL      string
	Filename string
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int64
}

// MediaDownloader fetches the bytes behind a media URL
type MediaDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// MediaStorage persists downloaded files
type MediaStorage interface {
	IsDownloaded(filename string) bool
	SaveFile(r io.Reader, filename string) (int64, error)
}

// Plan turns a record into download jobs in media order. A single image or
// video is saved as <name>.<ext>; carousel slides as <name>_<nn>.<ext>.
func Plan(record *media.Record, name string) []Job {
	items := record.Items()
	jobs := make([]Job, 0, len(items))

	for i, item := range items {
		filename := fmt.Sprintf("%s.%s", name, item.Extension())
		if record.Kind == media.KindCarousel {
			filename = fmt.Sprintf("%s_%02d.%s", name, i+1, item.Extension())
		}
		jobs = append(jobs, Job{
			ID:       uuid.New(),
			Index:    i + 1,
			Kind:     item.Kind,
			URL:      item.URL(),
			Filename: filename,
		})
	}
	return jobs
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	overwrite   bool
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      MediaDownloader
	storage     MediaStorage
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool. Existing files are
// skipped unless overwrite is set.
func NewWorkerPool(numWorkers int, client MediaDownloader, storage MediaStorage, overwrite bool, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		overwrite:   overwrite,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		client:      client,
		storage:     storage,
		logger:      log,
	}
}

// Start launches the workers. Cancelling ctx stops them after their current job.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for workers to drain it and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if err := wp.ctx.Err(); err != nil {
			result = Result{Job: job, Error: err}
		} else {
			result = wp.processJob(job, id)
		}
		wp.resultQueue <- result
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}
	log := wp.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"job_id":    job.ID.String(),
		"file":      job.Filename,
	})

	if !wp.overwrite && wp.storage.IsDownloaded(job.Filename) {
		log.Debug("File already downloaded")
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	data, err := wp.client.Download(wp.ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		log.WithError(err).Debug("Worker failed to download media")
		return result
	}

	size, err := wp.storage.SaveFile(bytes.NewReader(data), job.Filename)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		log.WithError(err).Debug("Worker failed to save media")
		return result
	}

	result.Success = true
	result.Size = size
	result.Duration = time.Since(start)
	log.DebugWithFields("Worker completed job", map[string]interface{}{
		"size":     size,
		"duration": result.Duration,
	})
	return result
}

// Run submits jobs to a fresh pool and returns the results ordered by
// job index. onResult, when set, is called as each result arrives.
func Run(ctx context.Context, jobs []Job, numWorkers int, client MediaDownloader, storage MediaStorage, overwrite bool, log logger.Logger, onResult func(Result)) []Result {
	pool := NewWorkerPool(numWorkers, client, storage, overwrite, log)
	pool.Start(ctx)

	go func() {
		defer pool.Stop()
		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	results := make([]Result, 0, len(jobs))
	seen := make(map[uuid.UUID]bool, len(jobs))
	for result := range pool.Results() {
		seen[result.Job.ID] = true
		if onResult != nil {
			onResult(result)
		}
		results = append(results, result)
	}

	// Jobs never submitted because ctx ended still get a result
	for _, job := range jobs {
		if !seen[job.ID] {
			results = append(results, Result{Job: job, Error: ctx.Err()})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Job.Index < results[j].Job.Index
	})
	return results
}
