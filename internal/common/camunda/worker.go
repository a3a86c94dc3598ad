// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/metrics"
)

// WorkerOptions are the per-task settings from the workers config section.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Every job is timed and counted
// under the task type.
func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler worker.JobHandler, log logger.Logger) *Worker {
	log = log.With(map[string]interface{}{"taskType": taskType})

	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, log))
	if opts.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}

	w := &Worker{worker: builder.Open(), logger: log, taskType: taskType}
	log.Info("worker started", map[string]interface{}{"maxJobsActive": opts.MaxJobsActive})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}

// Instrument records duration for every job and turns a handler panic into a
// failed-job metric and an error log.
func Instrument(taskType string, handler worker.JobHandler, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		defer func() {
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			if r := recover(); r != nil {
				metrics.WorkerJobsFailed.WithLabelValues(taskType, "PANIC").Inc()
				log.Error("job handler panicked", map[string]interface{}{
					"jobKey": job.Key,
					"panic":  fmt.Sprint(r),
				})
			}
		}()
		handler(client, job)
	}
}

// CompleteJob sends output as the job variables and counts the completion.
func CompleteJob(client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
}

// DecodeVariables unmarshals the job variables into v.
func DecodeVariables(job entities.Job, v interface{}) error {
	return json.Unmarshal([]byte(job.Variables), v)
}
