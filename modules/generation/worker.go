package generation

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"vitrine-studio-server/modules/common/database"
	"vitrine-studio-server/modules/common/fallback"
	"vitrine-studio-server/modules/common/model"
	"vitrine-studio-server/modules/progress"
)

const queueKey = "jobs:queue"

// Worker - Redis 큐에서 생성 Job을 꺼내 처리
type Worker struct {
	rdb   *redis.Client
	db    *database.Client
	coord *Coordinator
	hub   *progress.Hub
}

func NewWorker(rdb *redis.Client, db *database.Client, coord *Coordinator, hub *progress.Hub) *Worker {
	return &Worker{rdb: rdb, db: db, coord: coord, hub: hub}
}

// Start - Queue 감시 루프 (블로킹, goroutine에서 호출)
func (w *Worker) Start(ctx context.Context) {
	log.Println("Redis Queue Worker starting...")
	log.Printf("👀 Watching queue: %s", queueKey)

	for {
		result, err := w.rdb.BRPop(ctx, 0, queueKey).Result()
		if err != nil {
			if ctx.Err() != nil {
				log.Println("🛑 Worker stopped")
				return
			}
			log.Printf("Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0]은 큐 이름, result[1]이 실제 job_id
		jobID := result[1]
		log.Printf("Received new job: %s", jobID)

		go w.processJob(ctx, jobID)
	}
}

// processJob - Job 1건 처리
func (w *Worker) processJob(ctx context.Context, jobID string) {
	log.Printf("Processing job: %s", jobID)

	job, err := w.db.FetchJob(jobID)
	if err != nil {
		log.Printf("Failed to fetch job %s: %v", jobID, err)
		return
	}

	if job.JobStatus != model.StatusPending {
		log.Printf("⚠️  Skipping job %s in status %s", jobID, job.JobStatus)
		return
	}

	brief, err := BriefFromJobInput(job.JobInputData)
	if err != nil {
		w.failJob(ctx, jobID, "invalid job input: "+err.Error())
		return
	}

	fallback.BestEffort("mark job processing", func() error {
		return w.db.UpdateJobStatus(ctx, jobID, model.StatusProcessing)
	})
	w.publish(jobID, StageQueued, "")

	result, err := w.coord.RunGeneration(ctx, job.UserID, brief, func(stage string) {
		w.publish(jobID, stage, "")
	})
	if err != nil {
		w.failJob(ctx, jobID, err.Error())
		return
	}

	if result.SessionID != "" {
		fallback.BestEffort("attach session to job", func() error {
			return w.db.AttachJobSession(ctx, jobID, result.SessionID)
		})
	}
	fallback.BestEffort("mark job completed", func() error {
		return w.db.UpdateJobStatus(ctx, jobID, model.StatusCompleted)
	})

	log.Printf("✅ Job completed: %s → %s", jobID, result.OutputImageURL)
}

func (w *Worker) failJob(ctx context.Context, jobID string, message string) {
	log.Printf("❌ Job failed: %s - %s", jobID, message)
	fallback.BestEffort("mark job failed", func() error {
		return w.db.MarkJobFailed(ctx, jobID, message)
	})
	w.publish(jobID, StageFailed, message)
}

func (w *Worker) publish(jobID string, stage string, message string) {
	if w.hub != nil {
		w.hub.Publish(jobID, stage, message)
	}
}
