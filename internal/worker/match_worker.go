package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/service"
)

// MatchWorker processes scene-match jobs
type MatchWorker struct {
	matchService *service.MatchService
}

// NewMatchWorker creates a new match worker
func NewMatchWorker(matchService *service.MatchService) *MatchWorker {
	return &MatchWorker{
		matchService: matchService,
	}
}

// ProcessTask handles match task processing
func (w *MatchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	var payload model.MatchJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal match payload: %w", err)
	}

	log.Printf("Processing match job %s (session %s, scene %s)", taskPayload.JobID, payload.SessionID, payload.SceneID)

	if err := w.matchService.RunMatch(ctx, taskPayload.JobID, payload); err != nil {
		log.Printf("Match job %s failed: %v", taskPayload.JobID, err)
		return err
	}

	log.Printf("Match job %s completed", taskPayload.JobID)
	return nil
}
