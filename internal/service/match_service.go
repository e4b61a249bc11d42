package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/makereel/api/internal/config"
	"github.com/makereel/api/internal/match"
	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/store"
	"github.com/makereel/api/internal/timecode"
	"github.com/makereel/api/pkg/metrics"
)

const (
	TaskTypeMatch = "match:process"
)

// CandidateGenerator is the opaque analysis boundary producing raw candidate
// clips for one (scene, video) job.
type CandidateGenerator interface {
	GenerateCandidates(ctx context.Context, job model.MatchJob, feedback string) ([]model.RawCandidate, error)
	IsConfigured() bool
}

// VideoIndex resolves library videos to duration and filename.
type VideoIndex interface {
	Lookup(ctx context.Context, videoID string) (model.VideoMeta, error)
	List(ctx context.Context, companyID string) ([]model.VideoRef, error)
	IsConfigured() bool
}

// MatchService queues and runs the scene-matching pipeline.
type MatchService struct {
	stores      store.Stores
	asynqClient *asynq.Client
	generator   CandidateGenerator
	videoIndex  VideoIndex
	selection   *SelectionService
	events      *EventService
	cfg         config.MatchingConfig
}

func NewMatchService(
	stores store.Stores,
	asynqClient *asynq.Client,
	generator CandidateGenerator,
	videoIndex VideoIndex,
	selection *SelectionService,
	events *EventService,
	cfg config.MatchingConfig,
) *MatchService {
	if cfg.DurationTolerance <= 0 {
		cfg.DurationTolerance = match.DefaultDurationTolerance
	}
	if cfg.ClampTolerance <= 0 {
		cfg.ClampTolerance = match.DefaultClampTolerance
	}
	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = match.DefaultOverlapThreshold
	}
	return &MatchService{
		stores:      stores,
		asynqClient: asynqClient,
		generator:   generator,
		videoIndex:  videoIndex,
		selection:   selection,
		events:      events,
		cfg:         cfg,
	}
}

// StartMatch queues a new scene-match job.
func (s *MatchService) StartMatch(ctx context.Context, payload model.MatchJobPayload) (*model.MatchStartResponse, error) {
	// The scene must exist before we queue anything.
	scenes, _, err := s.stores.Storyboards.Load(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := findScene(scenes, payload.SceneID); err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	now := time.Now()

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypeMatch,
		Status:    model.JobStatusQueued,
		Progress:  0,
		Payload:   payloadBytes,
		CreatedAt: now,
	}
	if err := s.stores.Jobs.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newMatchTask(jobID, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if s.asynqClient != nil {
		_, err = s.asynqClient.Enqueue(task,
			asynq.Queue("match"),
			asynq.MaxRetry(3),
			asynq.Retention(24*time.Hour),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to enqueue task: %w", err)
		}
	} else {
		// No queue configured (local runs without Redis): process inline.
		go func() {
			if err := s.RunMatch(context.Background(), jobID, payload); err != nil {
				log.Printf("Inline match job %s failed: %v", jobID, err)
			}
		}()
	}

	if _, err := s.events.Append(ctx, payload.SessionID, model.EventMatchStarted, map[string]string{
		"jobId":   jobID,
		"sceneId": payload.SceneID,
		"mode":    string(payload.Mode),
	}); err != nil {
		return nil, err
	}

	return &model.MatchStartResponse{
		JobID:     jobID,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}, nil
}

// GetStatus returns the current status of a match job.
func (s *MatchService) GetStatus(ctx context.Context, jobID string) (*model.MatchStatusResponse, error) {
	job, err := s.stores.Jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &model.MatchStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

// RunMatch executes the pipeline for one queued job: build (scene, video)
// jobs, generate and validate candidates per video, filter by duration in
// voice-over mode, dedupe across the aggregate, store the surviving pool and
// announce it on the event log. Called by the worker.
func (s *MatchService) RunMatch(ctx context.Context, jobID string, payload model.MatchJobPayload) error {
	if err := s.runMatch(ctx, jobID, payload); err != nil {
		metrics.MatchJobs.WithLabelValues(string(model.JobStatusFailed)).Inc()
		s.failJob(ctx, jobID, payload.SessionID, payload.SceneID, err)
		return err
	}
	metrics.MatchJobs.WithLabelValues(string(model.JobStatusSucceeded)).Inc()
	return nil
}

func (s *MatchService) runMatch(ctx context.Context, jobID string, payload model.MatchJobPayload) error {
	if err := s.updateProgress(ctx, jobID, 0, "loading storyboard"); err != nil {
		return err
	}

	session, err := s.stores.Sessions.GetSession(ctx, payload.SessionID)
	if err != nil {
		return err
	}
	scenes, _, err := s.stores.Storyboards.Load(ctx, payload.SessionID)
	if err != nil {
		return err
	}
	idx, err := findScene(scenes, payload.SceneID)
	if err != nil {
		return err
	}
	scene := scenes[idx]

	videos, err := s.listVideos(ctx, session.CompanyID)
	if err != nil {
		return err
	}

	jobs, err := match.BuildJobs(scene, videos, payload.Mode, payload.Notes)
	if err != nil {
		return err
	}

	var pool []model.SceneCandidate
	for i, job := range jobs {
		progress := (i * 90) / len(jobs)
		step := fmt.Sprintf("analyzing %s", job.VideoMeta.Filename)
		if err := s.updateProgress(ctx, jobID, progress, step); err != nil {
			return err
		}
		if _, err := s.events.Append(ctx, payload.SessionID, model.EventMatchProgress, map[string]interface{}{
			"jobId":    jobID,
			"sceneId":  payload.SceneID,
			"videoId":  job.VideoID,
			"progress": progress,
		}); err != nil {
			return err
		}

		cands, err := s.runJob(ctx, job)
		if err != nil {
			return err
		}
		pool = append(pool, cands...)
	}

	if err := s.updateProgress(ctx, jobID, 90, "deduplicating candidates"); err != nil {
		return err
	}
	deduped, warnings := match.Dedupe(payload.SceneID, pool, s.cfg.OverlapThreshold)
	if n := len(pool) - len(deduped); n > 0 {
		metrics.CandidatesDropped.WithLabelValues(metrics.StageDedupe).Add(float64(n))
	}
	for _, w := range warnings {
		log.Printf("Match job %s: %s", jobID, w)
	}
	for i := range deduped {
		deduped[i].Shortlisted = true
		deduped[i].LastRank = i + 1
	}

	if err := s.selection.SetCandidates(ctx, payload.SessionID, payload.SceneID, deduped); err != nil {
		return err
	}

	if _, err := s.events.Append(ctx, payload.SessionID, model.EventCandidatesReady, map[string]interface{}{
		"jobId":          jobID,
		"sceneId":        payload.SceneID,
		"candidateCount": len(deduped),
		"warnings":       warnings,
	}); err != nil {
		return err
	}

	return s.completeJob(ctx, jobID, &model.MatchJobResult{
		SceneID:        payload.SceneID,
		CandidateCount: len(deduped),
		Warnings:       warnings,
	})
}

// generationAttempts is how many times one (scene, video) job may call the
// generator: the initial attempt plus one retry with the shortlist rejection
// fed back as feedback context.
const generationAttempts = 2

// runJob generates and validates candidates for a single (scene, video) pair.
func (s *MatchService) runJob(ctx context.Context, job model.MatchJob) ([]model.SceneCandidate, error) {
	var lastErr error
	feedback := ""

	for attempt := 0; attempt < generationAttempts; attempt++ {
		raws, err := s.generate(ctx, job, feedback)
		if err != nil {
			return nil, err
		}
		metrics.CandidatesGenerated.Add(float64(len(raws)))

		clips, err := s.clipsFromRaw(ctx, raws, job)
		if err != nil {
			return nil, err
		}

		if err := match.ValidateShortlist(clips, job.VideoMeta.Duration, s.cfg.ClampTolerance); err != nil {
			// The rejection text is legible to the model; feed it back and
			// let it self-correct on the next attempt.
			feedback = err.Error()
			lastErr = err
			continue
		}

		cands := make([]model.SceneCandidate, 0, len(clips))
		for i, clip := range clips {
			cands = append(cands, model.SceneCandidate{
				SourceVideoID:     clip.VideoID,
				StartTime:         clip.StartTime,
				EndTime:           clip.EndTime,
				Description:       raws[i].Description,
				Rationale:         raws[i].Rationale,
				KeepOriginalAudio: job.Mode == model.MatchModeOriginalAudio,
			})
		}

		if job.Mode == model.MatchModeVoiceOver {
			filtered := match.FilterByDuration(cands, job.TargetDuration, s.cfg.DurationTolerance)
			if n := len(cands) - len(filtered); n > 0 {
				metrics.CandidatesDropped.WithLabelValues(metrics.StageDurationFilter).Add(float64(n))
			}
			cands = filtered
		}
		return cands, nil
	}
	return nil, fmt.Errorf("shortlist validation failed for video %s: %w", job.VideoID, lastErr)
}

// clipsFromRaw parses the generator's timestamps into shortlist clips. Every
// candidate must reference the job's video; any other id means the generator
// broke its per-job contract.
func (s *MatchService) clipsFromRaw(ctx context.Context, raws []model.RawCandidate, job model.MatchJob) ([]model.ShortlistClip, error) {
	clips := make([]model.ShortlistClip, 0, len(raws))
	for i, raw := range raws {
		if raw.VideoID != job.VideoID {
			if s.videoIndex != nil && s.videoIndex.IsConfigured() {
				if _, err := s.videoIndex.Lookup(ctx, raw.VideoID); err != nil {
					return nil, fmt.Errorf("candidate %d: %w", i+1, err)
				}
			}
			return nil, fmt.Errorf("candidate %d references video %s outside job for %s", i+1, raw.VideoID, job.VideoID)
		}
		start, err := timecode.Parse(raw.StartTimestamp)
		if err != nil {
			return nil, fmt.Errorf("candidate %d start: %w", i+1, err)
		}
		end, err := timecode.Parse(raw.EndTimestamp)
		if err != nil {
			return nil, fmt.Errorf("candidate %d end: %w", i+1, err)
		}
		clips = append(clips, model.ShortlistClip{
			VideoID:   raw.VideoID,
			StartTime: start,
			EndTime:   end,
			Reason:    raw.Rationale,
		})
	}
	return clips, nil
}

// listVideos returns the candidate library, falling back to fixtures when the
// index is not configured (local development).
func (s *MatchService) listVideos(ctx context.Context, companyID string) ([]model.VideoRef, error) {
	if s.videoIndex == nil || !s.videoIndex.IsConfigured() {
		return mockVideoLibrary(), nil
	}
	return s.videoIndex.List(ctx, companyID)
}

// generate calls the analysis boundary, falling back to deterministic mock
// candidates when it is not configured.
func (s *MatchService) generate(ctx context.Context, job model.MatchJob, feedback string) ([]model.RawCandidate, error) {
	if s.generator == nil || !s.generator.IsConfigured() {
		return mockCandidates(job), nil
	}
	return s.generator.GenerateCandidates(ctx, job, feedback)
}

// Job record helpers

func (s *MatchService) updateProgress(ctx context.Context, jobID string, progress int, step string) error {
	job, err := s.stores.Jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	job.Progress = progress
	job.CurrentStep = step
	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}
	return s.stores.Jobs.SaveJob(ctx, job)
}

func (s *MatchService) completeJob(ctx context.Context, jobID string, result *model.MatchJobResult) error {
	job, err := s.stores.Jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}
	job.Status = model.JobStatusSucceeded
	job.Progress = 100
	job.CurrentStep = ""
	job.Result = resultBytes
	now := time.Now()
	job.CompletedAt = &now
	return s.stores.Jobs.SaveJob(ctx, job)
}

func (s *MatchService) failJob(ctx context.Context, jobID, sessionID, sceneID string, cause error) {
	job, err := s.stores.Jobs.GetJob(ctx, jobID)
	if err != nil {
		log.Printf("Failed to load job %s for failure update: %v", jobID, err)
		return
	}
	msg := cause.Error()
	job.Status = model.JobStatusFailed
	job.Error = &msg
	now := time.Now()
	job.CompletedAt = &now
	if err := s.stores.Jobs.SaveJob(ctx, job); err != nil {
		log.Printf("Failed to save failed job %s: %v", jobID, err)
	}

	if _, err := s.events.Append(ctx, sessionID, model.EventMatchFailed, map[string]string{
		"jobId":   jobID,
		"sceneId": sceneID,
		"error":   msg,
	}); err != nil {
		log.Printf("Failed to append match_failed event for job %s: %v", jobID, err)
	}
}

func newMatchTask(jobID string, payload []byte) (*asynq.Task, error) {
	taskPayload := map[string]interface{}{
		"jobId":   jobID,
		"payload": payload,
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeMatch, data), nil
}

// Mock fixtures for development without external services.

func mockVideoLibrary() []model.VideoRef {
	return []model.VideoRef{
		{ID: "demo-product-tour", Meta: model.VideoMeta{Duration: 129.660227, Filename: "product_tour.mp4"}},
		{ID: "demo-testimonial", Meta: model.VideoMeta{Duration: 84.2, Filename: "customer_testimonial.mp4"}},
	}
}

func mockCandidates(job model.MatchJob) []model.RawCandidate {
	end := job.TargetDuration
	if end > job.VideoMeta.Duration {
		end = job.VideoMeta.Duration
	}
	return []model.RawCandidate{
		{
			VideoID:        job.VideoID,
			StartTimestamp: "00:00:00.000",
			EndTimestamp:   timecode.Format(end),
			Description:    "Opening segment",
			Rationale:      "Matches the scene intent and target duration",
			NoTalkingHeads: true,
			NoSubtitles:    true,
		},
	}
}
