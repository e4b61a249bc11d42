package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/store"
	"github.com/makereel/api/internal/stream"
)

type testEnv struct {
	stores     *store.MemoryStores
	events     *EventService
	storyboard *StoryboardService
	selection  *SelectionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stores := store.NewMemoryStores()
	events := NewEventService(stores, stream.NewHub())
	return &testEnv{
		stores:     stores,
		events:     events,
		storyboard: NewStoryboardService(stores, stores, events),
		selection:  NewSelectionService(stores, stores, events),
	}
}

func (e *testEnv) createSession(t *testing.T, id string) {
	t.Helper()
	err := e.stores.CreateSession(context.Background(), model.Session{
		ID: id, UserID: "u1", CompanyID: "c1", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestSaveCreatesScenes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createSession(t, "sess")

	scenes, version, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{
		{SceneID: "s1", Title: strPtr("Hook"), UseVoiceOver: boolPtr(true)},
		{SceneID: "s2", Title: strPtr("Demo")},
	}, 0)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if len(scenes) != 2 || scenes[0].Title != "Hook" || scenes[1].SceneID != "s2" {
		t.Errorf("unexpected scenes: %+v", scenes)
	}
	// Brand-new scene ids start with no voice-over and no matched clip.
	if scenes[0].VoiceOver != nil || scenes[0].MatchedScene != nil {
		t.Errorf("new scene must start unset: %+v", scenes[0])
	}
}

func TestSavePartialUpdatePreservesVoiceOverAndMatchedScene(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createSession(t, "sess")

	vo := &model.VoiceOver{AudioURL: "https://cdn/vo.mp3", Duration: 12.5, Voice: "nova"}
	matched := &model.MatchedScene{SourceVideoID: "v1", StartTime: 3, EndTime: 15.5}
	_, v1, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{
		{SceneID: "s1", Title: strPtr("Hook"), VoiceOver: vo, MatchedScene: matched},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}

	// A save that only touches the title leaves both attachments in place.
	scenes, _, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{
		{SceneID: "s1", Title: strPtr("Stronger hook")},
	}, v1)
	if err != nil {
		t.Fatal(err)
	}
	got := scenes[0]
	if got.Title != "Stronger hook" {
		t.Errorf("title not updated: %q", got.Title)
	}
	if got.VoiceOver == nil || got.VoiceOver.AudioURL != "https://cdn/vo.mp3" {
		t.Errorf("voice-over lost on partial update: %+v", got.VoiceOver)
	}
	if got.MatchedScene == nil || got.MatchedScene.SourceVideoID != "v1" {
		t.Errorf("matched clip lost on partial update: %+v", got.MatchedScene)
	}
}

func TestSaveDropsOmittedScenes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createSession(t, "sess")

	_, v1, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{
		{SceneID: "s1"}, {SceneID: "s2"},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}

	scenes, _, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{
		{SceneID: "s2"},
	}, v1)
	if err != nil {
		t.Fatal(err)
	}
	if len(scenes) != 1 || scenes[0].SceneID != "s2" {
		t.Errorf("omitted scene survived: %+v", scenes)
	}
}

func TestSaveVersionConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createSession(t, "sess")

	if _, _, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{{SceneID: "s1"}}, 0); err != nil {
		t.Fatal(err)
	}
	_, _, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{{SceneID: "s1"}}, 0)
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestUpdateSceneAppendsNewScene(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createSession(t, "sess")

	_, v1, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{{SceneID: "s1"}}, 0)
	if err != nil {
		t.Fatal(err)
	}

	scenes, _, err := env.storyboard.UpdateScene(ctx, "sess", "s2", model.SceneUpdate{
		Title: strPtr("Closer"),
	}, v1)
	if err != nil {
		t.Fatal(err)
	}
	if len(scenes) != 2 || scenes[1].SceneID != "s2" || scenes[1].Title != "Closer" {
		t.Errorf("new scene not appended: %+v", scenes)
	}
	if scenes[1].VoiceOver != nil || scenes[1].MatchedScene != nil {
		t.Errorf("new scene must start unset: %+v", scenes[1])
	}
}

func TestUpdateScenePreservesSiblings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createSession(t, "sess")

	vo := &model.VoiceOver{AudioURL: "https://cdn/a.mp3", Duration: 8}
	_, v1, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{
		{SceneID: "s1", VoiceOver: vo},
		{SceneID: "s2", Title: strPtr("Demo")},
	}, 0)
	if err != nil {
		t.Fatal(err)
	}

	scenes, _, err := env.storyboard.UpdateScene(ctx, "sess", "s2", model.SceneUpdate{
		Script: strPtr("Show the dashboard"),
	}, v1)
	if err != nil {
		t.Fatal(err)
	}
	if scenes[0].VoiceOver == nil {
		t.Errorf("untouched sibling lost voice-over: %+v", scenes[0])
	}
	if scenes[1].Script != "Show the dashboard" || scenes[1].Title != "Demo" {
		t.Errorf("scene not merged: %+v", scenes[1])
	}
}

func TestLoadUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.storyboard.Load(context.Background(), "missing")
	if !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveAppendsStoryboardEvent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createSession(t, "sess")

	if _, _, err := env.storyboard.Save(ctx, "sess", []model.SceneUpdate{{SceneID: "s1"}}, 0); err != nil {
		t.Fatal(err)
	}

	var zero int64
	events, _, err := env.stores.ReadSince(ctx, "sess", &zero)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != model.EventStoryboardSaved {
		t.Errorf("expected storyboard_saved event, got %+v", events)
	}
}
