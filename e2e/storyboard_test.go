package e2e

import (
	"net/http"
	"testing"
)

func TestStoryboard_SaveAndLoad(t *testing.T) {
	ta := setupApp(t)
	sessionID := createSession(t, ta)

	version := saveStoryboard(t, ta, sessionID, 0)
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/sessions/"+sessionID+"/storyboard", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	scenes, ok := body["scenes"].([]interface{})
	if !ok || len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %v", body["scenes"])
	}
	first := scenes[0].(map[string]interface{})
	if first["sceneId"] != "scene-1" || first["title"] != "Hook" {
		t.Errorf("unexpected first scene: %v", first)
	}
	if first["voiceOver"] == nil {
		t.Error("voice-over missing after save")
	}
	if _, hasMatch := first["matchedScene"]; hasMatch {
		t.Error("new scene must start without a matched clip")
	}
}

func TestStoryboard_VersionConflict(t *testing.T) {
	ta := setupApp(t)
	sessionID := createSession(t, ta)
	saveStoryboard(t, ta, sessionID, 0)

	// Re-sending expectedVersion 0 is a stale write.
	payload := `{"expectedVersion": 0, "scenes": [{"sceneId": "scene-1", "title": "Stale"}]}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/sessions/"+sessionID+"/storyboard", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)

	body := parseJSON(t, resp)
	errDetail, ok := body["error"].(map[string]interface{})
	if !ok || errDetail["code"] != "VERSION_CONFLICT" {
		t.Errorf("expected VERSION_CONFLICT envelope, got %v", body)
	}
}

func TestStoryboard_PartialUpdatePreservesVoiceOver(t *testing.T) {
	ta := setupApp(t)
	sessionID := createSession(t, ta)
	version := saveStoryboard(t, ta, sessionID, 0)

	// PATCH touching only the title must leave the voice-over attached.
	payload := `{"expectedVersion": 1, "title": "Sharper hook"}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPatch, "/api/sessions/"+sessionID+"/scenes/scene-1", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if int64(body["version"].(float64)) != version+1 {
		t.Errorf("expected version bump, got %v", body["version"])
	}
	scenes := body["scenes"].([]interface{})
	first := scenes[0].(map[string]interface{})
	if first["title"] != "Sharper hook" {
		t.Errorf("title not updated: %v", first["title"])
	}
	vo, ok := first["voiceOver"].(map[string]interface{})
	if !ok || vo["audioUrl"] != "https://cdn/vo-1.mp3" {
		t.Errorf("voice-over lost on partial update: %v", first["voiceOver"])
	}
}

func TestStoryboard_PatchAppendsNewScene(t *testing.T) {
	ta := setupApp(t)
	sessionID := createSession(t, ta)
	saveStoryboard(t, ta, sessionID, 0)

	payload := `{"expectedVersion": 1, "title": "Outro"}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPatch, "/api/sessions/"+sessionID+"/scenes/scene-3", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	scenes := body["scenes"].([]interface{})
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}
	last := scenes[2].(map[string]interface{})
	if last["sceneId"] != "scene-3" || last["title"] != "Outro" {
		t.Errorf("new scene not appended: %v", last)
	}
	if _, hasVO := last["voiceOver"]; hasVO {
		t.Error("new scene must start without a voice-over")
	}
}

func TestStoryboard_SaveRequiresScenes(t *testing.T) {
	ta := setupApp(t)
	sessionID := createSession(t, ta)

	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/sessions/"+sessionID+"/storyboard", `{"scenes": []}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}
