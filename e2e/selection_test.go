package e2e

import (
	"net/http"
	"strconv"
	"testing"
)

// runMatchedSession drives the flow up to a scene with candidates and returns
// the session id plus the storyboard version to use for the next mutation.
func runMatchedSession(t *testing.T, ta *testApp) (string, int64) {
	t.Helper()
	sessionID := createSession(t, ta)
	saveStoryboard(t, ta, sessionID, 0)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost,
		"/api/sessions/"+sessionID+"/scenes/scene-1/match", `{"mode": "VOICE_OVER"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	jobID := parseJSON(t, resp)["jobId"].(string)
	status := waitForJob(t, ta, jobID)
	if status["status"] != "succeeded" {
		t.Fatalf("match job failed: %v", status)
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/sessions/"+sessionID+"/storyboard", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	version := int64(parseJSON(t, resp)["version"].(float64))
	return sessionID, version
}

func TestSelection_SelectAndHistory(t *testing.T) {
	ta := setupApp(t)
	sessionID, version := runMatchedSession(t, ta)

	payload := `{"candidateIndex": 0, "expectedVersion": ` + strconv.FormatInt(version, 10) + `}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPost,
		"/api/sessions/"+sessionID+"/scenes/scene-1/select", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	matched, ok := body["matchedScene"].(map[string]interface{})
	if !ok {
		t.Fatalf("no matched scene in response: %v", body)
	}
	if src, _ := matched["sourceVideoId"].(string); src == "" {
		t.Fatalf("matched scene missing source video: %v", matched)
	}
	newVersion := int64(body["version"].(float64))
	if newVersion != version+1 {
		t.Errorf("expected version %d, got %d", version+1, newVersion)
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/sessions/"+sessionID+"/history/scene-1", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	entries := parseJSON(t, resp)["entries"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	entry := entries[0].(map[string]interface{})
	if entry["kind"] != "select" {
		t.Errorf("expected select entry, got %v", entry)
	}
	if _, hasPrev := entry["previous"]; hasPrev {
		t.Error("first selection must record an empty prior state")
	}
}

func TestSelection_RestoreClearsToPriorState(t *testing.T) {
	ta := setupApp(t)
	sessionID, version := runMatchedSession(t, ta)

	payload := `{"candidateIndex": 0, "expectedVersion": ` + strconv.FormatInt(version, 10) + `}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPost,
		"/api/sessions/"+sessionID+"/scenes/scene-1/select", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	version = int64(parseJSON(t, resp)["version"].(float64))

	// Entry 0 captured "no selection": restoring it clears the matched clip.
	payload = `{"historyIndex": 0, "expectedVersion": ` + strconv.FormatInt(version, 10) + `}`
	resp, err = doAuthRequest(t, ta.app, http.MethodPost,
		"/api/sessions/"+sessionID+"/scenes/scene-1/restore", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if matched, hasMatch := body["matchedScene"]; hasMatch && matched != nil {
		t.Errorf("expected cleared selection, got %v", matched)
	}

	// The restore is itself a history entry with a back-reference.
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/sessions/"+sessionID+"/history/scene-1", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	entries := parseJSON(t, resp)["entries"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	last := entries[1].(map[string]interface{})
	if last["kind"] != "restore" {
		t.Errorf("expected restore entry, got %v", last)
	}
	if last["restoredIndex"].(float64) != 0 {
		t.Errorf("expected back-reference to entry 0, got %v", last["restoredIndex"])
	}
}

func TestSelection_CandidateOutOfRange(t *testing.T) {
	ta := setupApp(t)
	sessionID, version := runMatchedSession(t, ta)

	payload := `{"candidateIndex": 99, "expectedVersion": ` + strconv.FormatInt(version, 10) + `}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPost,
		"/api/sessions/"+sessionID+"/scenes/scene-1/select", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestSelection_StaleVersionRejected(t *testing.T) {
	ta := setupApp(t)
	sessionID, version := runMatchedSession(t, ta)

	payload := `{"candidateIndex": 0, "expectedVersion": ` + strconv.FormatInt(version-1, 10) + `}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPost,
		"/api/sessions/"+sessionID+"/scenes/scene-1/select", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
}
