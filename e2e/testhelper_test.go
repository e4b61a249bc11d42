package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makereel/api/internal/client"
	"github.com/makereel/api/internal/config"
	"github.com/makereel/api/internal/handler"
	"github.com/makereel/api/internal/middleware"
	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/internal/store"
	"github.com/makereel/api/internal/stream"
)

const (
	testUserID    = "test-user-123"
	testCompanyID = "test-company-456"
)

// testApp holds all components needed for testing
type testApp struct {
	app *fiber.App
}

// setupApp creates a Fiber app identical to main.go but backed by in-memory
// stores and unconfigured external clients, so services use mock fallbacks and
// match jobs run inline instead of through the queue.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	stores := store.NewMemoryStores().Bundle()
	validate := validator.New()

	hub := stream.NewHub()
	streamAdapter := stream.NewAdapter(stores.Events, hub, 20*time.Millisecond)

	// External clients — unconfigured so services fall back to fixtures
	analysisClient := client.NewAnalysisClient(&config.AnalysisConfig{})
	videoIndexClient := client.NewVideoIndexClient(&config.VideoIndexConfig{})

	// Services
	eventService := service.NewEventService(stores.Events, hub)
	sessionService := service.NewSessionService(stores.Sessions, eventService)
	storyboardService := service.NewStoryboardService(stores.Sessions, stores.Storyboards, eventService)
	selectionService := service.NewSelectionService(stores.Storyboards, stores.History, eventService)
	matchService := service.NewMatchService(stores, nil, analysisClient, videoIndexClient, selectionService, eventService, config.MatchingConfig{})

	// Handlers
	sessionHandler := handler.NewSessionHandler(sessionService, validate)
	storyboardHandler := handler.NewStoryboardHandler(storyboardService, validate)
	selectionHandler := handler.NewSelectionHandler(selectionService, validate)
	matchHandler := handler.NewMatchHandler(matchService, validate)
	eventsHandler := handler.NewEventsHandler(sessionService, eventService)
	streamHandler := handler.NewStreamHandler(sessionService, streamAdapter)

	// nil Redis → rate limits are not enforced in tests
	rateLimiter := middleware.NewRateLimiter(nil)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":      false,
				"analysis":   analysisClient.IsConfigured(),
				"videoIndex": videoIndexClient.IsConfigured(),
			},
		})
	})

	api := app.Group("/api", middleware.GatewayAuthMiddleware())

	api.Post("/sessions", sessionHandler.Create)

	api.Get("/sessions/:sessionId/storyboard", storyboardHandler.Load)
	api.Put("/sessions/:sessionId/storyboard", rateLimiter.SaveLimit(10000), storyboardHandler.Save)
	api.Patch("/sessions/:sessionId/scenes/:sceneId", rateLimiter.SaveLimit(10000), storyboardHandler.UpdateScene)

	api.Post("/sessions/:sessionId/scenes/:sceneId/match", rateLimiter.MatchLimit(10000), matchHandler.Start)
	api.Get("/match/status/:jobId", matchHandler.Status)

	api.Post("/sessions/:sessionId/scenes/:sceneId/select", selectionHandler.Select)
	api.Post("/sessions/:sessionId/scenes/:sceneId/restore", selectionHandler.Restore)
	api.Get("/sessions/:sessionId/history/:sceneId", selectionHandler.History)

	api.Get("/sessions/:sessionId/events", eventsHandler.List)
	api.Get("/sessions/:sessionId/stream", streamHandler.Stream)

	return &testApp{app: app}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs a request carrying the gateway identity headers.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"X-User-Id":    testUserID,
		"X-Company-Id": testCompanyID,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// createSession opens a session and returns its id.
func createSession(t *testing.T, ta *testApp) string {
	t.Helper()
	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/sessions", "{}")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)
	body := parseJSON(t, resp)
	id, _ := body["sessionId"].(string)
	if id == "" {
		t.Fatalf("no sessionId in response: %v", body)
	}
	return id
}

// saveStoryboard writes a two-scene storyboard where scene-1 carries a
// voice-over, and returns the new version.
func saveStoryboard(t *testing.T, ta *testApp, sessionID string, expectedVersion int64) int64 {
	t.Helper()
	payload := `{
		"expectedVersion": ` + strconv.FormatInt(expectedVersion, 10) + `,
		"scenes": [
			{"sceneId": "scene-1", "title": "Hook", "useVoiceOver": true,
			 "voiceOver": {"audioUrl": "https://cdn/vo-1.mp3", "duration": 10.0, "voice": "nova"}},
			{"sceneId": "scene-2", "title": "Demo"}
		]
	}`
	resp, err := doAuthRequest(t, ta.app, http.MethodPut, "/api/sessions/"+sessionID+"/storyboard", payload)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	body := parseJSON(t, resp)
	version, ok := body["version"].(float64)
	if !ok {
		t.Fatalf("no version in response: %v", body)
	}
	return int64(version)
}

// waitForJob polls the match status endpoint until the job leaves the
// queued/running states.
func waitForJob(t *testing.T, ta *testApp, jobID string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/match/status/"+jobID, "")
		if err != nil {
			t.Fatalf("status request failed: %v", err)
		}
		body := parseJSON(t, resp)
		switch body["status"] {
		case "succeeded", "failed":
			return body
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for match job")
	return nil
}
