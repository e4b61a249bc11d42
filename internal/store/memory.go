package store

import (
	"context"
	"sync"

	"github.com/makereel/api/internal/model"
)

// MemoryStores is the in-process fallback used when Redis is not configured,
// and by tests. Same contracts as the Redis implementation, guarded by a
// single mutex.
type MemoryStores struct {
	mu          sync.RWMutex
	sessions    map[string]model.Session
	storyboards map[string]storyboardRecord
	history     map[string][]model.SelectionHistoryEntry // sessionID + "\x00" + sceneID
	events      map[string][]model.Event
	jobs        map[string]model.Job
}

func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		sessions:    make(map[string]model.Session),
		storyboards: make(map[string]storyboardRecord),
		history:     make(map[string][]model.SelectionHistoryEntry),
		events:      make(map[string][]model.Event),
		jobs:        make(map[string]model.Job),
	}
}

// Bundle returns the interface bundle backed by this in-memory store.
func (m *MemoryStores) Bundle() Stores {
	return Stores{Sessions: m, Storyboards: m, History: m, Events: m, Jobs: m}
}

func (m *MemoryStores) CreateSession(ctx context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStores) GetSession(ctx context.Context, id string) (model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStores) Load(ctx context.Context, sessionID string) ([]model.StoryboardScene, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.storyboards[sessionID]
	if !ok {
		return nil, 0, nil
	}
	scenes := make([]model.StoryboardScene, len(rec.Scenes))
	copy(scenes, rec.Scenes)
	return scenes, rec.Version, nil
}

func (m *MemoryStores) Save(ctx context.Context, sessionID string, scenes []model.StoryboardScene, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.storyboards[sessionID].Version
	if current != expectedVersion {
		return 0, ErrVersionConflict
	}
	stored := make([]model.StoryboardScene, len(scenes))
	copy(stored, scenes)
	rec := storyboardRecord{Version: expectedVersion + 1, Scenes: stored}
	m.storyboards[sessionID] = rec
	return rec.Version, nil
}

func historyMapKey(sessionID, sceneID string) string {
	return sessionID + "\x00" + sceneID
}

func (m *MemoryStores) AppendHistory(ctx context.Context, sessionID string, entry model.SelectionHistoryEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := historyMapKey(sessionID, entry.SceneID)
	m.history[key] = append(m.history[key], entry)
	return len(m.history[key]), nil
}

func (m *MemoryStores) History(ctx context.Context, sessionID, sceneID string) ([]model.SelectionHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.history[historyMapKey(sessionID, sceneID)]
	entries := make([]model.SelectionHistoryEntry, len(src))
	copy(entries, src)
	for i := range entries {
		entries[i].Seq = i + 1
	}
	return entries, nil
}

func (m *MemoryStores) Append(ctx context.Context, sessionID string, evt model.Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evt.Sequence = int64(len(m.events[sessionID]) + 1)
	m.events[sessionID] = append(m.events[sessionID], evt)
	return evt.Sequence, nil
}

func (m *MemoryStores) ReadSince(ctx context.Context, sessionID string, cursor *int64) ([]model.Event, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.events[sessionID]
	head := int64(len(log))
	if cursor == nil {
		return nil, head, nil
	}
	from := *cursor
	if from >= head {
		return nil, from, nil
	}
	events := make([]model.Event, head-from)
	copy(events, log[from:])
	return events, head, nil
}

func (m *MemoryStores) SaveJob(ctx context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *MemoryStores) GetJob(ctx context.Context, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}
