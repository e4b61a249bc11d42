package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/makereel/api/internal/model"
)

// Key layout:
//
//	session:{id}                 session metadata (JSON)
//	session:{id}:storyboard      storyboard record {version, scenes} (JSON)
//	session:{id}:history:{scene} selection history (list of JSON entries)
//	session:{id}:events          event log (list of JSON events)
//	job:{id}                     match job record (JSON, TTL)

const jobRetention = 24 * time.Hour

// RedisStores implements every store interface on a single Redis client.
type RedisStores struct {
	redis *redis.Client
}

func NewRedisStores(client *redis.Client) *RedisStores {
	return &RedisStores{redis: client}
}

// Bundle returns the interface bundle backed by this Redis client.
func (r *RedisStores) Bundle() Stores {
	return Stores{Sessions: r, Storyboards: r, History: r, Events: r, Jobs: r}
}

func sessionKey(id string) string          { return "session:" + id }
func storyboardKey(id string) string       { return "session:" + id + ":storyboard" }
func historyKey(id, sceneID string) string { return "session:" + id + ":history:" + sceneID }
func eventsKey(id string) string           { return "session:" + id + ":events" }
func jobKey(id string) string              { return "job:" + id }

// CreateSession persists session metadata.
func (r *RedisStores) CreateSession(ctx context.Context, s model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, sessionKey(s.ID), data, 0).Err()
}

// GetSession loads session metadata.
func (r *RedisStores) GetSession(ctx context.Context, id string) (model.Session, error) {
	data, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.Session{}, ErrSessionNotFound
		}
		return model.Session{}, err
	}
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// storyboardRecord is the stored form: scenes plus the optimistic version.
type storyboardRecord struct {
	Version int64                   `json:"version"`
	Scenes  []model.StoryboardScene `json:"scenes"`
}

// Load returns the scenes and the version to pass to the next Save. A session
// with no storyboard yet loads as empty at version 0.
func (r *RedisStores) Load(ctx context.Context, sessionID string) ([]model.StoryboardScene, int64, error) {
	data, err := r.redis.Get(ctx, storyboardKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	var rec storyboardRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, 0, err
	}
	return rec.Scenes, rec.Version, nil
}

// Save writes the storyboard under an optimistic version check. The WATCH
// transaction makes the check-and-set atomic against concurrent writers.
func (r *RedisStores) Save(ctx context.Context, sessionID string, scenes []model.StoryboardScene, expectedVersion int64) (int64, error) {
	key := storyboardKey(sessionID)
	newVersion := expectedVersion + 1

	err := r.redis.Watch(ctx, func(tx *redis.Tx) error {
		current := int64(0)
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var rec storyboardRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}
			current = rec.Version
		}
		if current != expectedVersion {
			return ErrVersionConflict
		}

		payload, err := json.Marshal(storyboardRecord{Version: newVersion, Scenes: scenes})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if err == redis.TxFailedErr {
		// Key changed between read and write; same outcome as a version mismatch.
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// AppendHistory pushes a selection history entry; the returned sequence is the
// entry's 1-based position in the scene's history.
func (r *RedisStores) AppendHistory(ctx context.Context, sessionID string, entry model.SelectionHistoryEntry) (int, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return 0, err
	}
	n, err := r.redis.RPush(ctx, historyKey(sessionID, entry.SceneID), data).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// History returns the full selection history for a scene, oldest first.
func (r *RedisStores) History(ctx context.Context, sessionID, sceneID string) ([]model.SelectionHistoryEntry, error) {
	raw, err := r.redis.LRange(ctx, historyKey(sessionID, sceneID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]model.SelectionHistoryEntry, 0, len(raw))
	for i, item := range raw {
		var e model.SelectionHistoryEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("corrupt history entry: %w", err)
		}
		e.Seq = i + 1
		entries = append(entries, e)
	}
	return entries, nil
}

// Append pushes an event onto the session log. RPUSH returns the new list
// length, which doubles as the event's sequence number: assignment is
// serialized by Redis, so sequences are monotonic and gap-free and a reader
// can never observe a sequence without its payload.
func (r *RedisStores) Append(ctx context.Context, sessionID string, evt model.Event) (int64, error) {
	// The stored payload carries a provisional sequence of 0; the sequence a
	// reader sees is derived from the list position, which RPUSH assigned.
	data, err := json.Marshal(evt)
	if err != nil {
		return 0, err
	}
	seq, err := r.redis.RPush(ctx, eventsKey(sessionID), data).Result()
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// ReadSince returns events with sequence > cursor and the cursor for the next
// call. A nil cursor establishes the current head with no events.
func (r *RedisStores) ReadSince(ctx context.Context, sessionID string, cursor *int64) ([]model.Event, int64, error) {
	key := eventsKey(sessionID)
	if cursor == nil {
		head, err := r.redis.LLen(ctx, key).Result()
		if err != nil {
			return nil, 0, err
		}
		return nil, head, nil
	}

	raw, err := r.redis.LRange(ctx, key, *cursor, -1).Result()
	if err != nil {
		return nil, 0, err
	}
	events := make([]model.Event, 0, len(raw))
	for i, item := range raw {
		var e model.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, 0, fmt.Errorf("corrupt event at sequence %d: %w", *cursor+int64(i)+1, err)
		}
		e.Sequence = *cursor + int64(i) + 1
		events = append(events, e)
	}
	return events, *cursor + int64(len(events)), nil
}

// SaveJob persists a match job record.
func (r *RedisStores) SaveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, jobKey(job.ID), data, jobRetention).Err()
}

// GetJob loads a match job record.
func (r *RedisStores) GetJob(ctx context.Context, id string) (*model.Job, error) {
	data, err := r.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
