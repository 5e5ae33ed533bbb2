package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// Store persists session state as JSON in Redis with a sliding TTL: every
// write refreshes the expiry, mirroring an active till staying alive.
type Store struct {
	R   *redis.Client
	TTL time.Duration
	Now func() time.Time
}

func (s *Store) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Store) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create initialises a new session for the operator with the given display
// currency and persists it.
func (s *Store) Create(ctx context.Context, operatorID, displayCurrency string) (State, error) {
	if s == nil || s.R == nil {
		return State{}, errors.New("session store not configured")
	}
	now := s.now()
	state := State{
		ID:              uuid.NewString(),
		OperatorID:      operatorID,
		DisplayCurrency: displayCurrency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Save(ctx, &state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (State, error) {
	if s == nil || s.R == nil {
		return State{}, errors.New("session store not configured")
	}
	data, err := s.R.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("load session: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}

// Save persists the session and refreshes its TTL.
func (s *Store) Save(ctx context.Context, state *State) error {
	if s == nil || s.R == nil {
		return errors.New("session store not configured")
	}
	state.UpdatedAt = s.now()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.R.Set(ctx, keyPrefix+state.ID, data, s.ttl()).Err()
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.R == nil {
		return errors.New("session store not configured")
	}
	return s.R.Del(ctx, keyPrefix+id).Err()
}

// Update loads a session, applies fn, and saves the result. Returns the
// updated state.
func (s *Store) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	state, err := s.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	if err := fn(&state); err != nil {
		return State{}, err
	}
	if err := s.Save(ctx, &state); err != nil {
		return State{}, err
	}
	return state, nil
}
