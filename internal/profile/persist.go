package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateVersion = 1
	keyPrefix    = "glow-up-profile:v1:"
)

// Persister keeps a session's State across restarts.
type Persister interface {
	Save(ctx context.Context, session string, state State) error
	// Load reports false when nothing usable is stored.
	Load(ctx context.Context, session string) (State, bool, error)
	Delete(ctx context.Context, session string) error
}

type envelope struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

// RedisPersister stores one versioned JSON document per session.
type RedisPersister struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPersister(client *redis.Client, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, ttl: ttl}
}

func stateKey(session string) string {
	return keyPrefix + session
}

func (p *RedisPersister) Save(ctx context.Context, session string, state State) error {
	data, err := json.Marshal(envelope{Version: stateVersion, State: state})
	if err != nil {
		return fmt.Errorf("encoding profile state: %w", err)
	}
	if err := p.client.Set(ctx, stateKey(session), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("saving profile state: %w", err)
	}
	return nil
}

func (p *RedisPersister) Load(ctx context.Context, session string) (State, bool, error) {
	data, err := p.client.Get(ctx, stateKey(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("loading profile state: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Version != stateVersion {
		// unreadable or written by another version
		p.client.Del(ctx, stateKey(session))
		return State{}, false, nil
	}
	return env.State, true, nil
}

func (p *RedisPersister) Delete(ctx context.Context, session string) error {
	if err := p.client.Del(ctx, stateKey(session)).Err(); err != nil {
		return fmt.Errorf("deleting profile state: %w", err)
	}
	return nil
}
