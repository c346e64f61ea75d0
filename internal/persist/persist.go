// Package persist moves ledger and user state in and out of a store.KV.
// Each collection lives under its own key as a JSON document; every save
// rewrites all keys together.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/store"
	"github.com/kiwari-pos/ledger/internal/users"
	"github.com/rs/zerolog/log"
)

// Keys under which state is stored.
const (
	KeyMenu            = "menu"
	KeyCategories      = "categories"
	KeyOrders          = "orders"
	KeyCompletedOrders = "completedOrders"
	KeyTemplates       = "orderTemplates"
	KeySettings        = "settings"
	KeyNextOrderID     = "nextOrderId"
	KeyUsers           = "users"
)

// Snapshot is everything that gets persisted.
type Snapshot struct {
	Ledger ledger.State
	Users  []users.User
}

// Load reads every key. A key that is absent or fails to decode falls back
// to its default on its own; only backend failures are returned.
func Load(ctx context.Context, kv store.KV) (Snapshot, error) {
	s := Snapshot{
		Ledger: ledger.State{
			Menu:       ledger.DefaultMenu(),
			Categories: ledger.DefaultCategories(),
			Ongoing:    []ledger.Order{},
			Completed:  []ledger.Order{},
			Templates:  []ledger.Template{},
			Settings:   ledger.DefaultSettings(),
			NextNumber: ledger.FirstOrderNumber,
		},
		Users: []users.User{},
	}

	err := errors.Join(
		loadKey(ctx, kv, KeyMenu, &s.Ledger.Menu),
		loadKey(ctx, kv, KeyCategories, &s.Ledger.Categories),
		loadKey(ctx, kv, KeyOrders, &s.Ledger.Ongoing),
		loadKey(ctx, kv, KeyCompletedOrders, &s.Ledger.Completed),
		loadKey(ctx, kv, KeyTemplates, &s.Ledger.Templates),
		loadKey(ctx, kv, KeySettings, &s.Ledger.Settings),
		loadKey(ctx, kv, KeyNextOrderID, &s.Ledger.NextNumber),
		loadKey(ctx, kv, KeyUsers, &s.Users),
	)
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// loadKey decodes key into dst, leaving dst untouched when the key is
// missing or corrupt.
func loadKey[T any](ctx context.Context, kv store.KV, key string, dst *T) error {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		log.Debug().Str("key", key).Msg("key absent, using default")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}

	// Decode into a fresh value so a half-decoded document never leaks.
	var fresh T
	if err := json.Unmarshal(raw, &fresh); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt key, using default")
		return nil
	}
	*dst = fresh
	return nil
}

// Encode renders a snapshot as one JSON document per key.
func Encode(s Snapshot) (map[string][]byte, error) {
	values := map[string]any{
		KeyMenu:            s.Ledger.Menu,
		KeyCategories:      s.Ledger.Categories,
		KeyOrders:          s.Ledger.Ongoing,
		KeyCompletedOrders: s.Ledger.Completed,
		KeyTemplates:       s.Ledger.Templates,
		KeySettings:        s.Ledger.Settings,
		KeyNextOrderID:     s.Ledger.NextNumber,
		KeyUsers:           s.Users,
	}
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

// --- Saver ---

// Saver writes the current ledger and user state to the store.
type Saver struct {
	kv     store.KV
	ledger *ledger.Ledger
	users  *users.Directory

	mu      sync.Mutex
	lastErr error
}

func NewSaver(kv store.KV, l *ledger.Ledger, dir *users.Directory) *Saver {
	return &Saver{kv: kv, ledger: l, users: dir}
}

// Save snapshots and writes all keys. Failures are logged and kept for
// LastError; the in-memory state is left as it is.
func (s *Saver) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Ledger: s.ledger.Snapshot()}
	if s.users != nil {
		snap.Users = s.users.List()
	}

	err := s.write(ctx, snap)
	s.lastErr = err
	if err != nil {
		log.Error().Err(err).Msg("save ledger state")
		return err
	}
	return nil
}

func (s *Saver) write(ctx context.Context, snap Snapshot) error {
	entries, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := s.kv.PutAll(ctx, entries); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// LastError is the result of the most recent Save.
func (s *Saver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Run saves every interval until ctx is done, then saves once more with a
// short grace period.
func (s *Saver) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		s.finalSave()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finalSave()
			return
		case <-ticker.C:
			_ = s.Save(ctx)
		}
	}
}

func (s *Saver) finalSave() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Save(ctx); err == nil {
		log.Info().Msg("ledger state saved on shutdown")
	}
}
