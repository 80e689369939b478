// Package profile holds the per-session profile state, mirrors it to a
// Persister and opportunistically syncs it with the data service.
//
// Every mutation follows one shape: set Loading, call the remote, then either
// commit the server row or merge the intended change locally. The result says
// which of the two happened.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/illegalcall/glow-up/internal/datastore"
	"github.com/illegalcall/glow-up/internal/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNoProfile  = errors.New("no profile loaded")
	// ErrLocalOnly marks changes kept locally because the profile was never
	// stored remotely.
	ErrLocalOnly = errors.New("profile has no remote id")
)

var syncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "glowup_profile_sync_total",
	Help: "Profile store operations by outcome (synced, local).",
}, []string{"operation", "outcome"})

// State is the persisted content of a store.
type State struct {
	Profile *models.Profile `json:"profile"`
	Loading bool            `json:"loading"`
}

// Remote is the subset of the data service the store talks to.
type Remote interface {
	CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
	IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error)
}

// Outcome is the committed profile and whether it came from the server.
// When Synced is false, Err holds the remote failure.
type Outcome struct {
	Profile *models.Profile
	Synced  bool
	Err     error
}

type Store struct {
	session string
	remote  Remote
	persist Persister
	logger  *slog.Logger

	// opMu serializes operations; mu guards state.
	opMu  sync.Mutex
	mu    sync.RWMutex
	state State
}

// NewStore creates an empty store. persist may be nil.
func NewStore(session string, remote Remote, persist Persister, logger *slog.Logger) *Store {
	return &Store{
		session: session,
		remote:  remote,
		persist: persist,
		logger:  logger.With("session", session),
	}
}

// Restore loads persisted state. A stale Loading flag is cleared.
func (s *Store) Restore(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	state, ok, err := s.persist.Load(ctx, s.session)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	state.Loading = false

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Profile: s.state.Profile.Clone(), Loading: s.state.Loading}
}

// Profile returns a copy of the current profile, or nil.
func (s *Store) Profile() *models.Profile {
	return s.Snapshot().Profile
}

func (s *Store) setLoading(ctx context.Context, loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	state := State{Profile: s.state.Profile.Clone(), Loading: loading}
	s.mu.Unlock()
	s.save(ctx, state)
}

func (s *Store) commit(ctx context.Context, p *models.Profile) {
	s.mu.Lock()
	s.state = State{Profile: p.Clone()}
	s.mu.Unlock()
	s.save(ctx, State{Profile: p.Clone()})
}

func (s *Store) save(ctx context.Context, state State) {
	if s.persist == nil {
		return
	}
	// persistence must not be skipped because the request was cancelled
	if err := s.persist.Save(context.WithoutCancel(ctx), s.session, state); err != nil {
		s.logger.Warn("Failed to persist profile state", "error", err)
	}
}

func (s *Store) current() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Profile.Clone()
}

// cancelled clears Loading and reports the context error if the caller went
// away while the remote call was in flight.
func (s *Store) cancelled(ctx context.Context, op string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	s.logger.Info("Discarding remote result for cancelled request", "op", op)
	s.setLoading(ctx, false)
	return err
}

func (s *Store) synced(op string, p *models.Profile) Outcome {
	syncTotal.WithLabelValues(op, "synced").Inc()
	return Outcome{Profile: p, Synced: true}
}

func (s *Store) local(op string, p *models.Profile, err error) Outcome {
	s.logger.Warn("Remote call failed, keeping local state", "op", op, "error", err)
	syncTotal.WithLabelValues(op, "local").Inc()
	return Outcome{Profile: p, Synced: false, Err: err}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndexByte(email, '@'):], ".") {
		return fmt.Errorf("%w: %q is not a valid email", ErrValidation, email)
	}
	return nil
}

// Create registers a profile. draft carries the name, email and initial
// attributes and counters. An email that is already registered is returned as
// datastore.ErrConflict and nothing is committed.
func (s *Store) Create(ctx context.Context, draft models.Profile) (Outcome, error) {
	draft.Email = NormalizeEmail(draft.Email)
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return Outcome{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validateEmail(draft.Email); err != nil {
		return Outcome{}, err
	}
	draft.ID = ""

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(ctx, true)
	created, err := s.remote.CreateProfile(ctx, &draft)
	if cerr := s.cancelled(ctx, "create"); cerr != nil {
		return Outcome{}, cerr
	}

	if errors.Is(err, datastore.ErrConflict) {
		s.setLoading(ctx, false)
		return Outcome{}, err
	}
	if err != nil {
		local := draft.Clone()
		if existing := s.current(); existing != nil && existing.Email == draft.Email {
			local.ID = existing.ID
			local.CreatedAt = existing.CreatedAt
		}
		s.commit(ctx, local)
		return s.local("create", local, err), nil
	}

	s.commit(ctx, created)
	return s.synced("create", created), nil
}

// Load fetches the profile for email. A missing profile is returned as
// datastore.ErrNotFound. Any other remote failure keeps the cached profile for
// that email or starts a local one.
func (s *Store) Load(ctx context.Context, email string) (Outcome, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return Outcome{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(ctx, true)
	loaded, err := s.remote.GetProfileByEmail(ctx, email)
	if cerr := s.cancelled(ctx, "load"); cerr != nil {
		return Outcome{}, cerr
	}

	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			s.setLoading(ctx, false)
			return Outcome{}, err
		}
		local := s.current()
		if local == nil || local.Email != email {
			local = &models.Profile{Email: email, Name: strings.Split(email, "@")[0]}
		}
		s.commit(ctx, local)
		return s.local("load", local, err), nil
	}

	s.commit(ctx, loaded)
	return s.synced("load", loaded), nil
}

// Changes lists the editable attributes; nil fields are left alone.
type Changes struct {
	Name               *string
	FaceShape          *models.FaceShape
	SkinTone           *models.SkinTone
	PhotoURL           *string
	AnalysisConfidence *int
}

func (c Changes) validate() error {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if c.FaceShape != nil && !c.FaceShape.Valid() {
		return fmt.Errorf("%w: unknown face shape %q", ErrValidation, *c.FaceShape)
	}
	if c.SkinTone != nil && !c.SkinTone.Valid() {
		return fmt.Errorf("%w: unknown skin tone %q", ErrValidation, *c.SkinTone)
	}
	if c.AnalysisConfidence != nil && (*c.AnalysisConfidence < 0 || *c.AnalysisConfidence > 100) {
		return fmt.Errorf("%w: confidence must be between 0 and 100", ErrValidation)
	}
	return nil
}

func (c Changes) apply(p *models.Profile) {
	if c.Name != nil {
		p.Name = strings.TrimSpace(*c.Name)
	}
	if c.FaceShape != nil {
		p.FaceShape = *c.FaceShape
	}
	if c.SkinTone != nil {
		p.SkinTone = *c.SkinTone
	}
	if c.PhotoURL != nil {
		p.PhotoURL = *c.PhotoURL
	}
	if c.AnalysisConfidence != nil {
		p.AnalysisConfidence = *c.AnalysisConfidence
	}
}

// Update applies changes to the current profile. A profile that only exists
// locally is created remotely instead.
func (s *Store) Update(ctx context.Context, changes Changes) (Outcome, error) {
	if err := changes.validate(); err != nil {
		return Outcome{}, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	merged := s.current()
	if merged == nil {
		return Outcome{}, ErrNoProfile
	}
	changes.apply(merged)

	s.setLoading(ctx, true)
	var (
		saved *models.Profile
		err   error
	)
	if merged.ID == "" {
		saved, err = s.remote.CreateProfile(ctx, merged)
	} else {
		saved, err = s.remote.UpdateProfile(ctx, merged)
	}
	if cerr := s.cancelled(ctx, "update"); cerr != nil {
		return Outcome{}, cerr
	}

	if err != nil {
		s.commit(ctx, merged)
		return s.local("update", merged, err), nil
	}

	s.commit(ctx, saved)
	return s.synced("update", saved), nil
}

// Stats carries target counter values; nil fields are left alone.
type Stats struct {
	GlowDays     *int
	CheckIns     *int
	LooksCreated *int
}

func (st Stats) targets() map[models.Stat]int {
	targets := make(map[models.Stat]int)
	if st.GlowDays != nil {
		targets[models.StatGlowDays] = *st.GlowDays
	}
	if st.CheckIns != nil {
		targets[models.StatCheckIns] = *st.CheckIns
	}
	if st.LooksCreated != nil {
		targets[models.StatLooksCreated] = *st.LooksCreated
	}
	return targets
}

// UpdateStats raises counters to the given values. The remote increment is
// only called for counters whose target is above the cached value, once per
// counter, with the difference as delta.
func (s *Store) UpdateStats(ctx context.Context, stats Stats) (Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.updateStats(ctx, stats.targets())
}

// Bump adds one to each listed counter.
func (s *Store) Bump(ctx context.Context, stats ...models.Stat) (Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	p := s.current()
	if p == nil {
		return Outcome{}, ErrNoProfile
	}
	targets := make(map[models.Stat]int, len(stats))
	for _, stat := range stats {
		targets[stat] = p.Stat(stat) + 1
	}
	return s.updateStats(ctx, targets)
}

func (s *Store) updateStats(ctx context.Context, targets map[models.Stat]int) (Outcome, error) {
	p := s.current()
	if p == nil {
		return Outcome{}, ErrNoProfile
	}

	pending := make([]models.Stat, 0, len(targets))
	for _, stat := range models.Stats {
		if target, ok := targets[stat]; ok && target > p.Stat(stat) {
			pending = append(pending, stat)
		}
	}
	if len(pending) == 0 {
		return Outcome{Profile: p, Synced: p.ID != ""}, nil
	}

	if p.ID == "" {
		for _, stat := range pending {
			p.SetStat(stat, targets[stat])
		}
		s.commit(ctx, p)
		return s.local("update_stats", p, ErrLocalOnly), nil
	}

	s.setLoading(ctx, true)
	var errs []error
	applied := make(map[models.Stat]int, len(pending))
	for _, stat := range pending {
		value, err := s.remote.IncrementStat(ctx, p.ID, stat, targets[stat]-p.Stat(stat))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		applied[stat] = max(value, targets[stat])
	}
	for stat, value := range applied {
		p.SetStat(stat, value)
	}

	// increments that reached the server are committed even for a cancelled
	// caller; only the local merge of failed ones is dropped
	if err := ctx.Err(); err != nil {
		s.logger.Info("Request cancelled during stat update", "applied", len(applied))
		if len(applied) > 0 {
			s.commit(ctx, p)
		} else {
			s.setLoading(ctx, false)
		}
		return Outcome{}, err
	}

	for _, stat := range pending {
		if _, ok := applied[stat]; !ok {
			p.SetStat(stat, targets[stat])
		}
	}
	s.commit(ctx, p)

	if len(errs) > 0 {
		return s.local("update_stats", p, errors.Join(errs...)), nil
	}
	return s.synced("update_stats", p), nil
}

// Clear drops the local state. Nothing is deleted remotely.
func (s *Store) Clear(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Delete(ctx, s.session); err != nil {
			return err
		}
	}
	return nil
}
