package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/storage"
)

// Memory is an in-process DataStore used when no database is configured.
// It follows the same ordering and degraded-value rules as Store.
type Memory struct {
	mu     sync.Mutex
	blobs  storage.Storage
	logger *slog.Logger
	now    func() time.Time
	fail   error

	profiles  map[string]*models.Profile // by id
	routines  []models.SkincareRoutine
	hair      []models.HairCheckIn
	haircuts  []models.HaircutRecommendation
	outfits   []models.Outfit
	closet    []models.ClosetItem
	reminders []models.Reminder
	plan      []models.WeeklyPlanEntry
	jobs      []models.AnalysisJob
}

func NewMemory(blobs storage.Storage, logger *slog.Logger) *Memory {
	return &Memory{
		blobs:    blobs,
		logger:   logger,
		now:      time.Now,
		profiles: make(map[string]*models.Profile),
	}
}

// SetFailure makes every following call fail with err wrapped as ErrRemote.
// A nil err restores normal operation.
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Memory) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrRemote, err)
	}
	if m.fail != nil {
		m.logger.Error("Data service call failed", "op", op, "error", m.fail)
		return fmt.Errorf("%s: %w: %w", op, ErrRemote, m.fail)
	}
	return nil
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}

func (m *Memory) CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "create profile"); err != nil {
		return nil, err
	}

	for _, existing := range m.profiles {
		if existing.Email == p.Email {
			return nil, fmt.Errorf("create profile %s: %w", p.Email, ErrConflict)
		}
	}

	created := p.Clone()
	created.ID = uuid.New().String()
	created.CreatedAt = m.now()
	created.UpdatedAt = created.CreatedAt
	m.profiles[created.ID] = created
	return created.Clone(), nil
}

func (m *Memory) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get profile by email"); err != nil {
		return nil, err
	}
	for _, p := range m.profiles {
		if p.Email == email {
			return p.Clone(), nil
		}
	}
	return nil, notFound("get profile by email")
}

func (m *Memory) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get profile by id"); err != nil {
		return nil, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, notFound("get profile by id")
	}
	return p.Clone(), nil
}

func (m *Memory) UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "update profile"); err != nil {
		return nil, err
	}
	existing, ok := m.profiles[p.ID]
	if !ok {
		return nil, notFound("update profile")
	}
	existing.Name = p.Name
	existing.FaceShape = p.FaceShape
	existing.SkinTone = p.SkinTone
	existing.PhotoURL = p.PhotoURL
	existing.AnalysisConfidence = p.AnalysisConfidence
	existing.UpdatedAt = m.now()
	return existing.Clone(), nil
}

func (m *Memory) IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error) {
	if !stat.Valid() {
		return 0, fmt.Errorf("increment stat: unknown stat %q", stat)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "increment stat"); err != nil {
		return 0, err
	}
	p, ok := m.profiles[profileID]
	if !ok {
		return 0, notFound("increment stat")
	}
	p.SetStat(stat, p.Stat(stat)+delta)
	p.UpdatedAt = m.now()
	return p.Stat(stat), nil
}

func (m *Memory) SaveSkincareRoutine(ctx context.Context, r *models.SkincareRoutine) (*models.SkincareRoutine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "save skincare routine"); err != nil {
		return nil, err
	}

	saved := *r
	saved.SkinCondition = jsonOrEmpty(r.SkinCondition, "{}")
	saved.MorningSteps = jsonOrEmpty(r.MorningSteps, "[]")
	saved.EveningSteps = jsonOrEmpty(r.EveningSteps, "[]")
	for i, existing := range m.routines {
		if existing.ProfileID == r.ProfileID && existing.RoutineDate == r.RoutineDate {
			saved.ID = existing.ID
			saved.CreatedAt = existing.CreatedAt
			m.routines[i] = saved
			return &saved, nil
		}
	}
	saved.ID = uuid.New().String()
	saved.CreatedAt = m.now()
	m.routines = append(m.routines, saved)
	return &saved, nil
}

func (m *Memory) GetSkincareRoutines(ctx context.Context, profileID string, limit int) ([]models.SkincareRoutine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get skincare routines"); err != nil {
		return []models.SkincareRoutine{}, err
	}
	routines := []models.SkincareRoutine{}
	for _, r := range m.routines {
		if r.ProfileID == profileID {
			routines = append(routines, r)
		}
	}
	sort.SliceStable(routines, func(i, j int) bool { return routines[i].RoutineDate > routines[j].RoutineDate })
	return truncate(routines, limit), nil
}

func (m *Memory) GetSkincareRoutineForDate(ctx context.Context, profileID, date string) (*models.SkincareRoutine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get skincare routine for date"); err != nil {
		return nil, err
	}
	for _, r := range m.routines {
		if r.ProfileID == profileID && r.RoutineDate == date {
			return &r, nil
		}
	}
	return nil, notFound("get skincare routine for date")
}

func (m *Memory) SaveHairCheckIn(ctx context.Context, c *models.HairCheckIn) (*models.HairCheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "save hair check-in"); err != nil {
		return nil, err
	}
	saved := *c
	saved.ID = uuid.New().String()
	saved.Concerns = nonNil(c.Concerns)
	saved.CreatedAt = m.now()
	m.hair = append(m.hair, saved)
	return &saved, nil
}

func (m *Memory) GetHairCheckIns(ctx context.Context, profileID string, limit int) ([]models.HairCheckIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get hair check-ins"); err != nil {
		return []models.HairCheckIn{}, err
	}
	return truncate(newestFirst(m.hair, func(c models.HairCheckIn) bool { return c.ProfileID == profileID }), limit), nil
}

func (m *Memory) SaveHaircutRecommendation(ctx context.Context, r *models.HaircutRecommendation) (*models.HaircutRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "save haircut recommendation"); err != nil {
		return nil, err
	}
	saved := *r
	saved.ID = uuid.New().String()
	saved.Styles = nonNil(r.Styles)
	saved.CreatedAt = m.now()
	m.haircuts = append(m.haircuts, saved)
	return &saved, nil
}

func (m *Memory) GetHaircutRecommendations(ctx context.Context, profileID string) ([]models.HaircutRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get haircut recommendations"); err != nil {
		return []models.HaircutRecommendation{}, err
	}
	return newestFirst(m.haircuts, func(r models.HaircutRecommendation) bool { return r.ProfileID == profileID }), nil
}

func (m *Memory) SaveOutfit(ctx context.Context, o *models.Outfit) (*models.Outfit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "save outfit"); err != nil {
		return nil, err
	}
	saved := *o
	saved.ID = uuid.New().String()
	saved.Accessories = nonNil(o.Accessories)
	saved.CreatedAt = m.now()
	m.outfits = append(m.outfits, saved)
	return &saved, nil
}

func (m *Memory) GetOutfits(ctx context.Context, profileID string, limit int) ([]models.Outfit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get outfits"); err != nil {
		return []models.Outfit{}, err
	}
	return truncate(newestFirst(m.outfits, func(o models.Outfit) bool { return o.ProfileID == profileID }), limit), nil
}

func (m *Memory) SetOutfitFavorite(ctx context.Context, profileID, id string, favorite bool) (*models.Outfit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "set outfit favorite"); err != nil {
		return nil, err
	}
	for i := range m.outfits {
		if m.outfits[i].ID == id && m.outfits[i].ProfileID == profileID {
			m.outfits[i].IsFavorite = favorite
			o := m.outfits[i]
			return &o, nil
		}
	}
	return nil, notFound("set outfit favorite")
}

func (m *Memory) DeleteOutfit(ctx context.Context, profileID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "delete outfit"); err != nil {
		return err
	}
	m.outfits = remove(m.outfits, func(o models.Outfit) bool { return o.ID == id && o.ProfileID == profileID })
	m.plan = remove(m.plan, func(e models.WeeklyPlanEntry) bool { return e.OutfitID == id && e.ProfileID == profileID })
	return nil
}

func (m *Memory) AddClosetItem(ctx context.Context, item *models.ClosetItem) (*models.ClosetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "add closet item"); err != nil {
		return nil, err
	}
	saved := *item
	saved.ID = uuid.New().String()
	saved.CreatedAt = m.now()
	m.closet = append(m.closet, saved)
	return &saved, nil
}

func (m *Memory) GetClosetItems(ctx context.Context, profileID string) ([]models.ClosetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get closet items"); err != nil {
		return []models.ClosetItem{}, err
	}
	return newestFirst(m.closet, func(c models.ClosetItem) bool { return c.ProfileID == profileID }), nil
}

func (m *Memory) DeleteClosetItem(ctx context.Context, profileID, id string) error {
	m.mu.Lock()
	if err := m.check(ctx, "delete closet item"); err != nil {
		m.mu.Unlock()
		return err
	}
	var imageURL string
	m.closet = remove(m.closet, func(c models.ClosetItem) bool {
		if c.ID == id && c.ProfileID == profileID {
			imageURL = c.ImageURL
			return true
		}
		return false
	})
	m.mu.Unlock()

	deleteImage(ctx, m.blobs, m.logger, imageURL)
	return nil
}

func (m *Memory) CreateReminder(ctx context.Context, r *models.Reminder) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "create reminder"); err != nil {
		return nil, err
	}
	saved := *r
	saved.ID = uuid.New().String()
	saved.CreatedAt = m.now()
	m.reminders = append(m.reminders, saved)
	return &saved, nil
}

func (m *Memory) GetReminders(ctx context.Context, profileID string) ([]models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get reminders"); err != nil {
		return []models.Reminder{}, err
	}
	reminders := []models.Reminder{}
	for _, r := range m.reminders {
		if r.ProfileID == profileID {
			reminders = append(reminders, r)
		}
	}
	sort.SliceStable(reminders, func(i, j int) bool { return reminders[i].ScheduledTime < reminders[j].ScheduledTime })
	return reminders, nil
}

func (m *Memory) SetReminderActive(ctx context.Context, profileID, id string, active bool) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "set reminder active"); err != nil {
		return nil, err
	}
	for i := range m.reminders {
		if m.reminders[i].ID == id && m.reminders[i].ProfileID == profileID {
			m.reminders[i].IsActive = active
			r := m.reminders[i]
			return &r, nil
		}
	}
	return nil, notFound("set reminder active")
}

func (m *Memory) DeleteReminder(ctx context.Context, profileID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "delete reminder"); err != nil {
		return err
	}
	m.reminders = remove(m.reminders, func(r models.Reminder) bool { return r.ID == id && r.ProfileID == profileID })
	return nil
}

func (m *Memory) SetWeeklyPlanEntry(ctx context.Context, e *models.WeeklyPlanEntry) (*models.WeeklyPlanEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "set weekly plan entry"); err != nil {
		return nil, err
	}
	owned := false
	for _, o := range m.outfits {
		if o.ID == e.OutfitID && o.ProfileID == e.ProfileID {
			owned = true
			break
		}
	}
	if !owned {
		return nil, notFound("set weekly plan entry")
	}
	m.plan = remove(m.plan, func(p models.WeeklyPlanEntry) bool {
		return p.ProfileID == e.ProfileID && p.PlanDate == e.PlanDate
	})
	saved := *e
	saved.ID = uuid.New().String()
	saved.CreatedAt = m.now()
	m.plan = append(m.plan, saved)
	return &saved, nil
}

func (m *Memory) GetWeeklyPlan(ctx context.Context, profileID, from, to string) ([]models.WeeklyPlanEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get weekly plan"); err != nil {
		return []models.WeeklyPlanEntry{}, err
	}
	entries := []models.WeeklyPlanEntry{}
	for _, e := range m.plan {
		if e.ProfileID == profileID && e.PlanDate >= from && e.PlanDate <= to {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].PlanDate < entries[j].PlanDate })
	return entries, nil
}

func (m *Memory) DeleteWeeklyPlanEntry(ctx context.Context, profileID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "delete weekly plan entry"); err != nil {
		return err
	}
	m.plan = remove(m.plan, func(e models.WeeklyPlanEntry) bool { return e.ProfileID == profileID && e.PlanDate == date })
	return nil
}

func (m *Memory) CreateAnalysisJob(ctx context.Context, profileID string, jobType models.JobType) (*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "create analysis job"); err != nil {
		return nil, err
	}
	job := models.AnalysisJob{
		ID:        len(m.jobs) + 1,
		ProfileID: profileID,
		Type:      jobType,
		Status:    models.StatusPending,
		CreatedAt: m.now(),
	}
	m.jobs = append(m.jobs, job)
	return &job, nil
}

func (m *Memory) GetAnalysisJob(ctx context.Context, profileID string, id int) (*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get analysis job"); err != nil {
		return nil, err
	}
	for _, j := range m.jobs {
		if j.ID == id && j.ProfileID == profileID {
			return &j, nil
		}
	}
	return nil, notFound("get analysis job")
}

func (m *Memory) UpdateAnalysisJobStatus(ctx context.Context, id int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "update analysis job status"); err != nil {
		return err
	}
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			m.jobs[i].Status = status
		}
	}
	return nil
}

func (m *Memory) UploadImage(ctx context.Context, profileID, folder string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	failure := m.check(ctx, "upload image")
	m.mu.Unlock()
	if failure != nil {
		return "", failure
	}

	key := storage.ObjectKey(profileID, folder, contentType)
	url, err := m.blobs.StoreFromBytes(ctx, key, data, contentType)
	if err != nil {
		m.logger.Error("Data service call failed", "op", "upload image", "error", err)
		return "", fmt.Errorf("upload image: %w: %w", ErrRemote, err)
	}
	return url, nil
}

// newestFirst returns the matching rows in reverse insertion order.
func newestFirst[T any](rows []T, match func(T) bool) []T {
	out := []T{}
	for i := len(rows) - 1; i >= 0; i-- {
		if match(rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

func remove[T any](rows []T, match func(T) bool) []T {
	kept := rows[:0]
	for _, r := range rows {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

func truncate[T any](rows []T, limit int) []T {
	limit = limitOrDefault(limit)
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

var (
	_ DataStore = (*Store)(nil)
	_ DataStore = (*Memory)(nil)
)
