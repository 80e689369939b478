package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
	"github.com/illegalcall/glow-up/internal/service"
)

// Sessions returns the profile store a job acts on.
type Sessions func(ctx context.Context, email string) (*profile.Store, error)

// FreshSessions loads the profile from the data service for every job. The
// worker runs in its own process, so cached stores would go stale.
func FreshSessions(remote profile.Remote, persist profile.Persister, logger *slog.Logger) Sessions {
	return func(ctx context.Context, email string) (*profile.Store, error) {
		store := profile.NewStore(profile.NormalizeEmail(email), remote, persist, logger)
		outcome, err := store.Load(ctx, email)
		if err != nil {
			return nil, err
		}
		if !outcome.Synced {
			return nil, fmt.Errorf("profile not synced: %w", outcome.Err)
		}
		return store, nil
	}
}

// Handlers maps every job type to the flow that runs it.
func Handlers(svc *service.Service, sessions Sessions) map[models.JobType]HandlerFunc {
	return map[models.JobType]HandlerFunc{
		models.JobTypeFaceAnalysis: func(ctx context.Context, msg models.JobMessage, payload []byte) (models.Result, error) {
			var p Payload
			if err := json.Unmarshal(payload, &p); err != nil {
				return models.Result{}, fmt.Errorf("failed to unmarshal face analysis payload: %w", err)
			}
			store, err := sessions(ctx, msg.Email)
			if err != nil {
				return models.Result{}, err
			}
			res, err := svc.CompleteOnboarding(ctx, store, ai.Image{Data: p.Image, MIMEType: p.MIMEType})
			if err != nil {
				return models.Result{}, fmt.Errorf("%w: %w", ErrAnalyzed, err)
			}
			return result("Face analysis completed", res)
		},

		models.JobTypeClosetItem: func(ctx context.Context, msg models.JobMessage, payload []byte) (models.Result, error) {
			var p Payload
			if err := json.Unmarshal(payload, &p); err != nil {
				return models.Result{}, fmt.Errorf("failed to unmarshal closet item payload: %w", err)
			}
			store, err := sessions(ctx, msg.Email)
			if err != nil {
				return models.Result{}, err
			}
			res, err := svc.AddClosetItem(ctx, store, service.ClosetItemInput{
				Category:    models.ClosetCategory(p.Category),
				Color:       p.Color,
				Description: p.Description,
				Photo:       &ai.Image{Data: p.Image, MIMEType: p.MIMEType},
			})
			if err != nil {
				return models.Result{}, fmt.Errorf("%w: %w", ErrAnalyzed, err)
			}
			return result("Closet item added", res)
		},
	}
}

func result(message string, v interface{}) (models.Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return models.Result{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	return models.Result{Message: message, Data: data}, nil
}
