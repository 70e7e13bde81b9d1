package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.AuditRepository = (*AuditRepository)(nil)

// AuditRepository is the in-memory moderation audit trail
type AuditRepository struct {
	store *Store
}

func (r *AuditRepository) Append(ctx context.Context, event *models.ModerationEvent) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e := *event
	e.ExpiresAt = copyTime(event.ExpiresAt)
	r.store.audit = append(r.store.audit, e)
	return nil
}

func (r *AuditRepository) Find(ctx context.Context, targetID *primitive.ObjectID, page, limit int) ([]*models.ModerationEvent, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	matched := []*models.ModerationEvent{}
	for _, e := range r.store.audit {
		if targetID == nil || e.TargetID == *targetID {
			c := e
			matched = append(matched, &c)
		}
	}
	r.store.mu.RUnlock()

	sortByCreated(matched, func(e *models.ModerationEvent) (time.Time, primitive.ObjectID) { return e.CreatedAt, e.ID }, false)
	return paginate(matched, page, limit), int64(len(matched)), nil
}
