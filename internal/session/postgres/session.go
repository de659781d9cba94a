package postgres

import (
	"context"
	"errors"
	"time"

	sessionDatamodel "github.com/frahmantamala/admin-console/internal/core/datamodel/session"
	"github.com/frahmantamala/admin-console/internal/session"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) session.RepositoryAPI {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Save(ctx context.Context, s *sessionDatamodel.ConsoleSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// GetByID returns nil, nil when no session has the id.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*sessionDatamodel.ConsoleSession, error) {
	var s sessionDatamodel.ConsoleSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&sessionDatamodel.ConsoleSession{}).
		Where("id = ?", id).
		Update("last_seen_at", at).Error
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionDatamodel.ConsoleSession{}).Error
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("refresh_expires_at < ?", before).Delete(&sessionDatamodel.ConsoleSession{})
	return res.RowsAffected, res.Error
}
