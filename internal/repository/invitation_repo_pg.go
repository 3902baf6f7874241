package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pressroom/invitehub/internal/model"
)

type pgInvitationRepository struct {
	db *gorm.DB
}

func NewPGInvitationRepository(db *gorm.DB) InvitationRepository {
	return &pgInvitationRepository{db: db}
}

func (r *pgInvitationRepository) ReplaceInitialized(ctx context.Context, rec *model.Invitation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&model.Invitation{}).
			Where("type = ?", rec.Type).
			Where("status = ?", model.InvitationStatusInitialized)
		if rec.UserID != nil {
			stale = stale.Where("user_id = ?", *rec.UserID)
		} else {
			stale = stale.Where("email = ?", rec.Email)
		}
		if rec.ContextID != nil {
			stale = stale.Where("context_id = ?", *rec.ContextID)
		} else {
			stale = stale.Where("context_id IS NULL")
		}
		if err := stale.Delete(&model.Invitation{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

func (r *pgInvitationRepository) GetByID(ctx context.Context, id int64) (*model.Invitation, error) {
	var rec model.Invitation
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *pgInvitationRepository) Update(ctx context.Context, rec *model.Invitation) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *pgInvitationRepository) UpdatePayload(ctx context.Context, id int64, payload model.PayloadMap) error {
	return r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("id = ?", id).
		UpdateColumn("payload", payload).
		Error
}

func (r *pgInvitationRepository) UpdateStatus(ctx context.Context, id int64, status model.InvitationStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("id = ?", id).
		UpdateColumn("status", status).
		Error
}

func (r *pgInvitationRepository) List(ctx context.Context) ([]model.Invitation, error) {
	var recs []model.Invitation
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
