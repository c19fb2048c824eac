package repository

import (
	"context"

	"servifrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BitacoraRepository is append-only: no Update or Delete exists by design.
type BitacoraRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, e *model.BitacoraFactura) error
	ListByFactura(ctx context.Context, facturaID uuid.UUID) ([]model.BitacoraFactura, error)
}

type bitacoraRepo struct{ db *gorm.DB }

func NewBitacoraRepository(db *gorm.DB) BitacoraRepository { return &bitacoraRepo{db: db} }

func (r *bitacoraRepo) CreateTx(ctx context.Context, tx *gorm.DB, e *model.BitacoraFactura) error {
	return tx.WithContext(ctx).Create(e).Error
}

func (r *bitacoraRepo) ListByFactura(ctx context.Context, facturaID uuid.UUID) ([]model.BitacoraFactura, error) {
	var entries []model.BitacoraFactura
	err := r.db.WithContext(ctx).
		Where("factura_id = ?", facturaID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
