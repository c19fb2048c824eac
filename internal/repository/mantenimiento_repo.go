package repository

import (
	"context"

	"servifrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MantenimientoRepository is a read surface: work-order CRUD belongs to the
// administrative module, invoicing only resolves references.
type MantenimientoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Mantenimiento, error)
	ListFinalizados(ctx context.Context, clienteID *uuid.UUID, limit int) ([]model.Mantenimiento, error)
}

type mantenimientoRepo struct{ db *gorm.DB }

func NewMantenimientoRepository(db *gorm.DB) MantenimientoRepository {
	return &mantenimientoRepo{db: db}
}

func (r *mantenimientoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Mantenimiento, error) {
	var m model.Mantenimiento
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *mantenimientoRepo) ListFinalizados(ctx context.Context, clienteID *uuid.UUID, limit int) ([]model.Mantenimiento, error) {
	var ms []model.Mantenimiento
	q := r.db.WithContext(ctx).Where("estado = ?", model.MantenimientoFinalizado)
	if clienteID != nil {
		q = q.Where("cliente_id = ?", *clienteID)
	}
	err := q.Order("fecha_realizada DESC").Limit(limit).Find(&ms).Error
	return ms, err
}
