package repository

import (
	"context"
	"time"

	"servifrio/internal/dto"
	"servifrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FacturaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, f *model.Factura) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error)
	List(ctx context.Context, filter dto.FacturaFilter) ([]model.Factura, int64, error)
	// UpdateAnulacionTx flips estado to anulada only when it is still vigente;
	// returns the number of rows touched so the caller can detect a lost race.
	UpdateAnulacionTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo string, por uuid.UUID, cuando time.Time) (int64, error)
	// MarkImpresaTx flips impresa only when it is still false; returns the
	// number of rows touched so the caller can skip the bitácora on a lost race.
	MarkImpresaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, cuando time.Time) (int64, error)
	Update(ctx context.Context, f *model.Factura) error
	ListPendingPDFRetries(ctx context.Context, now time.Time, limit int) ([]model.Factura, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type facturaRepo struct{ db *gorm.DB }

func NewFacturaRepository(db *gorm.DB) FacturaRepository { return &facturaRepo{db: db} }

func (r *facturaRepo) DB() *gorm.DB { return r.db }

func (r *facturaRepo) Create(ctx context.Context, tx *gorm.DB, f *model.Factura) error {
	return tx.WithContext(ctx).Create(f).Error
}

func (r *facturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("numero_linea ASC") }).
		Preload("Cai").
		First(&f, id).Error
	return &f, err
}

func (r *facturaRepo) List(ctx context.Context, filter dto.FacturaFilter) ([]model.Factura, int64, error) {
	var facturas []model.Factura
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Factura{})

	if filter.Numero != "" {
		q = q.Where("numero ILIKE ?", "%"+filter.Numero+"%")
	}
	if filter.RTN != "" {
		q = q.Where("cliente_rtn ILIKE ?", "%"+filter.RTN+"%")
	}
	if filter.Desde != "" {
		q = q.Where("DATE(fecha_emision) >= ?", filter.Desde)
	}
	if filter.Hasta != "" {
		q = q.Where("DATE(fecha_emision) <= ?", filter.Hasta)
	}
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("numero_linea ASC") }).
		Order("fecha_emision DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&facturas).Error
	return facturas, total, err
}

func (r *facturaRepo) UpdateAnulacionTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo string, por uuid.UUID, cuando time.Time) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.Factura{}).
		Where("id = ? AND estado = ?", id, model.FacturaVigente).
		Updates(map[string]interface{}{
			"estado":           model.FacturaAnulada,
			"motivo_anulacion": motivo,
			"anulada_por":      por,
			"anulada_at":       cuando,
		})
	return res.RowsAffected, res.Error
}

func (r *facturaRepo) MarkImpresaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, cuando time.Time) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.Factura{}).
		Where("id = ? AND impresa = ?", id, false).
		Updates(map[string]interface{}{"impresa": true, "impresa_at": cuando})
	return res.RowsAffected, res.Error
}

func (r *facturaRepo) Update(ctx context.Context, f *model.Factura) error {
	return r.db.WithContext(ctx).Save(f).Error
}

// ListPendingPDFRetries feeds the retry cron: facturas without a rendered PDF
// whose next attempt is due.
func (r *facturaRepo) ListPendingPDFRetries(ctx context.Context, now time.Time, limit int) ([]model.Factura, error) {
	var facturas []model.Factura
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("numero_linea ASC") }).
		Preload("Cai").
		Where("pdf_path IS NULL AND pdf_next_retry_at IS NOT NULL AND pdf_next_retry_at <= ?", now).
		Limit(limit).
		Find(&facturas).Error
	return facturas, err
}
