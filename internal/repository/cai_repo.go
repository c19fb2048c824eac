package repository

import (
	"context"
	"errors"
	"time"

	"servifrio/internal/dto"
	"servifrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Allocation failures surfaced by AllocateCorrelativoTx. The service layer
// propagates these untouched so handlers can map them to specific messages.
var (
	ErrCaiNoEncontrada = errors.New("autorizacion CAI no encontrada")
	ErrCaiAgotada      = errors.New("autorizacion CAI agotada: rango de correlativos consumido")
	ErrCaiVencida      = errors.New("autorizacion CAI vencida")
	ErrCaiInactiva     = errors.New("autorizacion CAI inactiva")
	// ErrConflictoConcurrencia is retryable: the row changed between the
	// claim and the diagnostic read. Resubmission must re-run full validation.
	ErrConflictoConcurrencia = errors.New("conflicto de concurrencia al asignar correlativo")
)

type CaiRepository interface {
	Create(ctx context.Context, c *model.CaiAutorizacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CaiAutorizacion, error)
	ExistsCodigo(ctx context.Context, codigo string) (bool, error)
	List(ctx context.Context, filter dto.CaiFilter) ([]model.CaiAutorizacion, int64, error)
	ListActivas(ctx context.Context, hoy time.Time) ([]model.CaiAutorizacion, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
	// SyncEstados persists the recomputed estado of rows whose stored value
	// went stale since the last write (expired or exhausted while idle).
	SyncEstados(ctx context.Context, hoy time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// AllocateCorrelativoTx claims the next correlative inside tx.
	// Must be called within the same transaction that persists the factura.
	AllocateCorrelativoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	DB() *gorm.DB
}

type caiRepo struct{ db *gorm.DB }

func NewCaiRepository(db *gorm.DB) CaiRepository { return &caiRepo{db: db} }

func (r *caiRepo) DB() *gorm.DB { return r.db }

func (r *caiRepo) Create(ctx context.Context, c *model.CaiAutorizacion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *caiRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CaiAutorizacion, error) {
	var c model.CaiAutorizacion
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCaiNoEncontrada
	}
	return &c, err
}

// ExistsCodigo checks CAI code uniqueness among non-deleted rows. The default
// gorm scope already excludes soft-deleted records, which is exactly the
// uniqueness domain required.
func (r *caiRepo) ExistsCodigo(ctx context.Context, codigo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CaiAutorizacion{}).
		Where("cai = ?", codigo).Count(&count).Error
	return count > 0, err
}

func (r *caiRepo) List(ctx context.Context, filter dto.CaiFilter) ([]model.CaiAutorizacion, int64, error) {
	var cais []model.CaiAutorizacion
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.CaiAutorizacion{})
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.TipoDocumento != "" {
		q = q.Where("tipo_documento = ?", filter.TipoDocumento)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&cais).Error
	return cais, total, err
}

// ListActivas returns the candidate set offered to invoice creation:
// estado activa, not expired, with remaining capacity.
func (r *caiRepo) ListActivas(ctx context.Context, hoy time.Time) ([]model.CaiAutorizacion, error) {
	var cais []model.CaiAutorizacion
	err := r.db.WithContext(ctx).
		Where("estado = ?", model.CaiActiva).
		Where("fecha_limite >= ?", hoy.Format("2006-01-02")).
		Where("GREATEST(ultimo_correlativo, rango_inicio - 1) < rango_fin").
		Order("fecha_limite ASC").
		Find(&cais).Error
	return cais, err
}

func (r *caiRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	return r.db.WithContext(ctx).Model(&model.CaiAutorizacion{}).
		Where("id = ?", id).Update("estado", estado).Error
}

// SyncEstados flips stale activa rows to vencida/agotada and stale agotada
// rows to vencida, matching EstadoCalculado's precedence (expiry wins).
// Inactiva is administrative and never touched. Idempotent; a re-run on a
// synced table updates zero rows.
func (r *caiRepo) SyncEstados(ctx context.Context, hoy time.Time) error {
	dia := hoy.Format("2006-01-02")
	return r.db.WithContext(ctx).Exec(`
		UPDATE cai_autorizaciones
		SET estado = CASE
		        WHEN fecha_limite < ? THEN 'vencida'
		        ELSE 'agotada'
		    END,
		    updated_at = NOW()
		WHERE deleted_at IS NULL
		  AND estado IN ('activa', 'agotada')
		  AND (fecha_limite < ?
		       OR (estado = 'activa' AND GREATEST(ultimo_correlativo, rango_inicio - 1) >= rango_fin))`,
		dia, dia).Error
}

func (r *caiRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CaiAutorizacion{}, id).Error
}

// AllocateCorrelativoTx hands out the next correlative as a single atomic
// read-modify-write. Postgres row locking serializes concurrent claims on the
// same authorization; claims on different authorizations proceed in parallel.
// The estado flips to "agotada" in the same statement when the claimed number
// reaches rango_fin, so no window exists where the row is fully consumed but
// still reads as activa.
//
// GREATEST(ultimo_correlativo, rango_inicio - 1) makes the first claim start
// at rango_inicio even when the counter was seeded at 0.
func (r *caiRepo) AllocateCorrelativoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	var row struct {
		UltimoCorrelativo int64
	}
	res := tx.WithContext(ctx).Raw(`
		UPDATE cai_autorizaciones
		SET ultimo_correlativo = GREATEST(ultimo_correlativo, rango_inicio - 1) + 1,
		    estado = CASE
		        WHEN GREATEST(ultimo_correlativo, rango_inicio - 1) + 1 >= rango_fin THEN 'agotada'
		        ELSE estado
		    END,
		    updated_at = NOW()
		WHERE id = ?
		  AND deleted_at IS NULL
		  AND estado = 'activa'
		  AND fecha_limite >= CURRENT_DATE
		  AND GREATEST(ultimo_correlativo, rango_inicio - 1) < rango_fin
		RETURNING ultimo_correlativo`, id).Scan(&row)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, r.diagnoseAllocationFailure(ctx, tx, id)
	}
	return row.UltimoCorrelativo, nil
}

// diagnoseAllocationFailure turns a zero-row claim into a typed error, and
// opportunistically persists a recomputed estado. The persist runs on r.db,
// not tx: the caller rolls the surrounding transaction back on the returned
// error, which would discard an UPDATE issued through tx.
func (r *caiRepo) diagnoseAllocationFailure(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	var c model.CaiAutorizacion
	if err := tx.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCaiNoEncontrada
		}
		return err
	}

	estado := c.EstadoCalculado(time.Now())
	if estado != c.Estado && estado != model.CaiActiva {
		_ = r.db.WithContext(ctx).Model(&model.CaiAutorizacion{}).
			Where("id = ?", id).Update("estado", estado).Error
	}

	switch estado {
	case model.CaiVencida:
		return ErrCaiVencida
	case model.CaiAgotada:
		return ErrCaiAgotada
	case model.CaiInactiva:
		return ErrCaiInactiva
	default:
		// The row reads as activa now: another transaction mutated it
		// between our claim and this read.
		return ErrConflictoConcurrencia
	}
}
