package infra

import (
	"fmt"

	"servifrio/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes and the check constraints that enforce fiscal
// invariants at the storage layer).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations applies AutoMigrate plus the SQL schema patches. Exposed
// separately so integration tests can migrate a container database without
// going through NewDatabase's pool tuning.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Cliente{},
		&model.Equipo{},
		&model.Mantenimiento{},
		&model.CaiAutorizacion{},
		&model.Factura{},
		&model.FacturaItem{},
		&model.BitacoraFactura{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
// Each statement uses IF NOT EXISTS / existence-guard semantics so re-running
// on an already-patched database is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// CAI codes are unique among live authorizations only: a soft-deleted
		// registration may be re-captured after a data-entry mistake.
		{"partial unique index on cai code", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_cai_codigo_vivo') THEN
    CREATE UNIQUE INDEX uni_cai_codigo_vivo
        ON cai_autorizaciones (cai)
        WHERE deleted_at IS NULL;
  END IF;
END $$`},

		// Invoice numbers are globally unique among live rows.
		{"partial unique index on factura numero", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_facturas_numero_vivo') THEN
    CREATE UNIQUE INDEX uni_facturas_numero_vivo
        ON facturas (numero)
        WHERE deleted_at IS NULL;
  END IF;
END $$`},

		// One correlative per authorization — belt and suspenders under the
		// atomic allocator.
		{"unique (cai_id, correlativo)", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_facturas_cai_correlativo') THEN
    CREATE UNIQUE INDEX uni_facturas_cai_correlativo
        ON facturas (cai_id, correlativo)
        WHERE deleted_at IS NULL;
  END IF;
END $$`},

		// Partial index driving the PDF retry cron query.
		{"partial index for pdf retry scan", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_facturas_pdf_pending_retry') THEN
    CREATE INDEX idx_facturas_pdf_pending_retry
        ON facturas (pdf_next_retry_at)
        WHERE pdf_path IS NULL AND pdf_next_retry_at IS NOT NULL;
  END IF;
END $$`},

		// The bitácora is read per-invoice in chronological order.
		{"bitacora (factura_id, created_at) index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_bitacora_factura_fecha') THEN
    CREATE INDEX idx_bitacora_factura_fecha
        ON bitacora_facturas (factura_id, created_at);
  END IF;
END $$`},

		// The allocator advances ultimo_correlativo strictly within range;
		// the constraint makes any future regression loudly visible.
		{"check correlativo within range", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cai_correlativo_rango') THEN
    ALTER TABLE cai_autorizaciones
      ADD CONSTRAINT chk_cai_correlativo_rango
      CHECK (ultimo_correlativo = 0 OR
             (ultimo_correlativo >= rango_inicio - 1 AND ultimo_correlativo <= rango_fin));
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
