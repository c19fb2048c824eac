package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Estados de una autorización CAI.
const (
	CaiActiva   = "activa"
	CaiAgotada  = "agotada"
	CaiVencida  = "vencida"
	CaiInactiva = "inactiva"
)

// Tipos de documento fiscal autorizados por el SAR.
const (
	DocumentoFactura     = "factura"
	DocumentoNotaCredito = "nota_credito"
	DocumentoNotaDebito  = "nota_debito"
)

// CaiAutorizacion is a government numbering authorization: it permits the
// business to emit a fixed range of invoice numbers until fecha_limite.
// Estado: "activa" | "agotada" | "vencida" | "inactiva"
//
// UltimoCorrelativo only moves forward, and only through the atomic claim in
// CaiRepository.AllocateCorrelativoTx. A row is never hard-deleted while
// facturas reference it — soft delete only.
type CaiAutorizacion struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// RTNEmisor uses the printed format NNNN-NNNN-NNNNNN
	RTNEmisor       string `gorm:"type:varchar(16);not null;column:rtn_emisor"`
	NombreComercial string `gorm:"not null"`
	// PuntoEmision is the 3-digit emission point code (e.g. "001")
	PuntoEmision  string `gorm:"type:varchar(3);not null"`
	TipoDocumento string `gorm:"type:varchar(20);not null;default:'factura'"`
	// Codigo is the CAI itself: 37-50 uppercase alphanumeric chars (hyphens
	// included in the printed format). Unique among non-deleted rows via a
	// partial index (see infra.applySchemaPatches).
	Codigo  string `gorm:"type:varchar(50);not null;column:cai"`
	Prefijo string `gorm:"type:varchar(20);not null"`
	// Authorized inclusive range. RangoFin > RangoInicio always.
	RangoInicio int64 `gorm:"not null"`
	RangoFin    int64 `gorm:"not null"`
	// UltimoCorrelativo: 0 = none consumed yet
	UltimoCorrelativo  int64     `gorm:"not null;default:0"`
	FechaLimite        time.Time `gorm:"type:date;not null"`
	Estado             string    `gorm:"type:varchar(20);not null;default:'activa';index"`
	ConstanciaRegistro *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (CaiAutorizacion) TableName() string { return "cai_autorizaciones" }

// Agotada reports whether the authorized range is fully consumed.
func (c *CaiAutorizacion) Agotada() bool {
	return c.UltimoCorrelativo >= c.RangoFin
}

// Vencida reports whether fecha_limite has passed relative to hoy.
func (c *CaiAutorizacion) Vencida(hoy time.Time) bool {
	limite := time.Date(c.FechaLimite.Year(), c.FechaLimite.Month(), c.FechaLimite.Day(), 0, 0, 0, 0, time.UTC)
	dia := time.Date(hoy.Year(), hoy.Month(), hoy.Day(), 0, 0, 0, 0, time.UTC)
	return dia.After(limite)
}

// EstadoCalculado recomputes the estado from the row's own data. Expiry wins
// over exhaustion for display; "inactiva" is administrative and sticks.
func (c *CaiAutorizacion) EstadoCalculado(hoy time.Time) string {
	if c.Estado == CaiInactiva {
		return CaiInactiva
	}
	if c.Vencida(hoy) {
		return CaiVencida
	}
	if c.Agotada() {
		return CaiAgotada
	}
	return CaiActiva
}
