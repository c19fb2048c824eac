package model

import (
	"time"

	"github.com/google/uuid"
)

// Acciones registradas en la bitácora fiscal.
const (
	AccionCreacion     = "creacion"
	AccionAnulacion    = "anulacion"
	AccionImpresion    = "impresion"
	AccionModificacion = "modificacion"
)

// BitacoraFactura is an append-only audit record of every state-changing
// action against a factura. Entries are NEVER updated or deleted — this is
// the regulatory evidence trail, written in the same transaction as the
// event it records.
type BitacoraFactura struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID uuid.UUID `gorm:"type:uuid;index;not null"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null"`
	// Accion: "creacion" | "anulacion" | "impresion" | "modificacion"
	Accion      string `gorm:"type:varchar(20);not null"`
	Descripcion string `gorm:"not null"`
	// Opaque JSON snapshots of the record before/after the action
	DatosAntes   *string `gorm:"type:jsonb"`
	DatosDespues *string `gorm:"type:jsonb"`
	DireccionIP  string  `gorm:"type:varchar(45);not null"`
	UserAgent    string  `gorm:"not null"`
	CreatedAt    time.Time
}

func (BitacoraFactura) TableName() string { return "bitacora_facturas" }
