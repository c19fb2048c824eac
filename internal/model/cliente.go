package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is the customer read model consumed by invoice creation. The
// factura keeps its own fiscal snapshot — this record is a convenience for
// prefilling, not the source of truth for emitted documents.
type Cliente struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// RTN accepts RTN / DNI / passport-like identifiers (6-20 chars)
	RTN       string `gorm:"type:varchar(20);not null;uniqueIndex;column:rtn"`
	Nombre    string `gorm:"not null"`
	Direccion *string
	Telefono  *string
	Email     *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Cliente) TableName() string { return "clientes" }
