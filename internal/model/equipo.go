package model

import (
	"time"

	"github.com/google/uuid"
)

// Equipo is a serviced appliance/HVAC unit. Especificaciones is an explicit
// string-to-string map persisted as JSON.
type Equipo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID uuid.UUID `gorm:"type:uuid;index;not null"`
	Tipo      string    `gorm:"type:varchar(40);not null"`
	Marca     *string
	Modelo    *string
	Serie     *string   `gorm:"type:varchar(60)"`
	// Especificaciones: capacidad BTU, voltaje, refrigerante, etc.
	Especificaciones map[string]string `gorm:"serializer:json"`
	Activo           bool              `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Equipo) TableName() string { return "equipos" }

// Estados de un mantenimiento.
const (
	MantenimientoProgramado = "programado"
	MantenimientoEnProceso  = "en_proceso"
	MantenimientoFinalizado = "finalizado"
)

// Mantenimiento is the work-order read model a factura may reference.
// Its CRUD lives in the administrative module; invoicing only validates the
// reference and lists finalizados for the billing picker.
type Mantenimiento struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	EquipoID        *uuid.UUID `gorm:"type:uuid;index"`
	TecnicoID       *uuid.UUID `gorm:"type:uuid"`
	Descripcion     string     `gorm:"not null"`
	Estado          string     `gorm:"type:varchar(20);not null;default:'programado'"`
	FechaProgramada *time.Time
	FechaRealizada  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Mantenimiento) TableName() string { return "mantenimientos" }
