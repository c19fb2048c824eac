package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estados de una factura.
const (
	FacturaVigente = "vigente"
	FacturaAnulada = "anulada"
	// FacturaCancelada is modeled for the credit-note flow but no operation
	// in this service reaches it.
	FacturaCancelada = "cancelada"
)

// Tipos de pago.
const (
	PagoEfectivo      = "efectivo"
	PagoCredito       = "credito"
	PagoTarjeta       = "tarjeta"
	PagoTransferencia = "transferencia"
)

// Tipos de gravamen ISV por línea.
const (
	Gravado15 = "gravado_15"
	Gravado18 = "gravado_18"
	Exento    = "exento"
)

// Factura is a fiscal invoice emitted under a CAI authorization.
// Estado: "vigente" | "anulada" | "cancelada"
//
// Client fiscal data is denormalized at issuance: the invoice must stay
// readable as emitted even if the client record changes later. Items and
// totals are immutable after creation — corrections go through anulación
// plus re-emission, never in-place edits.
type Factura struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaiID uuid.UUID `gorm:"type:uuid;index;not null"`
	// Numero is prefijo + "-" + correlativo zero-padded to 8 digits
	Numero      string `gorm:"type:varchar(40);not null"`
	Correlativo int64  `gorm:"not null"`
	// CodigoCai and FechaLimiteCai are denormalized from the authorization
	CodigoCai      string    `gorm:"type:varchar(50);not null;column:codigo_cai"`
	FechaLimiteCai time.Time `gorm:"type:date;not null"`

	ClienteID *uuid.UUID `gorm:"type:uuid;index"`
	// Client fiscal snapshot — required even when ClienteID is nil
	ClienteRTN       string `gorm:"type:varchar(20);not null;column:cliente_rtn"`
	ClienteNombre    string `gorm:"not null"`
	ClienteDireccion *string
	ClienteTelefono  *string
	ClienteEmail     *string

	MantenimientoID *uuid.UUID `gorm:"type:uuid;index"`

	FechaEmision time.Time `gorm:"not null"`
	TipoPago     string    `gorm:"type:varchar(20);not null"`
	// DiasCredito is set iff TipoPago == "credito"
	DiasCredito *int

	SubtotalExento    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SubtotalGravado15 decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:subtotal_gravado_15"`
	SubtotalGravado18 decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:subtotal_gravado_18"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Isv15             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:isv_15"`
	Isv18             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:isv_18"`
	TotalImpuesto     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAPagar       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Exenta bool `gorm:"not null;default:false"`
	// OrdenCompraExenta is required iff Exenta
	OrdenCompraExenta *string

	Estado          string `gorm:"type:varchar(20);not null;default:'vigente';index"`
	MotivoAnulacion *string
	AnuladaPor      *uuid.UUID `gorm:"type:uuid"`
	AnuladaAt       *time.Time

	Impresa   bool `gorm:"not null;default:false"`
	ImpresaAt *time.Time

	EmitidaPor uuid.UUID `gorm:"type:uuid;not null"`

	// PDFPath is relative to PDF_STORAGE_PATH; filled by the pdf worker
	PDFPath *string `gorm:"column:pdf_path"`
	// Retry fields — used by retry_cron to re-attempt failed PDF generation
	PDFRetryCount  int        `gorm:"not null;default:0;column:pdf_retry_count"`
	PDFNextRetryAt *time.Time `gorm:"column:pdf_next_retry_at"`
	PDFLastError   *string    `gorm:"column:pdf_last_error"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Cai   *CaiAutorizacion `gorm:"foreignKey:CaiID"`
	Items []FacturaItem    `gorm:"foreignKey:FacturaID"`
}

func (Factura) TableName() string { return "facturas" }

// FacturaItem is one invoice line. Lines are created with the invoice and
// never mutated afterwards.
type FacturaItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FacturaID uuid.UUID `gorm:"type:uuid;index;not null"`
	// NumeroLinea is 1-based and order-significant
	NumeroLinea    int             `gorm:"not null"`
	CodigoProducto *string         `gorm:"type:varchar(40)"`
	Descripcion    string          `gorm:"not null"`
	Cantidad       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnidadMedida   string          `gorm:"type:varchar(20);not null;default:'unidad'"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// TipoGravamen: "gravado_15" | "gravado_18" | "exento"
	TipoGravamen string `gorm:"type:varchar(20);not null"`
	// Tasa is derived from TipoGravamen (15.00 / 18.00 / 0.00), never set directly
	Tasa           decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	DescuentoPct   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	MontoDescuento decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Impuesto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
}

func (FacturaItem) TableName() string { return "factura_items" }
