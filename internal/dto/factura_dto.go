package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// FacturaFilter is bound from the query string of GET /v1/facturas.
type FacturaFilter struct {
	Numero string `form:"numero"` // substring of the invoice number
	RTN    string `form:"rtn"`    // substring of the client tax id
	Desde  string `form:"desde"`  // YYYY-MM-DD
	Hasta  string `form:"hasta"`  // YYYY-MM-DD
	Estado string `form:"estado"` // vigente | anulada | all
	// Page and Limit are clamped in the service layer; query binding skips
	// the struct validator.
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=50"`
}

type FacturaListResponse struct {
	Data  []FacturaResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemFacturaRequest struct {
	CodigoProducto *string         `json:"codigo_producto"`
	Descripcion    string          `json:"descripcion"     validate:"required"`
	Cantidad       decimal.Decimal `json:"cantidad"        validate:"required,gt=0"`
	UnidadMedida   string          `json:"unidad_medida"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"min=0"`
	TipoGravamen   string          `json:"tipo_gravamen"   validate:"required,oneof=gravado_15 gravado_18 exento"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"   validate:"min=0,max=100"`
}

// ClienteFiscal is the fiscal snapshot required at issuance, whether or not a
// stored client record exists.
type ClienteFiscal struct {
	ClienteID *string `json:"cliente_id" validate:"omitempty,uuid"`
	RTN       string  `json:"rtn"        validate:"required,min=6,max=20"`
	Nombre    string  `json:"nombre"     validate:"required"`
	Direccion *string `json:"direccion"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email"      validate:"omitempty,email"`
}

type CrearFacturaRequest struct {
	CaiID   string        `json:"cai_id"  validate:"required,uuid"`
	Cliente ClienteFiscal `json:"cliente" validate:"required"`
	// MantenimientoID links the invoice to the originating work order
	MantenimientoID *string `json:"mantenimiento_id" validate:"omitempty,uuid"`

	TipoPago string `json:"tipo_pago" validate:"required,oneof=efectivo credito tarjeta transferencia"`
	// DiasCredito: required when tipo_pago = credito (1-365)
	DiasCredito *int `json:"dias_credito" validate:"omitempty,min=1,max=365"`

	Exenta bool `json:"exenta"`
	// OrdenCompraExenta: required when exenta = true
	OrdenCompraExenta *string `json:"orden_compra_exenta"`

	Items []ItemFacturaRequest `json:"items" validate:"required,min=1,dive"`
}

type AnularFacturaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemFacturaResponse struct {
	NumeroLinea    int             `json:"numero_linea"`
	CodigoProducto *string         `json:"codigo_producto,omitempty"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	UnidadMedida   string          `json:"unidad_medida"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	TipoGravamen   string          `json:"tipo_gravamen"`
	Tasa           decimal.Decimal `json:"tasa"`
	DescuentoPct   decimal.Decimal `json:"descuento_pct"`
	MontoDescuento decimal.Decimal `json:"monto_descuento"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Impuesto       decimal.Decimal `json:"impuesto"`
	Total          decimal.Decimal `json:"total"`
}

type FacturaResponse struct {
	ID             string `json:"id"`
	Numero         string `json:"numero"`
	Correlativo    int64  `json:"correlativo"`
	CodigoCai      string `json:"codigo_cai"`
	FechaLimiteCai string `json:"fecha_limite_cai"`

	ClienteRTN       string  `json:"cliente_rtn"`
	ClienteNombre    string  `json:"cliente_nombre"`
	ClienteDireccion *string `json:"cliente_direccion,omitempty"`
	ClienteEmail     *string `json:"cliente_email,omitempty"`

	MantenimientoID *string `json:"mantenimiento_id,omitempty"`

	FechaEmision string `json:"fecha_emision"`
	TipoPago     string `json:"tipo_pago"`
	DiasCredito  *int   `json:"dias_credito,omitempty"`

	SubtotalExento    decimal.Decimal `json:"subtotal_exento"`
	SubtotalGravado15 decimal.Decimal `json:"subtotal_gravado_15"`
	SubtotalGravado18 decimal.Decimal `json:"subtotal_gravado_18"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Isv15             decimal.Decimal `json:"isv_15"`
	Isv18             decimal.Decimal `json:"isv_18"`
	TotalImpuesto     decimal.Decimal `json:"total_impuesto"`
	TotalAPagar       decimal.Decimal `json:"total_a_pagar"`

	Exenta            bool    `json:"exenta"`
	OrdenCompraExenta *string `json:"orden_compra_exenta,omitempty"`

	Estado          string  `json:"estado"`
	MotivoAnulacion *string `json:"motivo_anulacion,omitempty"`
	Impresa         bool    `json:"impresa"`

	Items  []ItemFacturaResponse `json:"items"`
	PDFUrl *string               `json:"pdf_url,omitempty"`
}

// ─── Bitácora ────────────────────────────────────────────────────────────────

type BitacoraEntryResponse struct {
	ID           string  `json:"id"`
	UsuarioID    string  `json:"usuario_id"`
	Accion       string  `json:"accion"`
	Descripcion  string  `json:"descripcion"`
	DatosAntes   *string `json:"datos_antes,omitempty"`
	DatosDespues *string `json:"datos_despues,omitempty"`
	DireccionIP  string  `json:"direccion_ip"`
	UserAgent    string  `json:"user_agent"`
	CreatedAt    string  `json:"created_at"`
}
