package dto

// ─── Filter / List ──────────────────────────────────────────────────────────

// CaiFilter is bound from the query string of GET /v1/cai.
type CaiFilter struct {
	Estado        string `form:"estado"` // activa | agotada | vencida | inactiva | all
	TipoDocumento string `form:"tipo_documento"`
	// Page and Limit are clamped in the service layer; query binding skips
	// the struct validator.
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=50"`
}

type CaiListResponse struct {
	Data  []CaiResponse `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearCaiRequest struct {
	RTNEmisor       string `json:"rtn_emisor"       validate:"required"`
	NombreComercial string `json:"nombre_comercial" validate:"required"`
	PuntoEmision    string `json:"punto_emision"    validate:"required,len=3,numeric"`
	TipoDocumento   string `json:"tipo_documento"   validate:"required,oneof=factura nota_credito nota_debito"`
	Codigo          string `json:"cai"              validate:"required,min=37,max=50"`
	Prefijo         string `json:"prefijo"          validate:"required"`
	RangoInicio     int64  `json:"rango_inicio"     validate:"required,min=1"`
	RangoFin        int64  `json:"rango_fin"        validate:"required,min=1"`
	// FechaLimite: YYYY-MM-DD
	FechaLimite        string  `json:"fecha_limite" validate:"required,datetime=2006-01-02"`
	ConstanciaRegistro *string `json:"constancia_registro"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CaiResponse struct {
	ID                 string  `json:"id"`
	RTNEmisor          string  `json:"rtn_emisor"`
	NombreComercial    string  `json:"nombre_comercial"`
	PuntoEmision       string  `json:"punto_emision"`
	TipoDocumento      string  `json:"tipo_documento"`
	Codigo             string  `json:"cai"`
	Prefijo            string  `json:"prefijo"`
	RangoInicio        int64   `json:"rango_inicio"`
	RangoFin           int64   `json:"rango_fin"`
	UltimoCorrelativo  int64   `json:"ultimo_correlativo"`
	Disponibles        int64   `json:"disponibles"`
	FechaLimite        string  `json:"fecha_limite"`
	Estado             string  `json:"estado"`
	ConstanciaRegistro *string `json:"constancia_registro,omitempty"`
	CreatedAt          string  `json:"created_at"`
}
