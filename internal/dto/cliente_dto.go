package dto

// ─── Clientes ────────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	RTN       string  `json:"rtn"    validate:"required,min=6,max=20"`
	Nombre    string  `json:"nombre" validate:"required"`
	Direccion *string `json:"direccion"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email"  validate:"omitempty,email"`
}

type ClienteResponse struct {
	ID        string  `json:"id"`
	RTN       string  `json:"rtn"`
	Nombre    string  `json:"nombre"`
	Direccion *string `json:"direccion,omitempty"`
	Telefono  *string `json:"telefono,omitempty"`
	Email     *string `json:"email,omitempty"`
	Activo    bool    `json:"activo"`
}

// ─── Mantenimientos ──────────────────────────────────────────────────────────

type MantenimientoResponse struct {
	ID             string  `json:"id"`
	ClienteID      string  `json:"cliente_id"`
	EquipoID       *string `json:"equipo_id,omitempty"`
	Descripcion    string  `json:"descripcion"`
	Estado         string  `json:"estado"`
	FechaRealizada *string `json:"fecha_realizada,omitempty"`
}
