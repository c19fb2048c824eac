package handler

import (
	"net/http"

	"servifrio/internal/apierror"
	"servifrio/internal/dto"
	"servifrio/internal/model"
	"servifrio/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MantenimientosHandler exposes the work-order picker for the emission form:
// finalizados only, optionally filtered by client. Work-order CRUD belongs to
// the administrative module, not this service.
type MantenimientosHandler struct {
	repo repository.MantenimientoRepository
}

func NewMantenimientosHandler(repo repository.MantenimientoRepository) *MantenimientosHandler {
	return &MantenimientosHandler{repo: repo}
}

// ListarFinalizados godoc
// @Summary      Mantenimientos facturables
// @Description  Lista mantenimientos en estado finalizado, los únicos que una factura puede referenciar.
// @Tags         mantenimientos
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id query string false "UUID del cliente"
// @Param        limit      query int    false "Máximo de registros (default 50)"
// @Success      200 {array} dto.MantenimientoResponse
// @Router       /v1/mantenimientos/finalizados [get]
func (h *MantenimientosHandler) ListarFinalizados(c *gin.Context) {
	var clienteID *uuid.UUID
	if raw := c.Query("cliente_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("cliente_id invalido"))
			return
		}
		clienteID = &id
	}

	limit := 50
	ms, err := h.repo.ListFinalizados(c.Request.Context(), clienteID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar mantenimientos"))
		return
	}

	out := make([]dto.MantenimientoResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, mantenimientoToResponse(&m))
	}
	c.JSON(http.StatusOK, out)
}

func mantenimientoToResponse(m *model.Mantenimiento) dto.MantenimientoResponse {
	resp := dto.MantenimientoResponse{
		ID:          m.ID.String(),
		ClienteID:   m.ClienteID.String(),
		Descripcion: m.Descripcion,
		Estado:      m.Estado,
	}
	if m.EquipoID != nil {
		s := m.EquipoID.String()
		resp.EquipoID = &s
	}
	if m.FechaRealizada != nil {
		s := m.FechaRealizada.Format("2006-01-02")
		resp.FechaRealizada = &s
	}
	return resp
}
