package handler

import (
	"net/http"

	"servifrio/internal/apierror"
	"servifrio/internal/dto"
	"servifrio/internal/middleware"
	"servifrio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FacturasHandler struct{ svc service.FacturaService }

func NewFacturasHandler(svc service.FacturaService) *FacturasHandler {
	return &FacturasHandler{svc: svc}
}

func auditoriaDe(c *gin.Context) service.Auditoria {
	return service.Auditoria{
		UsuarioID:   middleware.UserUUID(c),
		DireccionIP: c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}
}

// CrearFactura godoc
// @Summary      Emitir una factura
// @Description  Emite una factura fiscal: asigna el siguiente correlativo del CAI de forma atómica, calcula ISV por línea y registra la emisión en la bitácora. El PDF se genera de forma asíncrona.
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearFacturaRequest true "Detalle de la factura"
// @Success      201  {object} dto.FacturaResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/facturas [post]
func (h *FacturasHandler) CrearFactura(c *gin.Context) {
	var req dto.CrearFacturaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.CrearFactura(c.Request.Context(), auditoriaDe(c), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarFacturas godoc
// @Summary      Listar facturas
// @Description  Retorna lista paginada de facturas filtrada por número, RTN del cliente, rango de fechas y estado.
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        numero query string false "Substring del número de factura"
// @Param        rtn    query string false "Substring del RTN del cliente"
// @Param        desde  query string false "Fecha desde YYYY-MM-DD"
// @Param        hasta  query string false "Fecha hasta YYYY-MM-DD"
// @Param        estado query string false "vigente | anulada | all"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 50)"
// @Success      200    {object} dto.FacturaListResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/facturas [get]
func (h *FacturasHandler) ListarFacturas(c *gin.Context) {
	var filter dto.FacturaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListFacturas(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar facturas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerFactura godoc
// @Summary      Obtener factura por ID
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la factura"
// @Success      200 {object} dto.FacturaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/facturas/{id} [get]
func (h *FacturasHandler) ObtenerFactura(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerFactura(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnularFactura godoc
// @Summary      Anular factura
// @Description  Anula una factura vigente. El correlativo consumido queda retirado para siempre; la anulación se registra en la bitácora con el motivo.
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID de la factura"
// @Param        body body dto.AnularFacturaRequest true "Motivo de anulación"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/facturas/{id} [delete]
func (h *FacturasHandler) AnularFactura(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AnularFacturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.AnularFactura(c.Request.Context(), auditoriaDe(c), id, req.Motivo); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarcarImpresa godoc
// @Summary      Marcar factura como impresa
// @Description  Registra la impresión física del documento. Idempotente; permitida también sobre facturas anuladas (reimpresión para el archivo del cliente).
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la factura"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/facturas/{id}/imprimir [post]
func (h *FacturasHandler) MarcarImpresa(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.MarcarImpresa(c.Request.Context(), auditoriaDe(c), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DescargarPDF godoc
// @Summary      Descargar el PDF de una factura
// @Tags         facturas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la factura"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/facturas/pdf/{id} [get]
func (h *FacturasHandler) DescargarPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	path, err := h.svc.ObtenerPDFPath(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.FileAttachment(path, "factura.pdf")
}

// Bitacora godoc
// @Summary      Bitácora de una factura
// @Description  Historial append-only de acciones sobre la factura (creación, anulación, impresión), en orden cronológico.
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la factura"
// @Success      200 {array}  dto.BitacoraEntryResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/facturas/{id}/bitacora [get]
func (h *FacturasHandler) Bitacora(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	entries, err := h.svc.ListBitacora(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
