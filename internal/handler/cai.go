package handler

import (
	"net/http"

	"servifrio/internal/apierror"
	"servifrio/internal/dto"
	"servifrio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CaiHandler struct{ svc service.CaiService }

func NewCaiHandler(svc service.CaiService) *CaiHandler { return &CaiHandler{svc: svc} }

// CrearCai godoc
// @Summary      Registrar una autorización CAI
// @Description  Captura una autorización de numeración emitida por el SAR: código CAI, prefijo, rango de correlativos y fecha límite de emisión.
// @Tags         cai
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearCaiRequest true "Datos de la constancia"
// @Success      201  {object} dto.CaiResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/cai [post]
func (h *CaiHandler) CrearCai(c *gin.Context) {
	var req dto.CrearCaiRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarCai godoc
// @Summary      Listar autorizaciones CAI
// @Tags         cai
// @Produce      json
// @Security     BearerAuth
// @Param        estado         query string false "activa | agotada | vencida | inactiva | all"
// @Param        tipo_documento query string false "factura | nota_credito | nota_debito"
// @Param        page           query int    false "Página (default 1)"
// @Param        limit          query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.CaiListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/cai [get]
func (h *CaiHandler) ListarCai(c *gin.Context) {
	var filter dto.CaiFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar autorizaciones"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarActivas godoc
// @Summary      Autorizaciones CAI utilizables para emisión
// @Description  Solo autorizaciones activas, no vencidas y con correlativos disponibles, ordenadas por fecha límite ascendente.
// @Tags         cai
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.CaiResponse
// @Router       /v1/cai/activos [get]
func (h *CaiHandler) ListarActivas(c *gin.Context) {
	resp, err := h.svc.ListActivas(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar autorizaciones activas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerCai godoc
// @Summary      Obtener autorización CAI por ID
// @Tags         cai
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la autorización"
// @Success      200 {object} dto.CaiResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cai/{id} [get]
func (h *CaiHandler) ObtenerCai(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DesactivarCai godoc
// @Summary      Desactivar autorización CAI
// @Description  Retira administrativamente la autorización del servicio. Estado inactiva es permanente hasta nuevo registro.
// @Tags         cai
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la autorización"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cai/{id}/desactivar [post]
func (h *CaiHandler) DesactivarCai(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EliminarCai godoc
// @Summary      Eliminar registro de autorización CAI
// @Description  Borrado lógico de una constancia capturada por error. Las facturas ya emitidas conservan su propia copia de los datos fiscales.
// @Tags         cai
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la autorización"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cai/{id} [delete]
func (h *CaiHandler) EliminarCai(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
