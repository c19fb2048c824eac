package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"servifrio/internal/apierror"
	"servifrio/internal/dto"
	"servifrio/internal/repository"
	"servifrio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clienteRTNCacheTTL = 4 * time.Hour

// ClientesHandler serves the customer read model that prefills the fiscal
// snapshot on invoice creation. The RTN lookup is cached in Redis — it fires
// on every keystroke-confirm in the emission form.
type ClientesHandler struct {
	svc  service.ClienteService
	repo repository.ClienteRepository
	rdb  *redis.Client
}

func NewClientesHandler(svc service.ClienteService, repo repository.ClienteRepository, rdb *redis.Client) *ClientesHandler {
	return &ClientesHandler{svc: svc, repo: repo, rdb: rdb}
}

// CrearCliente godoc
// @Summary      Registrar cliente
// @Tags         clientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearClienteRequest true "Datos del cliente"
// @Success      201  {object} dto.ClienteResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/clientes [post]
func (h *ClientesHandler) CrearCliente(c *gin.Context) {
	var req dto.CrearClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	// A new record invalidates any stale negative/positive cache for its RTN
	_ = h.rdb.Del(context.Background(), "cliente:rtn:"+resp.RTN).Err()
	c.JSON(http.StatusCreated, resp)
}

// ListarClientes godoc
// @Summary      Listar clientes
// @Tags         clientes
// @Produce      json
// @Security     BearerAuth
// @Param        incluir_inactivos query bool false "Incluir clientes inactivos"
// @Success      200 {array} dto.ClienteResponse
// @Router       /v1/clientes [get]
func (h *ClientesHandler) ListarClientes(c *gin.Context) {
	incluirInactivos := c.Query("incluir_inactivos") == "true"
	resp, err := h.svc.Listar(c.Request.Context(), incluirInactivos)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar clientes"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerCliente godoc
// @Summary      Obtener cliente por ID
// @Tags         clientes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del cliente"
// @Success      200 {object} dto.ClienteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/clientes/{id} [get]
func (h *ClientesHandler) ObtenerCliente(c *gin.Context) {
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

// BuscarPorRTN godoc
// @Summary      Buscar cliente por RTN
// @Description  Lookup para prefijar los datos fiscales en el formulario de emisión. Respuesta cacheada en Redis (TTL 4h).
// @Tags         clientes
// @Produce      json
// @Security     BearerAuth
// @Param        rtn path string true "RTN / DNI del cliente"
// @Success      200 {object} dto.ClienteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/clientes/rtn/{rtn} [get]
func (h *ClientesHandler) BuscarPorRTN(c *gin.Context) {
	rtn := c.Param("rtn")
	ctx := c.Request.Context()
	cacheKey := "cliente:rtn:" + rtn

	// 1. Try Redis cache
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.ClienteResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	cliente, err := h.repo.FindByRTN(ctx, rtn)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Cliente no encontrado"))
		return
	}

	resp := service.ClienteToResponse(cliente)

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, clienteRTNCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
