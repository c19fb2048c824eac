package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"servifrio/internal/dto"
	"servifrio/internal/model"
	"servifrio/internal/repository"

	"github.com/google/uuid"
)

// caiCodigoRe: 37-50 uppercase alphanumeric characters, hyphens allowed in
// the printed grouping. Lowercase input is rejected, not coerced — the code
// must be captured exactly as it appears on the registration document.
var caiCodigoRe = regexp.MustCompile(`^[A-Z0-9-]{37,50}$`)

// rtnRe matches the printed RTN format NNNN-NNNN-NNNNNN.
var rtnRe = regexp.MustCompile(`^\d{4}-\d{4}-\d{6}$`)

type CaiService interface {
	Crear(ctx context.Context, req dto.CrearCaiRequest) (*dto.CaiResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.CaiResponse, error)
	List(ctx context.Context, filter dto.CaiFilter) (*dto.CaiListResponse, error)
	ListActivas(ctx context.Context) ([]dto.CaiResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type caiService struct {
	repo repository.CaiRepository
}

func NewCaiService(repo repository.CaiRepository) CaiService {
	return &caiService{repo: repo}
}

// Crear registers a new authorization. The row is born activa with no
// correlatives consumed; issuance rejects it on its own merits if the
// registered fecha_limite is already in the past.
func (s *caiService) Crear(ctx context.Context, req dto.CrearCaiRequest) (*dto.CaiResponse, error) {
	verr := nuevaValidacion()

	codigo := strings.TrimSpace(req.Codigo)
	if !caiCodigoRe.MatchString(codigo) {
		verr.add("cai", "el codigo CAI debe tener 37-50 caracteres alfanumericos en mayusculas")
	}
	if !rtnRe.MatchString(req.RTNEmisor) {
		verr.add("rtn_emisor", "el RTN del emisor debe tener el formato NNNN-NNNN-NNNNNN")
	}
	if req.RangoFin <= req.RangoInicio {
		verr.add("rango_fin", "el rango final debe ser mayor que el inicial")
	}

	fechaLimite, err := time.Parse("2006-01-02", req.FechaLimite)
	if err != nil {
		verr.add("fecha_limite", "la fecha limite debe tener el formato YYYY-MM-DD")
	}

	if !verr.vacio() {
		return nil, verr
	}

	exists, err := s.repo.ExistsCodigo(ctx, codigo)
	if err != nil {
		return nil, err
	}
	if exists {
		verr.add("cai", "ya existe una autorizacion registrada con este codigo CAI")
		return nil, verr
	}

	cai := &model.CaiAutorizacion{
		RTNEmisor:          req.RTNEmisor,
		NombreComercial:    strings.TrimSpace(req.NombreComercial),
		PuntoEmision:       req.PuntoEmision,
		TipoDocumento:      req.TipoDocumento,
		Codigo:             codigo,
		Prefijo:            strings.TrimSpace(req.Prefijo),
		RangoInicio:        req.RangoInicio,
		RangoFin:           req.RangoFin,
		UltimoCorrelativo:  0,
		FechaLimite:        fechaLimite,
		Estado:             model.CaiActiva,
		ConstanciaRegistro: req.ConstanciaRegistro,
	}
	if err := s.repo.Create(ctx, cai); err != nil {
		return nil, err
	}
	return caiToResponse(cai, time.Now()), nil
}

func (s *caiService) Obtener(ctx context.Context, id uuid.UUID) (*dto.CaiResponse, error) {
	cai, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return caiToResponse(cai, time.Now()), nil
}

// List persists estado drift before querying: a CAI that expired or ran out
// since the last write is flipped in storage first, so the estado the filter
// matches is the estado each row displays.
func (s *caiService) List(ctx context.Context, filter dto.CaiFilter) (*dto.CaiListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	hoy := time.Now()
	if err := s.repo.SyncEstados(ctx, hoy); err != nil {
		return nil, err
	}
	cais, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CaiResponse, 0, len(cais))
	for i := range cais {
		items = append(items, *caiToResponse(&cais[i], hoy))
	}
	return &dto.CaiListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ListActivas returns the authorizations currently usable for issuance,
// nearest fecha_limite first so the UI steers consumption toward the
// authorization that dies soonest.
func (s *caiService) ListActivas(ctx context.Context) ([]dto.CaiResponse, error) {
	hoy := time.Now()
	cais, err := s.repo.ListActivas(ctx, hoy)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CaiResponse, 0, len(cais))
	for i := range cais {
		out = append(out, *caiToResponse(&cais[i], hoy))
	}
	return out, nil
}

// Desactivar takes an authorization out of service administratively.
// Inactiva sticks until explicitly reversed by a new registration.
func (s *caiService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateEstado(ctx, id, model.CaiInactiva)
}

// Eliminar soft-deletes a registration captured by mistake. Facturas already
// emitted under it keep their denormalized snapshot.
func (s *caiService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func caiToResponse(c *model.CaiAutorizacion, hoy time.Time) *dto.CaiResponse {
	disponibles := c.RangoFin - c.UltimoCorrelativo
	if c.UltimoCorrelativo < c.RangoInicio {
		disponibles = c.RangoFin - c.RangoInicio + 1
	}
	if disponibles < 0 {
		disponibles = 0
	}
	return &dto.CaiResponse{
		ID:                 c.ID.String(),
		RTNEmisor:          c.RTNEmisor,
		NombreComercial:    c.NombreComercial,
		PuntoEmision:       c.PuntoEmision,
		TipoDocumento:      c.TipoDocumento,
		Codigo:             c.Codigo,
		Prefijo:            c.Prefijo,
		RangoInicio:        c.RangoInicio,
		RangoFin:           c.RangoFin,
		UltimoCorrelativo:  c.UltimoCorrelativo,
		Disponibles:        disponibles,
		FechaLimite:        c.FechaLimite.Format("2006-01-02"),
		Estado:             c.EstadoCalculado(hoy),
		ConstanciaRegistro: c.ConstanciaRegistro,
		CreatedAt:          c.CreatedAt.Format(time.RFC3339),
	}
}
