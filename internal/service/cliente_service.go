package service

import (
	"context"
	"errors"
	"strings"

	"servifrio/internal/dto"
	"servifrio/internal/model"
	"servifrio/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrClienteNoEncontrado = errors.New("cliente no encontrado")

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, incluirInactivos bool) ([]dto.ClienteResponse, error)
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	rtn := strings.TrimSpace(req.RTN)

	if existing, err := s.repo.FindByRTN(ctx, rtn); err == nil && existing != nil {
		verr := nuevaValidacion()
		verr.add("rtn", "ya existe un cliente registrado con este RTN")
		return nil, verr
	}

	cliente := &model.Cliente{
		RTN:       rtn,
		Nombre:    strings.TrimSpace(req.Nombre),
		Direccion: req.Direccion,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Activo:    true,
	}
	if err := s.repo.Create(ctx, cliente); err != nil {
		return nil, err
	}
	resp := ClienteToResponse(cliente)
	return &resp, nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	cliente, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClienteNoEncontrado
		}
		return nil, err
	}
	resp := ClienteToResponse(cliente)
	return &resp, nil
}

func (s *clienteService) Listar(ctx context.Context, incluirInactivos bool) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		out[i] = ClienteToResponse(&clientes[i])
	}
	return out, nil
}

// ClienteToResponse is exported for the cached RTN lookup in the handler layer.
func ClienteToResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:        c.ID.String(),
		RTN:       c.RTN,
		Nombre:    c.Nombre,
		Direccion: c.Direccion,
		Telefono:  c.Telefono,
		Email:     c.Email,
		Activo:    c.Activo,
	}
}
