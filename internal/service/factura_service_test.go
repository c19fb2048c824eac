package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"servifrio/internal/dto"
	"servifrio/internal/model"
	"servifrio/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ─── stubs ───────────────────────────────────────────────────────────────────

type stubCaiRepo struct {
	cais map[uuid.UUID]*model.CaiAutorizacion
}

var _ repository.CaiRepository = (*stubCaiRepo)(nil)

func newStubCaiRepo() *stubCaiRepo {
	return &stubCaiRepo{cais: make(map[uuid.UUID]*model.CaiAutorizacion)}
}

func (s *stubCaiRepo) Create(ctx context.Context, c *model.CaiAutorizacion) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.cais[c.ID] = c
	return nil
}

func (s *stubCaiRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CaiAutorizacion, error) {
	c, ok := s.cais[id]
	if !ok {
		return nil, repository.ErrCaiNoEncontrada
	}
	return c, nil
}

func (s *stubCaiRepo) ExistsCodigo(ctx context.Context, codigo string) (bool, error) {
	for _, c := range s.cais {
		if c.Codigo == codigo {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCaiRepo) List(ctx context.Context, filter dto.CaiFilter) ([]model.CaiAutorizacion, int64, error) {
	var out []model.CaiAutorizacion
	for _, c := range s.cais {
		if filter.Estado != "" && filter.Estado != "all" && c.Estado != filter.Estado {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (s *stubCaiRepo) ListActivas(ctx context.Context, hoy time.Time) ([]model.CaiAutorizacion, error) {
	var out []model.CaiAutorizacion
	for _, c := range s.cais {
		if c.EstadoCalculado(hoy) == model.CaiActiva {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubCaiRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	c, ok := s.cais[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Estado = estado
	return nil
}

// SyncEstados mirrors the SQL sweep: only stale activa/agotada rows move,
// inactiva never does.
func (s *stubCaiRepo) SyncEstados(ctx context.Context, hoy time.Time) error {
	for _, c := range s.cais {
		if c.Estado != model.CaiActiva && c.Estado != model.CaiAgotada {
			continue
		}
		c.Estado = c.EstadoCalculado(hoy)
	}
	return nil
}

func (s *stubCaiRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	delete(s.cais, id)
	return nil
}

// AllocateCorrelativoTx mirrors the SQL claim: single conditional
// read-modify-write, estado flip to agotada in the same step.
func (s *stubCaiRepo) AllocateCorrelativoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	c, ok := s.cais[id]
	if !ok {
		return 0, repository.ErrCaiNoEncontrada
	}

	siguiente := c.UltimoCorrelativo
	if base := c.RangoInicio - 1; base > siguiente {
		siguiente = base
	}
	siguiente++

	if c.Estado == model.CaiActiva && !c.Vencida(time.Now()) && siguiente <= c.RangoFin {
		c.UltimoCorrelativo = siguiente
		if siguiente >= c.RangoFin {
			c.Estado = model.CaiAgotada
		}
		return siguiente, nil
	}

	switch c.EstadoCalculado(time.Now()) {
	case model.CaiVencida:
		return 0, repository.ErrCaiVencida
	case model.CaiAgotada:
		return 0, repository.ErrCaiAgotada
	case model.CaiInactiva:
		return 0, repository.ErrCaiInactiva
	default:
		return 0, repository.ErrConflictoConcurrencia
	}
}

func (s *stubCaiRepo) DB() *gorm.DB { return nil }

type stubFacturaRepo struct {
	facturas map[uuid.UUID]*model.Factura
}

var _ repository.FacturaRepository = (*stubFacturaRepo)(nil)

func newStubFacturaRepo() *stubFacturaRepo {
	return &stubFacturaRepo{facturas: make(map[uuid.UUID]*model.Factura)}
}

func (s *stubFacturaRepo) Create(ctx context.Context, tx *gorm.DB, f *model.Factura) error {
	f.ID = uuid.New()
	for i := range f.Items {
		f.Items[i].FacturaID = f.ID
	}
	s.facturas[f.ID] = f
	return nil
}

func (s *stubFacturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	f, ok := s.facturas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (s *stubFacturaRepo) List(ctx context.Context, filter dto.FacturaFilter) ([]model.Factura, int64, error) {
	var out []model.Factura
	for _, f := range s.facturas {
		if filter.Estado != "" && filter.Estado != "all" && f.Estado != filter.Estado {
			continue
		}
		out = append(out, *f)
	}
	return out, int64(len(out)), nil
}

func (s *stubFacturaRepo) UpdateAnulacionTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo string, por uuid.UUID, cuando time.Time) (int64, error) {
	f, ok := s.facturas[id]
	if !ok || f.Estado != model.FacturaVigente {
		return 0, nil
	}
	f.Estado = model.FacturaAnulada
	f.MotivoAnulacion = &motivo
	f.AnuladaPor = &por
	f.AnuladaAt = &cuando
	return 1, nil
}

func (s *stubFacturaRepo) MarkImpresaTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, cuando time.Time) (int64, error) {
	f, ok := s.facturas[id]
	if !ok || f.Impresa {
		return 0, nil
	}
	f.Impresa = true
	f.ImpresaAt = &cuando
	return 1, nil
}

func (s *stubFacturaRepo) Update(ctx context.Context, f *model.Factura) error {
	s.facturas[f.ID] = f
	return nil
}

func (s *stubFacturaRepo) ListPendingPDFRetries(ctx context.Context, now time.Time, limit int) ([]model.Factura, error) {
	return nil, nil
}

func (s *stubFacturaRepo) DB() *gorm.DB { return nil }

type stubBitacoraRepo struct {
	entries []model.BitacoraFactura
}

var _ repository.BitacoraRepository = (*stubBitacoraRepo)(nil)

func (s *stubBitacoraRepo) CreateTx(ctx context.Context, tx *gorm.DB, e *model.BitacoraFactura) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	s.entries = append(s.entries, *e)
	return nil
}

func (s *stubBitacoraRepo) ListByFactura(ctx context.Context, facturaID uuid.UUID) ([]model.BitacoraFactura, error) {
	var out []model.BitacoraFactura
	for _, e := range s.entries {
		if e.FacturaID == facturaID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubMantRepo struct {
	mantenimientos map[uuid.UUID]*model.Mantenimiento
}

var _ repository.MantenimientoRepository = (*stubMantRepo)(nil)

func newStubMantRepo() *stubMantRepo {
	return &stubMantRepo{mantenimientos: make(map[uuid.UUID]*model.Mantenimiento)}
}

func (s *stubMantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Mantenimiento, error) {
	m, ok := s.mantenimientos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (s *stubMantRepo) ListFinalizados(ctx context.Context, clienteID *uuid.UUID, limit int) ([]model.Mantenimiento, error) {
	var out []model.Mantenimiento
	for _, m := range s.mantenimientos {
		if m.Estado == model.MantenimientoFinalizado {
			out = append(out, *m)
		}
	}
	return out, nil
}

// ─── fixtures ────────────────────────────────────────────────────────────────

type facturaFixture struct {
	svc      FacturaService
	caiRepo  *stubCaiRepo
	repo     *stubFacturaRepo
	bitacora *stubBitacoraRepo
	mantRepo *stubMantRepo
	cai      *model.CaiAutorizacion
	aud      Auditoria
}

func buildFacturaSvc(t *testing.T, rangoInicio, rangoFin int64) *facturaFixture {
	t.Helper()

	caiRepo := newStubCaiRepo()
	repo := newStubFacturaRepo()
	bitacora := &stubBitacoraRepo{}
	mantRepo := newStubMantRepo()

	cai := &model.CaiAutorizacion{
		ID:              uuid.New(),
		RTNEmisor:       "0801-1985-123450",
		NombreComercial: "ServiFrio S. de R.L.",
		PuntoEmision:    "001",
		TipoDocumento:   model.DocumentoFactura,
		Codigo:          "254F86-612C1A-8A0E29-94B7D3-C3351E-9F",
		Prefijo:         "000-001-01",
		RangoInicio:     rangoInicio,
		RangoFin:        rangoFin,
		FechaLimite:     time.Now().AddDate(0, 6, 0),
		Estado:          model.CaiActiva,
	}
	caiRepo.cais[cai.ID] = cai

	return &facturaFixture{
		svc:      NewFacturaService(repo, caiRepo, bitacora, mantRepo, nil),
		caiRepo:  caiRepo,
		repo:     repo,
		bitacora: bitacora,
		mantRepo: mantRepo,
		cai:      cai,
		aud:      Auditoria{UsuarioID: uuid.New(), DireccionIP: "10.0.0.7", UserAgent: "tests"},
	}
}

func requestValida(caiID uuid.UUID) dto.CrearFacturaRequest {
	return dto.CrearFacturaRequest{
		CaiID: caiID.String(),
		Cliente: dto.ClienteFiscal{
			RTN:    "0801-1990-123456",
			Nombre: "Hotel Maya Colonial",
		},
		TipoPago: model.PagoEfectivo,
		Items: []dto.ItemFacturaRequest{
			{
				Descripcion:    "Mantenimiento preventivo unidad split 24000 BTU",
				Cantidad:       d("2"),
				PrecioUnitario: d("100.00"),
				TipoGravamen:   model.Gravado15,
				DescuentoPct:   d("10"),
			},
		},
	}
}

// ─── CrearFactura ────────────────────────────────────────────────────────────

func TestCrearFactura_Emision(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)

	assert.Equal(t, "000-001-01-00000001", resp.Numero)
	assert.Equal(t, int64(1), resp.Correlativo)
	assert.Equal(t, fx.cai.Codigo, resp.CodigoCai)
	assert.Equal(t, model.FacturaVigente, resp.Estado)

	assert.Equal(t, "180.00", resp.SubtotalGravado15.StringFixed(2))
	assert.Equal(t, "27.00", resp.Isv15.StringFixed(2))
	assert.Equal(t, "207.00", resp.TotalAPagar.StringFixed(2))
	assert.True(t, resp.SubtotalExento.IsZero())
	assert.True(t, resp.Isv18.IsZero())

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].NumeroLinea)
	assert.Equal(t, "15.00", resp.Items[0].Tasa.StringFixed(2))

	// the claim moved the counter and the bitácora recorded the emission
	assert.Equal(t, int64(1), fx.cai.UltimoCorrelativo)
	require.Len(t, fx.bitacora.entries, 1)
	assert.Equal(t, model.AccionCreacion, fx.bitacora.entries[0].Accion)
	assert.Equal(t, fx.aud.UsuarioID, fx.bitacora.entries[0].UsuarioID)
	assert.Equal(t, "10.0.0.7", fx.bitacora.entries[0].DireccionIP)
}

func TestCrearFactura_SecuenciaYAgotamiento(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 3)

	for esperado := int64(1); esperado <= 3; esperado++ {
		resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
		require.NoError(t, err)
		assert.Equal(t, esperado, resp.Correlativo)
	}

	// the range end is inclusive: the claim of rango_fin flips the estado
	assert.Equal(t, model.CaiAgotada, fx.cai.Estado)

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	assert.ErrorIs(t, err, repository.ErrCaiAgotada)
	assert.Equal(t, int64(3), fx.cai.UltimoCorrelativo)
}

func TestCrearFactura_RangoConOffset(t *testing.T) {
	fx := buildFacturaSvc(t, 501, 600)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(501), resp.Correlativo)
	assert.Equal(t, "000-001-01-00000501", resp.Numero)
}

func TestCrearFactura_CaiVencida(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)
	fx.cai.FechaLimite = time.Now().AddDate(0, 0, -1)

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	assert.ErrorIs(t, err, repository.ErrCaiVencida)
	assert.Zero(t, fx.cai.UltimoCorrelativo)
	assert.Empty(t, fx.repo.facturas)
}

func TestCrearFactura_CaiInactiva(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)
	fx.cai.Estado = model.CaiInactiva

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	assert.ErrorIs(t, err, repository.ErrCaiInactiva)
}

func TestCrearFactura_CaiNoEncontrada(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(uuid.New()))
	assert.ErrorIs(t, err, repository.ErrCaiNoEncontrada)
}

func TestCrearFactura_ValidacionNoConsumeCorrelativo(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	req := requestValida(fx.cai.ID)
	req.Exenta = true // sin orden_compra_exenta

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, req)

	var verr *ValidacionError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "orden_compra_exenta")

	// validation precedes the claim: nothing was consumed, nothing persisted
	assert.Zero(t, fx.cai.UltimoCorrelativo)
	assert.Empty(t, fx.repo.facturas)
	assert.Empty(t, fx.bitacora.entries)
}

func TestCrearFactura_CreditoRequiereDias(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	req := requestValida(fx.cai.ID)
	req.TipoPago = model.PagoCredito

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, req)

	var verr *ValidacionError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "dias_credito")

	dias := 400
	req.DiasCredito = &dias
	_, err = fx.svc.CrearFactura(context.Background(), fx.aud, req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "dias_credito")

	dias = 30
	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, req)
	require.NoError(t, err)
	require.NotNil(t, resp.DiasCredito)
	assert.Equal(t, 30, *resp.DiasCredito)
}

func TestCrearFactura_MantenimientoInexistente(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	req := requestValida(fx.cai.ID)
	id := uuid.NewString()
	req.MantenimientoID = &id

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, req)

	var verr *ValidacionError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "mantenimiento_id")
	assert.Zero(t, fx.cai.UltimoCorrelativo)
}

func TestCrearFactura_BucketsPorTasa(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	req := requestValida(fx.cai.ID)
	req.Items = []dto.ItemFacturaRequest{
		{Descripcion: "Repuesto compresor", Cantidad: d("1"), PrecioUnitario: d("100.00"), TipoGravamen: model.Gravado15},
		{Descripcion: "Refrigerante R-410A", Cantidad: d("1"), PrecioUnitario: d("200.00"), TipoGravamen: model.Gravado18},
		{Descripcion: "Visita diagnostica", Cantidad: d("1"), PrecioUnitario: d("50.00"), TipoGravamen: model.Exento},
	}

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, req)
	require.NoError(t, err)

	assert.Equal(t, "100.00", resp.SubtotalGravado15.StringFixed(2))
	assert.Equal(t, "200.00", resp.SubtotalGravado18.StringFixed(2))
	assert.Equal(t, "50.00", resp.SubtotalExento.StringFixed(2))
	assert.Equal(t, "15.00", resp.Isv15.StringFixed(2))
	assert.Equal(t, "36.00", resp.Isv18.StringFixed(2))
	assert.Equal(t, "51.00", resp.TotalImpuesto.StringFixed(2))
	assert.Equal(t, "350.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "401.00", resp.TotalAPagar.StringFixed(2))

	// line numbers follow request order
	for i, item := range resp.Items {
		assert.Equal(t, i+1, item.NumeroLinea)
	}
}

func TestCrearFactura_LineaInvalida(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	req := requestValida(fx.cai.ID)
	req.Items[0].Cantidad = decimal.Zero
	req.Items[0].DescuentoPct = d("120")

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, req)

	var verr *ValidacionError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items[0].cantidad")
	assert.Contains(t, verr.Fields, "items[0].descuento_pct")
}

// ─── AnularFactura ───────────────────────────────────────────────────────────

func TestAnularFactura(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	err = fx.svc.AnularFactura(context.Background(), fx.aud, id, "monto facturado incorrecto")
	require.NoError(t, err)

	factura := fx.repo.facturas[id]
	assert.Equal(t, model.FacturaAnulada, factura.Estado)
	require.NotNil(t, factura.MotivoAnulacion)
	assert.Equal(t, "monto facturado incorrecto", *factura.MotivoAnulacion)

	// the correlative stays retired — the counter never rolls back
	assert.Equal(t, int64(1), fx.cai.UltimoCorrelativo)

	entries, err := fx.bitacora.ListByFactura(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.AccionAnulacion, entries[1].Accion)
	require.NotNil(t, entries[1].DatosAntes)
	require.NotNil(t, entries[1].DatosDespues)
}

func TestAnularFactura_DobleAnulacion(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, fx.svc.AnularFactura(context.Background(), fx.aud, id, "duplicada"))

	err = fx.svc.AnularFactura(context.Background(), fx.aud, id, "duplicada otra vez")
	assert.ErrorIs(t, err, ErrTransicionInvalida)
}

func TestAnularFactura_MotivoObligatorio(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	err := fx.svc.AnularFactura(context.Background(), fx.aud, uuid.New(), "   ")

	var verr *ValidacionError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "motivo")
}

func TestAnularFactura_NoEncontrada(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	err := fx.svc.AnularFactura(context.Background(), fx.aud, uuid.New(), "no existe")
	assert.ErrorIs(t, err, ErrFacturaNoEncontrada)
}

// ─── MarcarImpresa ───────────────────────────────────────────────────────────

func TestMarcarImpresa_Idempotente(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, fx.svc.MarcarImpresa(context.Background(), fx.aud, id))
	assert.True(t, fx.repo.facturas[id].Impresa)

	entries, _ := fx.bitacora.ListByFactura(context.Background(), id)
	require.Len(t, entries, 2)
	assert.Equal(t, model.AccionImpresion, entries[1].Accion)

	// second call is a no-op, no extra bitácora entry
	require.NoError(t, fx.svc.MarcarImpresa(context.Background(), fx.aud, id))
	entries, _ = fx.bitacora.ListByFactura(context.Background(), id)
	assert.Len(t, entries, 2)
}

// staleImpresaRepo serves reads taken before a concurrent print landed, so the
// service's fast-path check cannot see the flag yet.
type staleImpresaRepo struct {
	*stubFacturaRepo
}

func (s *staleImpresaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	f, err := s.stubFacturaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	copia := *f
	copia.Impresa = false
	return &copia, nil
}

func TestMarcarImpresa_CarreraNoDuplicaBitacora(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, fx.svc.MarcarImpresa(context.Background(), fx.aud, id))
	entries, _ := fx.bitacora.ListByFactura(context.Background(), id)
	require.Len(t, entries, 2)

	// a second request whose read predates the first one's write loses the
	// conditional update and must not record another impresión
	carrera := NewFacturaService(&staleImpresaRepo{fx.repo}, fx.caiRepo, fx.bitacora, fx.mantRepo, nil)
	require.NoError(t, carrera.MarcarImpresa(context.Background(), fx.aud, id))

	entries, _ = fx.bitacora.ListByFactura(context.Background(), id)
	assert.Len(t, entries, 2)
	assert.True(t, fx.repo.facturas[id].Impresa)
}

func TestMarcarImpresa_PermitidaSobreAnulada(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, fx.svc.AnularFactura(context.Background(), fx.aud, id, "error de captura"))
	require.NoError(t, fx.svc.MarcarImpresa(context.Background(), fx.aud, id))
	assert.True(t, fx.repo.facturas[id].Impresa)
}

// ─── Read surface ────────────────────────────────────────────────────────────

func TestObtenerFactura_NoEncontrada(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	_, err := fx.svc.ObtenerFactura(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrFacturaNoEncontrada)
}

func TestListBitacora(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, fx.svc.AnularFactura(context.Background(), fx.aud, id, "prueba de bitacora"))

	entries, err := fx.svc.ListBitacora(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.AccionCreacion, entries[0].Accion)
	assert.Equal(t, model.AccionAnulacion, entries[1].Accion)
}

func TestListFacturas_PaginacionSaneada(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	_, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)

	// out-of-range paging values are clamped, not rejected
	resp, err := fx.svc.ListFacturas(context.Background(), dto.FacturaFilter{Page: 0, Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 50, resp.Limit)
	assert.Len(t, resp.Data, 1)
}

func TestObtenerPDFPath(t *testing.T) {
	fx := buildFacturaSvc(t, 1, 1000)

	resp, err := fx.svc.CrearFactura(context.Background(), fx.aud, requestValida(fx.cai.ID))
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = fx.svc.ObtenerPDFPath(context.Background(), id)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFacturaNoEncontrada))

	path := "/var/pdfs/factura_000-001-01-00000001.pdf"
	fx.repo.facturas[id].PDFPath = &path

	got, err := fx.svc.ObtenerPDFPath(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}
