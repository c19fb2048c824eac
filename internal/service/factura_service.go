package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"servifrio/internal/dto"
	"servifrio/internal/model"
	"servifrio/internal/repository"
	"servifrio/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Auditoria carries the ambient request context recorded in every bitácora
// entry: who acted, from where, with what client.
type Auditoria struct {
	UsuarioID   uuid.UUID
	DireccionIP string
	UserAgent   string
}

type FacturaService interface {
	CrearFactura(ctx context.Context, aud Auditoria, req dto.CrearFacturaRequest) (*dto.FacturaResponse, error)
	AnularFactura(ctx context.Context, aud Auditoria, id uuid.UUID, motivo string) error
	MarcarImpresa(ctx context.Context, aud Auditoria, id uuid.UUID) error
	ObtenerFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
	ListFacturas(ctx context.Context, filter dto.FacturaFilter) (*dto.FacturaListResponse, error)
	ListBitacora(ctx context.Context, facturaID uuid.UUID) ([]dto.BitacoraEntryResponse, error)
	ObtenerPDFPath(ctx context.Context, id uuid.UUID) (string, error)
}

type facturaService struct {
	repo         repository.FacturaRepository
	caiRepo      repository.CaiRepository
	bitacoraRepo repository.BitacoraRepository
	mantRepo     repository.MantenimientoRepository
	dispatcher   *worker.Dispatcher
}

func NewFacturaService(
	repo repository.FacturaRepository,
	caiRepo repository.CaiRepository,
	bitacoraRepo repository.BitacoraRepository,
	mantRepo repository.MantenimientoRepository,
	dispatcher *worker.Dispatcher,
) FacturaService {
	return &facturaService{
		repo:         repo,
		caiRepo:      caiRepo,
		bitacoraRepo: bitacoraRepo,
		mantRepo:     mantRepo,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CrearFactura ─────────────────────────────────────────────────────────────
// Issuance is one logical transaction:
//  1. Validate everything — a request that fails here never consumes a number
//  2. Compute per-line breakdown and rate buckets
//  3. BEGIN TX: claim correlativo, insert factura + items, insert bitácora
//  4. COMMIT
//  5. (async) dispatch PDF rendering job

func (s *facturaService) CrearFactura(ctx context.Context, aud Auditoria, req dto.CrearFacturaRequest) (*dto.FacturaResponse, error) {
	caiID, err := uuid.Parse(req.CaiID)
	if err != nil {
		return nil, fmt.Errorf("cai_id invalido: %w", err)
	}

	var clienteID *uuid.UUID
	if req.Cliente.ClienteID != nil {
		id, err := uuid.Parse(*req.Cliente.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("cliente_id invalido: %w", err)
		}
		clienteID = &id
	}

	var mantenimientoID *uuid.UUID
	if req.MantenimientoID != nil {
		id, err := uuid.Parse(*req.MantenimientoID)
		if err != nil {
			return nil, fmt.Errorf("mantenimiento_id invalido: %w", err)
		}
		mantenimientoID = &id
	}

	// 1. Full validation before touching the allocator
	if err := validarCrearFactura(req); err != nil {
		return nil, err
	}
	if mantenimientoID != nil {
		if _, err := s.mantRepo.FindByID(ctx, *mantenimientoID); err != nil {
			verr := nuevaValidacion()
			verr.add("mantenimiento_id", "el mantenimiento referenciado no existe")
			return nil, verr
		}
	}

	// 2. Load the authorization snapshot. Prefijo / código / fecha límite are
	// immutable attributes, so reading them outside the claim is race-free —
	// the claim itself re-checks estado, expiry and capacity atomically.
	cai, err := s.caiRepo.FindByID(ctx, caiID)
	if err != nil {
		return nil, err
	}

	// 3. Per-line breakdown and rate buckets
	items := make([]model.FacturaItem, 0, len(req.Items))
	subtotalExento := decimal.Zero
	subtotal15 := decimal.Zero
	subtotal18 := decimal.Zero
	isv15 := decimal.Zero
	isv18 := decimal.Zero

	for i, lineReq := range req.Items {
		linea, err := CalcularLinea(lineReq.Cantidad, lineReq.PrecioUnitario, lineReq.TipoGravamen, lineReq.DescuentoPct)
		if err != nil {
			verr := nuevaValidacion()
			verr.add(fmt.Sprintf("items[%d].tipo_gravamen", i), err.Error())
			return nil, verr
		}

		unidad := lineReq.UnidadMedida
		if unidad == "" {
			unidad = "unidad"
		}
		items = append(items, model.FacturaItem{
			NumeroLinea:    i + 1,
			CodigoProducto: lineReq.CodigoProducto,
			Descripcion:    lineReq.Descripcion,
			Cantidad:       lineReq.Cantidad.Round(2),
			UnidadMedida:   unidad,
			PrecioUnitario: lineReq.PrecioUnitario.Round(2),
			TipoGravamen:   lineReq.TipoGravamen,
			Tasa:           linea.Tasa,
			DescuentoPct:   lineReq.DescuentoPct.Round(2),
			MontoDescuento: linea.MontoDescuento,
			Subtotal:       linea.Subtotal,
			Impuesto:       linea.Impuesto,
			Total:          linea.Total,
		})

		switch lineReq.TipoGravamen {
		case model.Gravado15:
			subtotal15 = subtotal15.Add(linea.Subtotal)
			isv15 = isv15.Add(linea.Impuesto)
		case model.Gravado18:
			subtotal18 = subtotal18.Add(linea.Subtotal)
			isv18 = isv18.Add(linea.Impuesto)
		default:
			subtotalExento = subtotalExento.Add(linea.Subtotal)
		}
	}

	subtotal := subtotalExento.Add(subtotal15).Add(subtotal18)
	totalImpuesto := isv15.Add(isv18)
	totalAPagar := subtotal.Add(totalImpuesto)

	var diasCredito *int
	if req.TipoPago == model.PagoCredito {
		diasCredito = req.DiasCredito
	}

	// 4. One transaction: claim + factura + items + bitácora. Any failure
	// rolls back the whole unit, correlative increment included.
	ahora := time.Now()
	var factura model.Factura
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		correlativo, err := s.caiRepo.AllocateCorrelativoTx(ctx, tx, caiID)
		if err != nil {
			return err
		}

		factura = model.Factura{
			CaiID:             caiID,
			Numero:            fmt.Sprintf("%s-%08d", cai.Prefijo, correlativo),
			Correlativo:       correlativo,
			CodigoCai:         cai.Codigo,
			FechaLimiteCai:    cai.FechaLimite,
			ClienteID:         clienteID,
			ClienteRTN:        strings.TrimSpace(req.Cliente.RTN),
			ClienteNombre:     strings.TrimSpace(req.Cliente.Nombre),
			ClienteDireccion:  req.Cliente.Direccion,
			ClienteTelefono:   req.Cliente.Telefono,
			ClienteEmail:      req.Cliente.Email,
			MantenimientoID:   mantenimientoID,
			FechaEmision:      ahora,
			TipoPago:          req.TipoPago,
			DiasCredito:       diasCredito,
			SubtotalExento:    subtotalExento,
			SubtotalGravado15: subtotal15,
			SubtotalGravado18: subtotal18,
			Subtotal:          subtotal,
			Isv15:             isv15,
			Isv18:             isv18,
			TotalImpuesto:     totalImpuesto,
			TotalAPagar:       totalAPagar,
			Exenta:            req.Exenta,
			OrdenCompraExenta: req.OrdenCompraExenta,
			Estado:            model.FacturaVigente,
			EmitidaPor:        aud.UsuarioID,
			Items:             items,
		}
		if err := s.repo.Create(ctx, tx, &factura); err != nil {
			return err
		}

		despues := snapshotJSON(map[string]interface{}{
			"numero":        factura.Numero,
			"estado":        factura.Estado,
			"total_a_pagar": factura.TotalAPagar,
		})
		return s.bitacoraRepo.CreateTx(ctx, tx, &model.BitacoraFactura{
			FacturaID:    factura.ID,
			UsuarioID:    aud.UsuarioID,
			Accion:       model.AccionCreacion,
			Descripcion:  fmt.Sprintf("Factura %s emitida bajo CAI %s", factura.Numero, cai.Codigo),
			DatosDespues: despues,
			DireccionIP:  aud.DireccionIP,
			UserAgent:    aud.UserAgent,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	// 5. Async PDF rendering — best effort, never blocks issuance
	if s.dispatcher != nil {
		payload := worker.PDFJobPayload{FacturaID: factura.ID.String()}
		if req.Cliente.Email != nil && *req.Cliente.Email != "" {
			payload.ClienteEmail = req.Cliente.Email
		}
		_ = s.dispatcher.EnqueuePDF(ctx, payload)
	}

	return facturaToResponse(&factura), nil
}

// validarCrearFactura applies the cross-field rules the struct tags cannot
// express. Field names in the error map match the JSON payload.
func validarCrearFactura(req dto.CrearFacturaRequest) error {
	verr := nuevaValidacion()

	if len(req.Items) == 0 {
		verr.add("items", "la factura requiere al menos una linea")
	}

	rtn := strings.TrimSpace(req.Cliente.RTN)
	if l := len(rtn); l < 6 || l > 20 {
		verr.add("cliente.rtn", "el RTN/DNI debe tener entre 6 y 20 caracteres")
	}
	if strings.TrimSpace(req.Cliente.Nombre) == "" {
		verr.add("cliente.nombre", "el nombre del cliente es obligatorio")
	}

	if req.TipoPago == model.PagoCredito {
		if req.DiasCredito == nil {
			verr.add("dias_credito", "los dias de credito son obligatorios para pago al credito")
		} else if *req.DiasCredito < 1 || *req.DiasCredito > 365 {
			verr.add("dias_credito", "los dias de credito deben estar entre 1 y 365")
		}
	}

	if req.Exenta && (req.OrdenCompraExenta == nil || strings.TrimSpace(*req.OrdenCompraExenta) == "") {
		verr.add("orden_compra_exenta", "la orden de compra exenta es obligatoria para facturas exentas")
	}

	for i, item := range req.Items {
		if !item.Cantidad.IsPositive() {
			verr.add(fmt.Sprintf("items[%d].cantidad", i), "la cantidad debe ser mayor que cero")
		}
		if item.PrecioUnitario.IsNegative() {
			verr.add(fmt.Sprintf("items[%d].precio_unitario", i), "el precio unitario no puede ser negativo")
		}
		if item.DescuentoPct.IsNegative() || item.DescuentoPct.GreaterThan(decimal.NewFromInt(100)) {
			verr.add(fmt.Sprintf("items[%d].descuento_pct", i), "el descuento debe estar entre 0 y 100")
		}
		if strings.TrimSpace(item.Descripcion) == "" {
			verr.add(fmt.Sprintf("items[%d].descripcion", i), "la descripcion es obligatoria")
		}
	}

	if verr.vacio() {
		return nil
	}
	return verr
}

// ── AnularFactura ────────────────────────────────────────────────────────────
// Anulación is terminal. The consumed correlative stays retired forever —
// numbers are never reused, the voided document itself is the fiscal record.

func (s *facturaService) AnularFactura(ctx context.Context, aud Auditoria, id uuid.UUID, motivo string) error {
	if strings.TrimSpace(motivo) == "" {
		verr := nuevaValidacion()
		verr.add("motivo", "el motivo de anulacion es obligatorio")
		return verr
	}

	factura, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrFacturaNoEncontrada
	}
	if factura.Estado != model.FacturaVigente {
		return ErrTransicionInvalida
	}

	ahora := time.Now()
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rows, err := s.repo.UpdateAnulacionTx(ctx, tx, id, motivo, aud.UsuarioID, ahora)
		if err != nil {
			return err
		}
		// Zero rows: another request voided it between our read and this
		// update. The status guard is the concurrency guard.
		if rows == 0 {
			return ErrTransicionInvalida
		}

		antes := snapshotJSON(map[string]interface{}{"estado": model.FacturaVigente})
		despues := snapshotJSON(map[string]interface{}{
			"estado": model.FacturaAnulada,
			"motivo": motivo,
		})
		return s.bitacoraRepo.CreateTx(ctx, tx, &model.BitacoraFactura{
			FacturaID:    id,
			UsuarioID:    aud.UsuarioID,
			Accion:       model.AccionAnulacion,
			Descripcion:  fmt.Sprintf("Factura %s anulada: %s", factura.Numero, motivo),
			DatosAntes:   antes,
			DatosDespues: despues,
			DireccionIP:  aud.DireccionIP,
			UserAgent:    aud.UserAgent,
		})
	})
}

// ── MarcarImpresa ────────────────────────────────────────────────────────────
// Idempotent. The printed flag is orthogonal to estado: an anulada factura
// may still be reprinted for the client's records.

func (s *facturaService) MarcarImpresa(ctx context.Context, aud Auditoria, id uuid.UUID) error {
	factura, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrFacturaNoEncontrada
	}
	if factura.Impresa {
		return nil
	}

	ahora := time.Now()
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rows, err := s.repo.MarkImpresaTx(ctx, tx, id, ahora)
		if err != nil {
			return err
		}
		// Zero rows: a concurrent request printed it between our read and
		// this update. Idempotent no-op, no second bitácora entry.
		if rows == 0 {
			return nil
		}
		return s.bitacoraRepo.CreateTx(ctx, tx, &model.BitacoraFactura{
			FacturaID:   id,
			UsuarioID:   aud.UsuarioID,
			Accion:      model.AccionImpresion,
			Descripcion: fmt.Sprintf("Factura %s marcada como impresa", factura.Numero),
			DireccionIP: aud.DireccionIP,
			UserAgent:   aud.UserAgent,
		})
	})
}

// ── Read surface ─────────────────────────────────────────────────────────────

func (s *facturaService) ObtenerFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	factura, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrFacturaNoEncontrada
	}
	return facturaToResponse(factura), nil
}

func (s *facturaService) ListFacturas(ctx context.Context, filter dto.FacturaFilter) (*dto.FacturaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	facturas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.FacturaResponse, 0, len(facturas))
	for i := range facturas {
		items = append(items, *facturaToResponse(&facturas[i]))
	}
	return &dto.FacturaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *facturaService) ListBitacora(ctx context.Context, facturaID uuid.UUID) ([]dto.BitacoraEntryResponse, error) {
	if _, err := s.repo.FindByID(ctx, facturaID); err != nil {
		return nil, ErrFacturaNoEncontrada
	}
	entries, err := s.bitacoraRepo.ListByFactura(ctx, facturaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BitacoraEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.BitacoraEntryResponse{
			ID:           e.ID.String(),
			UsuarioID:    e.UsuarioID.String(),
			Accion:       e.Accion,
			Descripcion:  e.Descripcion,
			DatosAntes:   e.DatosAntes,
			DatosDespues: e.DatosDespues,
			DireccionIP:  e.DireccionIP,
			UserAgent:    e.UserAgent,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// ObtenerPDFPath returns the filesystem path of the rendered invoice PDF.
func (s *facturaService) ObtenerPDFPath(ctx context.Context, id uuid.UUID) (string, error) {
	factura, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", ErrFacturaNoEncontrada
	}
	if factura.PDFPath == nil || *factura.PDFPath == "" {
		return "", fmt.Errorf("PDF no disponible para la factura %s", factura.Numero)
	}
	return *factura.PDFPath, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func snapshotJSON(v map[string]interface{}) *string {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func facturaToResponse(f *model.Factura) *dto.FacturaResponse {
	items := make([]dto.ItemFacturaResponse, 0, len(f.Items))
	for _, item := range f.Items {
		items = append(items, dto.ItemFacturaResponse{
			NumeroLinea:    item.NumeroLinea,
			CodigoProducto: item.CodigoProducto,
			Descripcion:    item.Descripcion,
			Cantidad:       item.Cantidad,
			UnidadMedida:   item.UnidadMedida,
			PrecioUnitario: item.PrecioUnitario,
			TipoGravamen:   item.TipoGravamen,
			Tasa:           item.Tasa,
			DescuentoPct:   item.DescuentoPct,
			MontoDescuento: item.MontoDescuento,
			Subtotal:       item.Subtotal,
			Impuesto:       item.Impuesto,
			Total:          item.Total,
		})
	}

	resp := &dto.FacturaResponse{
		ID:                f.ID.String(),
		Numero:            f.Numero,
		Correlativo:       f.Correlativo,
		CodigoCai:         f.CodigoCai,
		FechaLimiteCai:    f.FechaLimiteCai.Format("2006-01-02"),
		ClienteRTN:        f.ClienteRTN,
		ClienteNombre:     f.ClienteNombre,
		ClienteDireccion:  f.ClienteDireccion,
		ClienteEmail:      f.ClienteEmail,
		FechaEmision:      f.FechaEmision.Format(time.RFC3339),
		TipoPago:          f.TipoPago,
		DiasCredito:       f.DiasCredito,
		SubtotalExento:    f.SubtotalExento,
		SubtotalGravado15: f.SubtotalGravado15,
		SubtotalGravado18: f.SubtotalGravado18,
		Subtotal:          f.Subtotal,
		Isv15:             f.Isv15,
		Isv18:             f.Isv18,
		TotalImpuesto:     f.TotalImpuesto,
		TotalAPagar:       f.TotalAPagar,
		Exenta:            f.Exenta,
		OrdenCompraExenta: f.OrdenCompraExenta,
		Estado:            f.Estado,
		MotivoAnulacion:   f.MotivoAnulacion,
		Impresa:           f.Impresa,
		Items:             items,
	}
	if f.MantenimientoID != nil {
		s := f.MantenimientoID.String()
		resp.MantenimientoID = &s
	}
	if f.PDFPath != nil && *f.PDFPath != "" {
		u := "/v1/facturas/pdf/" + f.ID.String()
		resp.PDFUrl = &u
	}
	return resp
}
