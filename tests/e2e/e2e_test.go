//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   - Full invoicing cycle (login → register CAI → emit → bitácora → anular)
//   - Concurrent emission: every correlative handed out exactly once
//   - Range exhaustion flips the CAI to agotada and rejects further emission
//   - Role enforcement: a técnico cannot emit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"servifrio/internal/config"
	"servifrio/internal/infra"
	"servifrio/internal/model"
	"servifrio/internal/router"
	"servifrio/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("servifrio_test"),
		tcPostgres.WithUsername("servifrio"),
		tcPostgres.WithPassword("servifrio"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		WorkerPoolSize:     1,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		EmpresaNombre:      "ServiFrio S. de R.L.",
		EmpresaRTN:         "0801-1990-123456",
		EmpresaDireccion:   "Col. Kennedy, Tegucigalpa",
		EmpresaTelefono:    "+504 2230-0000",
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	seedUsuario(t, db, "admin@e2e.test", "administrador")

	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	r := router.New(cfg, db, rdb, smtpCB, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		db:     db,
		token:  login(t, srv, "admin@e2e.test"),
	}
}

func seedUsuario(t *testing.T, db *gorm.DB, username, rol string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("servifrio-e2e"), bcrypt.MinCost)
	require.NoError(t, err)
	u := model.Usuario{
		Username:     username,
		Nombre:       "Usuario E2E",
		PasswordHash: string(hash),
		Rol:          rol,
		Activo:       true,
	}
	require.NoError(t, db.Create(&u).Error)
}

func login(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": "servifrio-e2e"}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func registrarCai(t *testing.T, env *testEnv, rangoInicio, rangoFin int64) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/cai",
		jsonBody(t, map[string]any{
			"rtn_emisor":       "0801-1985-123450",
			"nombre_comercial": "ServiFrio S. de R.L.",
			"punto_emision":    "001",
			"tipo_documento":   "factura",
			"cai":              fmt.Sprintf("%06d-612C1A-8A0E29-94B7D3-C3351E-9F", rangoInicio),
			"prefijo":          "000-001-01",
			"rango_inicio":     rangoInicio,
			"rango_fin":        rangoFin,
			"fecha_limite":     time.Now().AddDate(0, 6, 0).Format("2006-01-02"),
		}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cai struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &cai)
	return cai.ID
}

func facturaBody(caiID string) map[string]any {
	return map[string]any{
		"cai_id": caiID,
		"cliente": map[string]any{
			"rtn":    "0801-1990-654321",
			"nombre": "Hotel Maya Colonial",
		},
		"tipo_pago": "efectivo",
		"items": []map[string]any{
			{
				"descripcion":     "Mantenimiento preventivo unidad split 24000 BTU",
				"cantidad":        "2",
				"precio_unitario": "100.00",
				"tipo_gravamen":   "gravado_15",
				"descuento_pct":   "10",
			},
		},
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CicloFacturacion(t *testing.T) {
	env := setupTestEnv(t)
	caiID := registrarCai(t, env, 1, 5000)

	// Emit
	resp := do(t, env.server, "POST", "/v1/facturas", jsonBody(t, facturaBody(caiID)), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var factura struct {
		ID          string `json:"id"`
		Numero      string `json:"numero"`
		Correlativo int64  `json:"correlativo"`
		Estado      string `json:"estado"`
		TotalAPagar string `json:"total_a_pagar"`
		Isv15       string `json:"isv_15"`
	}
	decodeJSON(t, resp, &factura)
	assert.Equal(t, "000-001-01-00000001", factura.Numero)
	assert.Equal(t, int64(1), factura.Correlativo)
	assert.Equal(t, "vigente", factura.Estado)
	assert.True(t, decimal.RequireFromString(factura.TotalAPagar).Equal(decimal.NewFromInt(207)))
	assert.True(t, decimal.RequireFromString(factura.Isv15).Equal(decimal.NewFromInt(27)))

	// Bitácora carries the emission entry
	bitResp := do(t, env.server, "GET", "/v1/facturas/"+factura.ID+"/bitacora", nil, env.token)
	require.Equal(t, http.StatusOK, bitResp.StatusCode)
	var entries []struct {
		Accion string `json:"accion"`
	}
	decodeJSON(t, bitResp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "creacion", entries[0].Accion)

	// Anular
	anularResp := do(t, env.server, "DELETE", "/v1/facturas/"+factura.ID,
		jsonBody(t, map[string]any{"motivo": "error de captura en prueba"}), env.token)
	require.Equal(t, http.StatusNoContent, anularResp.StatusCode)
	anularResp.Body.Close()

	// Second anulación loses the race against the first: conflict
	again := do(t, env.server, "DELETE", "/v1/facturas/"+factura.ID,
		jsonBody(t, map[string]any{"motivo": "segundo intento"}), env.token)
	assert.Equal(t, http.StatusConflict, again.StatusCode)
	again.Body.Close()

	// Bitácora now holds creacion + anulacion, in order
	bitResp = do(t, env.server, "GET", "/v1/facturas/"+factura.ID+"/bitacora", nil, env.token)
	require.Equal(t, http.StatusOK, bitResp.StatusCode)
	decodeJSON(t, bitResp, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "anulacion", entries[1].Accion)
}

func TestE2E_EmisionConcurrente(t *testing.T) {
	env := setupTestEnv(t)
	caiID := registrarCai(t, env, 1, 5000)

	const emisores = 20
	correlativos := make(chan int64, emisores)
	var wg sync.WaitGroup

	for i := 0; i < emisores; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/facturas", jsonBody(t, facturaBody(caiID)), env.token)
			if resp.StatusCode != http.StatusCreated {
				resp.Body.Close()
				return
			}
			var f struct {
				Correlativo int64 `json:"correlativo"`
			}
			decodeJSON(t, resp, &f)
			correlativos <- f.Correlativo
		}()
	}
	wg.Wait()
	close(correlativos)

	// every emission succeeded and no correlative was handed out twice
	vistos := make(map[int64]bool)
	for c := range correlativos {
		assert.False(t, vistos[c], "correlativo %d asignado dos veces", c)
		vistos[c] = true
	}
	require.Len(t, vistos, emisores)
	for c := int64(1); c <= emisores; c++ {
		assert.True(t, vistos[c], "correlativo %d ausente de la secuencia", c)
	}
}

func TestE2E_AgotamientoDeRango(t *testing.T) {
	env := setupTestEnv(t)
	caiID := registrarCai(t, env, 1, 2)

	for i := 0; i < 2; i++ {
		resp := do(t, env.server, "POST", "/v1/facturas", jsonBody(t, facturaBody(caiID)), env.token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// range consumed: next emission conflicts
	resp := do(t, env.server, "POST", "/v1/facturas", jsonBody(t, facturaBody(caiID)), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// and the authorization reads agotada
	caiResp := do(t, env.server, "GET", "/v1/cai/"+caiID, nil, env.token)
	require.Equal(t, http.StatusOK, caiResp.StatusCode)
	var cai struct {
		Estado      string `json:"estado"`
		Disponibles int64  `json:"disponibles"`
	}
	decodeJSON(t, caiResp, &cai)
	assert.Equal(t, "agotada", cai.Estado)
	assert.Zero(t, cai.Disponibles)
}

func TestE2E_TecnicoNoPuedeEmitir(t *testing.T) {
	env := setupTestEnv(t)
	caiID := registrarCai(t, env, 1, 100)

	seedUsuario(t, env.db, "tecnico@e2e.test", "tecnico")
	tecnicoToken := login(t, env.server, "tecnico@e2e.test")

	resp := do(t, env.server, "POST", "/v1/facturas", jsonBody(t, facturaBody(caiID)), tecnicoToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// reads stay open to the técnico
	listResp := do(t, env.server, "GET", "/v1/facturas", nil, tecnicoToken)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	listResp.Body.Close()
}
