package router

import (
	"time"

	"servifrio/internal/config"
	"servifrio/internal/handler"
	"servifrio/internal/infra"
	"servifrio/internal/middleware"
	"servifrio/internal/repository"
	"servifrio/internal/service"
	"servifrio/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	caiRepo := repository.NewCaiRepository(db)
	facturaRepo := repository.NewFacturaRepository(db)
	bitacoraRepo := repository.NewBitacoraRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	mantenimientoRepo := repository.NewMantenimientoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	caiSvc := service.NewCaiService(caiRepo)
	facturaSvc := service.NewFacturaService(facturaRepo, caiRepo, bitacoraRepo, mantenimientoRepo, dispatcher)
	clienteSvc := service.NewClienteService(clienteRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	caiH := handler.NewCaiHandler(caiSvc)
	facturasH := handler.NewFacturasHandler(facturaSvc)
	clientesH := handler.NewClientesHandler(clienteSvc, clienteRepo, rdb)
	mantenimientosH := handler.NewMantenimientosHandler(mantenimientoRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: tecnico, facturador, administrador — declared per-endpoint.
		// Emisión y anulación son del facturador; el técnico solo consulta.
		v1.POST("/facturas", middleware.RequireRole(middleware.RolFacturador, middleware.RolAdministrador), facturasH.CrearFactura)
		v1.GET("/facturas", middleware.RequireRole(middleware.RolTecnico, middleware.RolFacturador, middleware.RolAdministrador), facturasH.ListarFacturas)
		v1.GET("/facturas/pdf/:id", middleware.RequireRole(middleware.RolTecnico, middleware.RolFacturador, middleware.RolAdministrador), facturasH.DescargarPDF)
		v1.GET("/facturas/:id", middleware.RequireRole(middleware.RolTecnico, middleware.RolFacturador, middleware.RolAdministrador), facturasH.ObtenerFactura)
		v1.GET("/facturas/:id/bitacora", middleware.RequireRole(middleware.RolFacturador, middleware.RolAdministrador), facturasH.Bitacora)
		v1.POST("/facturas/:id/imprimir", middleware.RequireRole(middleware.RolFacturador, middleware.RolAdministrador), facturasH.MarcarImpresa)
		v1.DELETE("/facturas/:id", middleware.RequireRole(middleware.RolAdministrador), facturasH.AnularFactura)

		// CAI — registration and retirement are administrative; the emission
		// form reads the active list.
		v1.GET("/cai/activos", middleware.RequireRole(middleware.RolFacturador, middleware.RolAdministrador), caiH.ListarActivas)
		cai := v1.Group("/cai", middleware.RequireRole(middleware.RolAdministrador))
		{
			cai.POST("", caiH.CrearCai)
			cai.GET("", caiH.ListarCai)
			cai.GET("/:id", caiH.ObtenerCai)
			cai.POST("/:id/desactivar", caiH.DesactivarCai)
			cai.DELETE("/:id", caiH.EliminarCai)
		}

		// Clientes — read model for the emission form
		v1.GET("/clientes/rtn/:rtn", middleware.RequireRole(middleware.RolFacturador, middleware.RolAdministrador), clientesH.BuscarPorRTN)
		v1.POST("/clientes", middleware.RequireRole(middleware.RolFacturador, middleware.RolAdministrador), clientesH.CrearCliente)
		v1.GET("/clientes", middleware.RequireRole(middleware.RolTecnico, middleware.RolFacturador, middleware.RolAdministrador), clientesH.ListarClientes)
		v1.GET("/clientes/:id", middleware.RequireRole(middleware.RolTecnico, middleware.RolFacturador, middleware.RolAdministrador), clientesH.ObtenerCliente)

		// Mantenimientos facturables (picker)
		v1.GET("/mantenimientos/finalizados", middleware.RequireRole(middleware.RolFacturador, middleware.RolAdministrador), mantenimientosH.ListarFinalizados)

		usuarios := v1.Group("/usuarios", middleware.RequireRole(middleware.RolAdministrador))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
