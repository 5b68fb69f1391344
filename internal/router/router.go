package router

import (
	"time"

	"aguabill/internal/app"
	"aguabill/internal/config"
	"aguabill/internal/handler"
	"aguabill/internal/middleware"
	"aguabill/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	rolAdmin      = service.RolAdministrador
	rolSupervisor = service.RolSupervisor
	rolCajero     = service.RolCajero
)

// New builds the handlers over svc and returns a configured Gin engine.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc *app.Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(""))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(svc.Auth)
	usuariosH := handler.NewUsuariosHandler(svc.Auth)
	tarifasH := handler.NewTarifasHandler(svc.Tarifas)
	territorioH := handler.NewTerritorioHandler(svc.Territorio)
	clientesH := handler.NewClientesHandler(svc.Clientes)
	lecturasH := handler.NewLecturasHandler(svc.Lecturas, svc.Generacion)
	deudasH := handler.NewDeudasHandler(svc.Deudas)
	facturasH := handler.NewFacturasHandler(svc.Facturas)
	cajaH := handler.NewCajaHandler(svc.Cajas)
	reportesH := handler.NewReportesHandler(svc.Reportes, svc.Facturas, svc.Cajas, svc.Territorio, cfg.PDFStoragePath)
	importacionH := handler.NewImportacionHandler(svc.Importacion)
	jobsH := handler.NewJobsHandler(rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, svc.PadronCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Debt lookup for customers, no auth required
	r.GET("/v1/consulta/:codigo", middleware.ConsultaRateLimiter(), clientesH.ConsultaDeuda)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	todos := middleware.RequireRole(rolCajero, rolSupervisor, rolAdmin)
	gestion := middleware.RequireRole(rolSupervisor, rolAdmin)
	admin := middleware.RequireRole(rolAdmin)
	{
		// Catalog: everyone reads, administrador writes
		v1.GET("/categorias", todos, tarifasH.ListarCategorias)
		v1.GET("/conceptos", todos, tarifasH.ListarConceptos)
		v1.GET("/zonas", todos, territorioH.ListarZonas)
		v1.GET("/vias", todos, territorioH.ListarVias)
		v1.GET("/calles", todos, territorioH.ListarCalles)
		v1.GET("/empresa", todos, territorioH.ObtenerEmpresa)
		catalogo := v1.Group("", admin)
		{
			catalogo.POST("/categorias", tarifasH.CrearCategoria)
			catalogo.PUT("/categorias/:id", tarifasH.ActualizarCategoria)
			catalogo.DELETE("/categorias/:id", tarifasH.DesactivarCategoria)
			catalogo.POST("/conceptos", tarifasH.CrearConcepto)
			catalogo.PUT("/conceptos/:id", tarifasH.ActualizarConcepto)
			catalogo.DELETE("/conceptos/:id", tarifasH.EliminarConcepto)
			catalogo.POST("/zonas", territorioH.CrearZona)
			catalogo.PUT("/zonas/:id", territorioH.ActualizarZona)
			catalogo.POST("/vias", territorioH.CrearVia)
			catalogo.PUT("/vias/:id", territorioH.ActualizarVia)
			catalogo.POST("/calles", territorioH.CrearCalle)
			catalogo.PUT("/calles/:id", territorioH.ActualizarCalle)
			catalogo.PUT("/empresa", territorioH.GuardarEmpresa)
		}

		clientes := v1.Group("/clientes")
		{
			clientes.GET("", todos, clientesH.Listar)
			clientes.GET("/:id", todos, clientesH.Obtener)
			clientes.GET("/:id/recibo", todos, reportesH.Recibo)
			clientes.GET("/:id/historial", todos, reportesH.HistorialDeudas)
			clientes.POST("", gestion, clientesH.Crear)
			clientes.PUT("/:id", gestion, clientesH.Actualizar)
		}
		v1.GET("/padron/:tipo/:numero", todos, clientesH.ConsultarPadron)

		lecturas := v1.Group("/lecturas")
		{
			lecturas.GET("", todos, lecturasH.Listar)
			lecturas.GET("/:id", todos, lecturasH.Obtener)
			lecturas.POST("", todos, lecturasH.Registrar)
			lecturas.PUT("/:id", gestion, lecturasH.Actualizar)
			lecturas.POST("/:id/recalcular", gestion, lecturasH.Recalcular)
			lecturas.DELETE("/:id", gestion, lecturasH.Eliminar)
		}

		generaciones := v1.Group("/generaciones", gestion)
		{
			generaciones.POST("", lecturasH.Generar)
			generaciones.GET("", lecturasH.ListarGeneraciones)
			generaciones.GET("/:id", lecturasH.ObtenerGeneracion)
			generaciones.DELETE("/:id", lecturasH.AnularGeneracion)
		}

		deudas := v1.Group("/deudas")
		{
			deudas.GET("", todos, deudasH.Listar)
			deudas.GET("/:id", todos, deudasH.Obtener)
			deudas.POST("", gestion, deudasH.Crear)
			deudas.PUT("/:id", gestion, deudasH.Actualizar)
			deudas.DELETE("/:id", gestion, deudasH.Eliminar)
			deudas.POST("/:id/lectura", gestion, deudasH.CrearLectura)
		}

		facturas := v1.Group("/facturas")
		{
			facturas.POST("", todos, facturasH.Crear)
			facturas.GET("", todos, facturasH.Listar)
			facturas.GET("/:id", todos, facturasH.Obtener)
			facturas.GET("/:id/ticket", todos, reportesH.Ticket)
			facturas.DELETE("/:id", gestion, facturasH.Anular)
		}

		cajas := v1.Group("/cajas")
		{
			cajas.POST("", todos, cajaH.Abrir)
			cajas.GET("", gestion, cajaH.Listar)
			cajas.GET("/:id", todos, cajaH.Obtener)
			cajas.POST("/:id/cerrar", todos, cajaH.Cerrar)
			cajas.POST("/:id/egresos", todos, cajaH.RegistrarEgreso)
			cajas.GET("/:id/egresos", todos, cajaH.ListarEgresos)
			cajas.POST("/:id/reporte-diario", todos, cajaH.GenerarReporteDiario)
			cajas.GET("/:id/reporte-diario", todos, cajaH.ObtenerReporteDiario)
			cajas.POST("/:id/reporte-diario/confirmar", gestion, cajaH.ConfirmarReporte)
			cajas.GET("/:id/reporte", todos, cajaH.ReporteCaja)
			cajas.GET("/:id/reporte/pdf", todos, reportesH.ReporteCajaPDF)
		}

		v1.GET("/reportes/deudas", gestion, reportesH.ResumenDeudas)

		imp := v1.Group("/importaciones", admin)
		{
			imp.POST("/lecturas", importacionH.ImportarLecturas)
			imp.POST("/deudas", importacionH.ImportarDeudas)
			imp.GET("", importacionH.ListarLotes)
			imp.GET("/:id", importacionH.ObtenerLote)
		}

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}

		jobs := v1.Group("/jobs", admin)
		{
			jobs.GET("/dlq", jobsH.ListarDLQ)
			jobs.POST("/dlq/reencolar", jobsH.Reencolar)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
