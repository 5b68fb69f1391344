// Package app is the composition root shared by the HTTP server, the worker
// pool and the aguactl CLI: it builds every repository and service once.
package app

import (
	"aguabill/internal/config"
	"aguabill/internal/infra"
	"aguabill/internal/repository"
	"aguabill/internal/service"
	"aguabill/internal/worker"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Services struct {
	Auth        service.AuthService
	Tarifas     service.TarifaService
	Territorio  service.TerritorioService
	Clientes    service.ClienteService
	Lecturas    service.LecturaService
	Deudas      service.DeudaService
	Facturas    service.FacturaService
	Cajas       service.CajaService
	Reportes    service.ReporteService
	Importacion service.ImportacionService
	Generacion  service.GeneracionService

	Dispatcher *worker.Dispatcher
	// PadronCB is nil when no registry URL is configured.
	PadronCB *infra.CircuitBreaker

	lecturaRepo repository.LecturaRepository
}

// New wires repositories and services.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	conceptoRepo := repository.NewConceptoRepository(db)
	territorioRepo := repository.NewTerritorioRepository(db)
	empresaRepo := repository.NewEmpresaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	lecturaRepo := repository.NewLecturaRepository(db)
	deudaRepo := repository.NewDeudaRepository(db)
	facturaRepo := repository.NewFacturaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	importacionRepo := repository.NewImportacionRepository(db)
	generacionRepo := repository.NewGeneracionRepository(db)

	// ── Infrastructure ───────────────────────────────────────────────────────
	var dispatcher *worker.Dispatcher
	var cache service.CacheConsulta
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
		cache = infra.NewConsultaCache(rdb, cfg.ConsultaCacheTTL())
	}

	s := &Services{Dispatcher: dispatcher, lecturaRepo: lecturaRepo}

	// The client is assigned only when configured so the interface stays nil.
	var padron service.ConsultorPadron
	if cfg.PadronAPIURL != "" {
		pc := infra.NewPadronClient(cfg.PadronAPIURL, cfg.PadronAPIToken, nil)
		padron = pc
		s.PadronCB = pc.Breaker()
	}

	// ── Services ─────────────────────────────────────────────────────────────
	codigos := service.CodigosPorDefecto
	s.Auth = service.NewAuthService(usuarioRepo, cfg)
	s.Tarifas = service.NewTarifaService(categoriaRepo, conceptoRepo, codigos)
	s.Territorio = service.NewTerritorioService(territorioRepo, empresaRepo)
	s.Clientes = service.NewClienteService(clienteRepo, deudaRepo, territorioRepo, s.Tarifas, cache, padron)
	s.Lecturas = service.NewLecturaService(lecturaRepo, deudaRepo, clienteRepo, s.Tarifas)
	s.Deudas = service.NewDeudaService(deudaRepo, lecturaRepo, clienteRepo, conceptoRepo, s.Lecturas, s.Tarifas)
	s.Facturas = service.NewFacturaService(facturaRepo, deudaRepo, clienteRepo, conceptoRepo, cajaRepo,
		s.Lecturas, cache, dispatcher, cfg.ClienteGenericoCodigo)
	s.Cajas = service.NewCajaService(cajaRepo, facturaRepo, s.Tarifas, dispatcher, cfg.Location())
	s.Reportes = service.NewReporteService(clienteRepo, lecturaRepo, deudaRepo)
	s.Importacion = service.NewImportacionService(importacionRepo, lecturaRepo, deudaRepo, clienteRepo,
		conceptoRepo, codigos, cfg.ImportProfile)
	s.Generacion = service.NewGeneracionService(generacionRepo, lecturaRepo, deudaRepo, clienteRepo,
		s.Lecturas, s.Tarifas, dispatcher, cfg.ClienteGenericoCodigo)
	return s
}

// WorkerHandlers maps every job type to its processor.
func (s *Services) WorkerHandlers(mailer *infra.Mailer, pdfStoragePath string) worker.Handlers {
	return worker.Handlers{
		worker.JobComprobante: worker.NewComprobanteWorker(s.Facturas, s.Territorio, pdfStoragePath),
		worker.JobRecibos:     worker.NewRecibosWorker(s.lecturaRepo, s.Reportes, s.Territorio, pdfStoragePath),
		worker.JobReporteCaja: worker.NewReporteCajaWorker(s.Cajas, s.Territorio, s.Dispatcher, pdfStoragePath),
		worker.JobEmail:       worker.NewEmailWorker(mailer),
	}
}
