package service

import (
	"context"
	"strings"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/periodo"
	"aguabill/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	DocumentoNinguno = 0
	DocumentoDNI     = 1
	DocumentoRUC     = 6
)

// CacheConsulta caches the public debt lookup per customer code.
type CacheConsulta interface {
	Obtener(ctx context.Context, codigo, documento string) (*dto.ConsultaDeudaResponse, bool)
	Guardar(ctx context.Context, codigo, documento string, resp *dto.ConsultaDeudaResponse)
	// Invalidar drops every cached lookup of the customer.
	Invalidar(ctx context.Context, codigo string)
}

// ConsultorPadron resolves a DNI/RUC against the national registry. A nil
// response with a nil error means the document is not registered.
type ConsultorPadron interface {
	Consultar(ctx context.Context, tipoDocumento int, numero string) (*dto.PadronResponse, error)
}

type ClienteService interface {
	CrearCliente(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	ActualizarCliente(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	ObtenerCliente(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	ListarClientes(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	// ConsultaDeuda is the unauthenticated lookup by code plus document number.
	ConsultaDeuda(ctx context.Context, codigo, documento string) (*dto.ConsultaDeudaResponse, error)
	ConsultarPadron(ctx context.Context, tipoDocumento int, numero string) (*dto.PadronResponse, error)
}

type clienteService struct {
	clientes   repository.ClienteRepository
	deudas     repository.DeudaRepository
	territorio repository.TerritorioRepository
	tarifas    TarifaService
	cache      CacheConsulta
	padron     ConsultorPadron
}

func NewClienteService(
	clientes repository.ClienteRepository,
	deudas repository.DeudaRepository,
	territorio repository.TerritorioRepository,
	tarifas TarifaService,
	cache CacheConsulta,
	padron ConsultorPadron,
) ClienteService {
	return &clienteService{
		clientes:   clientes,
		deudas:     deudas,
		territorio: territorio,
		tarifas:    tarifas,
		cache:      cache,
		padron:     padron,
	}
}

func mapCliente(c model.Cliente) dto.ClienteResponse {
	resp := dto.ClienteResponse{
		ID:              c.ID,
		Codigo:          c.Codigo,
		TipoDocumento:   c.TipoDocumento,
		NumeroDocumento: c.NumeroDocumento,
		NombreCompleto:  c.NombreCompleto,
		Direccion:       c.Direccion,
		TieneMedidor:    c.TieneMedidor,
		CategoriaID:     c.CategoriaID,
		CalleID:         c.CalleID,
		ZonaID:          c.ZonaID,
		Manzana:         c.Manzana,
		Lote:            c.Lote,
		Nro:             c.Nro,
		Estado:          c.Estado,
	}
	if c.Categoria != nil {
		resp.Categoria = c.Categoria.Nombre
	}
	if c.Medidor != nil {
		resp.Medidor = &dto.MedidorResponse{
			ID:               c.Medidor.ID,
			Codigo:           c.Medidor.Codigo,
			FechaInstalacion: c.Medidor.FechaInstalacion.Format(layoutFecha),
		}
	}
	return resp
}

// componerDireccion builds "Jr. Lima Mz A Lt 3 N° 120", skipping empty parts.
func componerDireccion(calle *model.Calle, mz, lote, nro *string) *string {
	var partes []string
	if calle != nil {
		if calle.Via != nil {
			partes = append(partes, calle.Via.Nombre+" "+calle.Nombre)
		} else {
			partes = append(partes, calle.Nombre)
		}
	}
	if mz != nil && *mz != "" {
		partes = append(partes, "Mz "+*mz)
	}
	if lote != nil && *lote != "" {
		partes = append(partes, "Lt "+*lote)
	}
	if nro != nil && *nro != "" {
		partes = append(partes, "N° "+*nro)
	}
	if len(partes) == 0 {
		return nil
	}
	d := strings.Join(partes, " ")
	return &d
}

func validarDocumento(tipo int, numero *string) error {
	if numero == nil || *numero == "" {
		if tipo != DocumentoNinguno {
			return errValidacion("numero_documento", "El número de documento es obligatorio.")
		}
		return nil
	}
	switch tipo {
	case DocumentoDNI:
		if len(*numero) != 8 {
			return errValidacion("numero_documento", "El DNI debe tener 8 dígitos.")
		}
	case DocumentoRUC:
		if len(*numero) != 11 {
			return errValidacion("numero_documento", "El RUC debe tener 11 dígitos.")
		}
	}
	return nil
}

// prepararCliente validates req and copies it onto c. id is uuid.Nil on create.
func (s *clienteService) prepararCliente(ctx context.Context, id uuid.UUID, c *model.Cliente, req dto.ClienteRequest) error {
	if err := validarDocumento(req.TipoDocumento, req.NumeroDocumento); err != nil {
		return err
	}
	if !req.TieneMedidor && req.NumeroDocumento != nil && *req.NumeroDocumento != "" {
		existe, err := s.clientes.ExisteDocumento(ctx, *req.NumeroDocumento, id)
		if err != nil {
			return err
		}
		if existe {
			return errValidacion("numero_documento", "Ya existe un cliente con este numero.")
		}
	}
	if req.TieneMedidor {
		if req.Medidor == nil {
			return errValidacion("medidor", "Este campo es obligatorio cuando el cliente tiene medidor.")
		}
		existe, err := s.clientes.ExisteMedidor(ctx, req.Medidor.Codigo, id)
		if err != nil {
			return err
		}
		if existe {
			return errValidacion("medidor", "Este codigo de medidor ya existe.")
		}
	}

	categoriaID, err := parseUUID("categoria_id", req.CategoriaID)
	if err != nil {
		return err
	}
	cat, err := s.tarifas.Categoria(ctx, categoriaID)
	if err != nil {
		return err
	}

	var calle *model.Calle
	c.CalleID = nil
	if req.CalleID != nil && *req.CalleID != "" {
		calleID, err := parseUUID("calle_id", *req.CalleID)
		if err != nil {
			return err
		}
		calle, err = s.territorio.ObtenerCalle(ctx, calleID)
		if err != nil {
			return noEncontrado(err, "Calle no encontrada")
		}
		c.CalleID = &calle.ID
	}
	c.ZonaID = nil
	if req.ZonaID != nil && *req.ZonaID != "" {
		zonaID, err := parseUUID("zona_id", *req.ZonaID)
		if err != nil {
			return err
		}
		if _, err := s.territorio.ObtenerZona(ctx, zonaID); err != nil {
			return noEncontrado(err, "Zona no encontrada")
		}
		c.ZonaID = &zonaID
	}

	c.TipoDocumento = req.TipoDocumento
	c.NumeroDocumento = req.NumeroDocumento
	c.NombreCompleto = strings.TrimSpace(req.NombreCompleto)
	c.TieneMedidor = req.TieneMedidor
	c.CategoriaID = cat.ID
	c.Categoria = cat
	c.Manzana = req.Manzana
	c.Lote = req.Lote
	c.Nro = req.Nro
	c.Direccion = componerDireccion(calle, req.Manzana, req.Lote, req.Nro)
	if req.Estado != "" {
		c.Estado = req.Estado
	} else if c.Estado == "" {
		c.Estado = "activo"
	}
	return nil
}

func medidorDesde(req *dto.MedidorRequest, clienteID uuid.UUID, actual *model.Medidor) (*model.Medidor, error) {
	fecha, err := parseFecha(&req.FechaInstalacion)
	if err != nil || fecha == nil {
		return nil, errValidacion("fecha_instalacion", "Fecha invalida")
	}
	m := &model.Medidor{ClienteID: clienteID}
	if actual != nil {
		m = actual
	}
	m.Codigo = req.Codigo
	m.FechaInstalacion = *fecha
	return m, nil
}

// ── CrearCliente ──────────────────────────────────────────────────────────────

func (s *clienteService) CrearCliente(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{}
	if err := s.prepararCliente(ctx, uuid.Nil, c, req); err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.clientes.DB(), func(tx *gorm.DB) error {
		codigo, err := s.clientes.NextCodigo(ctx, tx)
		if err != nil {
			return err
		}
		c.Codigo = codigo
		if err := s.clientes.CreateTx(tx, c); err != nil {
			return err
		}
		if req.TieneMedidor {
			m, err := medidorDesde(req.Medidor, c.ID, nil)
			if err != nil {
				return err
			}
			if err := s.clientes.SaveMedidorTx(tx, m); err != nil {
				return err
			}
			c.Medidor = m
		}
		return nil
	})
	if txErr != nil {
		if repository.EsViolacionUnica(txErr) {
			return nil, errConflicto("El código de cliente o de medidor ya existe, intente nuevamente.")
		}
		return nil, txErr
	}

	log.Info().Str("cliente", c.Codigo).Bool("medidor", c.TieneMedidor).Msg("cliente registrado")
	resp := mapCliente(*c)
	return &resp, nil
}

// ── ActualizarCliente ─────────────────────────────────────────────────────────

func (s *clienteService) ActualizarCliente(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	if err := s.prepararCliente(ctx, id, c, req); err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.clientes.DB(), func(tx *gorm.DB) error {
		if err := s.clientes.UpdateTx(tx, c); err != nil {
			return err
		}
		if !req.TieneMedidor {
			c.Medidor = nil
			return s.clientes.DeleteMedidorTx(tx, c.ID)
		}
		m, err := medidorDesde(req.Medidor, c.ID, c.Medidor)
		if err != nil {
			return err
		}
		if err := s.clientes.SaveMedidorTx(tx, m); err != nil {
			return err
		}
		c.Medidor = m
		return nil
	})
	if txErr != nil {
		if repository.EsViolacionUnica(txErr) {
			return nil, errConflicto("Este codigo de medidor ya existe.")
		}
		return nil, txErr
	}
	if s.cache != nil {
		s.cache.Invalidar(ctx, c.Codigo)
	}
	resp := mapCliente(*c)
	return &resp, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *clienteService) ObtenerCliente(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	resp := mapCliente(*c)
	return &resp, nil
}

func (s *clienteService) ListarClientes(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	list, total, err := s.clientes.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ClienteResponse, 0, len(list))
	for _, c := range list {
		data = append(data, mapCliente(c))
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clienteService) ConsultaDeuda(ctx context.Context, codigo, documento string) (*dto.ConsultaDeudaResponse, error) {
	codigo = strings.TrimSpace(codigo)
	documento = strings.TrimSpace(documento)
	if codigo == "" || documento == "" {
		return nil, errValidacion("", "Debe proporcionar codigo y dni/ruc")
	}
	if s.cache != nil {
		if resp, ok := s.cache.Obtener(ctx, codigo, documento); ok {
			return resp, nil
		}
	}

	c, err := s.clientes.FindByCodigoYDocumento(ctx, codigo, documento)
	if err != nil {
		return nil, noEncontrado(err, "Cliente no encontrado")
	}
	deudas, err := s.deudas.ListByCliente(ctx, c.ID, true)
	if err != nil {
		return nil, err
	}

	resp := &dto.ConsultaDeudaResponse{
		Codigo:         c.Codigo,
		NombreCompleto: c.NombreCompleto,
		Direccion:      c.Direccion,
		Deudas:         make([]dto.DeudaResumenItem, 0, len(deudas)),
		Total:          decimal.Zero,
	}
	for _, d := range deudas {
		resp.Deudas = append(resp.Deudas, dto.DeudaResumenItem{
			ID:       d.ID,
			Periodo:  periodo.Clave(d.Periodo),
			Etiqueta: periodo.Formatear(d.Periodo),
			Monto:    d.Monto,
		})
		resp.Total = resp.Total.Add(d.Monto)
	}

	if s.cache != nil {
		s.cache.Guardar(ctx, codigo, documento, resp)
	}
	return resp, nil
}

func (s *clienteService) ConsultarPadron(ctx context.Context, tipoDocumento int, numero string) (*dto.PadronResponse, error) {
	if tipoDocumento != DocumentoDNI && tipoDocumento != DocumentoRUC {
		return nil, errValidacion("tipo_documento", "Solo se puede consultar DNI o RUC.")
	}
	if err := validarDocumento(tipoDocumento, &numero); err != nil {
		return nil, err
	}
	if s.padron == nil {
		return nil, errConfiguracion("La consulta de padrón no está configurada.")
	}
	resp, err := s.padron.Consultar(ctx, tipoDocumento, numero)
	if err != nil {
		log.Warn().Err(err).Int("tipo", tipoDocumento).Msg("consulta padron fallida")
		return nil, &Error{Kind: KindNoDisponible, Mensaje: "El padrón no está disponible, intente más tarde.", Err: err}
	}
	if resp == nil {
		return nil, errNoEncontrado("Documento no encontrado en el padrón.")
	}
	return resp, nil
}
