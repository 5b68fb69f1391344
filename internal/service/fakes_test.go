package service

import (
	"context"
	"sort"
	"time"

	"aguabill/internal/dto"
	"aguabill/internal/model"
	"aguabill/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory repositories ───────────────────────────────────────────────────
// All fakes return a nil *gorm.DB from DB(), so runTx calls fn(nil) directly.

var (
	_ repository.LecturaRepository    = (*memLecturas)(nil)
	_ repository.DeudaRepository      = (*memDeudas)(nil)
	_ repository.ClienteRepository    = (*memClientes)(nil)
	_ repository.ConceptoRepository   = (*memConceptos)(nil)
	_ repository.CategoriaRepository  = (*memCategorias)(nil)
	_ repository.FacturaRepository    = (*memFacturas)(nil)
	_ repository.CajaRepository       = (*memCajas)(nil)
	_ repository.GeneracionRepository = (*memGeneraciones)(nil)
)

func mes(anio int, m time.Month) time.Time {
	return time.Date(anio, m, 1, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Lecturas ──

type memLecturas struct {
	rows map[uuid.UUID]*model.Lectura
}

func newMemLecturas() *memLecturas {
	return &memLecturas{rows: make(map[uuid.UUID]*model.Lectura)}
}

func (r *memLecturas) delCliente(clienteID uuid.UUID) []model.Lectura {
	var out []model.Lectura
	for _, l := range r.rows {
		if l.ClienteID == clienteID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Periodo.Before(out[j].Periodo) })
	return out
}

func (r *memLecturas) porPeriodo(clienteID uuid.UUID, p time.Time) *model.Lectura {
	for _, l := range r.rows {
		if l.ClienteID == clienteID && l.Periodo.Equal(p) {
			return l
		}
	}
	return nil
}

func (r *memLecturas) CreateTx(_ *gorm.DB, l *model.Lectura) error {
	if r.porPeriodo(l.ClienteID, l.Periodo) != nil {
		return gorm.ErrDuplicatedKey
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	r.rows[l.ID] = &cp
	return nil
}

func (r *memLecturas) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Lectura, error) {
	l, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLecturas) ExisteTx(_ *gorm.DB, clienteID uuid.UUID, p time.Time) (bool, error) {
	return r.porPeriodo(clienteID, p) != nil, nil
}

func (r *memLecturas) FindAnteriorTx(_ *gorm.DB, clienteID uuid.UUID, p time.Time) (*model.Lectura, error) {
	list := r.delCliente(clienteID)
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Periodo.Before(p) {
			return &list[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLecturas) FindSiguienteTx(_ *gorm.DB, clienteID uuid.UUID, p time.Time) (*model.Lectura, error) {
	for _, l := range r.delCliente(clienteID) {
		if l.Periodo.After(p) {
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLecturas) ListPosterioresTx(_ *gorm.DB, clienteID uuid.UUID, p time.Time) ([]model.Lectura, error) {
	var out []model.Lectura
	for _, l := range r.delCliente(clienteID) {
		if l.Periodo.After(p) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLecturas) ExistePosteriorPagadaTx(_ *gorm.DB, clienteID uuid.UUID, p time.Time) (bool, error) {
	for _, l := range r.delCliente(clienteID) {
		if l.Periodo.After(p) && l.Pagada {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLecturas) UpdateCalculoTx(_ *gorm.DB, l *model.Lectura) error {
	row, ok := r.rows[l.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.LecturaActual = l.LecturaActual
	row.LecturaAnterior = l.LecturaAnterior
	row.Consumo = l.Consumo
	row.TotalAgua = l.TotalAgua
	row.TotalDesague = l.TotalDesague
	row.TotalCargoFijo = l.TotalCargoFijo
	row.Total = l.Total
	row.TieneMedidor = l.TieneMedidor
	return nil
}

func (r *memLecturas) UpdateFechasTx(_ *gorm.DB, l *model.Lectura) error {
	row, ok := r.rows[l.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.FechaEmision, row.FechaVencimiento, row.FechaCorte = l.FechaEmision, l.FechaVencimiento, l.FechaCorte
	return nil
}

func (r *memLecturas) UpdatePagadaTx(_ *gorm.DB, id uuid.UUID, pagada bool) error {
	row, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Pagada = pagada
	return nil
}

func (r *memLecturas) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func (r *memLecturas) InsertIgnorandoTx(tx *gorm.DB, lecturas []model.Lectura) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for i := range lecturas {
		if r.porPeriodo(lecturas[i].ClienteID, lecturas[i].Periodo) != nil {
			continue
		}
		if err := r.CreateTx(tx, &lecturas[i]); err != nil {
			return nil, err
		}
		ids = append(ids, lecturas[i].ID)
	}
	return ids, nil
}

func (r *memLecturas) ListGeneradasTx(_ *gorm.DB, p time.Time) ([]model.Lectura, error) {
	var out []model.Lectura
	for _, l := range r.rows {
		if l.Periodo.Equal(p) && !l.TieneMedidor && !l.Pagada {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memLecturas) FindByID(_ context.Context, id uuid.UUID) (*model.Lectura, error) {
	return r.FindByIDTx(nil, id)
}

func (r *memLecturas) FindUltima(_ context.Context, clienteID uuid.UUID) (*model.Lectura, error) {
	list := r.delCliente(clienteID)
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[len(list)-1], nil
}

func (r *memLecturas) ListByPeriodo(_ context.Context, p time.Time, soloSinMedidor bool) ([]model.Lectura, error) {
	var out []model.Lectura
	for _, l := range r.rows {
		if l.Periodo.Equal(p) && (!soloSinMedidor || !l.TieneMedidor) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memLecturas) List(_ context.Context, _ dto.LecturaFilter) ([]model.Lectura, int64, error) {
	out := make([]model.Lectura, 0, len(r.rows))
	for _, l := range r.rows {
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (r *memLecturas) DB() *gorm.DB { return nil }

// ── Deudas ──

type memDeudas struct {
	rows     map[uuid.UUID]*model.Deuda
	detalles map[uuid.UUID][]model.DeudaDetalle
}

func newMemDeudas() *memDeudas {
	return &memDeudas{
		rows:     make(map[uuid.UUID]*model.Deuda),
		detalles: make(map[uuid.UUID][]model.DeudaDetalle),
	}
}

func (r *memDeudas) conDetalles(d *model.Deuda) *model.Deuda {
	cp := *d
	cp.Detalles = append([]model.DeudaDetalle(nil), r.detalles[d.ID]...)
	return &cp
}

func (r *memDeudas) delCliente(clienteID uuid.UUID) []model.Deuda {
	var out []model.Deuda
	for _, d := range r.rows {
		if d.ClienteID == clienteID {
			out = append(out, *r.conDetalles(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Periodo.Before(out[j].Periodo) })
	return out
}

// sumaDetalles is the sum of the stored detail lines of one debt.
func (r *memDeudas) sumaDetalles(id uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, det := range r.detalles[id] {
		total = total.Add(det.Monto)
	}
	return total
}

func (r *memDeudas) CreateTx(_ *gorm.DB, d *model.Deuda) error {
	for _, row := range r.rows {
		if row.ClienteID == d.ClienteID && row.Periodo.Equal(d.Periodo) {
			return gorm.ErrDuplicatedKey
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	cp.Detalles = nil
	r.rows[d.ID] = &cp
	return nil
}

func (r *memDeudas) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Deuda, error) {
	d, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.conDetalles(d), nil
}

func (r *memDeudas) FindByClientePeriodoTx(_ *gorm.DB, clienteID uuid.UUID, p time.Time) (*model.Deuda, error) {
	for _, d := range r.rows {
		if d.ClienteID == clienteID && d.Periodo.Equal(p) {
			return r.conDetalles(d), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDeudas) FindByLecturaTx(_ *gorm.DB, lecturaID uuid.UUID) (*model.Deuda, error) {
	for _, d := range r.rows {
		if d.LecturaID != nil && *d.LecturaID == lecturaID {
			return r.conDetalles(d), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDeudas) UpdateTx(_ *gorm.DB, d *model.Deuda) error {
	row, ok := r.rows[d.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.LecturaID, row.Descripcion, row.Monto = d.LecturaID, d.Descripcion, d.Monto
	return nil
}

func (r *memDeudas) UpdatePagadaTx(_ *gorm.DB, id uuid.UUID, pagada bool) error {
	row, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Pagada = pagada
	return nil
}

func (r *memDeudas) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.rows, id)
	delete(r.detalles, id)
	return nil
}

func (r *memDeudas) ReemplazarDetallesTx(_ *gorm.DB, deudaID uuid.UUID, detalles []model.DeudaDetalle) error {
	out := make([]model.DeudaDetalle, 0, len(detalles))
	for _, det := range detalles {
		det.ID = uuid.New()
		det.DeudaID = deudaID
		out = append(out, det)
	}
	r.detalles[deudaID] = out
	return nil
}

func (r *memDeudas) ListByIDsTx(_ *gorm.DB, ids []uuid.UUID) ([]model.Deuda, error) {
	var out []model.Deuda
	for _, id := range ids {
		if d, ok := r.rows[id]; ok {
			out = append(out, *r.conDetalles(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Periodo.Before(out[j].Periodo) })
	return out, nil
}

func (r *memDeudas) PrimerPeriodoImpagoTx(_ *gorm.DB, clienteID uuid.UUID) (*time.Time, error) {
	for _, d := range r.delCliente(clienteID) {
		if !d.Pagada {
			p := d.Periodo
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memDeudas) ExistePagadaTx(_ *gorm.DB, clienteID uuid.UUID, p time.Time) (bool, error) {
	for _, d := range r.rows {
		if d.ClienteID == clienteID && d.Periodo.Equal(p) && d.Pagada {
			return true, nil
		}
	}
	return false, nil
}

func (r *memDeudas) InsertIgnorandoTx(tx *gorm.DB, deudas []model.Deuda) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for i := range deudas {
		if _, err := r.FindByClientePeriodoTx(tx, deudas[i].ClienteID, deudas[i].Periodo); err == nil {
			continue
		}
		if err := r.CreateTx(tx, &deudas[i]); err != nil {
			return nil, err
		}
		ids = append(ids, deudas[i].ID)
	}
	return ids, nil
}

func (r *memDeudas) InsertDetallesTx(_ *gorm.DB, detalles []model.DeudaDetalle) error {
	for _, det := range detalles {
		det.ID = uuid.New()
		r.detalles[det.DeudaID] = append(r.detalles[det.DeudaID], det)
	}
	return nil
}

func (r *memDeudas) FindByID(_ context.Context, id uuid.UUID) (*model.Deuda, error) {
	return r.FindByIDTx(nil, id)
}

func (r *memDeudas) List(_ context.Context, _ dto.DeudaFilter) ([]model.Deuda, int64, error) {
	out := make([]model.Deuda, 0, len(r.rows))
	for _, d := range r.rows {
		out = append(out, *r.conDetalles(d))
	}
	return out, int64(len(out)), nil
}

func (r *memDeudas) ListByCliente(_ context.Context, clienteID uuid.UUID, soloImpagas bool) ([]model.Deuda, error) {
	var out []model.Deuda
	for _, d := range r.delCliente(clienteID) {
		if !soloImpagas || !d.Pagada {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDeudas) ResumenImpagas(_ context.Context, _ dto.ResumenDeudasFilter) ([]repository.ResumenImpagaRow, error) {
	return nil, nil
}

func (r *memDeudas) DB() *gorm.DB { return nil }

// ── Clientes ──

type memClientes struct {
	rows map[uuid.UUID]*model.Cliente
	seq  int
}

func newMemClientes(list ...*model.Cliente) *memClientes {
	r := &memClientes{rows: make(map[uuid.UUID]*model.Cliente)}
	for _, c := range list {
		r.rows[c.ID] = c
	}
	return r
}

func (r *memClientes) CreateTx(_ *gorm.DB, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.rows[c.ID] = c
	return nil
}

func (r *memClientes) UpdateTx(_ *gorm.DB, c *model.Cliente) error {
	r.rows[c.ID] = c
	return nil
}

func (r *memClientes) SaveMedidorTx(_ *gorm.DB, m *model.Medidor) error {
	if c, ok := r.rows[m.ClienteID]; ok {
		c.Medidor = m
	}
	return nil
}

func (r *memClientes) DeleteMedidorTx(_ *gorm.DB, clienteID uuid.UUID) error {
	if c, ok := r.rows[clienteID]; ok {
		c.Medidor = nil
	}
	return nil
}

func (r *memClientes) NextCodigo(_ context.Context, _ *gorm.DB) (string, error) {
	r.seq++
	return formatCodigo(r.seq), nil
}

func formatCodigo(n int) string {
	s := "00000" + decimal.NewFromInt(int64(n)).String()
	return s[len(s)-5:]
}

func (r *memClientes) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memClientes) FindByCodigo(_ context.Context, codigo string) (*model.Cliente, error) {
	for _, c := range r.rows {
		if c.Codigo == codigo {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memClientes) FindByCodigoYDocumento(ctx context.Context, codigo, documento string) (*model.Cliente, error) {
	c, err := r.FindByCodigo(ctx, codigo)
	if err != nil {
		return nil, err
	}
	if c.NumeroDocumento == nil || *c.NumeroDocumento != documento {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memClientes) FindByCodigos(_ context.Context, codigos []string) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, codigo := range codigos {
		for _, c := range r.rows {
			if c.Codigo == codigo {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

func (r *memClientes) ExisteDocumento(_ context.Context, documento string, excluir uuid.UUID) (bool, error) {
	for _, c := range r.rows {
		if c.ID != excluir && c.NumeroDocumento != nil && *c.NumeroDocumento == documento {
			return true, nil
		}
	}
	return false, nil
}

func (r *memClientes) ExisteMedidor(_ context.Context, codigo string, excluirCliente uuid.UUID) (bool, error) {
	for _, c := range r.rows {
		if c.ID != excluirCliente && c.Medidor != nil && c.Medidor.Codigo == codigo {
			return true, nil
		}
	}
	return false, nil
}

func (r *memClientes) List(_ context.Context, _ dto.ClienteFilter) ([]model.Cliente, int64, error) {
	out := make([]model.Cliente, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *memClientes) ListSinMedidor(_ context.Context, codigoGenerico string) ([]model.Cliente, error) {
	var out []model.Cliente
	for _, c := range r.rows {
		if !c.TieneMedidor && c.Codigo != codigoGenerico && c.Estado == "activo" {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out, nil
}

func (r *memClientes) DB() *gorm.DB { return nil }

// ── Conceptos / Categorias ──

type memConceptos struct {
	rows []model.ConceptoCaja
}

func (r *memConceptos) Crear(_ context.Context, c *model.ConceptoCaja) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.rows = append(r.rows, *c)
	return nil
}

func (r *memConceptos) Listar(_ context.Context, tipo string) ([]model.ConceptoCaja, error) {
	var out []model.ConceptoCaja
	for _, c := range r.rows {
		if tipo == "" || c.Tipo == tipo {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memConceptos) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.ConceptoCaja, error) {
	for _, c := range r.rows {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memConceptos) ObtenerPorCodigo(_ context.Context, codigo string) (*model.ConceptoCaja, error) {
	for _, c := range r.rows {
		if c.Codigo == codigo {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memConceptos) ObtenerPorCodigos(_ context.Context, codigos []string) ([]model.ConceptoCaja, error) {
	var out []model.ConceptoCaja
	for _, c := range r.rows {
		for _, codigo := range codigos {
			if c.Codigo == codigo {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *memConceptos) ObtenerPorIDs(_ context.Context, ids []uuid.UUID) ([]model.ConceptoCaja, error) {
	var out []model.ConceptoCaja
	for _, c := range r.rows {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *memConceptos) Actualizar(_ context.Context, c *model.ConceptoCaja) error {
	for i := range r.rows {
		if r.rows[i].ID == c.ID {
			r.rows[i] = *c
		}
	}
	return nil
}

func (r *memConceptos) Eliminar(_ context.Context, id uuid.UUID) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memConceptos) EnUso(_ context.Context, _ uuid.UUID) (bool, error) { return false, nil }

func (r *memConceptos) SiguienteCodigo(_ context.Context) (string, error) {
	return "013", nil
}

type memCategorias struct {
	rows map[uuid.UUID]*model.Categoria
}

func newMemCategorias(list ...*model.Categoria) *memCategorias {
	r := &memCategorias{rows: make(map[uuid.UUID]*model.Categoria)}
	for _, c := range list {
		r.rows[c.ID] = c
	}
	return r
}

func (r *memCategorias) Crear(_ context.Context, c *model.Categoria) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.rows[c.ID] = c
	return nil
}

func (r *memCategorias) Listar(_ context.Context, soloActivas bool) ([]model.Categoria, error) {
	var out []model.Categoria
	for _, c := range r.rows {
		if !soloActivas || c.Activo {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memCategorias) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.Categoria, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memCategorias) ObtenerPorNombre(_ context.Context, nombre string) (*model.Categoria, error) {
	for _, c := range r.rows {
		if c.Nombre == nombre {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCategorias) Actualizar(_ context.Context, c *model.Categoria) error {
	r.rows[c.ID] = c
	return nil
}

func (r *memCategorias) Desactivar(_ context.Context, id uuid.UUID) error {
	if c, ok := r.rows[id]; ok {
		c.Activo = false
	}
	return nil
}

func (r *memCategorias) SiguienteCodigo(_ context.Context) (string, error) {
	return "02", nil
}

// ── Facturas ──

type memFacturas struct {
	rows      map[uuid.UUID]*model.Factura
	deudas    []model.FacturaDeuda
	conceptos []model.FacturaConcepto
	pagos     []model.FacturaPago
	seq       int
}

func newMemFacturas() *memFacturas {
	return &memFacturas{rows: make(map[uuid.UUID]*model.Factura)}
}

func (r *memFacturas) NextCodigo(_ context.Context, _ *gorm.DB) (string, error) {
	r.seq++
	s := "0000000" + decimal.NewFromInt(int64(r.seq)).String()
	return s[len(s)-7:], nil
}

func (r *memFacturas) CreateTx(_ *gorm.DB, f *model.Factura) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	cp := *f
	r.rows[f.ID] = &cp
	return nil
}

func (r *memFacturas) CreateDeudaTx(_ *gorm.DB, fd *model.FacturaDeuda) error {
	fd.ID = uuid.New()
	r.deudas = append(r.deudas, *fd)
	return nil
}

func (r *memFacturas) CreateConceptoTx(_ *gorm.DB, fc *model.FacturaConcepto) error {
	fc.ID = uuid.New()
	r.conceptos = append(r.conceptos, *fc)
	return nil
}

func (r *memFacturas) CreatePagoTx(_ *gorm.DB, p *model.FacturaPago) error {
	p.ID = uuid.New()
	r.pagos = append(r.pagos, *p)
	return nil
}

func (r *memFacturas) cargar(id uuid.UUID) (*model.Factura, error) {
	f, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	cp.Deudas, cp.Conceptos, cp.Pagos = nil, nil, nil
	for _, fd := range r.deudas {
		if fd.FacturaID == id {
			cp.Deudas = append(cp.Deudas, fd)
		}
	}
	for _, fc := range r.conceptos {
		if fc.FacturaID == id {
			cp.Conceptos = append(cp.Conceptos, fc)
		}
	}
	for _, p := range r.pagos {
		if p.FacturaID == id {
			cp.Pagos = append(cp.Pagos, p)
		}
	}
	return &cp, nil
}

func (r *memFacturas) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Factura, error) {
	return r.cargar(id)
}

func (r *memFacturas) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	f, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Estado = estado
	return nil
}

func (r *memFacturas) FindByID(_ context.Context, id uuid.UUID) (*model.Factura, error) {
	return r.cargar(id)
}

func (r *memFacturas) List(_ context.Context, _ dto.FacturaFilter) ([]model.Factura, int64, error) {
	out := make([]model.Factura, 0, len(r.rows))
	for id := range r.rows {
		f, _ := r.cargar(id)
		out = append(out, *f)
	}
	return out, int64(len(out)), nil
}

func (r *memFacturas) PeriodosPorFactura(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]time.Time, error) {
	return map[uuid.UUID][]time.Time{}, nil
}

func (r *memFacturas) DB() *gorm.DB { return nil }

// ── Cajas ──

type memCajas struct {
	rows        map[uuid.UUID]*model.Caja
	movimientos []model.MovimientoCaja
	egresos     []model.EgresoCaja
	reportes    map[string]*model.ReporteCajaDiario
	// anuladas lists the payments whose invoice was cancelled.
	anuladas map[uuid.UUID]bool
	filas    []repository.MovimientoReporteRow
}

func newMemCajas(list ...*model.Caja) *memCajas {
	r := &memCajas{
		rows:     make(map[uuid.UUID]*model.Caja),
		reportes: make(map[string]*model.ReporteCajaDiario),
		anuladas: make(map[uuid.UUID]bool),
	}
	for _, c := range list {
		r.rows[c.ID] = c
	}
	return r
}

func claveReporte(cajaID uuid.UUID, fecha time.Time) string {
	return cajaID.String() + "/" + fecha.Format("2006-01-02")
}

func (r *memCajas) Create(_ context.Context, c *model.Caja) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.rows[c.ID] = c
	return nil
}

func (r *memCajas) FindByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCajas) FindAbiertaPorUsuario(_ context.Context, usuarioID uuid.UUID) (*model.Caja, error) {
	for _, c := range r.rows {
		if c.UsuarioID == usuarioID && c.Estado == EstadoCajaAbierta {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCajas) ListAbiertas(_ context.Context) ([]model.Caja, error) {
	var out []model.Caja
	for _, c := range r.rows {
		if c.Estado == EstadoCajaAbierta {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memCajas) List(_ context.Context, _ dto.CajaFilter) ([]model.Caja, int64, error) {
	out := make([]model.Caja, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *memCajas) Update(_ context.Context, c *model.Caja) error {
	cp := *c
	r.rows[c.ID] = &cp
	return nil
}

func (r *memCajas) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	m.ID = uuid.New()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *memCajas) CreateEgreso(_ context.Context, e *model.EgresoCaja) error {
	e.ID = uuid.New()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.egresos = append(r.egresos, *e)
	return nil
}

func enRango(t, desde, hasta time.Time) bool {
	return !t.Before(desde) && t.Before(hasta)
}

func (r *memCajas) ListEgresos(_ context.Context, cajaID uuid.UUID, desde, hasta time.Time) ([]model.EgresoCaja, error) {
	var out []model.EgresoCaja
	for _, e := range r.egresos {
		if e.CajaID == cajaID && enRango(e.CreatedAt, desde, hasta) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memCajas) SumIngresos(_ context.Context, cajaID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, m := range r.movimientos {
		if m.CajaID != cajaID || !enRango(m.CreatedAt, desde, hasta) {
			continue
		}
		if m.FacturaPagoID != nil && r.anuladas[*m.FacturaPagoID] {
			continue
		}
		total = total.Add(m.Total)
	}
	return total, nil
}

func (r *memCajas) SumEgresos(_ context.Context, cajaID uuid.UUID, desde, hasta time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range r.egresos {
		if e.CajaID == cajaID && enRango(e.CreatedAt, desde, hasta) {
			total = total.Add(e.Total)
		}
	}
	return total, nil
}

func (r *memCajas) ListMovimientosReporte(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]repository.MovimientoReporteRow, error) {
	return r.filas, nil
}

func (r *memCajas) FindReporte(_ context.Context, cajaID uuid.UUID, fecha time.Time) (*model.ReporteCajaDiario, error) {
	rep, ok := r.reportes[claveReporte(cajaID, fecha)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rep
	return &cp, nil
}

func (r *memCajas) FindUltimoReporte(_ context.Context, cajaID uuid.UUID) (*model.ReporteCajaDiario, error) {
	var ultimo *model.ReporteCajaDiario
	for _, rep := range r.reportes {
		if rep.CajaID == cajaID && (ultimo == nil || rep.Fecha.After(ultimo.Fecha)) {
			ultimo = rep
		}
	}
	if ultimo == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ultimo
	return &cp, nil
}

func (r *memCajas) UpsertReporte(_ context.Context, rep *model.ReporteCajaDiario) error {
	k := claveReporte(rep.CajaID, rep.Fecha)
	if prev, ok := r.reportes[k]; ok {
		rep.ID = prev.ID
		rep.Confirmado = prev.Confirmado
	} else if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	cp := *rep
	r.reportes[k] = &cp
	return nil
}

func (r *memCajas) MarcarConfirmado(_ context.Context, id uuid.UUID) error {
	for _, rep := range r.reportes {
		if rep.ID == id {
			rep.Confirmado = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Generaciones ──

type memGeneraciones struct {
	rows map[uuid.UUID]*model.GeneracionLecturas
}

func newMemGeneraciones() *memGeneraciones {
	return &memGeneraciones{rows: make(map[uuid.UUID]*model.GeneracionLecturas)}
}

func (r *memGeneraciones) CreateTx(_ *gorm.DB, g *model.GeneracionLecturas) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	cp := *g
	r.rows[g.ID] = &cp
	return nil
}

func (r *memGeneraciones) ExistePeriodoTx(_ *gorm.DB, p time.Time) (bool, error) {
	for _, g := range r.rows {
		if g.Periodo.Equal(p) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memGeneraciones) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.GeneracionLecturas, error) {
	g, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGeneraciones) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func (r *memGeneraciones) FindByID(_ context.Context, id uuid.UUID) (*model.GeneracionLecturas, error) {
	return r.FindByIDTx(nil, id)
}

func (r *memGeneraciones) List(_ context.Context) ([]model.GeneracionLecturas, error) {
	out := make([]model.GeneracionLecturas, 0, len(r.rows))
	for _, g := range r.rows {
		out = append(out, *g)
	}
	return out, nil
}

func (r *memGeneraciones) DB() *gorm.DB { return nil }

// ── Fixture ──────────────────────────────────────────────────────────────────

// entorno wires the real services over the in-memory repositories with the
// three reserved concepts and two categories (metered and flat-rate).
type entorno struct {
	lecturas     *memLecturas
	deudas       *memDeudas
	clientes     *memClientes
	conceptos    *memConceptos
	categorias   *memCategorias
	facturas     *memFacturas
	cajas        *memCajas
	generaciones *memGeneraciones

	tarifas    TarifaService
	ledger     LecturaService
	factura    FacturaService
	generacion GeneracionService

	medida   *model.Categoria
	sinMedid *model.Categoria
	agua     model.ConceptoCaja
	desague  model.ConceptoCaja
	fijo     model.ConceptoCaja
}

func nuevoEntorno() *entorno {
	e := &entorno{
		agua:    model.ConceptoCaja{ID: uuid.New(), Codigo: "001", Nombre: "Agua", Tipo: TipoConceptoIngreso},
		desague: model.ConceptoCaja{ID: uuid.New(), Codigo: "002", Nombre: "Desagüe", Tipo: TipoConceptoIngreso},
		fijo:    model.ConceptoCaja{ID: uuid.New(), Codigo: "003", Nombre: "Cargo fijo", Tipo: TipoConceptoIngreso, Total: dec("3.00")},
		medida: &model.Categoria{
			ID: uuid.New(), Codigo: "01", Nombre: "Doméstico",
			PrecioAgua: dec("2.50"), PrecioDesague: dec("1.00"), TieneMedidor: true, Activo: true,
		},
		sinMedid: &model.Categoria{
			ID: uuid.New(), Codigo: "02", Nombre: "Social",
			PrecioAgua: dec("10.00"), PrecioDesague: dec("2.00"), TieneMedidor: false, Activo: true,
		},
	}
	e.lecturas = newMemLecturas()
	e.deudas = newMemDeudas()
	e.clientes = newMemClientes()
	e.conceptos = &memConceptos{rows: []model.ConceptoCaja{e.agua, e.desague, e.fijo}}
	e.categorias = newMemCategorias(e.medida, e.sinMedid)
	e.facturas = newMemFacturas()
	e.cajas = newMemCajas()
	e.generaciones = newMemGeneraciones()

	e.tarifas = NewTarifaService(e.categorias, e.conceptos, CodigosPorDefecto)
	e.ledger = NewLecturaService(e.lecturas, e.deudas, e.clientes, e.tarifas)
	e.factura = NewFacturaService(e.facturas, e.deudas, e.clientes, e.conceptos, e.cajas, e.ledger, nil, nil, "00000")
	e.generacion = NewGeneracionService(e.generaciones, e.lecturas, e.deudas, e.clientes, e.ledger, e.tarifas, nil, "00000")
	return e
}

func (e *entorno) cliente(codigo string, cat *model.Categoria) *model.Cliente {
	c := &model.Cliente{
		ID:             uuid.New(),
		Codigo:         codigo,
		NombreCompleto: "Cliente " + codigo,
		TipoDocumento:  1,
		TieneMedidor:   cat.TieneMedidor,
		CategoriaID:    cat.ID,
		Categoria:      cat,
		Estado:         "activo",
	}
	e.clientes.rows[c.ID] = c
	return c
}

func (e *entorno) caja(usuarioID uuid.UUID) *model.Caja {
	c := &model.Caja{ID: uuid.New(), UsuarioID: usuarioID, FechaApertura: time.Now(), Estado: EstadoCajaAbierta}
	e.cajas.rows[c.ID] = c
	return c
}

// registrar records a reading through the interactive pipeline.
func (e *entorno) registrar(c *model.Cliente, p string, valor string) (*dto.LecturaResponse, error) {
	return e.ledger.RegistrarLectura(context.Background(), dto.RegistrarLecturaRequest{
		ClienteID:     c.ID.String(),
		Periodo:       p,
		LecturaActual: dec(valor),
	})
}

func (e *entorno) deudaDe(c *model.Cliente, p time.Time) *model.Deuda {
	d, err := e.deudas.FindByClientePeriodoTx(nil, c.ID, p)
	if err != nil {
		return nil
	}
	return d
}
