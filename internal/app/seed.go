package app

import (
	"context"
	"time"

	"aguabill/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConceptosEstandar is the standard cash concept catalog. The first three are
// the reserved billing concepts.
var ConceptosEstandar = []struct{ Codigo, Nombre string }{
	{"001", "Servicio de agua"},
	{"002", "Servicio de desagüe"},
	{"003", "Cargo fijo"},
	{"004", "Reconexión de servicio de agua"},
	{"005", "Corte de servicio de agua"},
	{"006", "Nueva instalación de servicio de agua"},
	{"007", "Pago por informe de factibilidad de servicio"},
	{"008", "Instalación de servicio de agua"},
	{"009", "Suscripción en el padrón de usuarios"},
	{"010", "Nueva instalación de servicio de desagüe"},
	{"011", "Pago por inspección ocular técnica"},
	{"012", "Pago por instalación de servicio de desagüe"},
}

type SeedOptions struct {
	EmpresaNombre  string
	EmpresaRUC     string
	CodigoGenerico string
	AdminUsername  string
	AdminPassword  string
	AdminNombre    string
}

type SeedResult struct {
	Conceptos int
	Empresa   bool
	Generico  bool
	Admin     bool
	Caja      bool
}

// Seed loads the initial data of a new deployment. It is idempotent: rows
// that already exist are left untouched.
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) (*SeedResult, error) {
	res := &SeedResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range ConceptosEstandar {
			r := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "codigo"}}, DoNothing: true}).
				Create(&model.ConceptoCaja{Codigo: c.Codigo, Nombre: c.Nombre, Tipo: "ingreso", Total: decimal.Zero})
			if r.Error != nil {
				return r.Error
			}
			res.Conceptos += int(r.RowsAffected)
		}

		var n int64
		if err := tx.Model(&model.Empresa{}).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 && opts.EmpresaRUC != "" {
			if err := tx.Create(&model.Empresa{Nombre: opts.EmpresaNombre, RUC: opts.EmpresaRUC}).Error; err != nil {
				return err
			}
			res.Empresa = true
		}

		// The generic payer needs a category; it gets an inactive flat one.
		cat := model.Categoria{
			Codigo:        "00",
			Nombre:        "Genérico",
			PrecioAgua:    decimal.Zero,
			PrecioDesague: decimal.Zero,
			TieneMedidor:  false,
		}
		if err := tx.Where(model.Categoria{Codigo: "00"}).Attrs(cat).FirstOrCreate(&cat).Error; err != nil {
			return err
		}
		if err := tx.Model(&cat).Update("activo", false).Error; err != nil {
			return err
		}
		generico := model.Cliente{
			Codigo:         opts.CodigoGenerico,
			TipoDocumento:  0,
			NombreCompleto: "Cliente genérico",
			TieneMedidor:   false,
			CategoriaID:    cat.ID,
			Estado:         "activo",
		}
		r := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "codigo"}}, DoNothing: true}).Create(&generico)
		if r.Error != nil {
			return r.Error
		}
		res.Generico = r.RowsAffected > 0

		if opts.AdminUsername == "" {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), 12)
		if err != nil {
			return err
		}
		admin := model.Usuario{
			Username:     opts.AdminUsername,
			Nombre:       opts.AdminNombre,
			PasswordHash: string(hash),
			Rol:          "administrador",
			Activo:       true,
		}
		r = tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).Create(&admin)
		if r.Error != nil {
			return r.Error
		}
		res.Admin = r.RowsAffected > 0
		if err := tx.Where("username = ?", opts.AdminUsername).First(&admin).Error; err != nil {
			return err
		}

		// Base drawer for the administrator.
		if err := tx.Model(&model.Caja{}).Where("usuario_id = ? AND estado = 'abierta'", admin.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			caja := model.Caja{UsuarioID: admin.ID, FechaApertura: time.Now(), Estado: "abierta"}
			if err := tx.Create(&caja).Error; err != nil {
				return err
			}
			res.Caja = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("conceptos", res.Conceptos).
		Bool("empresa", res.Empresa).
		Bool("generico", res.Generico).
		Bool("admin", res.Admin).
		Bool("caja", res.Caja).
		Msg("seed completado")
	return res, nil
}
