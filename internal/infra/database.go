package infra

import (
	"fmt"

	"aguabill/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. When autoMigrate
// is set it creates / updates all tables and then applies the idempotent SQL
// patches GORM cannot express (sequences, partial indexes).
func NewDatabase(dsn string, autoMigrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if autoMigrate {
		if err := RunMigrations(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// RunMigrations creates every table of the tenant schema and applies the
// schema patches. Integration tests call it against a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Empresa{},
		&model.Usuario{},
		&model.Zona{},
		&model.Via{},
		&model.Calle{},
		&model.Categoria{},
		&model.ConceptoCaja{},
		&model.Cliente{},
		&model.Medidor{},
		&model.Lectura{},
		&model.GeneracionLecturas{},
		&model.Deuda{},
		&model.DeudaDetalle{},
		&model.Caja{},
		&model.Factura{},
		&model.FacturaDeuda{},
		&model.FacturaConcepto{},
		&model.FacturaPago{},
		&model.MovimientoCaja{},
		&model.EgresoCaja{},
		&model.ReporteCajaDiario{},
		&model.ImportacionLote{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements that AutoMigrate cannot
// handle on its own. Each statement uses IF NOT EXISTS semantics so
// re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// 7-digit invoice codes; MAX(codigo)+1 would race between cashiers.
		{"facturas_codigo_seq", `CREATE SEQUENCE IF NOT EXISTS facturas_codigo_seq START 1`},
		{"sync facturas_codigo_seq", `
DO $$ BEGIN
  IF EXISTS (SELECT 1 FROM facturas) THEN
    PERFORM setval('facturas_codigo_seq',
      GREATEST((SELECT MAX(codigo::bigint) FROM facturas WHERE codigo ~ '^[0-9]+$'),
               (SELECT last_value FROM facturas_codigo_seq)));
  END IF;
END $$`},
		// Settlement looks up the earliest unpaid period of a customer.
		{"idx_deudas_impagas", `
CREATE INDEX IF NOT EXISTS idx_deudas_impagas
    ON deudas (cliente_id, periodo)
    WHERE pagada = false`},
		// Daily report aggregates movements of one drawer per day.
		{"idx_movimientos_caja_fecha", `
CREATE INDEX IF NOT EXISTS idx_movimientos_caja_fecha
    ON movimientos_caja (caja_id, created_at)`},
		{"idx_egresos_caja_fecha", `
CREATE INDEX IF NOT EXISTS idx_egresos_caja_fecha
    ON egresos_caja (caja_id, created_at)`},
		// One open drawer per operator.
		{"idx_cajas_abierta_usuario", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_cajas_abierta_usuario
    ON cajas (usuario_id)
    WHERE estado = 'abierta'`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
