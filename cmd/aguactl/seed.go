package main

import (
	"fmt"

	"aguabill/internal/app"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Carga los datos iniciales (conceptos, empresa, cliente genérico, admin)",
	Long: `Carga los datos iniciales de una instalación nueva. Es idempotente:
las filas existentes no se modifican.

Crea los 12 conceptos de caja estándar (001 agua, 002 desagüe y 003 cargo fijo
son los reservados por la facturación), la empresa, el cliente genérico usado
en los pagos sin cliente, el usuario administrador y su caja base.`,
	Example: `  aguactl seed --empresa "JASS Santa Rosa" --ruc 20123456789 --admin admin --password secreto123`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("empresa", "", "Nombre de la empresa")
	seedCmd.Flags().String("ruc", "", "RUC de la empresa (11 dígitos)")
	seedCmd.Flags().String("admin", "admin", "Usuario administrador")
	seedCmd.Flags().String("password", "", "Contraseña del administrador (mínimo 8 caracteres)")
	seedCmd.Flags().String("nombre", "Administrador", "Nombre del administrador")
}

func runSeed(cmd *cobra.Command, args []string) error {
	opts := app.SeedOptions{}
	opts.EmpresaNombre, _ = cmd.Flags().GetString("empresa")
	opts.EmpresaRUC, _ = cmd.Flags().GetString("ruc")
	opts.AdminUsername, _ = cmd.Flags().GetString("admin")
	opts.AdminPassword, _ = cmd.Flags().GetString("password")
	opts.AdminNombre, _ = cmd.Flags().GetString("nombre")

	if opts.EmpresaRUC != "" && len(opts.EmpresaRUC) != 11 {
		return fmt.Errorf("el RUC debe tener 11 dígitos")
	}
	if opts.AdminUsername != "" && len(opts.AdminPassword) < 8 {
		return fmt.Errorf("--password es obligatorio (mínimo 8 caracteres)")
	}

	ctx := cmd.Context()
	e, err := conectar(ctx, false)
	if err != nil {
		return err
	}
	opts.CodigoGenerico = e.cfg.ClienteGenericoCodigo

	res, err := app.Seed(ctx, e.db, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Conceptos creados: %d\n", res.Conceptos)
	fmt.Printf("Empresa creada: %v  Cliente genérico: %v  Admin: %v  Caja: %v\n",
		res.Empresa, res.Generico, res.Admin, res.Caja)
	return nil
}
