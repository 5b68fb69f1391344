package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var reporteDiarioCmd = &cobra.Command{
	Use:   "reporte-diario",
	Short: "Recalcula el reporte diario de caja",
	Long: `Recalcula el reporte diario de una caja o, sin --caja, de todas las cajas
abiertas. El recálculo es idempotente: se puede repetir sin duplicar datos.`,
	Example: `  aguactl reporte-diario
  aguactl reporte-diario --fecha 2025-03-31 --caja 6f1c...`,
	RunE: runReporteDiario,
}

var validarConceptosCmd = &cobra.Command{
	Use:   "validar-conceptos",
	Short: "Verifica que existan los conceptos reservados 001, 002 y 003",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := conectar(cmd.Context(), false)
		if err != nil {
			return err
		}
		if err := e.svc.Tarifas.Validar(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Conceptos reservados OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reporteDiarioCmd, validarConceptosCmd)
	reporteDiarioCmd.Flags().String("fecha", "", "Fecha YYYY-MM-DD (por defecto hoy)")
	reporteDiarioCmd.Flags().String("caja", "", "ID de la caja (por defecto todas las abiertas)")
}

func runReporteDiario(cmd *cobra.Command, args []string) error {
	fecha, _ := cmd.Flags().GetString("fecha")
	cajaStr, _ := cmd.Flags().GetString("caja")

	ctx := cmd.Context()
	e, err := conectar(ctx, true)
	if err != nil {
		return err
	}

	if cajaStr != "" {
		cajaID, err := uuid.Parse(cajaStr)
		if err != nil {
			return fmt.Errorf("--caja inválido: %w", err)
		}
		rep, err := e.svc.Cajas.GenerarReporteDiario(ctx, cajaID, fecha)
		if err != nil {
			return err
		}
		fmt.Printf("Caja %s  %s  inicial %s  ingresos %s  egresos %s  cierre %s\n",
			cajaID, rep.Fecha, rep.SaldoInicial.StringFixed(2), rep.TotalIngresos.StringFixed(2),
			rep.TotalEgresos.StringFixed(2), rep.SaldoCierre.StringFixed(2))
		return nil
	}

	dia := time.Now().In(e.cfg.Location())
	if fecha != "" {
		dia, err = time.ParseInLocation("2006-01-02", fecha, e.cfg.Location())
		if err != nil {
			return fmt.Errorf("--fecha inválida: %w", err)
		}
	}
	n, err := e.svc.Cajas.GenerarReportesAbiertos(ctx, dia)
	if err != nil {
		return err
	}
	fmt.Printf("Reportes recalculados: %d\n", n)
	return nil
}
