// Package periodo holds the calendar-month helpers shared by billing code.
// A period is always represented as the first day of its month at 00:00 UTC.
package periodo

import (
	"fmt"
	"strings"
	"time"
)

var nombresMes = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// mesesTexto maps upper-case Spanish month names (both spellings of
// September) to their month number.
var mesesTexto = map[string]time.Month{
	"ENERO":      time.January,
	"FEBRERO":    time.February,
	"MARZO":      time.March,
	"ABRIL":      time.April,
	"MAYO":       time.May,
	"JUNIO":      time.June,
	"JULIO":      time.July,
	"AGOSTO":     time.August,
	"SETIEMBRE":  time.September,
	"SEPTIEMBRE": time.September,
	"OCTUBRE":    time.October,
	"NOVIEMBRE":  time.November,
	"DICIEMBRE":  time.December,
}

// Normalizar truncates t to the first day of its month.
func Normalizar(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Nuevo builds the period for year/month.
func Nuevo(anio int, mes time.Month) time.Time {
	return time.Date(anio, mes, 1, 0, 0, 0, 0, time.UTC)
}

func Siguiente(t time.Time) time.Time { return Normalizar(t).AddDate(0, 1, 0) }

func Anterior(t time.Time) time.Time { return Normalizar(t).AddDate(0, -1, 0) }

// MesesEntre returns how many months b is after a (negative when b is earlier).
func MesesEntre(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// Parse accepts "2006-01" or "2006-01-02" and returns the normalized period.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Normalizar(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("periodo invalido %q (use YYYY-MM)", s)
}

// Clave formats the period as "2006-01".
func Clave(t time.Time) string { return t.Format("2006-01") }

func NombreMes(m time.Month) string { return nombresMes[m-1] }

// Formatear renders the period as "Enero 2025".
func Formatear(t time.Time) string {
	return fmt.Sprintf("%s %d", NombreMes(t.Month()), t.Year())
}

// FormatearRango renders a single period or "Enero 2025 - Marzo 2025".
func FormatearRango(desde, hasta time.Time) string {
	if MesesEntre(desde, hasta) == 0 {
		return Formatear(desde)
	}
	return Formatear(desde) + " - " + Formatear(hasta)
}

// Rango expands month-range text such as "DE ENERO A DICIEMBRE" into the
// periods of the given year, both ends included.
func Rango(anio int, texto string) ([]time.Time, error) {
	limpio := strings.ToUpper(strings.TrimSpace(texto))
	limpio = strings.TrimPrefix(limpio, "DE ")
	partes := strings.Split(limpio, " A ")
	if len(partes) != 2 {
		return nil, fmt.Errorf("rango de meses invalido %q", texto)
	}
	inicio, ok := mesesTexto[strings.TrimSpace(partes[0])]
	if !ok {
		return nil, fmt.Errorf("mes desconocido %q", partes[0])
	}
	fin, ok := mesesTexto[strings.TrimSpace(partes[1])]
	if !ok {
		return nil, fmt.Errorf("mes desconocido %q", partes[1])
	}
	if fin < inicio {
		return nil, fmt.Errorf("rango de meses invertido %q", texto)
	}

	periodos := make([]time.Time, 0, int(fin-inicio)+1)
	for m := inicio; m <= fin; m++ {
		periodos = append(periodos, Nuevo(anio, m))
	}
	return periodos, nil
}
