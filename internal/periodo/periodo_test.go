package periodo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizar(t *testing.T) {
	in := time.Date(2025, time.July, 17, 15, 4, 5, 0, time.FixedZone("PET", -5*3600))
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), Normalizar(in))
}

func TestSiguienteCruzaAnio(t *testing.T) {
	assert.Equal(t, Nuevo(2026, time.January), Siguiente(Nuevo(2025, time.December)))
	assert.Equal(t, Nuevo(2024, time.December), Anterior(Nuevo(2025, time.January)))
}

func TestMesesEntre(t *testing.T) {
	cases := []struct {
		a, b time.Time
		want int
	}{
		{Nuevo(2025, 1), Nuevo(2025, 2), 1},
		{Nuevo(2025, 1), Nuevo(2025, 3), 2},
		{Nuevo(2024, 12), Nuevo(2025, 1), 1},
		{Nuevo(2025, 5), Nuevo(2025, 5), 0},
		{Nuevo(2025, 5), Nuevo(2025, 4), -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MesesEntre(c.a, c.b), "%s -> %s", Clave(c.a), Clave(c.b))
	}
}

func TestParse(t *testing.T) {
	p, err := Parse("2025-03")
	require.NoError(t, err)
	assert.Equal(t, Nuevo(2025, time.March), p)

	p, err = Parse("2025-03-19")
	require.NoError(t, err)
	assert.Equal(t, Nuevo(2025, time.March), p)

	_, err = Parse("03/2025")
	assert.Error(t, err)
}

func TestFormatear(t *testing.T) {
	assert.Equal(t, "Septiembre 2025", Formatear(Nuevo(2025, time.September)))
	assert.Equal(t, "Enero 2025", FormatearRango(Nuevo(2025, 1), Nuevo(2025, 1)))
	assert.Equal(t, "Enero 2025 - Marzo 2025", FormatearRango(Nuevo(2025, 1), Nuevo(2025, 3)))
}

func TestRango(t *testing.T) {
	ps, err := Rango(2024, "DE JULIO A DICIEMBRE")
	require.NoError(t, err)
	require.Len(t, ps, 6)
	assert.Equal(t, Nuevo(2024, time.July), ps[0])
	assert.Equal(t, Nuevo(2024, time.December), ps[5])

	ps, err = Rango(2023, "de setiembre a setiembre")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{Nuevo(2023, time.September)}, ps)

	_, err = Rango(2023, "DE MARZO A ENERO")
	assert.Error(t, err)
	_, err = Rango(2023, "TODO EL AÑO")
	assert.Error(t, err)
}
