package api_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/hr-backend/api"
)

func TestFechaLiteral(t *testing.T) {
	d := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "5 de marzo de 2025", api.FechaLiteral(d))
	assert.Equal(t, "5 de marzo de 2025", api.FechaLiteral(&d))

	var nilDate *time.Time
	assert.Equal(t, "", api.FechaLiteral(nilDate))
	assert.Equal(t, "", api.FechaLiteral(time.Time{}))
}

func TestNumeroALetras(t *testing.T) {
	cases := map[int]string{
		0:  "cero",
		7:  "siete",
		10: "diez",
		15: "quince",
		16: "dieciséis",
		20: "veinte",
		23: "veinte y tres",
		30: "treinta",
		37: "treinta y siete",
		45: "cuarenta y cinco",
		60: "sesenta",
		99: "99", // out of the letter range, falls back to digits
	}
	for n, want := range cases {
		assert.Equal(t, want, api.NumeroALetras(n), "n=%d", n)
	}
}
