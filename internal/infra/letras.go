package infra

// letras.go
// Renders invoice totals in Spanish words for the legal amount line printed
// on the factura, e.g. "DOS MIL TRESCIENTOS CUARENTA Y CINCO LEMPIRAS CON 67/100".

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var unidades = [...]string{
	"", "UN", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE", "OCHO", "NUEVE",
	"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE", "QUINCE",
	"DIECISEIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE",
	"VEINTE", "VEINTIUN", "VEINTIDOS", "VEINTITRES", "VEINTICUATRO",
	"VEINTICINCO", "VEINTISEIS", "VEINTISIETE", "VEINTIOCHO", "VEINTINUEVE",
}

var decenas = [...]string{
	"", "", "", "TREINTA", "CUARENTA", "CINCUENTA",
	"SESENTA", "SETENTA", "OCHENTA", "NOVENTA",
}

var centenas = [...]string{
	"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS",
	"QUINIENTOS", "SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS",
}

// MontoEnLetras converts a monetary amount to its Spanish wording in lempiras.
// Centavos are always rendered as a NN/100 fraction, never in words.
func MontoEnLetras(monto decimal.Decimal) string {
	monto = monto.Round(2).Abs()
	entero := monto.IntPart()
	centavos := monto.Sub(decimal.NewFromInt(entero)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	palabras := "CERO"
	if entero > 0 {
		palabras = enteroEnLetras(entero)
	}

	moneda := "LEMPIRAS"
	if entero == 1 {
		moneda = "LEMPIRA"
	}
	return fmt.Sprintf("%s %s CON %02d/100", palabras, moneda, centavos)
}

func enteroEnLetras(n int64) string {
	var partes []string

	if millones := n / 1_000_000; millones > 0 {
		if millones == 1 {
			partes = append(partes, "UN MILLON")
		} else {
			partes = append(partes, enteroEnLetras(millones)+" MILLONES")
		}
		n %= 1_000_000
	}

	if miles := n / 1000; miles > 0 {
		if miles == 1 {
			partes = append(partes, "MIL")
		} else {
			partes = append(partes, cientosEnLetras(miles)+" MIL")
		}
		n %= 1000
	}

	if n > 0 {
		partes = append(partes, cientosEnLetras(n))
	}

	return strings.Join(partes, " ")
}

// cientosEnLetras handles 1..999.
func cientosEnLetras(n int64) string {
	if n == 100 {
		return "CIEN"
	}

	var partes []string
	if c := n / 100; c > 0 {
		partes = append(partes, centenas[c])
		n %= 100
	}

	switch {
	case n == 0:
		// nothing below the hundreds
	case n < 30:
		partes = append(partes, unidades[n])
	default:
		d, u := n/10, n%10
		if u == 0 {
			partes = append(partes, decenas[d])
		} else {
			partes = append(partes, decenas[d]+" Y "+unidades[u])
		}
	}

	return strings.Join(partes, " ")
}
