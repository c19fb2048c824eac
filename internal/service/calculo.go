package service

import (
	"fmt"

	"servifrio/internal/model"

	"github.com/shopspring/decimal"
)

var (
	tasa15 = decimal.RequireFromString("15.00")
	tasa18 = decimal.RequireFromString("18.00")
	tasa0  = decimal.RequireFromString("0.00")
	cien   = decimal.NewFromInt(100)
)

// LineaCalculada is the tax breakdown of a single invoice line.
type LineaCalculada struct {
	Tasa           decimal.Decimal
	MontoDescuento decimal.Decimal
	Subtotal       decimal.Decimal
	Impuesto       decimal.Decimal
	Total          decimal.Decimal
}

// TasaPorGravamen resolves the ISV rate for a tax category.
func TasaPorGravamen(tipoGravamen string) (decimal.Decimal, error) {
	switch tipoGravamen {
	case model.Gravado15:
		return tasa15, nil
	case model.Gravado18:
		return tasa18, nil
	case model.Exento:
		return tasa0, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("tipo de gravamen desconocido: %q", tipoGravamen)
	}
}

// CalcularLinea computes the fiscal breakdown of one line. Pure — no side
// effects, deterministic for equal inputs.
//
// Rounding is half-away-from-zero at 2 decimals, applied independently at
// each stage (descuento, subtotal, impuesto, total). Rounding once at the end
// would drift from the stored per-line values when many lines are summed.
func CalcularLinea(cantidad, precioUnitario decimal.Decimal, tipoGravamen string, descuentoPct decimal.Decimal) (LineaCalculada, error) {
	tasa, err := TasaPorGravamen(tipoGravamen)
	if err != nil {
		return LineaCalculada{}, err
	}

	bruto := cantidad.Mul(precioUnitario)
	descuento := bruto.Mul(descuentoPct).Div(cien).Round(2)
	subtotal := bruto.Sub(descuento).Round(2)
	impuesto := subtotal.Mul(tasa).Div(cien).Round(2)
	total := subtotal.Add(impuesto).Round(2)

	return LineaCalculada{
		Tasa:           tasa,
		MontoDescuento: descuento,
		Subtotal:       subtotal,
		Impuesto:       impuesto,
		Total:          total,
	}, nil
}
