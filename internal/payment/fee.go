package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Exam fee table in LKR, keyed by lowercase license type.
var baseFees = map[string]decimal.Decimal{
	"learner":       decimal.NewFromFloat(2500.00),
	"restricted":    decimal.NewFromFloat(3000.00),
	"full":          decimal.NewFromFloat(4000.00),
	"heavy":         decimal.NewFromFloat(6000.00),
	"commercial":    decimal.NewFromFloat(7500.00),
	"international": decimal.NewFromFloat(5000.00),
	"motorcycle":    decimal.NewFromFloat(3500.00),
	"special":       decimal.NewFromFloat(8000.00),
}

var (
	defaultBaseFee   = decimal.NewFromFloat(3000.00)
	perExtraClassFee = decimal.NewFromFloat(500.00)
)

// CalculateExamFee resolves the exam fee for a license type, adding a flat
// surcharge for each vehicle class beyond the first. Unknown or empty
// license types fall back to the default base fee. Pure and deterministic.
func CalculateExamFee(licenseType, vehicleClasses string) decimal.Decimal {
	fee, ok := baseFees[strings.ToLower(strings.TrimSpace(licenseType))]
	if !ok {
		fee = defaultBaseFee
	}

	if n := countVehicleClasses(vehicleClasses); n > 1 {
		surcharge := perExtraClassFee.Mul(decimal.NewFromInt(int64(n - 1)))
		fee = fee.Add(surcharge)
	}

	return fee.Round(2)
}

func countVehicleClasses(vehicleClasses string) int {
	if strings.TrimSpace(vehicleClasses) == "" {
		return 0
	}
	count := 0
	for _, class := range strings.Split(vehicleClasses, ",") {
		if strings.TrimSpace(class) != "" {
			count++
		}
	}
	return count
}
