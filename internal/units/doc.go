// Package units converts values between units of the same category.
//
// Linear categories store a factor per unit, expressed as units per base unit,
// so a conversion is value / factor[from] * factor[to]. Temperature is affine
// and goes through Celsius. The table ships embedded as units.yaml.
//
//	table, err := units.DefaultTable()
//	if err != nil {
//	    return err
//	}
//	conv := units.NewConverter(table, template.NewEngine())
//	res, err := conv.Convert(100, "celsius", "fahrenheit", "temperature")
//	// res.Result == 212, res.Formula == "°F = °C × 9/5 + 32"
package units
