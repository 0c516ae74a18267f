// Package template provides a Handlebars template engine for LLM prompts and
// unit conversion formulas.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	data := map[string]interface{}{
//	    "from":  "square_meter",
//	    "to":    "square_foot",
//	    "ratio": 10.7639,
//	}
//
//	result, err := engine.Render("1 {{spaced from}} = {{number ratio}} {{spaced to}}", data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: 1 square meter = 10.7639 square foot
//
// Built-in helpers:
//   - spaced - Replace underscores with spaces
//   - number - Format a float like a float literal (1000.0, 1e-05)
//   - trim - Trim whitespace from string
//   - default - Return default value if first arg is empty
//   - eq - Equality comparison
//   - join - Join a string list with a separator
//
// Helpers are registered once per process; compiled templates are cached per
// engine.
package template
