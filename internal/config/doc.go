// Package config provides configuration management for the calculator server.
//
// Configuration is loaded from environment variables and validated on startup.
// All options have defaults suitable for local development; Redis settings are
// only checked when JOBS_ENABLED is set.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ev := calc.NewEvaluator(cfg.EvaluatorOptions(), nil, logger)
package config
