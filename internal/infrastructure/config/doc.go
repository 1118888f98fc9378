// Package config handles loading and validating the school site API configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading a local .env file when present
//   - Overriding with SCHOOLSITE_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - The session secret and account passwords should come from the environment
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
