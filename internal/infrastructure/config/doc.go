// Package config handles loading and validating the home simulator configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with HOMESIM_* environment variables
//   - Validation of required fields
//   - The stock device inventory used when no file is given
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed to the YAML file.
//
// Usage:
//
//	cfg, err := config.LoadOrDefault("configs/homesim.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
