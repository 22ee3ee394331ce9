// Package config loads and validates the it600d configuration.
//
// Values are resolved in three layers, each overriding the last:
// built-in defaults, the YAML file, then IT600D_* environment
// variables. Validation runs once on the merged result, so a bad
// gateway EUID or poll interval fails startup instead of surfacing
// mid-session.
//
// Secrets (broker credentials, the API token) are best supplied via
// the environment. The gateway EUID seeds the session encryption key
// and must never be logged.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Gateway.Host)
package config
