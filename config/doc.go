// Package config loads and validates the service configuration.
//
// Configuration comes from a YAML file (depshield.yaml on the search path,
// or an explicit file passed to Load) with environment variable overrides
// under the DEPSHIELD_ prefix. The file carries server settings, the
// observability stack, the control-endpoint auth key, the Redis result
// store, and the resilience defaults plus per-dependency overrides:
//
//	server:
//	  address: ":8080"
//	  environment: prod
//	defaults:
//	  failure_threshold: 5
//	  open_timeout: 30s
//	dependencies:
//	  payments:
//	    failure_threshold: 3
//	    max_retries: 5
//	    base_delay: 50ms
//
// Durations are strings in Go duration syntax. Load validates the whole
// tree and returns the first structural error it finds.
package config
