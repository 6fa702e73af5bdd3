// Package config provides configuration parsing for livepatch servers.
//
// The configuration is stored in livepatch.yaml. Every key is optional;
// missing keys keep their defaults and unknown keys are rejected.
//
// # Configuration File Structure
//
//	server:
//	  address: ":8080"
//	  shutdown_timeout: 10s
//	  read_header_timeout: 5s
//	  max_body_bytes: 1048576
//	log:
//	  level: info
//	  format: auto
//	time_stream:
//	  interval: 1s
//	  ticks: 10
//	counter:
//	  initial: 0
//	  bounds:
//	    min: -10
//	    max: 10
//	todos:
//	  seed: ["Buy milk", "Walk the dog"]
//	metrics:
//	  enabled: true
//	  path: /metrics
//	tracing:
//	  enabled: false
//
// # Usage
//
//	cfg, err := config.LoadOptional(flagPath, ".")
//	if err != nil {
//	    errors.PrintError(os.Stderr, err)
//	    os.Exit(1)
//	}
package config
