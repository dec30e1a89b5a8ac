// Package config handles configuration loading for quantrelay.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion, then overridden by QUANTRELAY_-prefixed environment
// variables. The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from QUANTRELAY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/quantrelay/config.yaml
//  3. ~/.config/quantrelay/config.yaml
//
// A missing config file is not an error; the server falls back to
// defaults plus environment variables.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	generator:
//	  api_key: "${OPENAI_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8089"
//
// Analysis service:
//
//	analysis:
//	  base_url: "${ANALYSIS_BASE_URL}"
//	  timeout: "60s"
//
// The analysis base URL is deliberately not validated at startup: a
// missing or wrong value surfaces as a transport failure on the first
// analysis call.
//
// Narrative generator:
//
//	generator:
//	  api_key: "${OPENAI_API_KEY}"
//	  base_url: ""            # empty for the public API
//	  model: "gpt-4o-mini"
//
// Authentication (optional; empty secret disables auth):
//
//	auth:
//	  jwt_secret: "${QUANTRELAY_JWT_SECRET}"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
