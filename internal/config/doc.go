// Package config handles configuration loading for regina-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	whatsapp:
//	  token: "${WHATSAPP_API_TOKEN}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	openai:
//	  timeout: "45s"
//	dedupe:
//	  ttl: "10m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # webhook, health and metrics
//
// Database:
//
//	database:
//	  path: "/var/lib/regina/gateway.db"
//
// WhatsApp Cloud API:
//
//	whatsapp:
//	  token: "${WHATSAPP_API_TOKEN}"
//	  phone_number_id: "1234567890"
//	  api_version: "v21.0"
//	  verify_token: "${WEBHOOK_VERIFY_TOKEN}"
//	  app_secret: "${WHATSAPP_APP_SECRET}"   # empty disables signature checks
//
// Language model:
//
//	openai:
//	  api_key: "${OPENAI_API_KEY}"
//	  model: "gpt-4o-mini"
//	  timeout: "30s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/regina/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
