// Package config handles configuration loading and management for hitclient.
//
// It provides functionality for:
//   - Loading configuration from .hitclient.json or .hitclient.yaml files
//   - Default configuration values
//   - HITCLIENT_* environment overrides
//   - Expanding {{$VAR}} references in host URL and headers
package config
