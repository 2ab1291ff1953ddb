// Package config provides configuration management for the patron proxy.
// Configuration is loaded from a YAML file with ${VAR} environment variable
// substitution, then validated before startup.
package config
