// Package config loads the evalserver YAML configuration, applies environment
// overrides and watches the file for changes.
package config
