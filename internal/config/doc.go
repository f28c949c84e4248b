// Package config loads and validates the golddust.yaml configuration.
//
// The file is required: every command that needs backend, dispatcher or
// dashboard settings fails before binding a listener if it is missing or
// invalid. Keys absent from the file keep the defaults of NewConfig.
package config
