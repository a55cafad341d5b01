// Package config loads sessiond settings from an optional YAML file and
// SESSIOND_* environment variables using viper.
package config
