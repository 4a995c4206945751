// Package config loads and merges reword configuration.
//
// The effective config is built in layers: compiled defaults, then the
// config file (config.json or config.yaml in the platform config dir), then
// REWORD_* environment variables, then CLI flag overrides. Message style
// (language, emoji, description) lives here and is passed into prompt
// construction as a value; nothing reads it from ambient state.
package config
