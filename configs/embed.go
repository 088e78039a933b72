// Package configs embeds the configuration template written by
// `addressbook config init`.
//
// The template mirrors the defaults in internal/config NewConfig(); every
// value it sets must load back to the same Config.
package configs

import _ "embed"

// UserConfigTemplate is the commented user configuration, written to
// ~/.config/addressbook/config.yaml.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
