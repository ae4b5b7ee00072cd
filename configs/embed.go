// Package configs provides the embedded configuration template for
// launcherd.
//
// The template is embedded at build time so `launcherd config init` can
// create a commented starting point at ~/.config/launcherd/config.yaml
// regardless of how the binary was installed.
package configs

import _ "embed"

// UserConfigTemplate is the commented template written by
// `launcherd config init`.
//
//go:embed config.example.yaml
var UserConfigTemplate string
