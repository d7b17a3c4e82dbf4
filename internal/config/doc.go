// Package config loads, normalizes, and validates soundsprite configuration.
//
// Configuration is read from TOML (explicit path, ~/.config/soundsprite/config.toml,
// or ./soundsprite.toml), merged over Default(), has its paths expanded to
// absolute form, and is validated before any build runs. Sprite options are
// kept in their caller-supplied shape (unset fields stay nil) so the options
// resolver can tell an override from a default.
package config
