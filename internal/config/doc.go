// Package config loads calculator defaults and server settings from a JSON
// file. The schema is flat, every field is optional, and the Get* accessors
// supply the built-in default for anything left unset.
package config
