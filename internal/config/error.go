package config

import "errors"

// ErrNoConfig reports that no config file was found.
var ErrNoConfig = errors.New("no textsearch config file found")

// ValidationError names the config field that failed validation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}
