package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(locationStructLevel, LocationConfig{})
	})
	return validate
}

// locationStructLevel enforces the cross-field invariant from spec.md §3:
// a non-empty fastcgi_pass requires a non-empty cgi_extensions list.
func locationStructLevel(sl validator.StructLevel) {
	loc := sl.Current().Interface().(LocationConfig)
	if loc.FastCGIPass != "" && len(loc.CGIExtensions) == 0 {
		sl.ReportError(loc.CGIExtensions, "CGIExtensions", "CGIExtensions", "required_with_fastcgi_pass", "")
	}
}

// Validate checks a parsed ServerConfig against the invariants of
// spec.md §3 using struct-tag validation plus the cross-field rule
// above.
func Validate(srv *ServerConfig) error {
	if err := getValidator().Struct(srv); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
