package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation via
// struct tags, with additional custom validation for rules that cannot be
// expressed in tags.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if !cfg.Adapters.FTP.Enabled {
		return fmt.Errorf("adapters: the ftp adapter must be enabled")
	}

	switch cfg.Accounts.Type {
	case "file":
		if path, _ := cfg.Accounts.File["path"].(string); path == "" {
			return fmt.Errorf("accounts.file: path must be set")
		}
	case "badger":
		if path, _ := cfg.Accounts.Badger["db_path"].(string); path == "" {
			inMemory, _ := cfg.Accounts.Badger["in_memory"].(bool)
			if !inMemory {
				return fmt.Errorf("accounts.badger: db_path must be set unless in_memory is true")
			}
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
