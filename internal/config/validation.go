package config

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	foundationerrors "git.home.luguber.info/inful/mdgraph/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateLanguages(); err != nil {
		return err
	}
	if err := cv.validatePaths(); err != nil {
		return err
	}
	return cv.validateServe()
}

func (cv *configurationValidator) validateLanguages() error {
	if len(cv.config.Languages) == 0 {
		return invalid("languages", "at least one language is required")
	}
	seen := make(map[string]struct{}, len(cv.config.Languages))
	for _, lang := range cv.config.Languages {
		if _, err := language.Parse(lang); err != nil {
			return invalid("languages", "not a valid language tag").WithContext("language", lang)
		}
		if _, dup := seen[lang]; dup {
			return invalid("languages", "duplicate language").WithContext("language", lang)
		}
		seen[lang] = struct{}{}
	}
	if !cv.config.HasLanguage(cv.config.DefaultLanguage) {
		return invalid("default_language", "default language must be one of languages").
			WithContext("language", cv.config.DefaultLanguage)
	}
	return nil
}

func (cv *configurationValidator) validatePaths() error {
	if filepath.Clean(cv.config.Src) == filepath.Clean(cv.config.Out) {
		return invalid("out", "output root must differ from source root")
	}
	// Clean removes the output root, and discovery walks the source root.
	if Within(cv.config.Out, cv.config.Src) {
		return invalid("src", "source root must not be inside the output root").
			WithContext("src", cv.config.Src).
			WithContext("out", cv.config.Out)
	}
	if Within(cv.config.Src, cv.config.Out) {
		return invalid("out", "output root must not be inside the source root").
			WithContext("src", cv.config.Src).
			WithContext("out", cv.config.Out)
	}
	if !strings.HasPrefix(cv.config.Base, "/") || !strings.HasSuffix(cv.config.Base, "/") {
		return invalid("base", "base path must start and end with '/'").WithContext("base", cv.config.Base)
	}
	if cv.config.Extension == ".html" {
		return invalid("extension", "source extension collides with rendered extension")
	}
	return nil
}

func (cv *configurationValidator) validateServe() error {
	if cv.config.Port < 1 || cv.config.Port > 65535 {
		return invalid("port", "port must be between 1 and 65535").WithContext("port", cv.config.Port)
	}
	return nil
}

func invalid(field, reason string) *foundationerrors.ClassifiedError {
	return foundationerrors.ValidationError(reason).WithContext("field", field).Build()
}
