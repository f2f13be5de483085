package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrInvalidConfig) hold for any validation failure.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Fields returns the failing field names in order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, err := range e {
		fields = append(fields, err.Field)
	}
	return fields
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidateConfig checks every section and then the JSON schema.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validatePreferences(&c.Preferences)...)
	errs = append(errs, validateOverlay(&c.Overlay)...)
	errs = append(errs, validateDisplays(c.Displays)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	// The schema repeats most of the checks above; it only reports when the
	// field checks found nothing, so each problem is reported once.
	if len(errs) == 0 {
		if err := validateSchema(c); err != nil {
			errs = append(errs, ValidationError{Field: "schema", Message: err.Error()})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePreferences(p *Preferences) ValidationErrors {
	var errs ValidationErrors

	if !p.Mode.Valid() {
		errs = append(errs, ValidationError{
			Field:   "preferences.mode",
			Message: fmt.Sprintf("invalid display mode: %q (valid: modifierPlusKey, modifierOnly, allKeys)", p.Mode),
		})
	}
	if !p.Position.Valid() {
		errs = append(errs, ValidationError{
			Field:   "preferences.position",
			Message: fmt.Sprintf("invalid display position: %q", p.Position),
		})
	}
	return errs
}

func validateOverlay(o *OverlayConfig) ValidationErrors {
	var errs ValidationErrors

	if o.TickIntervalMs < 16 || o.TickIntervalMs > 1000 {
		errs = append(errs, *RangeError("overlay.tick_interval_ms", 16, 1000))
	}
	if o.KeyDwellMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "overlay.key_dwell_ms",
			Message: "key dwell must be positive",
		})
	}
	if o.ClickExpiryMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "overlay.click_expiry_ms",
			Message: "click expiry must be positive",
		})
	}
	return errs
}

func validateDisplays(ds []DisplayConfig) ValidationErrors {
	var errs ValidationErrors

	primaries := 0
	seen := make(map[string]bool)
	for i, d := range ds {
		field := fmt.Sprintf("displays[%d]", i)
		if d.Width <= 0 || d.Height <= 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("display size must be positive, got %gx%g", d.Width, d.Height),
			})
		}
		if d.Scale < 0 {
			errs = append(errs, ValidationError{Field: field + ".scale", Message: "scale cannot be negative"})
		}
		if d.ID != "" {
			if seen[d.ID] {
				errs = append(errs, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate display id %q", d.ID)})
			}
			seen[d.ID] = true
		}
		if d.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		errs = append(errs, ValidationError{Field: "displays", Message: "at most one display can be primary"})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "discard":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %q (valid: stdout, stderr, file, both, discard)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}
	return errs
}

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "pressviz-config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// validateSchema checks c, as it would be written to JSON, against the
// embedded schema.
func validateSchema(c *Config) error {
	schema, err := configSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode for schema: %w", err)
	}
	return ValidateDocument(schema, data)
}

// ValidateDocument validates raw JSON against schema.
func ValidateDocument(schema *jsonschema.Schema, data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("unmarshal instance: %w", err)
	}
	return schema.Validate(instance)
}

// ValidateJSON validates a raw JSON config document against the embedded
// schema without decoding it into a Config.
func ValidateJSON(data []byte) error {
	schema, err := configSchema()
	if err != nil {
		return err
	}
	return ValidateDocument(schema, data)
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
