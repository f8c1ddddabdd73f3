package utils

import "fmt"

// Payload size limits (in bytes)
const (
	MaxPayloadSize = 1 * 1024 * 1024 // 1MB - maximum request body size
	MaxScriptSize  = 256 * 1024      // 256KB - script source size limit
	MaxPageSize    = 512 * 1024      // 512KB - page HTML size limit

	// MaxArgumentDepth bounds nesting in script argument trees. Each
	// nested array or object costs one synthetic engine invocation, so
	// depth is limited before any engine work starts.
	MaxArgumentDepth = 20
)

// SizeValidator enforces a byte-size limit on payloads.
type SizeValidator struct {
	maxSize int
}

// NewSizeValidator creates a validator with the specified max size.
func NewSizeValidator(maxSize int) *SizeValidator {
	return &SizeValidator{maxSize: maxSize}
}

// DefaultPayloadValidator returns a validator with the default 1MB limit.
func DefaultPayloadValidator() *SizeValidator {
	return NewSizeValidator(MaxPayloadSize)
}

// ValidateSize checks if the data size is within limits.
func (v *SizeValidator) ValidateSize(data []byte) error {
	size := len(data)
	if size > v.maxSize {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// ValidateString checks a string payload against the limit.
func (v *SizeValidator) ValidateString(s string) error {
	if len(s) > v.maxSize {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", len(s), v.maxSize)
	}
	return nil
}

// ValidateScriptSource checks a script body against the script size limit.
func ValidateScriptSource(source string) error {
	if len(source) > MaxScriptSize {
		return fmt.Errorf("script source %d bytes exceeds maximum %d bytes", len(source), MaxScriptSize)
	}
	return nil
}

// ValidatePageHTML checks page markup against the page size limit.
func ValidatePageHTML(html string) error {
	if len(html) > MaxPageSize {
		return fmt.Errorf("page HTML %d bytes exceeds maximum %d bytes", len(html), MaxPageSize)
	}
	return nil
}

// ValidateArgumentDepth checks that a decoded argument tree does not nest
// deeper than maxDepth.
func ValidateArgumentDepth(args []interface{}, maxDepth int) error {
	for _, arg := range args {
		if err := checkDepth(arg, 0, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func checkDepth(data interface{}, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("argument nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}
