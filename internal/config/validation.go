package config

import (
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct constraints plus the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if p := c.Dispatch.Prefix(); unicode.IsSpace(p) || unicode.IsLetter(p) || unicode.IsDigit(p) {
		return fmt.Errorf("dispatch.command_prefix %q must be a symbol", c.Dispatch.CommandPrefix)
	}
	return nil
}
