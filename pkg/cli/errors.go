package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the callisto command.
const (
	// ExitFailure is the generic failure exit code.
	ExitFailure = 1

	// ExitConfig signals an invalid or unreadable configuration.
	ExitConfig = 2
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// ExitCode returns the exit code for configuration errors.
func (e *ConfigError) ExitCode() int {
	return ExitConfig
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code for command errors.
func (e *CommandError) ExitCode() int {
	return ExitFailure
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// exitCoder is implemented by errors that map to a specific exit code.
type exitCoder interface {
	ExitCode() int
}

// ExitCode maps err to the process exit code the command should return
// with. Errors without an explicit mapping exit with ExitFailure; nil
// exits clean.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitFailure
}
