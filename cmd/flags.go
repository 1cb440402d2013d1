package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Server flags
	Port int
	Host string

	// Output flags
	Output       string
	OutputFormat string
	Quiet        bool
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "server":
			addServerFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags, "")
		}
	}

	return flags
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 8080, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
}

// AddOutputFlags adds the output flags with a format restricted to formats,
// the first of which is the default.
func AddOutputFlags(cmd *cobra.Command, formats ...string) *StandardFlags {
	flags := &StandardFlags{}
	defaultFormat := ""
	if len(formats) > 0 {
		defaultFormat = formats[0]
	}
	addOutputFlags(cmd, flags, defaultFormat)
	if len(formats) > 0 {
		AddFlagValidation(cmd, "format", ValidateFormat(formats...))
	}
	return flags
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags, defaultFormat string) {
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVarP(&flags.OutputFormat, "format", "f", defaultFormat, "Output format")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress the summary line")
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks a port flag value.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateFormat returns a validator accepting only the given formats.
func ValidateFormat(allowed ...string) func(string) error {
	return func(format string) error {
		for _, a := range allowed {
			if format == a {
				return nil
			}
		}
		return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(allowed, ", "))
	}
}
