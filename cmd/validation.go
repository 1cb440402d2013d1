package cmd

import (
	"fmt"
	"strings"
)

// validateArgument validates a style path argument
func validateArgument(arg string) error {
	// Reject arguments containing shell metacharacters
	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if strings.TrimSpace(arg) == "" {
		return fmt.Errorf("empty path")
	}

	return nil
}

// validateArguments validates a slice of arguments
func validateArguments(args []string) error {
	for _, arg := range args {
		if err := validateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument '%s': %w", arg, err)
		}
	}
	return nil
}
