package model

import (
	"fmt"
	"strings"
)

// ConfigurationError reports required configuration values missing for a
// command. It is raised before any external interaction begins.
type ConfigurationError struct {
	Command string
	Missing []string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("command %q requires configuration: %v", e.Command, strings.Join(e.Missing, ", "))
}

// ResolutionError reports every requested tag that matched no catalog entry.
type ResolutionError struct {
	Unmatched []string
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("no image found for tag(s): %v", strings.Join(e.Unmatched, ", "))
}
