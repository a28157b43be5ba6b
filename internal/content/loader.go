package content

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a text value such as the resume, the
// evaluation criteria, or an API key.
type Source struct {
	// Name is used in error messages to give more context about the value.
	Name string
	// Text is an inline value provided via configuration.
	Text string
	// File points to a file containing the value. When set it takes
	// precedence over Text.
	File string
}

// Load returns the resolved value from the provided source. When File is set
// it takes precedence over Text. The returned value is always trimmed. An
// error is returned when neither File nor Text contain a usable value.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "value"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Text = string(data)
		src.File = file
	}

	value := strings.TrimSpace(src.Text)
	if value == "" {
		if src.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, src.File)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return value, nil
}
