package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/britney/internal/config"
)

// ConfigCheckResult holds the result of publishing configuration checks
type ConfigCheckResult struct {
	Missing  []string          // required settings that are missing
	Present  map[string]string // settings that are set (masked values)
	Warnings []string          // non-fatal warnings
}

// CheckTrackerConfig reports which tracker settings are present
func CheckTrackerConfig(tracker config.TrackerConfig) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	settings := map[string]string{
		"tracker.owner": tracker.Owner,
		"tracker.repo":  tracker.Repo,
		"tracker.token": tracker.Token,
	}
	required := []string{"tracker.repo", "tracker.token"}
	if tracker.Kind == config.TrackerGitHub {
		required = append(required, "tracker.owner")
	}

	for _, key := range required {
		if settings[key] == "" {
			result.Missing = append(result.Missing, key)
		}
	}
	sort.Strings(result.Missing)

	for key, val := range settings {
		if val == "" {
			continue
		}
		if key == "tracker.token" {
			val = maskSecret(val)
		}
		result.Present[key] = val
	}

	if tracker.Kind == config.TrackerGitLab && tracker.URL == "" {
		result.Warnings = append(result.Warnings, "tracker.url is empty, gitlab.com will be used")
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(w io.Writer, result *ConfigCheckResult) {
	fmt.Fprintln(w, "=== Publishing Configuration ===")

	if len(result.Missing) > 0 {
		fmt.Fprintln(w, "Missing settings (publish will fail):")
		for _, v := range result.Missing {
			fmt.Fprintf(w, "   - %s\n", v)
		}
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w, "Configured settings:")
		for _, k := range keys {
			fmt.Fprintf(w, "   - %s = %s\n", k, result.Present[k])
		}
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}

	if len(result.Missing) == 0 {
		fmt.Fprintln(w, "All publishing configuration is present")
	}
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	return scanner.Err()
}
