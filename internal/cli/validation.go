package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// validatePort validates a TCP port, empty meaning def
func validatePort(input string, def int) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}

	port, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid port: %s (enter a number)", input)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port must be between 1 and 65535, got: %d", port)
	}
	return port, nil
}

// validateHostList validates a comma-separated allowed-hosts list
func validateHostList(input string) ([]string, error) {
	var hosts []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.ContainsAny(part, " /") {
			return nil, fmt.Errorf("invalid host: %q", part)
		}
		hosts = append(hosts, part)
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("at least one host is required")
	}
	return hosts, nil
}

// validateDatabaseName validates a MongoDB database name
func validateDatabaseName(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("database name is required")
	}
	if strings.ContainsAny(input, `/\. "$`) {
		return "", fmt.Errorf("database name must not contain any of / \\ . \" $ or spaces")
	}
	if len(input) > 63 {
		return "", fmt.Errorf("database name must be at most 63 characters")
	}
	return input, nil
}

// maskSensitiveData masks sensitive data for display
func maskSensitiveData(data string, maskChar string) string {
	if data == "" {
		return "(not set)"
	}
	if len(data) <= 8 {
		return strings.Repeat(maskChar, 3)
	}
	return data[:4] + "..." + data[len(data)-4:]
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
