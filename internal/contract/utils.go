package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// Verdict label constants.
const (
	AnomalyValue = "ANOMALY"
	NormalValue  = "normal"
)

// Color variables for console output.
var (
	AnomalyColor = color.New(color.FgRed, color.Bold) // AnomalyColor represents standard danger.
	NormalColor  = color.New(color.FgGreen)           // NormalColor represents a healthy reading.
	StateColor   = color.New(color.FgCyan)            // StateColor highlights monitor phases.
)

// GetPlainLabel returns a plain text label for a verdict. This is the core logic used for
// CSV, JSON, and table printing.
func GetPlainLabel(isAnomaly bool) string {
	if isAnomaly {
		return AnomalyValue
	}
	return NormalValue
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(isAnomaly bool) string {
	text := GetPlainLabel(isAnomaly)
	if isAnomaly {
		return AnomalyColor.Sprint(text)
	}
	return NormalColor.Sprint(text)
}

// GetStateLabel returns a colored monitor state for status lines.
func GetStateLabel(state schema.MonitorState, useColors bool) string {
	text := strings.ToUpper(string(state))
	if !useColors {
		return text
	}
	return StateColor.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for score cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".factory_cache.db"
	}
	return filepath.Join(homeDir, ".factory_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".factory_history.db"
	}
	return filepath.Join(homeDir, ".factory_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for "..." plus at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "on", "off", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "on", "1":
		return true, nil
	case "no", "false", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/on/off/1/0)", s)
	}
}
