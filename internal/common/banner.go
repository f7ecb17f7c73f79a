package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the startup banner for a command to w.
func PrintBanner(w io.Writer, config *Config, command string, logger *Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` _ __   __ ___   _____ _   _ _ __   ___`,
		`| '_ \ / _' \ \ / / __| | | | '_ \ / __|`,
		`| | | | (_| |\ V /\__ \ |_| | | | | (__`,
		`|_| |_|\__,_| \_/ |___/\__, |_| |_|\___|`,
		`                       |___/`,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Mutual fund NAV ingestion%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"Commit", GetGitCommit()},
		{"Environment", config.Environment},
		{"Command", command},
		{"Storage", config.Storage.Backend + " " + config.Storage.Address},
		{"Source", config.AMFI.URLTemplate},
		{"Time zone", config.Schedule.TimeZone},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-12s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", GetVersion()).
		Str("commit", GetGitCommit()).
		Str("environment", config.Environment).
		Str("command", command).
		Str("storage", config.Storage.Backend).
		Msg("Application started")
}
