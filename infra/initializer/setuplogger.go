package initializer

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	infoColor  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warnColor  = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errorColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debugColor = lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}
)

func levelStyle(symbol string, color lipgloss.AdaptiveColor) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(symbol).
		Bold(true).
		Padding(0, 1).
		Foreground(color)
}

func pledgeStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.ErrorLevel] = levelStyle("ERR", errorColor)
	styles.Levels[log.WarnLevel] = levelStyle("WRN", warnColor)
	styles.Levels[log.InfoLevel] = levelStyle("INF", infoColor)
	styles.Levels[log.DebugLevel] = levelStyle("DBG", debugColor)

	// Attributes every pledge log line carries get their own colors.
	keyed := map[string]lipgloss.AdaptiveColor{
		"error":   errorColor,
		"reason":  warnColor,
		"txn_id":  infoColor,
		"handler": debugColor,
		"prefix":  debugColor,
	}
	for key, color := range keyed {
		styles.Keys[key] = lipgloss.NewStyle().Foreground(color)
		styles.Values[key] = lipgloss.NewStyle().Bold(true)
	}
	return styles
}

func setupLogger(cfg *config.Log) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Log) *slog.Logger {
	if cfg == nil {
		cfg = &config.Log{Format: "text"}
	}
	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           log.Level(cfg.Level),
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	logger.SetStyles(pledgeStyles())

	slogger := slog.New(logger)
	slog.SetDefault(slogger)
	return slogger
}
