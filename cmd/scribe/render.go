package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"scribe/internal/platform"
	"scribe/internal/session"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 16
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func titleCase(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(value)
}

func audioStatusKind(status platform.AudioStatus) statusKind {
	switch status {
	case platform.AudioCompleted:
		return statusOK
	case platform.AudioFailed:
		return statusError
	case platform.AudioProcessing:
		return statusWarn
	default:
		return statusInfo
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatPercent(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 1, 64) + "%"
}

func formatSeconds(value *float64) string {
	if value == nil {
		return "-"
	}
	return (time.Duration(*value * float64(time.Second))).Round(time.Second).String()
}

func identityLines(identity *session.Identity, colorize bool) []string {
	lines := renderSectionHeader("Account", colorize)
	lines = append(lines,
		renderStatusLine("Name", statusInfo, identity.DisplayName(), colorize),
		renderStatusLine("Email", statusInfo, identity.Email, colorize),
		renderStatusLine("Role", statusInfo, titleCase(string(identity.Role)), colorize),
	)
	activeKind := statusOK
	if !identity.IsActive {
		activeKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Active", activeKind, yesNo(identity.IsActive), colorize))
	if identity.LastLogin != nil {
		lines = append(lines, renderStatusLine("Last login", statusInfo, formatTime(*identity.LastLogin), colorize))
	}
	return lines
}
