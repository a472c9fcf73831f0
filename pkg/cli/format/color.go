package format

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Output colors
var (
	SuccessColor   = color.New(color.FgGreen)
	ErrorColor     = color.New(color.FgRed, color.Bold)
	WarningColor   = color.New(color.FgYellow)
	InfoColor      = color.New(color.FgCyan)
	HighlightColor = color.New(color.FgCyan, color.Bold)
	DimColor       = color.New(color.FgHiBlack)
)

// init honors GCU_NO_COLOR and GCU_FORCE_COLOR on top of color's own NO_COLOR
// and terminal detection.
func init() {
	if _, ok := os.LookupEnv("GCU_NO_COLOR"); ok {
		color.NoColor = true
	}
	if _, ok := os.LookupEnv("GCU_FORCE_COLOR"); ok {
		color.NoColor = false
	}
}

// EnableColor enables or disables colored output globally
func EnableColor(enable bool) {
	color.NoColor = !enable
}

// IsColorEnabled returns whether colored output is enabled
func IsColorEnabled() bool {
	return !color.NoColor
}

// Success formats a message as a success (green)
func Success(format string, a ...interface{}) string {
	return SuccessColor.Sprint(fmt.Sprintf(format, a...))
}

// Warning formats a message as a warning (yellow)
func Warning(format string, a ...interface{}) string {
	return WarningColor.Sprint(fmt.Sprintf(format, a...))
}

// Error formats a message as an error (bold red)
func Error(format string, a ...interface{}) string {
	return ErrorColor.Sprint(fmt.Sprintf(format, a...))
}

// Info formats a message as info (cyan)
func Info(format string, a ...interface{}) string {
	return InfoColor.Sprint(fmt.Sprintf(format, a...))
}

// Highlight formats a message as highlighted (bold cyan)
func Highlight(format string, a ...interface{}) string {
	return HighlightColor.Sprint(fmt.Sprintf(format, a...))
}

// Dim formats a message as dimmed
func Dim(format string, a ...interface{}) string {
	return DimColor.Sprint(fmt.Sprintf(format, a...))
}

// ChangeLabel colors a change operation name.
func ChangeLabel(op string) string {
	switch op {
	case "add":
		return SuccessColor.Sprint(op)
	case "remove":
		return ErrorColor.Sprint(op)
	case "replace":
		return WarningColor.Sprint(op)
	default:
		return op
	}
}
