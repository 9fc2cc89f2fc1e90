package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape codes. They are blanked when stdout is not a terminal or
// NO_COLOR is set.
var (
	Reset = "\033[0m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	White  = "\033[37m"
	Gray   = "\033[90m"

	Bold = "\033[1m"
	Dim  = "\033[2m"
)

// Predefined color combinations for consistency
var (
	HeaderStyle    string
	SuccessStyle   string
	ErrorStyle     string
	WarningStyle   string
	InfoStyle      string
	LabelStyle     string
	ValueStyle     string
	DimStyle       string
	CountStyle     string
	SecondaryStyle string
	MetaStyle      string
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || !isatty.IsTerminal(os.Stdout.Fd()) {
		Reset, Red, Green, Yellow, Blue, Cyan, White, Gray, Bold, Dim = "", "", "", "", "", "", "", "", "", ""
	}

	HeaderStyle = Cyan + Bold
	SuccessStyle = Green + Bold
	ErrorStyle = Red + Bold
	WarningStyle = Yellow + Bold
	InfoStyle = Blue + Bold
	LabelStyle = Cyan
	ValueStyle = White + Bold
	DimStyle = Dim
	CountStyle = Yellow + Bold
	SecondaryStyle = Blue
	MetaStyle = Gray
}

func FormatSuccess(text string) string {
	return SuccessStyle + text + Reset
}

func FormatError(text string) string {
	return ErrorStyle + text + Reset
}

func FormatWarning(text string) string {
	return WarningStyle + text + Reset
}

func FormatValue(text string) string {
	return ValueStyle + text + Reset
}

func FormatCount(count int) string {
	return CountStyle + fmt.Sprintf("%d", count) + Reset
}

func FormatDim(text string) string {
	return DimStyle + text + Reset
}

func FormatSecondary(text string) string {
	return SecondaryStyle + text + Reset
}

func FormatMeta(text string) string {
	return MetaStyle + text + Reset
}

// Format a label-value pair
func FormatLabelValue(label, value string) string {
	return LabelStyle + label + Reset + " " + ValueStyle + value + Reset
}
