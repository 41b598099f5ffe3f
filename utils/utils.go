package utils

import (
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// NewScanID returns an identifier for one SBOM run, used to correlate log lines.
func NewScanID() string {
	return uuid.NewString()
}

func Contains(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}

	return false
}

func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StdinPiped reports whether data is being piped or redirected into the process.
func StdinPiped() bool {
	if IsTerminal(os.Stdin) {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}

func ValidOutput(output string) bool {
	return Contains([]string{JSONOutput, YAMLOutput, TableOutput}, output)
}
