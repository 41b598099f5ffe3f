package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const banner = `
  __               __  _
 / /_______ _____ / /_(_)__ ____
/ __/ __/ // (_-</ __/ / -_) __/
\__/_/  \_,_/___/\__/_/\__/_/
`

const projectURL = "https://github.com/deepfence/trustier"

func PrintBanner(w io.Writer) {
	r := lipgloss.NewRenderer(w)
	fmt.Fprintf(w, "%s\n%s\n%s\n\n",
		banner,
		r.NewStyle().Bold(true).Render("Package trust scores for your SBOM"),
		projectURL)
}

// PrintDone marks the end of a successful run.
func PrintDone(w io.Writer) {
	r := lipgloss.NewRenderer(w)
	fmt.Fprintln(w, r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("DONE!"))
}
