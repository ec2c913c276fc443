package display

import (
	"fmt"
	"io"

	"github.com/backmassage/vidpress/internal/term"
)

// PrintBanner prints the ASCII art banner in the accent color when enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Accent)
	fmt.Fprint(w, `       _     _
__   _(_) __| |_ __  _ __ ___  ___ ___
\ \ / / |/ _`+"`"+` | '_ \| '__/ _ \/ __/ __|
 \ V /| | (_| | |_) | | |  __/\__ \__ \
  \_/ |_|\__,_| .__/|_|  \___||___/___/
              |_|
`)
	if term.Enabled() {
		fmt.Fprintln(w, term.Reset)
	}
}
