package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII banner shown by `canvasflow serve`.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{`   ___                      ___ _`, "#818cf8"},
		{`  / __|__ _ _ ___ ____ _ __| __| |_____ __ __`, "#a78bfa"},
		{" | (__/ _` | ' \\ V / _` (_-< _|| / _ \\ V  V /", "#c084fc"},
		{`  \___\__,_|_||_\_/\__,_/__/_| |_\___/\_/\_/`, "#f472b6"},
	}
	fmt.Fprintln(out)
	for _, l := range lines {
		fmt.Fprintln(out, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(out)
}
