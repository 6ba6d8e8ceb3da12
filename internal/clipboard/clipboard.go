// Package clipboard provides platform-specific clipboard operations.
package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Tool is a clipboard command and its arguments. The text is written to
// its stdin.
type Tool []string

// Tools returns the clipboard commands tried for goos, in order of
// preference.
func Tools(goos string) ([]Tool, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return []Tool{
			{"wl-copy"},                          // Wayland
			{"xclip", "-selection", "clipboard"}, // X11
			{"xsel", "--clipboard", "--input"},   // X11 alternative
		}, nil
	case "darwin":
		return []Tool{{"pbcopy"}}, nil
	case "windows":
		return []Tool{{"clip"}}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// CopyText attempts to copy plain text to the system clipboard.
func CopyText(text string) error {
	tools, err := Tools(runtime.GOOS)
	if err != nil {
		return err
	}

	var tried []string
	for _, tool := range tools {
		tried = append(tried, tool[0])
		if !isCommandAvailable(tool[0]) {
			continue
		}
		cmd := exec.Command(tool[0], tool[1:]...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no suitable clipboard tool found (tried: %s)", strings.Join(tried, ", "))
}

func isCommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
