// Package launch opens the viewer page in the user's browser.
package launch

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoBrowser means no opener command is available.
var ErrNoBrowser = errors.New("no browser opener found; set browser.command")

// Command builds the process that opens url. A non-empty custom command is
// run through the shell so it may carry flags; otherwise the platform opener
// for goos is used.
func Command(custom, goos, url string) (*exec.Cmd, error) {
	if strings.TrimSpace(custom) != "" {
		cmd := exec.Command("sh", "-c", "$BROWSERCMD \"$TARGETURL\"")
		cmd.Env = append(os.Environ(), "BROWSERCMD="+custom, "TARGETURL="+url)
		return cmd, nil
	}
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		for _, cand := range []string{"xdg-open", "x-www-browser", "sensible-browser"} {
			if p, err := exec.LookPath(cand); err == nil {
				return exec.Command(p, url), nil
			}
		}
		return nil, ErrNoBrowser
	}
}

// Open starts the browser and does not wait for it to exit.
func Open(custom, url string) error {
	cmd, err := Command(custom, runtime.GOOS, url)
	if err != nil {
		return err
	}
	cmd.Stdout = nil
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
