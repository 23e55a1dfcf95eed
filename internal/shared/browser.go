package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens url in the user's browser for the Spotify authorization
// step. A BROWSER environment variable overrides the platform default, so the
// login flow works in environments where xdg-open is absent or wrong.
func OpenBrowser(url string) error {
	if browser := os.Getenv("BROWSER"); browser != "" {
		if err := exec.Command(browser, url).Start(); err != nil {
			return fmt.Errorf("failed to open $BROWSER (%s): %w", browser, err)
		}
		return nil
	}

	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
