// Package opener hands movie links to the desktop's default application.
package opener

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/movie"
)

// Target is an external page for a movie.
type Target struct {
	Label string
	URL   string
}

// Targets lists the external pages known for d, homepage first.
func Targets(d *movie.Detail) []Target {
	if d == nil {
		return nil
	}
	var out []Target
	if h := strings.TrimSpace(d.Homepage); h != "" {
		out = append(out, Target{Label: "Homepage", URL: h})
	}
	if d.IMDBID != "" {
		out = append(out, Target{Label: "IMDb", URL: "https://www.imdb.com/title/" + d.IMDBID})
	}
	out = append(out, Target{Label: "TMDB", URL: fmt.Sprintf("https://www.themoviedb.org/movie/%d", d.ID)})
	if p := d.PosterURL(movie.DefaultPosterSize); p != "" {
		out = append(out, Target{Label: "Poster", URL: p})
	}
	return out
}

type Launcher struct {
	opener string
	start  func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	opener := ""
	if cfg != nil {
		opener = cfg.Opener.DefaultOpener
	}
	if opener == "" || findCommand(opener) == "" {
		if fallback := findCommand(platformOpeners()...); fallback != "" {
			opener = fallback
		}
	}
	return &Launcher{opener: opener, start: startDetached}
}

// Opener is the command used to open links.
func (l *Launcher) Opener() string { return l.opener }

func (l *Launcher) Open(url string) error {
	if l.opener == "" {
		return fmt.Errorf("no application found to open URL")
	}
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return fmt.Errorf("refusing to open non-web URL %q", url)
	}

	name, args := l.opener, []string{url}
	if l.opener == "start" {
		// start is a cmd.exe builtin; the empty string is the window title
		name, args = "cmd", []string{"/c", "start", "", url}
	}
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	return nil
}

// startDetached launches GUI applications without waiting for them.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func platformOpeners() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"start"}
	default:
		return []string{"xdg-open", "gio", "sensible-browser"}
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if cmd == "start" && runtime.GOOS == "windows" {
			return cmd
		}
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
