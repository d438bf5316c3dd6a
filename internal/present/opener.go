package present

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"runtime"
)

// PrintOpener writes links instead of opening them.
type PrintOpener struct {
	Out io.Writer
}

func (p PrintOpener) Open(_ context.Context, link string) error {
	if err := validateLink(link); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.Out, "Open %s\n", link)
	return err
}

// BrowserOpener hands links to the desktop's default handler.
type BrowserOpener struct {
	// command overrides the platform launcher; used in tests.
	command func(ctx context.Context, link string) *exec.Cmd
}

func (b BrowserOpener) Open(ctx context.Context, link string) error {
	if err := validateLink(link); err != nil {
		return err
	}
	build := b.command
	if build == nil {
		build = launcher
	}
	if err := build(ctx, link).Run(); err != nil {
		return fmt.Errorf("failed to open %s: %w", link, err)
	}
	return nil
}

func launcher(ctx context.Context, link string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "open", link)
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", link)
	default:
		return exec.CommandContext(ctx, "xdg-open", link)
	}
}

// validateLink accepts absolute links only; store links use custom schemes
// such as itms-apps, so any scheme is allowed.
func validateLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("invalid link: %q", link)
	}
	return nil
}
