package overlay

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	goruntime "runtime"

	"github.com/atotto/clipboard"
)

// Navigator performs the navigation side effect for an activated result.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// BrowserNavigator opens URLs with the platform's default handler.
type BrowserNavigator struct{}

func (BrowserNavigator) Navigate(ctx context.Context, url string) error {
	name, args := openCommand(goruntime.GOOS, url)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return cmd.Process.Release()
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// ClipboardNavigator copies URLs to the system clipboard.
type ClipboardNavigator struct{}

var writeClipboard = clipboard.WriteAll

func (ClipboardNavigator) Navigate(_ context.Context, url string) error {
	if err := writeClipboard(url); err != nil {
		return fmt.Errorf("copy %s to clipboard: %w", url, err)
	}
	return nil
}

// WriterNavigator prints URLs, one per line.
type WriterNavigator struct {
	W io.Writer
}

func (n WriterNavigator) Navigate(_ context.Context, url string) error {
	_, err := fmt.Fprintln(n.W, url)
	return err
}

// NavigatorFor selects a navigator by name: "browser", "clipboard" or
// "print". Unknown names are an error.
func NavigatorFor(name string, w io.Writer) (Navigator, error) {
	switch name {
	case "", "browser":
		return BrowserNavigator{}, nil
	case "clipboard":
		return ClipboardNavigator{}, nil
	case "print":
		return WriterNavigator{W: w}, nil
	default:
		return nil, fmt.Errorf("unknown navigator %q", name)
	}
}
