package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DialogTimeout bounds how long a dialog may stay open.
const DialogTimeout = 10 * time.Minute

type runner func(ctx context.Context, name string, args ...string) (stdout, stderr string, exitCode int, err error)

// NativePicker implements ports.Picker by shelling out to the host UI toolkit:
// zenity on Linux, osascript on macOS and PowerShell Windows Forms on Windows.
type NativePicker struct {
	goos string
	run  runner
}

// NewNativePicker creates a picker for the current OS.
func NewNativePicker() *NativePicker {
	return &NativePicker{goos: runtime.GOOS, run: execRunner}
}

// PickFolder opens a folder selection dialog.
func (p *NativePicker) PickFolder(ctx context.Context) (string, error) {
	switch p.goos {
	case "windows":
		return p.pick(ctx, "powershell", "-NoProfile", "-STA", "-Command",
			`Add-Type -AssemblyName System.Windows.Forms;`+
				`$d = New-Object System.Windows.Forms.FolderBrowserDialog;`+
				`if ($d.ShowDialog() -eq 'OK') { $d.SelectedPath }`)
	case "darwin":
		return p.pick(ctx, "osascript", "-e", `POSIX path of (choose folder with prompt "Select folder")`)
	default:
		return p.pick(ctx, "zenity", "--file-selection", "--directory", "--title=Select folder")
	}
}

// PickFile opens a file selection dialog with the given title.
func (p *NativePicker) PickFile(ctx context.Context, title string) (string, error) {
	if title == "" {
		title = "Select file"
	}
	switch p.goos {
	case "windows":
		return p.pick(ctx, "powershell", "-NoProfile", "-STA", "-Command",
			`Add-Type -AssemblyName System.Windows.Forms;`+
				`$d = New-Object System.Windows.Forms.OpenFileDialog;`+
				`$d.Title = '`+strings.ReplaceAll(title, "'", "''")+`';`+
				`$d.Filter = 'Executable Files (*.exe)|*.exe|All Files (*.*)|*.*';`+
				`if ($d.ShowDialog() -eq 'OK') { $d.FileName }`)
	case "darwin":
		return p.pick(ctx, "osascript", "-e", `POSIX path of (choose file with prompt "`+strings.ReplaceAll(title, `"`, `'`)+`")`)
	default:
		return p.pick(ctx, "zenity", "--file-selection", "--title="+title)
	}
}

func (p *NativePicker) pick(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DialogTimeout)
	defer cancel()

	stdout, stderr, code, err := p.run(ctx, name, args...)
	if err != nil {
		if p.cancelled(code, stderr) {
			return "", nil
		}
		return "", fmt.Errorf("%s failed: %w, stderr: %s", name, err, strings.TrimSpace(stderr))
	}

	path := strings.TrimSpace(stdout)
	if path == "" {
		return "", nil
	}
	if p.goos != "windows" && len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return filepath.FromSlash(path), nil
}

// cancelled reports whether a failed dialog was dismissed by the user.
func (p *NativePicker) cancelled(code int, stderr string) bool {
	switch p.goos {
	case "darwin":
		return strings.Contains(stderr, "-128")
	case "windows":
		return false
	default:
		// zenity exits 1 on Cancel, 5 on timeout
		return code == 1 || code == 5
	}
}

func execRunner(ctx context.Context, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return out.String(), stderr.String(), code, err
}
