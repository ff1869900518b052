// Package editor composes longer assistant questions in the user's $EDITOR.
package editor

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const AccountsPrefix = "Accounts: "

// ComposeQuestion creates the text presented to the editor.
func ComposeQuestion(accounts []string, question string) string {
	var b bytes.Buffer
	b.WriteString("# Ask the Stillwater Pulse assistant.\n")
	b.WriteString("# Lines starting with '#' are ignored.\n")
	b.WriteString("# Accounts limits the posts used as context (comma-separated, empty for all).\n")
	b.WriteString("# Write your question after '---'; **bold** and *italic* are fine.\n")
	b.WriteString(AccountsPrefix)
	b.WriteString(strings.Join(accounts, ", "))
	b.WriteString("\n---\n")
	if question != "" {
		if !strings.HasSuffix(question, "\n") {
			question += "\n"
		}
		b.WriteString(question)
	}
	return b.String()
}

// ParseQuestion extracts the account filter and question from editor output.
func ParseQuestion(s string) (accounts []string, question string) {
	inBody := false
	var body []string
	for _, line := range strings.Split(s, "\n") {
		if inBody {
			body = append(body, line)
			continue
		}
		trim := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trim, "#"):
		case strings.HasPrefix(trim, strings.TrimSpace(AccountsPrefix)):
			raw := strings.TrimPrefix(trim, strings.TrimSpace(AccountsPrefix))
			for _, a := range strings.Split(raw, ",") {
				if a = strings.TrimPrefix(strings.TrimSpace(a), "@"); a != "" {
					accounts = append(accounts, a)
				}
			}
		case trim == "---":
			inBody = true
		}
	}
	return accounts, strings.TrimSpace(strings.Join(body, "\n"))
}

// PreferredEditor finds a suitable editor from env or common defaults.
func PreferredEditor() (string, error) {
	if v := os.Getenv("VISUAL"); v != "" {
		return v, nil
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e, nil
	}
	for _, cand := range []string{"nvim", "vim", "vi", "nano"} {
		if p, err := exec.LookPath(cand); err == nil {
			return p, nil
		}
	}
	return "", errors.New("no editor found; set $EDITOR or $VISUAL")
}

// TempPath returns a fresh file path for one editing session.
func TempPath() (string, error) {
	name := "question-" + uuid.NewString() + ".md"
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "pulse", name), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pulse", "edit", name), nil
}

// OpenAt writes initial to path, runs the editor on it and returns the saved
// contents and whether they changed. The file is removed afterwards.
func OpenAt(path string, initial []byte) (final []byte, changed bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, err
	}
	if err := os.WriteFile(path, initial, 0o600); err != nil {
		return nil, false, err
	}
	defer os.Remove(path)

	ed, err := PreferredEditor()
	if err != nil {
		return nil, false, err
	}
	// Run through a shell so VISUAL/EDITOR may carry flags.
	cmd := exec.Command("sh", "-c", "$EDITORCMD \"$FILEPATH\"")
	cmd.Env = append(os.Environ(), "EDITORCMD="+ed, "FILEPATH="+path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, false, err
	}
	out, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return out, !bytes.Equal(out, initial), nil
}
