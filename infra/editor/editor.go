// Package editor edits the custom category list in the user's $EDITOR.
package editor

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/CrestNiraj12/commonswipe/domain"
)

// EnvEditor prepares an external editor command using $EDITOR (fallback: "vi").
// It does not run the editor itself: callers use tea.ExecProcess with the
// returned *exec.Cmd so Bubble Tea properly suspends raw terminal mode.
type EnvEditor struct{}

// NewEnvEditor creates an EnvEditor.
func NewEnvEditor() *EnvEditor {
	return &EnvEditor{}
}

const instructionComment = `# CommonSwipe: your own categories, one per line.
#
# - Use the name as it appears on Commons, e.g. "Lighthouses in Norway".
# - Delete a line to remove that category.
# - Lines starting with # are ignored.

`

// Cmd writes categories to a temp file and prepares an *exec.Cmd that
// opens it. $EDITOR may carry arguments, e.g. "code -w".
func (e *EnvEditor) Cmd(categories []domain.Category) (*exec.Cmd, string, error) {
	argv := strings.Fields(os.Getenv("EDITOR"))
	if len(argv) == 0 {
		argv = []string{"vi"}
	}

	tmpFile, err := os.CreateTemp("", "commonswipe-*.txt")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer tmpFile.Close()

	var b strings.Builder
	b.WriteString(instructionComment)
	for _, c := range categories {
		b.WriteString(strings.ReplaceAll(string(c), "_", " "))
		b.WriteByte('\n')
	}
	if _, err := tmpFile.WriteString(b.String()); err != nil {
		os.Remove(tmpPath)
		return nil, "", fmt.Errorf("writing to temp file: %w", err)
	}

	cmd := exec.Command(argv[0], append(argv[1:], tmpPath)...)
	return cmd, tmpPath, nil
}

// ReadCategories reads the edited list and removes the file. Comments,
// blank lines and repeats are dropped.
func (e *EnvEditor) ReadCategories(path string) ([]domain.Category, error) {
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading temp file: %w", err)
	}
	defer f.Close()

	var out []domain.Category
	seen := make(map[domain.Category]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c := domain.Category(line).Normalize()
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading temp file: %w", err)
	}
	return out, nil
}
