package editor

import (
	"os"
	"strings"
	"testing"

	"github.com/CrestNiraj12/commonswipe/domain"
)

func TestCmd_UsesEditorAndWritesList(t *testing.T) {
	t.Setenv("EDITOR", "code -w")
	e := NewEnvEditor()

	cmd, path, err := e.Cmd([]domain.Category{"Lighthouses_in_Norway", "Bridges"})
	if err != nil {
		t.Fatalf("cmd failed: %v", err)
	}
	defer os.Remove(path)
	if len(cmd.Args) != 3 || cmd.Args[0] != "code" || cmd.Args[1] != "-w" || cmd.Args[2] != path {
		t.Fatalf("unexpected command args: %v", cmd.Args)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read temp file failed: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "one per line") || !strings.Contains(text, "Lighthouses in Norway\nBridges\n") {
		t.Fatalf("unexpected template content: %q", text)
	}
}

func TestCmd_FallsBackToVi(t *testing.T) {
	t.Setenv("EDITOR", "")
	cmd, path, err := NewEnvEditor().Cmd(nil)
	if err != nil {
		t.Fatalf("cmd failed: %v", err)
	}
	defer os.Remove(path)
	if cmd.Args[0] != "vi" {
		t.Fatalf("expected vi fallback, got %v", cmd.Args)
	}
}

func TestReadCategories_ParsesAndDeletesFile(t *testing.T) {
	e := NewEnvEditor()
	f, err := os.CreateTemp("", "commonswipe-test-*.txt")
	if err != nil {
		t.Fatalf("create temp failed: %v", err)
	}
	path := f.Name()
	_, _ = f.WriteString(instructionComment + "Bridges\n\n  Category:Lighthouses in Norway \n# skipped\nBridges\n")
	_ = f.Close()

	got, err := e.ReadCategories(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 2 || got[0] != "Bridges" || got[1] != "Lighthouses_in_Norway" {
		t.Fatalf("unexpected categories: %v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be deleted")
	}
}
