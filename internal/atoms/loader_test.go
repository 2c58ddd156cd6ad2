package atoms

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "common.json", `{
		"atoms": [
			{
				"id": "common.file.get_file_size",
				"inputs": [{"name": "file_path", "required": true, "type": "string"}],
				"outputs": [{"name": "size", "type": "number"}]
			}
		]
	}`)
	writeFile(t, dir, "extra.yaml", `
atoms:
  - id: globalx.space.query_quota
    inputs:
      - name: user_id
        required: true
        type: string
    outputs:
      - name: quota
        type: number
`)

	reg := NewRegistry()
	if err := LoadDir(dir, reg, testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reg.Count() != 2 {
		t.Fatalf("expected 2 atoms, got %d: %v", reg.Count(), reg.IDs())
	}

	def, ok := reg.Get("common.file.get_file_size")
	if !ok {
		t.Fatal("json atom not loaded")
	}
	if in, ok := def.InputByName("file_path"); !ok || !in.Required {
		t.Errorf("unexpected input definition: %+v", def.Inputs)
	}

	quota, ok := reg.Get("globalx.space.query_quota")
	if !ok {
		t.Fatal("yaml atom not loaded")
	}
	if !quota.HasOutput("quota") {
		t.Errorf("yaml atom should declare output quota: %+v", quota.Outputs)
	}
}

func TestLoadDir_MissingDirIsNotAnError(t *testing.T) {
	reg := NewRegistry()
	if err := LoadDir(filepath.Join(t.TempDir(), "missing"), reg, testLogger()); err != nil {
		t.Fatalf("missing dir should not be an error: %v", err)
	}
	if reg.Count() != 0 {
		t.Errorf("expected empty registry, got %d", reg.Count())
	}
}

func TestLoadDir_SkipsMalformedAndForeignFiles(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "broken.json", `{not json`)
	writeFile(t, dir, "readme.txt", "not an atoms file")
	writeFile(t, dir, "ok.json", `{"atoms": [{"id": "a.b.c"}]}`)

	reg := NewRegistry()
	if err := LoadDir(dir, reg, testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Count() != 1 || !reg.Has("a.b.c") {
		t.Errorf("only the valid file should load, got %v", reg.IDs())
	}
}

func TestLoadDir_SkipsAtomsWithoutID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "atoms.json", `{"atoms": [{"id": "a.b.c"}, {"description": "no id"}]}`)

	reg := NewRegistry()
	if err := LoadDir(dir, reg, testLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Count() != 1 {
		t.Errorf("expected 1 atom, got %d", reg.Count())
	}
}

func TestRegisterBuiltins(t *testing.T) {
	iv := NewInvoker()
	RegisterBuiltins(iv, testLogger())

	for _, id := range []string{
		"globalx.permission.query_permissions",
		"globalx.permission.grant_permission",
		"globalx.space.query_quota",
		"globalx.transfer.file_transfer",
		"common.file.get_file_size",
	} {
		if !iv.Has(id) {
			t.Errorf("builtin %s not registered", id)
		}
	}
}
