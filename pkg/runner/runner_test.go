package runner

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/tendant/simple-image-manip/internal/config"
	"github.com/tendant/simple-image-manip/internal/workflows"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := imaging.Save(imaging.New(w, h, color.NRGBA{R: 1, G: 2, B: 3, A: 255}), path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_MissingSidecarUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.SidecarFileName)
	outDir := filepath.Join(dir, config.ConversionFolderName)

	r, err := New(context.Background(), Config{ConfigPath: cfgPath, OutputDir: outDir, Workers: 2, UniqueNames: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Shutdown(0)

	if r.LoadResult().Outcome != config.OutcomeCreated {
		t.Errorf("Outcome = %v, want created", r.LoadResult().Outcome)
	}
	if r.Settings() != config.Default() {
		t.Errorf("Settings = %+v", r.Settings())
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("default sidecar not written: %v", err)
	}

	in := writePNG(t, t.TempDir(), "b.png", 30, 20)
	report := r.Convert(context.Background(), []string{in})
	if report.Succeeded != 1 {
		t.Fatalf("report: %v", report.Err())
	}

	item := report.Items[0]
	if item.Width != 30 || item.Height != 20 {
		t.Errorf("size = %dx%d, want unchanged 30x20", item.Width, item.Height)
	}
	if filepath.Dir(item.OutputPath) != r.OutputDir() || !strings.HasSuffix(item.OutputPath, ".jpg") {
		t.Errorf("output = %s", item.OutputPath)
	}
}

func TestNew_LoadsExistingSidecar(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	body := "width: 10\nheight: 10\nkeep_aspect_ratio: false\nextension: png\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := New(context.Background(), Config{ConfigPath: cfgPath, OutputDir: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatal(err)
	}

	in := writePNG(t, dir, "c.png", 40, 20)
	report := r.Convert(context.Background(), []string{in})
	if report.Succeeded != 1 {
		t.Fatalf("report: %v", report.Err())
	}
	item := report.Items[0]
	if item.Width != 10 || item.Height != 10 || filepath.Ext(item.OutputPath) != ".png" {
		t.Errorf("item = %+v", item)
	}
	if r.Workers() != 1 {
		t.Errorf("Workers = %d, want 1", r.Workers())
	}
}

func TestNew_RequireConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "no-such-dir", config.SidecarFileName)
	outDir := filepath.Join(dir, "out")

	if _, err := New(context.Background(), Config{ConfigPath: cfgPath, OutputDir: outDir, RequireConfig: true}); !errors.Is(err, ErrConfigWrite) {
		t.Errorf("err = %v, want ErrConfigWrite", err)
	}

	r, err := New(context.Background(), Config{ConfigPath: cfgPath, OutputDir: outDir})
	if err != nil {
		t.Fatalf("write failure should not be fatal: %v", err)
	}
	if r.LoadResult().WriteErr == nil {
		t.Error("WriteErr = nil")
	}
}

func TestNew_OutputDirError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "out")
	if err := os.WriteFile(blocker, []byte("file"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(context.Background(), Config{ConfigPath: filepath.Join(dir, "c.json"), OutputDir: blocker})
	if !errors.Is(err, ErrOutputDir) {
		t.Errorf("err = %v, want ErrOutputDir", err)
	}
}

func TestNew_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "c.json")
	if err := os.WriteFile(cfgPath, []byte(`{"extension":"webp"}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(context.Background(), Config{ConfigPath: cfgPath, OutputDir: filepath.Join(dir, "out")})
	if !errors.Is(err, workflows.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestConvertAsync_WithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	r, err := New(context.Background(), Config{ConfigPath: filepath.Join(dir, "c.json"), OutputDir: filepath.Join(dir, "out")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ConvertAsync(context.Background(), "/in/a.png"); !errors.Is(err, workflows.ErrAsyncUnavailable) {
		t.Errorf("err = %v, want ErrAsyncUnavailable", err)
	}
}
