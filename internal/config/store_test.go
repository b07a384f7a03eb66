package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	configs := []Config{
		Default(),
		{Width: 50, Height: 50, KeepAspectRatio: true, Extension: "png"},
		{Width: 1920, Height: 1080, FlipHorizontal: true, FlipVertical: true, Extension: "gif"},
		{Extension: "bmp", Red: 255, Green: -255, Blue: 12},
	}
	for _, name := range []string{"config.json", "config.yaml"} {
		for _, cfg := range configs {
			data, err := Encode(name, cfg)
			if err != nil {
				t.Fatalf("Encode(%s): %v", name, err)
			}
			got, err := Decode(name, data)
			if err != nil {
				t.Fatalf("Decode(%s): %v", name, err)
			}
			if got != cfg {
				t.Errorf("%s round trip = %+v, want %+v", name, got, cfg)
			}
		}
	}
}

func TestLoadOrCreate_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), SidecarFileName)

	res := LoadOrCreate(path)
	if res.Outcome != OutcomeCreated {
		t.Fatalf("Outcome = %v, want created", res.Outcome)
	}
	if res.Config != Default() {
		t.Errorf("Config = %+v, want default", res.Config)
	}
	if res.WriteErr != nil {
		t.Fatalf("WriteErr = %v", res.WriteErr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
	written, err := Decode(path, data)
	if err != nil {
		t.Fatalf("written sidecar does not decode: %v", err)
	}
	if written.Width != 0 || written.Height != 0 || written.Extension != "jpg" {
		t.Errorf("written sidecar = %+v", written)
	}
}

func TestLoadOrCreate_Existing(t *testing.T) {
	path := filepath.Join(t.TempDir(), SidecarFileName)
	content := `{"width": 640, "height": 480, "keep_aspect_ratio": true, "flip_horizontal": false, "flip_vertical": true, "extension": "png"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res := LoadOrCreate(path)
	if res.Outcome != OutcomeLoaded {
		t.Fatalf("Outcome = %v, want loaded (err %v)", res.Outcome, res.Err)
	}
	want := Config{Width: 640, Height: 480, KeepAspectRatio: true, FlipVertical: true, Extension: "png"}
	if res.Config != want {
		t.Errorf("Config = %+v, want %+v", res.Config, want)
	}
	if res.Defaulted() {
		t.Error("Defaulted() = true for a loaded file")
	}
}

func TestLoadOrCreate_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"garbage json", "c.json", "{not json"},
		{"empty json", "c.json", ""},
		{"wrong type", "c.json", `{"width": "wide"}`},
		{"out of range delta", "c.json", `{"red": 999}`},
		{"garbage yaml", "c.yaml", "width: [1, 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			res := LoadOrCreate(path)
			if res.Outcome != OutcomeCorrupt {
				t.Fatalf("Outcome = %v, want corrupt", res.Outcome)
			}
			if res.Err == nil {
				t.Error("Err = nil, want decode error")
			}
			if res.Config != Default() {
				t.Errorf("Config = %+v, want default", res.Config)
			}

			data, _ := os.ReadFile(path)
			if _, err := Decode(path, data); err != nil {
				t.Errorf("corrupt file was not replaced with default: %v", err)
			}
		})
	}
}

func TestLoadOrCreate_ReadFailedLeavesPath(t *testing.T) {
	// A directory at the sidecar path cannot be read as a file.
	path := filepath.Join(t.TempDir(), SidecarFileName)
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}

	res := LoadOrCreate(path)
	if res.Outcome != OutcomeReadFailed {
		t.Fatalf("Outcome = %v, want read_failed", res.Outcome)
	}
	if res.Config != Default() {
		t.Errorf("Config = %+v, want default", res.Config)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Error("read-failed path was modified")
	}
}

func TestLoadOrCreate_WriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", SidecarFileName)

	res := LoadOrCreate(path)
	if res.Outcome != OutcomeCreated {
		t.Fatalf("Outcome = %v, want created", res.Outcome)
	}
	if res.WriteErr == nil {
		t.Error("WriteErr = nil, want error for missing parent directory")
	}
	if res.Config != Default() {
		t.Errorf("Config = %+v, want default", res.Config)
	}
}

func TestDecode_Normalizes(t *testing.T) {
	cfg, err := Decode("c.json", []byte(`{"width": 10, "height": 10, "extension": ".PNG"}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Extension != "PNG" {
		t.Errorf("Extension = %q, want PNG", cfg.Extension)
	}

	cfg, err = Decode("c.json", []byte(`{"width": 10}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Extension != DefaultExtension {
		t.Errorf("Extension = %q, want default", cfg.Extension)
	}
	if cfg.ResizeEnabled() {
		t.Error("ResizeEnabled() = true with zero height")
	}
}
