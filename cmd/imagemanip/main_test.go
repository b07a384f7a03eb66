package main

import (
	"errors"
	"flag"
	"fmt"
	"testing"

	"github.com/tendant/simple-image-manip/internal/config"
	"github.com/tendant/simple-image-manip/internal/workflows"
	"github.com/tendant/simple-image-manip/pkg/runner"
)

func TestParseFlags(t *testing.T) {
	env := config.Env{ConfigPath: "/exe/c.json", OutputDir: "/exe/out", Workers: 4}

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, o options)
		wantErr bool
	}{
		{
			name: "env defaults",
			args: []string{"a.png", "b.png"},
			check: func(t *testing.T, o options) {
				if o.configPath != "/exe/c.json" || o.outputDir != "/exe/out" || o.workers != 4 {
					t.Errorf("opts = %+v", o)
				}
				if len(o.paths) != 2 {
					t.Errorf("paths = %v", o.paths)
				}
			},
		},
		{
			name: "overrides",
			args: []string{"-config", "x.yaml", "-output", "/tmp/o", "-workers", "2", "-no-progress", "a.png"},
			check: func(t *testing.T, o options) {
				if o.configPath != "x.yaml" || o.outputDir != "/tmp/o" || o.workers != 2 || !o.noProgress {
					t.Errorf("opts = %+v", o)
				}
			},
		},
		{
			name: "watch",
			args: []string{"-watch", "/in"},
			check: func(t *testing.T, o options) {
				if o.watchDir != "/in" || len(o.paths) != 0 {
					t.Errorf("opts = %+v", o)
				}
			},
		},
		{name: "zero workers", args: []string{"-workers", "0"}, wantErr: true},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args, env)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, o)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags([]string{"-h"}, config.Env{Workers: 1})
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("err = %v, want flag.ErrHelp", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: permission denied", runner.ErrOutputDir), exitOutputError},
		{fmt.Errorf("%w: read-only", runner.ErrConfigWrite), exitConfigError},
		{fmt.Errorf("%w: \"webp\"", workflows.ErrUnsupportedFormat), exitConfigError},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
