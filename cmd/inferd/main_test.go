package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestResolveConfig_Defaults(t *testing.T) {
	t.Setenv("INFERD_ADDR", "")
	cfg, err := resolveConfig(&serveOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
	if cfg.ModelsDir != "~/models/onnx" {
		t.Fatalf("models dir=%q", cfg.ModelsDir)
	}
}

func TestResolveConfig_EnvAddr(t *testing.T) {
	t.Setenv("INFERD_ADDR", ":9999")
	cfg, err := resolveConfig(&serveOptions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
}

func TestResolveConfig_FlagsBeatFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "inferd.yaml")
	data := "addr: \":7000\"\nmodels_dir: /opt/models\ndefault_model: vit\n"
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := resolveConfig(&serveOptions{configPath: p, addr: ":7001"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":7001" {
		t.Fatalf("flag should win, addr=%q", cfg.Addr)
	}
	if cfg.ModelsDir != "/opt/models" || cfg.DefaultModel != "vit" {
		t.Fatalf("file values lost: %+v", cfg)
	}
}

func TestResolveConfig_CORSFlagEnables(t *testing.T) {
	cfg, err := resolveConfig(&serveOptions{corsOrigins: "http://localhost:3000, http://app.local"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !cfg.CORS.Enabled || len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("unexpected cors config: %+v", cfg.CORS)
	}
}
