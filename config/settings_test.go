package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mdlbrowser.yaml")
	body := `listen_addr: ":9090"
models_dir: "/srv/models"
preferred_lod: 2
material_search_dirs:
  - "models/props"
  - "models/weapons"
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	defer SetSettings(DefaultSettings())

	if err := LoadSettings(path); err != nil {
		t.Fatal(err)
	}
	s := GetSettings()
	if s.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", s.ListenAddr)
	}
	if s.ModelsDir != "/srv/models" {
		t.Errorf("ModelsDir = %q", s.ModelsDir)
	}
	if s.PreferredLod != 2 {
		t.Errorf("PreferredLod = %d", s.PreferredLod)
	}
	if len(s.SearchDirs) != 2 || s.SearchDirs[0] != "models/props" {
		t.Errorf("SearchDirs = %v", s.SearchDirs)
	}
	// unset fields keep defaults
	if s.WebDir != "web" {
		t.Errorf("WebDir = %q", s.WebDir)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	if err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSetEncoding(t *testing.T) {
	if err := SetEncoding("Windows 1251"); err != nil {
		t.Fatal(err)
	}
	defer SetEncoding("Windows 1252")
	if GetEncoding().String() != "Windows 1251" {
		t.Errorf("encoding = %q", GetEncoding().String())
	}
	if err := SetEncoding("No Such Charmap"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
