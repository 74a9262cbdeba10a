package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings is the optional mdlbrowser.yaml file next to the binary.
// Command line flags override whatever is loaded here.
type Settings struct {
	ListenAddr   string   `yaml:"listen_addr"`
	ModelsDir    string   `yaml:"models_dir"`
	WebDir       string   `yaml:"web_dir"`
	PreferredLod int      `yaml:"preferred_lod"`
	Encoding     string   `yaml:"encoding"`
	SearchDirs   []string `yaml:"material_search_dirs"`
}

func DefaultSettings() Settings {
	return Settings{
		ListenAddr: ":8000",
		WebDir:     "web",
	}
}

var settings Settings = DefaultSettings()

func GetSettings() Settings { return settings }

func SetSettings(s Settings) { settings = s }

func LoadSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to read settings %q", path)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return errors.Wrapf(err, "Failed to parse settings %q", path)
	}
	if s.Encoding != "" {
		if err := SetEncoding(s.Encoding); err != nil {
			return err
		}
	}
	settings = s
	return nil
}

func SaveSettings(path string) error {
	data, err := yaml.Marshal(&settings)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal settings")
	}
	return os.WriteFile(path, data, 0644)
}
