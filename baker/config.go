package baker

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

// Entry is one animation to bake: the output name and the source file name.
type Entry struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

var DefaultAnimations = []Entry{
	{Name: "walk", File: "Walking.glb"},
	{Name: "run", File: "Running.glb"},
	{Name: "punch", File: "punch1.glb"},
	{Name: "kick", File: "kick1.glb"},
	{Name: "hit", File: "Head Hit.glb"},
	{Name: "die", File: "dying.glb"},
}

type Config struct {
	// BaseDir is the directory relative paths are resolved against.
	BaseDir string `yaml:"-"`

	// Label names the model in console output and output file names.
	Label        string `yaml:"label"`
	ModelPath    string `yaml:"model"`
	AnimationDir string `yaml:"animation_dir"`
	OutputDir    string `yaml:"output_dir"`

	FrameRate              float64 `yaml:"frame_rate"`
	ExportSkins            bool    `yaml:"export_skins"`
	ExportAnimations       bool    `yaml:"export_animations"`
	TextureResolutionLimit int     `yaml:"texture_resolution_limit"`

	Animations []Entry `yaml:"animations"`
}

func DefaultConfig(baseDir string) *Config {
	return &Config{
		BaseDir:          baseDir,
		Label:            "RCS",
		ModelPath:        filepath.Join("assets", "RCS-walking-seperated.glb"),
		AnimationDir:     filepath.Join("assets", "animations", "glb"),
		OutputDir:        filepath.Join("assets", "animations", "baked"),
		FrameRate:        24,
		ExportSkins:      true,
		ExportAnimations: true,
		Animations:       append([]Entry(nil), DefaultAnimations...),
	}
}

// LoadConfig reads a YAML file over the defaults. When baseDir is empty,
// paths are relative to the directory of the file.
func LoadConfig(path, baseDir string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	conf := DefaultConfig(baseDir)
	if err := yaml.UnmarshalStrict(data, conf); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model path is empty")
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("invalid frame rate %v", c.FrameRate)
	}
	if c.TextureResolutionLimit < 0 {
		return fmt.Errorf("invalid texture resolution limit %d", c.TextureResolutionLimit)
	}
	for i, e := range c.Animations {
		if e.Name == "" || e.File == "" {
			return fmt.Errorf("animation %d: name and file are required", i)
		}
	}
	return nil
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func (c *Config) ModelFile() string {
	return c.resolve(c.ModelPath)
}

func (c *Config) OutputDirectory() string {
	return c.resolve(c.OutputDir)
}

func (c *Config) AnimationFile(e Entry) string {
	return filepath.Join(c.resolve(c.AnimationDir), e.File)
}

func (c *Config) OutputFile(e Entry) string {
	return filepath.Join(c.OutputDirectory(), fmt.Sprintf("%s-%s.glb", c.Label, e.Name))
}
