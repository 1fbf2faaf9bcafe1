// Package config — .comkit.yaml configuration file support.
//
// When a .comkit.yaml file exists in the run root, its values replace the
// built-in defaults. Command-line flags still override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name looked up in the run root.
const FileName = ".comkit.yaml"

// File is the top-level .comkit.yaml structure.
type File struct {
	// Extensions lists source file extensions to scan.
	Extensions []string `yaml:"extensions,omitempty"`
	// EscapeTabs controls tab escaping in export files.
	EscapeTabs *bool `yaml:"escape_tabs,omitempty"`
	// Decoration is the rune set stripped from block comment line starts.
	Decoration string `yaml:"decoration,omitempty"`
	// LiteralAware skips comment markers inside string and character
	// literals during scanning.
	LiteralAware bool `yaml:"literal_aware,omitempty"`
	// IntermediaryDir receives the placeholder-substituted tree.
	IntermediaryDir string `yaml:"intermediary_dir,omitempty"`
	// OutputDir receives the reinserted tree.
	OutputDir string `yaml:"output_dir,omitempty"`
	// Report is the xlsx report file name.
	Report string `yaml:"report,omitempty"`
	// Translations is the translated file read back at re-insertion.
	Translations string `yaml:"translations,omitempty"`
	// Exports names the three export files written at extraction.
	Exports Exports `yaml:"exports,omitempty"`
}

// Exports names the translation export files.
type Exports struct {
	Segmented string `yaml:"segmented,omitempty"`
	Tabular   string `yaml:"tabular,omitempty"`
	Bulk      string `yaml:"bulk,omitempty"`
}

// Default returns the built-in configuration.
func Default() *File {
	escape := true
	return &File{
		Extensions:      []string{".hpp", ".cpp", ".tpp", ".h"},
		EscapeTabs:      &escape,
		Decoration:      "*",
		IntermediaryDir: "intermediary_dir",
		OutputDir:       "output_dir",
		Report:          "source_code_comments.xlsx",
		Translations:    "translated_comments.txt",
		Exports: Exports{
			Segmented: "comments_to_translate_segmented.txt",
			Tabular:   "comments_to_translate_tsv.txt",
			Bulk:      "comments_to_translate_bulk.txt",
		},
	}
}

// Load reads .comkit.yaml from rootDir on top of the defaults. A missing
// file is not an error; the defaults are returned as-is.
func Load(rootDir string) (*File, error) {
	cfg := Default()

	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// Unmarshal over the defaults so absent keys keep their values.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = Default().Extensions
	}
	if cfg.EscapeTabs == nil {
		cfg.EscapeTabs = Default().EscapeTabs
	}
	return cfg, nil
}

// ShouldEscape reports the effective tab escaping choice.
func (f *File) ShouldEscape() bool {
	return f.EscapeTabs == nil || *f.EscapeTabs
}
