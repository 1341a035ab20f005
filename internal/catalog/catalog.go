// Package catalog holds the bundled lessons shipped with the app: a YAML
// manifest plus embedded text scripts and reference audio assets.
package catalog

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml assets
var bundle embed.FS

// Entry describes one bundled lesson.
type Entry struct {
	Title      string `yaml:"title"`
	Language   string `yaml:"language"`
	Accent     string `yaml:"accent"`
	TextAsset  string `yaml:"text_asset"`
	AudioAsset string `yaml:"audio_asset"`
}

type manifest struct {
	Lessons []Entry `yaml:"lessons"`
}

// Load parses the embedded manifest and returns the bundled lesson entries
// in manifest order.
func Load() ([]Entry, error) {
	data, err := bundle.ReadFile("catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading catalog manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing catalog manifest: %w", err)
	}
	return m.Lessons, nil
}

// Text returns the lesson's script content.
func (e Entry) Text() (string, error) {
	data, err := bundle.ReadFile("assets/" + e.TextAsset)
	if err != nil {
		return "", fmt.Errorf("reading text asset %s: %w", e.TextAsset, err)
	}
	return string(data), nil
}

// Audio returns the lesson's reference audio bytes.
func (e Entry) Audio() ([]byte, error) {
	data, err := bundle.ReadFile("assets/" + e.AudioAsset)
	if err != nil {
		return nil, fmt.Errorf("reading audio asset %s: %w", e.AudioAsset, err)
	}
	return data, nil
}
