package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Option 選択肢1件（送信値と表示名）
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Catalog 検索フィルタ（対象国・販売プラットフォーム）の選択肢
type Catalog struct {
	Countries []Option `yaml:"countries" json:"countries"`
	Platforms []Option `yaml:"platforms" json:"platforms"`
}

// DefaultCatalog は組み込みのカタログを返します。
func DefaultCatalog() *Catalog {
	catalog, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return catalog
}

// LoadCatalog はYAMLファイルからカタログを読み込みます。pathが空なら組み込みの既定値を使います。
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate 選択肢が空でなく、値が重複していないことを確認します。
func (c *Catalog) Validate() error {
	if len(c.Countries) == 0 {
		return errors.New("catalog: countries must not be empty")
	}
	if len(c.Platforms) == 0 {
		return errors.New("catalog: platforms must not be empty")
	}
	if err := checkUnique("countries", c.Countries); err != nil {
		return err
	}
	return checkUnique("platforms", c.Platforms)
}

func checkUnique(name string, options []Option) error {
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if o.Value == "" {
			return fmt.Errorf("catalog: %s contains an empty value", name)
		}
		if seen[o.Value] {
			return fmt.Errorf("catalog: duplicate %s value %q", name, o.Value)
		}
		seen[o.Value] = true
	}
	return nil
}

// NormalizeCountry 未知の国コードは先頭の選択肢に置き換えます。
func (c *Catalog) NormalizeCountry(value string) string {
	return normalize(c.Countries, value)
}

// NormalizePlatform 未知のプラットフォームは先頭の選択肢に置き換えます。
func (c *Catalog) NormalizePlatform(value string) string {
	return normalize(c.Platforms, value)
}

func normalize(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return value
		}
	}
	return options[0].Value
}
