package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"runedeep/server/models"
)

// themeFile is the on-disk layout of a theme catalog
type themeFile struct {
	Themes []models.Theme `yaml:"themes"`
}

// ThemeCatalog holds named theme presets. It is safe for concurrent use; the
// watcher replaces the contents while sessions read them.
type ThemeCatalog struct {
	mutex  sync.RWMutex
	themes map[string]models.Theme
}

// NewThemeCatalog creates a catalog from the given presets
func NewThemeCatalog(themes ...models.Theme) *ThemeCatalog {
	c := &ThemeCatalog{}
	c.Replace(themes)
	return c
}

// ParseThemes decodes a YAML theme catalog
func ParseThemes(data []byte) ([]models.Theme, error) {
	var file themeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse theme catalog: %w", err)
	}
	for i, t := range file.Themes {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("theme %d has no name", i)
		}
	}
	return file.Themes, nil
}

// LoadThemeCatalog reads a YAML theme catalog from disk
func LoadThemeCatalog(path string) (*ThemeCatalog, error) {
	themes, err := readThemes(path)
	if err != nil {
		return nil, err
	}
	return NewThemeCatalog(themes...), nil
}

func readThemes(path string) ([]models.Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme catalog %s: %w", path, err)
	}
	return ParseThemes(data)
}

// Replace swaps the catalog contents
func (c *ThemeCatalog) Replace(themes []models.Theme) {
	m := make(map[string]models.Theme, len(themes))
	for _, t := range themes {
		m[strings.ToLower(t.Name)] = t
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.themes = m
}

// Reload re-reads the catalog from disk, keeping the old contents on error
func (c *ThemeCatalog) Reload(path string) error {
	themes, err := readThemes(path)
	if err != nil {
		return err
	}
	c.Replace(themes)
	return nil
}

// Theme looks up a preset by case-insensitive name
func (c *ThemeCatalog) Theme(name string) (models.Theme, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	t, ok := c.themes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Len returns the number of presets
func (c *ThemeCatalog) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.themes)
}
