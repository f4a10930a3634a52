// Package inventory supplies the list of installed application names.
package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultApps is the simulated inventory used when no app list exists.
var DefaultApps = []string{"Chrome", "Spotify", "Discord", "Visual Studio", "OBS"}

// FileSource reads the app list from a YAML file of the form:
//
//	apps:
//	  - Spotify
//	  - Discord
type FileSource struct {
	Path string
}

type appsFile struct {
	Apps []string `yaml:"apps"`
}

// ListInstalledApps reads the file. A missing file yields DefaultApps.
func (s FileSource) ListInstalledApps(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Path) == "" {
		return append([]string(nil), DefaultApps...), nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return append([]string(nil), DefaultApps...), nil
		}
		return nil, fmt.Errorf("read app list: %w", err)
	}
	return Parse(data)
}

// Parse decodes an app list document. Blank and repeated names are
// dropped; order is kept.
func Parse(data []byte) ([]string, error) {
	var doc appsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse app list: %w", err)
	}

	apps := make([]string, 0, len(doc.Apps))
	seen := make(map[string]bool, len(doc.Apps))
	for _, name := range doc.Apps {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		apps = append(apps, name)
	}
	return apps, nil
}
