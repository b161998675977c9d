package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"gopkg.in/yaml.v3"
)

//go:embed assets/index.html.tmpl assets/locales.yaml
var assets embed.FS

// Catalog maps a language code to its UI strings.
type Catalog map[string]map[string]string

// Text returns the strings for lang, falling back to English.
func (c Catalog) Text(lang settings.Language) map[string]string {
	if t, ok := c[lang.String()]; ok {
		return t
	}
	return c[settings.LanguageEN.String()]
}

// PageData is everything the control page shows.
type PageData struct {
	DeviceName          string
	Address             string
	Lang                string
	Text                map[string]string
	Manual              bool
	InvertLogic         bool
	SensorMaxBrightness int
	Target              int
	TargetPercent       int
	Idle                string
}

// Renderer turns a controller snapshot into the control page.
type Renderer struct {
	tmpl    *template.Template
	catalog Catalog
}

func NewRenderer() (*Renderer, error) {
	raw, err := assets.ReadFile("assets/locales.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse locales: %w", err)
	}
	if _, ok := catalog[settings.LanguageEN.String()]; !ok {
		return nil, fmt.Errorf("locales: missing %q catalog", settings.LanguageEN.String())
	}

	tmpl, err := template.ParseFS(assets, "assets/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	return &Renderer{tmpl: tmpl, catalog: catalog}, nil
}

func (r *Renderer) Catalog() Catalog {
	return r.catalog
}

// Data builds the template input from a snapshot. It has no side effects.
func (r *Renderer) Data(snap dimmer.Snapshot, deviceName, address string) PageData {
	cfg := snap.Configuration
	return PageData{
		DeviceName:          deviceName,
		Address:             address,
		Lang:                cfg.Language.String(),
		Text:                r.catalog.Text(cfg.Language),
		Manual:              cfg.Mode == settings.ModeManual,
		InvertLogic:         cfg.InvertLogic,
		SensorMaxBrightness: cfg.SensorMaxBrightness,
		Target:              snap.Brightness.Target,
		TargetPercent:       snap.Brightness.Target * 100 / settings.MaxLevel,
		Idle:                snap.IdleDuration.Truncate(time.Second).String(),
	}
}

// Render returns the HTML document for snap.
func (r *Renderer) Render(snap dimmer.Snapshot, deviceName, address string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, r.Data(snap, deviceName, address)); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
