package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Site is the static definition of the guide site: navigation, games and
// chapters offered by the pickers, and the downloadable resources.
type Site struct {
	Name      string        `yaml:"name"`
	StartedAt time.Time     `yaml:"started_at"`
	Nav       []NavItem     `yaml:"nav"`
	Games     []GameDef     `yaml:"games"`
	Resources []ResourceDef `yaml:"resources"`
}

// NavItem is a navbar link
type NavItem struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// GameDef is a game option in the game picker
type GameDef struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Chapters []ChapterDef `yaml:"chapters"`
}

// ChapterDef is a chapter option in the chapter picker
type ChapterDef struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ResourceDef is a downloadable resource
type ResourceDef struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	URL         string `yaml:"url"`
	Size        string `yaml:"size"`
}

// DefaultSite returns the built-in site definition used when no file is present
func DefaultSite() *Site {
	return &Site{
		Name:      "传说之下攻略站",
		StartedAt: time.Date(2026, time.January, 1, 1, 29, 0, 0, time.FixedZone("CST", 8*3600)),
		Nav: []NavItem{
			{Key: "home", Label: "首页", Path: "/"},
			{Key: "content", Label: "视频攻略", Path: "/content"},
			{Key: "download", Label: "资源下载", Path: "/resources"},
		},
		Games: []GameDef{
			{ID: "undertale", Name: "传说之下 Undertale"},
			{ID: "deltarune", Name: "三角符文 Deltarune", Chapters: []ChapterDef{
				{ID: "all", Name: "全部章节"},
				{ID: "1", Name: "第一章"},
				{ID: "2", Name: "第二章"},
				{ID: "3", Name: "第三章"},
				{ID: "4", Name: "第四章"},
			}},
		},
	}
}

// LoadSite reads the YAML site definition at path.
// A missing file yields DefaultSite; a malformed one is an error.
func LoadSite(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSite(), nil
		}
		return nil, fmt.Errorf("failed to read site file %s: %w", path, err)
	}
	return ParseSite(data)
}

// ParseSite decodes and validates a YAML site definition.
// Missing sections are filled from DefaultSite.
func ParseSite(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}

	defaults := DefaultSite()
	if site.Name == "" {
		site.Name = defaults.Name
	}
	if site.StartedAt.IsZero() {
		site.StartedAt = defaults.StartedAt
	}
	if len(site.Nav) == 0 {
		site.Nav = defaults.Nav
	}
	if len(site.Games) == 0 {
		site.Games = defaults.Games
	}

	if err := site.validate(); err != nil {
		return nil, fmt.Errorf("site validation failed: %w", err)
	}
	return &site, nil
}

func (s *Site) validate() error {
	seenGames := make(map[string]bool)
	for _, g := range s.Games {
		if g.ID == "" {
			return fmt.Errorf("game without id")
		}
		if seenGames[g.ID] {
			return fmt.Errorf("duplicate game id %q", g.ID)
		}
		seenGames[g.ID] = true
	}

	seenResources := make(map[string]bool)
	for _, r := range s.Resources {
		if r.ID == "" {
			return fmt.Errorf("resource without id")
		}
		if seenResources[r.ID] {
			return fmt.Errorf("duplicate resource id %q", r.ID)
		}
		if r.Category == "" || r.Category == "all" {
			return fmt.Errorf("resource %q needs a concrete category", r.ID)
		}
		seenResources[r.ID] = true
	}
	return nil
}

// Game returns the definition of a game by id
func (s *Site) Game(id string) (GameDef, bool) {
	for _, g := range s.Games {
		if g.ID == id {
			return g, true
		}
	}
	return GameDef{}, false
}
