package seed

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Preset describes the size and shape of a seeded dataset.
type Preset struct {
	Name            string   `yaml:"name"`
	Users           int      `yaml:"users"`
	Colleges        []string `yaml:"colleges"`
	Posts           int      `yaml:"posts"`
	CommentsPerPost int      `yaml:"comments_per_post"`
	ReplyRatio      float64  `yaml:"reply_ratio"`
	VoteRatio       float64  `yaml:"vote_ratio"`
	Events          int      `yaml:"events"`
	TeamsPerEvent   int      `yaml:"teams_per_event"`
	Projects        int      `yaml:"projects"`
	Milestones      int      `yaml:"milestones"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultColleges is used when a preset names none.
var DefaultColleges = []string{
	"IIT Bombay", "IIT Delhi", "NIT Trichy", "BITS Pilani", "COEP", "VIT Vellore", "IIIT Hyderabad",
}

// DefaultPresets are available without a presets file.
var DefaultPresets = map[string]Preset{
	"small": {
		Name: "small", Users: 12, Posts: 30, CommentsPerPost: 3, ReplyRatio: 0.3, VoteRatio: 0.3,
		Events: 3, TeamsPerEvent: 2, Projects: 4, Milestones: 3,
	},
	"campus": {
		Name: "campus", Users: 120, Posts: 400, CommentsPerPost: 6, ReplyRatio: 0.35, VoteRatio: 0.2,
		Events: 15, TeamsPerEvent: 4, Projects: 40, Milestones: 5,
	},
}

// ParsePresets decodes a presets document and fills defaults.
func ParsePresets(data []byte) (map[string]Preset, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	out := make(map[string]Preset, len(file.Presets))
	for _, p := range file.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset without a name")
		}
		if _, dup := out[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		if err := p.normalize(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		out[p.Name] = p
	}
	return out, nil
}

// LoadPresets reads presets from path. A missing file yields DefaultPresets.
func LoadPresets(path string) (map[string]Preset, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultPresets, nil
	}
	if err != nil {
		return nil, err
	}
	loaded, err := ParsePresets(data)
	if err != nil {
		return nil, err
	}
	for name, p := range DefaultPresets {
		if _, ok := loaded[name]; !ok {
			loaded[name] = p
		}
	}
	return loaded, nil
}

// PresetNames lists the names in a stable order.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Preset) normalize() error {
	if p.Users < 2 {
		return fmt.Errorf("users must be at least 2")
	}
	if p.Posts < 0 || p.Events < 0 || p.Projects < 0 || p.CommentsPerPost < 0 || p.TeamsPerEvent < 0 || p.Milestones < 0 {
		return fmt.Errorf("counts cannot be negative")
	}
	if p.ReplyRatio < 0 || p.ReplyRatio > 1 || p.VoteRatio < 0 || p.VoteRatio > 1 {
		return fmt.Errorf("ratios must be between 0 and 1")
	}
	if len(p.Colleges) == 0 {
		p.Colleges = DefaultColleges
	}
	return nil
}
