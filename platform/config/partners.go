package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Partner is one partner's access profile.
type Partner struct {
	ID       string `yaml:"id" validate:"required"`
	URL      string `yaml:"url" validate:"required,url,startswith=http"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password" validate:"required"`
}

type partnersFile struct {
	Partners []Partner `yaml:"partners"`
}

// LoadPartners reads partner profiles from a YAML file. ${VAR} references
// are expanded from the environment. File order is fetch order.
func LoadPartners(path string) ([]Partner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read partners file: %w", err)
	}
	return ParsePartners(raw)
}

// ParsePartners decodes partner profiles from YAML.
func ParsePartners(raw []byte) ([]Partner, error) {
	var file partnersFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse partners file: %w", err)
	}
	for i := range file.Partners {
		p := &file.Partners[i]
		p.ID = os.ExpandEnv(p.ID)
		p.URL = os.ExpandEnv(p.URL)
		p.Username = os.ExpandEnv(p.Username)
		p.Password = os.ExpandEnv(p.Password)
	}
	return file.Partners, nil
}
