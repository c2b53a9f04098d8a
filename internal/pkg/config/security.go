package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SecurityRules is the on-disk denylist consumed by the security classifier.
//
//	denylist:
//	  - M-ALAM
//	  - ${EXTRA_SENSITIVE_CODE}
//	restrict_unknown_taxa: false
type SecurityRules struct {
	Denylist            []string `yaml:"denylist"`
	RestrictUnknownTaxa *bool    `yaml:"restrict_unknown_taxa"`
}

// LoadSecurityRules reads a rules file, expanding ${VAR} references from the
// environment first. Blank codes are dropped; an empty denylist is an error.
func LoadSecurityRules(path string) (*SecurityRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read security rules: %w", err)
	}
	return ParseSecurityRules(data)
}

// ParseSecurityRules parses rules from YAML bytes.
func ParseSecurityRules(data []byte) (*SecurityRules, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var rules SecurityRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse security rules: %w", err)
	}

	codes := rules.Denylist[:0]
	for _, code := range rules.Denylist {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	rules.Denylist = codes
	if len(rules.Denylist) == 0 {
		return nil, fmt.Errorf("security rules: denylist is empty")
	}
	return &rules, nil
}

// Denylist resolves the effective taxon denylist and unknown-taxa posture.
// A nil slice means no rules file is configured and the built-in defaults apply.
// A restrict_unknown_taxa value in the rules file overrides the service setting.
func (s SecurityConfig) Denylist() ([]string, bool, error) {
	if s.RulesFile == "" {
		return nil, s.RestrictUnknownTaxa, nil
	}
	rules, err := LoadSecurityRules(s.RulesFile)
	if err != nil {
		return nil, false, err
	}
	restrict := s.RestrictUnknownTaxa
	if rules.RestrictUnknownTaxa != nil {
		restrict = *rules.RestrictUnknownTaxa
	}
	return rules.Denylist, restrict, nil
}
