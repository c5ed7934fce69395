package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CPUList is an ordered set of logical cpu identifiers. In config
// files it decodes from either a plain list of integers or the CLI
// range string ("1,4-6"), so both file schemas name the same cpus.
type CPUList []int

func (l *CPUList) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*l = nil
		return nil
	}
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		cpus, err := ParseCPUList(s)
		if err != nil {
			return err
		}
		*l = cpus
		return nil
	}
	var cpus []int
	if err := value.Decode(&cpus); err != nil {
		return err
	}
	*l = cpus
	return nil
}

func (l *CPUList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		cpus, err := ParseCPUList(s)
		if err != nil {
			return err
		}
		*l = cpus
		return nil
	}
	var cpus []int
	if err := json.Unmarshal(data, &cpus); err != nil {
		return err
	}
	*l = cpus
	return nil
}

// ParseCPUList expands a comma-separated cpu list into individual
// identifiers. Tokens are single non-negative integers or inclusive
// ranges "A-B" with A <= B, eg "1,4-6,8-12,15". Duplicates and
// unordered tokens are kept exactly as written.
func ParseCPUList(list string) ([]int, error) {
	var cpus []int
	for _, token := range strings.Split(strings.TrimSpace(list), ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("empty cpu token in list %q", list)
		}

		if begin, end, ok := strings.Cut(token, "-"); ok {
			lo, err := parseCPU(begin)
			if err != nil {
				return nil, err
			}
			hi, err := parseCPU(end)
			if err != nil {
				return nil, err
			}
			if lo > hi {
				return nil, fmt.Errorf("invalid cpu range %q: begin exceeds end", token)
			}
			for cpu := lo; cpu <= hi; cpu++ {
				cpus = append(cpus, cpu)
			}
			continue
		}

		cpu, err := parseCPU(token)
		if err != nil {
			return nil, err
		}
		cpus = append(cpus, cpu)
	}
	return cpus, nil
}

func parseCPU(s string) (int, error) {
	cpu, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || cpu < 0 {
		return 0, fmt.Errorf("unable to parse cpu %q", s)
	}
	return cpu, nil
}
