package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/ghodss/yaml"
	"github.com/segmentio/kassigner/pkg/source"
)

// LoadPlannerFile loads a PlannerConfig from a path to a YAML file.
func LoadPlannerFile(path string, expandEnv bool) (PlannerConfig, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return PlannerConfig{}, err
	}

	if expandEnv {
		contents = []byte(os.ExpandEnv(string(contents)))
	}

	return LoadPlannerBytes(contents)
}

// LoadPlannerBytes loads a PlannerConfig from YAML bytes. Fields that PlannerConfig
// doesn't have are an error.
func LoadPlannerBytes(contents []byte) (PlannerConfig, error) {
	config := PlannerConfig{}
	if err := unmarshalYAMLStrict(contents, &config); err != nil {
		return config, err
	}

	if config.Spec.SASL.Mechanism != "" {
		if mechanism, err := source.SASLNameToMechanism(string(config.Spec.SASL.Mechanism)); err == nil {
			config.Spec.SASL.Mechanism = mechanism
		}
	}
	return config, nil
}

func unmarshalYAMLStrict(y []byte, o interface{}) error {
	jsonBytes, err := yaml.YAMLToJSON(y)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(o)
}
