package fleet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/robofleet/core/model"
)

type seedFile struct {
	Robots []model.Robot `yaml:"robots"`
}

// ParseSeed decodes a YAML fleet description:
//
//	robots:
//	  - robotId: R2D1
//	    name: Robo-1
//	    status: On Delivery
//	    batteryLevel: 34
func ParseSeed(data []byte) ([]model.Robot, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return f.Robots, nil
}

// LoadSeed reads and decodes the seed file at path.
func LoadSeed(path string) ([]model.Robot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}
