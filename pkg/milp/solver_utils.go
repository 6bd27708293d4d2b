package milp

import (
	"encoding/json"
	"os"
	"regexp"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

var ConfigPath = "../../config.json"

type solverConfig struct {
	CbcPath   string `mapstructure:"cbcPath"`
	HighsPath string `mapstructure:"highsPath"`
}

// Resolves a solver executable from the config file, falling back to the bare executable name
func getExecutablePath(key, fallback string) string {
	bytes, err := os.ReadFile(ConfigPath)
	if err != nil {
		return fallback
	}

	var configJson map[string]any
	if err := json.Unmarshal(bytes, &configJson); err != nil {
		return fallback
	}

	var config solverConfig
	if err := mapstructure.Decode(configJson, &config); err != nil {
		return fallback
	}

	path := map[string]string{
		"cbcPath":   config.CbcPath,
		"highsPath": config.HighsPath,
	}[key]
	if path == "" {
		return fallback
	}
	return path
}

// Extracts the first numeric capture of the pattern, or the fallback when absent
func parseFloatMatch(pattern *regexp.Regexp, output string, fallback float64) float64 {
	match := pattern.FindStringSubmatch(output)
	if match == nil {
		return fallback
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return fallback
	}
	return value
}

// Maps name-keyed values onto the model's variable order; absent variables take their lower bound
func valuesByName(model *Model, named map[string]float64) []float64 {
	values := make([]float64, len(model.Variables))
	for _, variable := range model.Variables {
		value, ok := named[variable.Name]
		if !ok {
			value = variable.Lower
		}
		values[variable.Index] = value
	}
	return values
}

func writeTempFile(pattern, content string) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}
