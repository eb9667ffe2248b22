package cost

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadRates reads a pricing override file. Providers absent from the file
// keep their defaults, so a file can pin just the models it cares about.
func LoadRates(path string) (Rates, error) {
	rates := DefaultRates()

	data, err := os.ReadFile(path)
	if err != nil {
		return rates, eris.Wrap(err, "cost: read rates file")
	}

	var override Rates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rates, eris.Wrap(err, "cost: parse rates file")
	}

	for model, rate := range override.Anthropic {
		rates.Anthropic[model] = rate
	}
	if override.Voyage.PerMTok > 0 {
		rates.Voyage = override.Voyage
	}
	return rates, nil
}
