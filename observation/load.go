package observation

import (
	"os"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
	"gopkg.in/yaml.v3"
)

// document is the on-disk form of an observation. JSON files are accepted
// as they are valid YAML.
type document struct {
	Frequency float64           `yaml:"frequency"`
	Antennas  [][]float64       `yaml:"antennas,omitempty,flow"`
	UVW       [][]float64       `yaml:"uvw,omitempty,flow"`
	Vis       [][]float64       `yaml:"vis,omitempty,flow"`
	RMS       []float64         `yaml:"rms,omitempty,flow"`
	Indices   []int             `yaml:"indices,omitempty,flow"`
	Info      map[string]string `yaml:"info,omitempty"`
}

// Load reads an observation from a YAML or JSON file. Baselines are taken
// from uvw when present, otherwise derived from the antenna positions.
func Load(path string) (*Observation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read observation %s", path)
	}
	return Parse(raw)
}

// Parse decodes an observation document.
func Parse(raw []byte) (*Observation, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decode observation")
	}

	var (
		baselines operator.Baselines
		pairs     [][2]int
	)
	switch {
	case len(doc.UVW) > 0:
		for index, row := range doc.UVW {
			if len(row) != 3 {
				return nil, errors.Wrapf(errors.ErrShapeMismatch, "uvw row %d has %d entries", index, len(row))
			}
			baselines.U = append(baselines.U, row[0])
			baselines.V = append(baselines.V, row[1])
			baselines.W = append(baselines.W, row[2])
		}
	case len(doc.Antennas) > 0:
		antennas := make([][3]float64, len(doc.Antennas))
		for index, row := range doc.Antennas {
			if len(row) != 3 {
				return nil, errors.Wrapf(errors.ErrShapeMismatch, "antenna %d has %d coordinates", index, len(row))
			}
			copy(antennas[index][:], row)
		}
		pairs, baselines = AllUVW(antennas)
	default:
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrShapeMismatch, "observation has no baselines"),
			"provide either uvw or antennas")
	}

	var vis []complex128
	if len(doc.Vis) > 0 {
		vis = make([]complex128, len(doc.Vis))
		for index, pair := range doc.Vis {
			if len(pair) != 2 {
				return nil, errors.Wrapf(errors.ErrShapeMismatch, "visibility %d has %d components", index, len(pair))
			}
			vis[index] = complex(pair[0], pair[1])
		}
	}

	obs, err := New(doc.Frequency, baselines, vis, doc.RMS, doc.Indices)
	if err != nil {
		return nil, err
	}
	obs.Pairs = pairs
	obs.Info = doc.Info
	return obs, nil
}

// Save writes the observation as YAML with explicit uvw baselines.
func (o *Observation) Save(path string) error {
	raw, err := o.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "write observation %s", path)
	}
	return nil
}

// Marshal encodes the observation as YAML.
func (o *Observation) Marshal() ([]byte, error) {
	doc := document{
		Frequency: o.Frequency,
		UVW:       make([][]float64, o.NVis()),
		RMS:       o.RMS,
		Indices:   o.Indices,
		Info:      o.Info,
	}
	for index := range doc.UVW {
		doc.UVW[index] = []float64{o.Baselines.U[index], o.Baselines.V[index], o.Baselines.W[index]}
	}
	if o.Vis != nil {
		doc.Vis = make([][]float64, len(o.Vis))
		for index, v := range o.Vis {
			doc.Vis[index] = []float64{real(v), imag(v)}
		}
	}
	raw, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, errors.Wrap(err, "encode observation")
	}
	return raw, nil
}
