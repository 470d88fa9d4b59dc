package observation

import (
	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/operator"
)

// AllUVW returns one baseline per antenna pair i < j with
// (u, v, w) = pos[i] - pos[j].
func AllUVW(antennas [][3]float64) (pairs [][2]int, baselines operator.Baselines) {
	for i := range antennas {
		for j := i + 1; j < len(antennas); j++ {
			pairs = append(pairs, [2]int{i, j})
			baselines.U = append(baselines.U, antennas[i][0]-antennas[j][0])
			baselines.V = append(baselines.V, antennas[i][1]-antennas[j][1])
			baselines.W = append(baselines.W, antennas[i][2]-antennas[j][2])
		}
	}
	return pairs, baselines
}

// FromAntennas returns an observation without visibilities over every
// antenna pair.
func FromAntennas(antennas [][3]float64, frequency float64) (*Observation, error) {
	if len(antennas) < 2 {
		return nil, errors.Wrapf(errors.ErrShapeMismatch, "%d antennas form no baseline", len(antennas))
	}
	pairs, baselines := AllUVW(antennas)
	obs, err := New(frequency, baselines, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	obs.Pairs = pairs
	return obs, nil
}
