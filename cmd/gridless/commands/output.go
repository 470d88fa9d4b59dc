package commands

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/hammal/gridless/errors"
	"github.com/hammal/gridless/logger"
	"github.com/hammal/gridless/observation"
	"github.com/hammal/gridless/reconstruct"
	"github.com/hammal/gridless/sky"
)

// prepare loads the observation at path and builds the configured sphere and
// an engine over them.
func prepare(path string) (*sky.Healpix, *reconstruct.Engine, error) {
	obs, err := observation.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := obs.VisStats(); err != nil {
		return nil, nil, err
	}
	sphere, err := cfg.Sphere()
	if err != nil {
		return nil, nil, err
	}
	engine, err := reconstruct.New(reconstruct.FromObservation(obs), sphere,
		reconstruct.WithSink(logger.ComponentLogger("reconstruct")),
		reconstruct.WithScale(cfg.Output.Scale),
		reconstruct.WithWorkers(cfg.Solver.Workers),
	)
	if err != nil {
		return nil, nil, err
	}
	return sphere, engine, nil
}

// writeOutputs writes the sphere's pixels, and std when not nil, to the
// configured CSV file and renders the configured image.
func writeOutputs(sphere *sky.Healpix, std []float64) error {
	sphere.Stats().Log(logger.ComponentLogger("sky"))
	if cfg.Output.CSV != "" {
		if err := writeCSV(cfg.Output.CSV, sphere, std); err != nil {
			return err
		}
	}
	if cfg.Output.Image != "" {
		if err := sky.Render(sphere, cfg.Output.Image, sky.RenderOptions{Title: cfg.Output.Title}); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, sphere *sky.Healpix, std []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	w := csv.NewWriter(f)
	header := []string{"pixel", "el", "az", "l", "m", "value"}
	if std != nil {
		header = append(header, "std")
	}
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
	pixels := sphere.Pixels()
	for index := range pixels {
		row := []string{
			strconv.Itoa(sphere.Indices()[index]),
			format(sphere.El()[index]),
			format(sphere.Az()[index]),
			format(sphere.L()[index]),
			format(sphere.M()[index]),
			format(pixels[index]),
		}
		if std != nil {
			row = append(row, format(std[index]))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
