package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"sigmatem/internal/logger"
	"sigmatem/internal/models"
	"sigmatem/pkg/config"
	"sigmatem/pkg/dataset"
	"sigmatem/pkg/signalio"
	"sigmatem/pkg/visualization"
	"sigmatem/pkg/xray"
)

func main() {
	// Environment overrides live in an optional .env next to the data
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("SIGMATEM_CONFIG", "sigmatem.yaml"), "YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	input := flag.String("input", "", "Signal file to load")
	signalType := flag.String("type", "", "Decode the input as this signal type (EDS_TEM, EDS_SEM) before loading")
	lines := flag.String("lines", "", "Comma separated X-ray lines of interest, e.g. Fe_Ka,O_Ka")
	element := flag.String("element", "", "List the known X-ray lines of an element and exit")
	scale := flag.Float64("scale", 0, "Energy axis scale (overrides the configuration)")
	offset := flag.Float64("offset", 0, "Energy axis offset (overrides the configuration)")
	unit := flag.String("unit", "", "Energy axis unit (overrides the configuration)")
	trim := flag.Bool("trim", false, "Remove the unfilled tail rows of an interrupted scan")
	bin := flag.Int("bin", 0, "Spatial bin factor")
	preview := flag.String("preview", "", "Write a grayscale preview (.png or .jpg)")
	channel := flag.Int("channel", -1, "Preview this energy channel instead of the intensity image")
	export := flag.String("export", "", "Write the processed spectrum map to this signal file")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *element != "" {
		for _, l := range xray.Default().Lines(*element) {
			mark := ""
			if l.Estimated {
				mark = " (estimated)"
			}
			fmt.Printf("%-8s %8.4f keV%s\n", l.ID(), l.Energy, mark)
		}
		return
	}

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over the configuration
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lines":
			cfg.Lines = splitList(*lines)
		case "scale":
			cfg.Calibration.Scale = *scale
		case "offset":
			cfg.Calibration.Offset = *offset
		case "unit":
			cfg.Calibration.Unit = *unit
		case "trim":
			cfg.Processing.TrimInvalidTail = *trim
		case "bin":
			cfg.Processing.BinFactor = *bin
		case "preview":
			cfg.Output.PreviewFile = *preview
		case "export":
			cfg.Output.ExportFile = *export
		}
	})
	if lvl := os.Getenv("SIGMATEM_LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	log := logger.New(os.Stderr, level)
	if cfg.Logging.Console {
		log = logger.NewConsole(os.Stderr, level)
	}

	if err := run(cfg, *input, *signalType, *channel, log); err != nil {
		err := xerrors.New(err)
		log.Error().Err(err).Str("file", *input).Msg("processing failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, input, signalType string, channel int, log zerolog.Logger) error {
	opts := []dataset.Option{
		dataset.WithLogger(logger.Component(log, "dataset")),
		dataset.WithCalibration(cfg.Calibration),
	}
	if signalType != "" {
		opts = append(opts, dataset.WithDecoder(typedDecoder{signalType: signalType}))
	}

	d, err := dataset.Load(input, opts...)
	if err != nil {
		return err
	}

	if d.IsSpectral() {
		if len(cfg.Lines) > 0 {
			if err := d.SetLinesOfInterest(cfg.Lines); err != nil {
				return err
			}
		}
		if cfg.Processing.TrimInvalidTail {
			if err := d.TrimInvalidTail(); err != nil {
				return err
			}
		}
		if cfg.Processing.BinFactor > 1 {
			if err := d.Rebin(cfg.Processing.BinFactor); err != nil {
				return err
			}
		}
	}

	if cfg.Output.Verbose {
		printSummary(d)
	}

	if cfg.Output.PreviewFile != "" {
		if err := savePreview(d, channel, cfg.Output.PreviewFile); err != nil {
			return fmt.Errorf("failed to save preview: %w", err)
		}
		log.Info().Str("file", cfg.Output.PreviewFile).Msg("preview saved")
	}

	if cfg.Output.ExportFile != "" {
		if !d.IsSpectral() {
			return fmt.Errorf("cannot export %s: %w", input, dataset.ErrNoSpectralCube)
		}
		if err := signalio.Save(cfg.Output.ExportFile, exportSignal(d)); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		log.Info().Str("file", cfg.Output.ExportFile).Msg("spectrum map exported")
	}

	return nil
}

// typedDecoder forces a signal type at decode time
type typedDecoder struct {
	signalio.FileDecoder
	signalType string
}

func (t typedDecoder) Decode(path string) (*models.Signal, error) {
	return t.DecodeAs(path, t.signalType)
}

func printSummary(d *dataset.Dataset) {
	fmt.Println("================================")
	fmt.Printf("File: %s\n", d.Path)
	if !d.IsSpectral() {
		fmt.Printf("Image: %d x %d\n", d.Image.Rows, d.Image.Cols)
		printStats("Pixel", d.Image.Data)
		return
	}

	cube := d.SpectralCube
	cal := d.Calibration()
	fmt.Printf("Signal type: %s\n", d.SignalType)
	fmt.Printf("Spectral cube: %d x %d x %d\n", cube.Rows, cube.Cols, cube.Channels)
	fmt.Printf("Energy axis: scale %.6g %s, offset %.6g %s, range %.3f..%.3f %s\n",
		cal.Scale, cal.Unit, cal.Offset, cal.Unit,
		d.ChannelEnergy(0), d.ChannelEnergy(cube.Channels-1), cal.Unit)
	fmt.Printf("Lines of interest: %v\n", d.LinesOfInterest)
	printStats("Intensity", d.IntensityImage.Data)
	if d.BinnedSpectralCube != nil {
		fmt.Printf("Binned cube: %d x %d x %d\n",
			d.BinnedSpectralCube.Rows, d.BinnedSpectralCube.Cols, d.BinnedSpectralCube.Channels)
	}
}

func printStats(label string, data []float64) {
	if len(data) == 0 {
		fmt.Printf("%s: empty\n", label)
		return
	}
	mean, std := stat.MeanStdDev(data, nil)
	fmt.Printf("%s mean: %.4g, std: %.4g\n", label, mean, std)
}

func savePreview(d *dataset.Dataset, channel int, path string) error {
	img := d.Image
	if d.IsSpectral() {
		img = d.IntensityImage
		if channel >= 0 {
			var err error
			if img, err = visualization.ChannelImage(d.SpectralCube, channel); err != nil {
				return err
			}
		}
	}
	return visualization.NewViewer(img).Save(path)
}

// exportSignal packs the current spectral cube and calibration into a signal
func exportSignal(d *dataset.Dataset) *models.Signal {
	cube := d.SpectralCube
	data := make([]float64, len(cube.Data))
	for i, v := range cube.Data {
		data[i] = float64(v)
	}

	axes := d.Axes.Clone()
	axes[0].Size = cube.Rows

	meta := map[string]string{}
	for k, v := range d.Metadata {
		meta[k] = v
	}
	if len(d.LinesOfInterest) > 0 {
		meta["xray_lines"] = strings.Join(d.LinesOfInterest, ",")
	}

	return &models.Signal{
		Kind:       models.KindSpectrum,
		SignalType: d.SignalType,
		DType:      "float32",
		Shape:      []int{cube.Rows, cube.Cols, cube.Channels},
		Data:       data,
		Axes:       axes,
		Metadata:   meta,
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
