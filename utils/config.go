package utils

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Config holds training configuration
type Config struct {
	Name          string
	Architecture  []int
	Activation    string
	LearningRate  float64
	Epochs        int
	DisplayUpdate int
	Seed          uint64

	// Either TrainCSV (optionally with TestCSV) or the four IDX paths.
	TrainCSV       string
	TestCSV        string
	TrainImagesIDX string
	TrainLabelsIDX string
	TestImagesIDX  string
	TestLabelsIDX  string

	// TrainSize splits a single dataset into train and test when no
	// separate test set is given.
	TrainSize   int
	Classes     int
	AnalysisCSV string
}

// ParseArchitecture parses an architecture string such as "784 100 10" or
// "784,100,10" into layer widths.
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.FieldsFunc(archStr, func(r rune) bool {
		return r == ',' || r == ' ' || r == '-' || r == '\t'
	})
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateConfig validates training configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return errors.New("architecture must have at least 2 layers (input and output)")
	}
	for i, n := range config.Architecture {
		if n <= 0 {
			return errors.Errorf("layer %d must have a positive width, got %d", i, n)
		}
	}

	if config.Activation != "sigmoid" && config.Activation != "relu" {
		return errors.Errorf("unsupported activation %q", config.Activation)
	}

	if config.LearningRate <= 0 {
		return errors.New("learning rate must be positive")
	}

	if config.Epochs <= 0 {
		return errors.New("epochs must be positive")
	}

	if config.DisplayUpdate <= 0 {
		return errors.New("display interval must be positive")
	}

	if config.Classes != config.Architecture[len(config.Architecture)-1] {
		return errors.Errorf("output layer has %d units for %d classes",
			config.Architecture[len(config.Architecture)-1], config.Classes)
	}

	csvSet := config.TrainCSV != ""
	idxSet := config.TrainImagesIDX != "" || config.TrainLabelsIDX != ""
	switch {
	case csvSet && idxSet:
		return errors.New("give either a CSV or an IDX training set, not both")
	case !csvSet && !idxSet:
		return errors.New("no training data given")
	case idxSet && (config.TrainImagesIDX == "" || config.TrainLabelsIDX == ""):
		return errors.New("IDX training set needs both images and labels")
	case idxSet && (config.TestImagesIDX == "") != (config.TestLabelsIDX == ""):
		return errors.New("IDX test set needs both images and labels")
	}

	if !config.HasTestSet() && config.TrainSize <= 0 {
		return errors.New("train size must be positive when no test set is given")
	}

	return nil
}

// HasTestSet reports whether a separate test set is configured.
func (c *Config) HasTestSet() bool {
	return c.TestCSV != "" || c.TestImagesIDX != ""
}
