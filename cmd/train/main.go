// digitnet-train: trains a feedforward network on MNIST digits and prints a
// classification report for the held-out set.
//
// Usage:
//
//	digitnet-train --train-csv=mnist.csv --train-size=60000 --arch=784,100,10 --lr=0.02 --epochs=10
//	digitnet-train --train-images=train-images-idx3-ubyte.gz --train-labels=train-labels-idx1-ubyte.gz \
//	    --test-images=t10k-images-idx3-ubyte.gz --test-labels=t10k-labels-idx1-ubyte.gz
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"digitnet/data"
	"digitnet/eval"
	"digitnet/nn"
	"digitnet/utils"
)

var (
	name          = flag.String("name", "mnist", "Run name used in the analysis log")
	arch          = flag.String("arch", "784,100,10", "Layer widths, input first")
	activation    = flag.String("activation", "sigmoid", "Activation function: sigmoid, relu")
	learningRate  = flag.Float64("lr", 0.02, "Learning rate")
	epochs        = flag.Int("epochs", 10, "Number of training epochs")
	displayUpdate = flag.Int("display", 1, "Report the training loss every N epochs")
	seed          = flag.Uint64("seed", 42, "Random seed for initialization and shuffling")
	trainCSV      = flag.String("train-csv", "", "Training set in label,pixels CSV")
	testCSV       = flag.String("test-csv", "", "Test set in label,pixels CSV")
	trainImages   = flag.String("train-images", "", "Training images in IDX format")
	trainLabels   = flag.String("train-labels", "", "Training labels in IDX format")
	testImages    = flag.String("test-images", "", "Test images in IDX format")
	testLabels    = flag.String("test-labels", "", "Test labels in IDX format")
	trainSize     = flag.Int("train-size", 60000, "Samples used for training when no test set is given")
	classes       = flag.Int("classes", 10, "Number of classes")
	analysisCSV   = flag.String("analysis", "", "Append a summary row to this CSV file")
	verbose       = flag.Bool("verbose", true, "Print timing statistics")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	layers, err := utils.ParseArchitecture(*arch)
	if err != nil {
		log.Fatalf("parsing architecture: %v", err)
	}
	config := &utils.Config{
		Name:           *name,
		Architecture:   layers,
		Activation:     *activation,
		LearningRate:   *learningRate,
		Epochs:         *epochs,
		DisplayUpdate:  *displayUpdate,
		Seed:           *seed,
		TrainCSV:       *trainCSV,
		TestCSV:        *testCSV,
		TrainImagesIDX: *trainImages,
		TrainLabelsIDX: *trainLabels,
		TestImagesIDX:  *testImages,
		TestLabelsIDX:  *testLabels,
		TrainSize:      *trainSize,
		Classes:        *classes,
		AnalysisCSV:    *analysisCSV,
	}
	if err := utils.ValidateConfig(config); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := run(config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(config *utils.Config) error {
	var stats utils.TimingStats
	totalStart := time.Now()

	start := time.Now()
	train, test, err := loadDatasets(config)
	if err != nil {
		return err
	}
	stats.DataLoadingTime = time.Since(start)
	fmt.Printf("[INFO] %d training samples, %d test samples\n", train.Len(), test.Len())

	trainY, err := data.OneHot(train.Labels, config.Classes)
	if err != nil {
		return err
	}

	start = time.Now()
	net, err := nn.New(nn.Config{
		Layers:     config.Architecture,
		Alpha:      config.LearningRate,
		Activation: config.Activation,
		Seed:       config.Seed,
		Reporter:   nn.NewWriterReporter(os.Stdout),
	})
	if err != nil {
		return err
	}
	stats.ModelInitTime = time.Since(start)
	fmt.Printf("[INFO] %s\n", net)

	trainStart := time.Now()
	if err := net.Train(train.X, trainY, config.Epochs, config.DisplayUpdate); err != nil {
		return err
	}
	trainTime := time.Since(trainStart)

	predictions, err := net.Predict(test.X, true)
	if err != nil {
		return err
	}
	report := eval.Classification(eval.Argmax(predictions), test.Labels, config.Classes)
	fmt.Println(report)

	if config.AnalysisCSV != "" {
		err := eval.AppendAnalysis(config.AnalysisCSV, eval.AnalysisRecord{
			Name:       config.Name,
			Topology:   net.String(),
			Activation: config.Activation,
			Alpha:      config.LearningRate,
			Epochs:     config.Epochs,
			Samples:    train.Len(),
			EndTime:    time.Now(),
			Duration:   trainTime,
			Accuracy:   report.Accuracy,
		})
		if err != nil {
			return err
		}
	}

	stats.Add(net.Stats())
	stats.TotalTime = time.Since(totalStart)
	utils.PrintTimingStats(&stats, config.Epochs*train.Len())
	return nil
}

// loadDatasets reads, normalizes and splits the configured data. Only the
// training set is shuffled.
func loadDatasets(config *utils.Config) (train, test *data.Dataset, err error) {
	inputs := config.Architecture[0]
	if config.TrainCSV != "" {
		train, err = data.LoadCSV(config.TrainCSV, inputs)
		if err == nil && config.TestCSV != "" {
			test, err = data.LoadCSV(config.TestCSV, inputs)
		}
	} else {
		train, err = data.LoadIDX(config.TrainImagesIDX, config.TrainLabelsIDX)
		if err == nil && config.TestImagesIDX != "" {
			test, err = data.LoadIDX(config.TestImagesIDX, config.TestLabelsIDX)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	// A separate test set is scaled by the training set's range.
	lo, hi := data.Range(train.X)
	train.X = data.Rescale(train.X, lo, hi)
	if test == nil {
		train, test, err = data.Split(train, config.TrainSize)
		if err != nil {
			return nil, nil, err
		}
	} else {
		test.X = data.Rescale(test.X, lo, hi)
	}

	if train.Features() != inputs || test.Features() != inputs {
		return nil, nil, errors.Errorf("data has %d features, network expects %d", train.Features(), inputs)
	}
	train = data.Shuffle(train, rand.NewSource(config.Seed))
	return train, test, nil
}
