package data

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	idxImagesMagic = 0x00000803
	idxLabelsMagic = 0x00000801

	// maxIDXFeatures bounds the pixels per image read from an IDX header.
	maxIDXFeatures = 1 << 20
)

type errInvalidLine struct {
	lineNum  int
	fields   int
	expected int
}

func (e errInvalidLine) Error() string {
	return fmt.Sprintf("at line %d, expected %d values, got %d",
		e.lineNum, e.expected, e.fields)
}

// ReadCSV reads digits in the "label,p0,p1,..." layout, one sample per line.
// Pixel values are kept as read. A leading header line starting with "label"
// is skipped.
func ReadCSV(r io.Reader, inputs int) (*Dataset, error) {
	if inputs <= 0 {
		return nil, errors.Errorf("input count must be positive, got %d", inputs)
	}
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var rows [][]float64
	var labels []int
	var lineNum int
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, errors.Wrapf(err, "reading line %d", lineNum)
		}
		if lineNum == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "label") {
			continue
		}
		if len(record) != inputs+1 {
			return nil, errInvalidLine{lineNum: lineNum, fields: len(record), expected: inputs + 1}
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing label at line %d", lineNum)
		}
		row := make([]float64, inputs)
		for i := range row {
			row[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing input %d at line %d", i, lineNum)
			}
		}
		rows = append(rows, row)
		labels = append(labels, label)
	}
	return newDataset(rows, labels, inputs)
}

// LoadCSV reads a CSV dataset from a file; see ReadCSV.
func LoadCSV(path string, inputs int) (*Dataset, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := ReadCSV(rc, inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return ds, nil
}

// ReadIDX reads the MNIST IDX image and label streams. Pixel values are kept
// as read, in [0, 255].
func ReadIDX(images, labels io.Reader) (*Dataset, error) {
	images, labels = bufio.NewReader(images), bufio.NewReader(labels)

	var imgHeader struct{ Magic, Count, Rows, Cols uint32 }
	if err := binary.Read(images, binary.BigEndian, &imgHeader); err != nil {
		return nil, errors.Wrap(err, "reading image header")
	}
	if imgHeader.Magic != idxImagesMagic {
		return nil, errors.Errorf("bad image file magic %#x", imgHeader.Magic)
	}
	var lblHeader struct{ Magic, Count uint32 }
	if err := binary.Read(labels, binary.BigEndian, &lblHeader); err != nil {
		return nil, errors.Wrap(err, "reading label header")
	}
	if lblHeader.Magic != idxLabelsMagic {
		return nil, errors.Errorf("bad label file magic %#x", lblHeader.Magic)
	}
	if imgHeader.Count != lblHeader.Count {
		return nil, errors.Errorf("%d images but %d labels", imgHeader.Count, lblHeader.Count)
	}

	if imgHeader.Count == 0 {
		return nil, errors.New("image file holds no images")
	}
	if imgHeader.Rows == 0 || imgHeader.Cols == 0 {
		return nil, errors.Errorf("bad image size %dx%d", imgHeader.Rows, imgHeader.Cols)
	}
	features := uint64(imgHeader.Rows) * uint64(imgHeader.Cols)
	if features > maxIDXFeatures {
		return nil, errors.Errorf("image size %dx%d exceeds %d pixels", imgHeader.Rows, imgHeader.Cols, maxIDXFeatures)
	}

	// Rows grow as data arrives; the header count is not trusted for sizing.
	n := int(imgHeader.Count)
	pixels := make([]byte, features)
	var label [1]byte
	var rows [][]float64
	var labelInts []int
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(images, pixels); err != nil {
			return nil, errors.Wrapf(err, "reading image %d", i)
		}
		if _, err := io.ReadFull(labels, label[:]); err != nil {
			return nil, errors.Wrapf(err, "reading label %d", i)
		}
		row := make([]float64, features)
		for j, p := range pixels {
			row[j] = float64(p)
		}
		rows = append(rows, row)
		labelInts = append(labelInts, int(label[0]))
	}
	return newDataset(rows, labelInts, int(features))
}

// LoadIDX reads an IDX image file and its label file. Files ending in ".gz"
// are decompressed on the fly.
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	images, err := open(imagesPath)
	if err != nil {
		return nil, err
	}
	defer images.Close()
	labels, err := open(labelsPath)
	if err != nil {
		return nil, err
	}
	defer labels.Close()

	ds, err := ReadIDX(images, labels)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", imagesPath)
	}
	return ds, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening dataset")
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "decompressing %s", path)
	}
	return gzipFile{Reader: zr, f: f}, nil
}
