package data

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestReadCSV(t *testing.T) {
	in := "label,p0,p1,p2\n3,0,128,255\n7,255,0,1\n"
	ds, err := ReadCSV(strings.NewReader(in), 3)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 3, ds.Features())
	assert.Equal(t, []int{3, 7}, ds.Labels)
	assert.Equal(t, []float64{0, 128, 255}, ds.X.RawRowView(0))
	assert.Equal(t, []float64{255, 0, 1}, ds.X.RawRowView(1))
}

func TestReadCSVInvalidLine(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,2,3\n4,5\n"), 2)
	require.Error(t, err)

	var invalid errInvalidLine
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.lineNum)
	assert.Equal(t, "at line 2, expected 3 values, got 2", err.Error())
}

func TestReadCSVBadValues(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("x,1\n"), 1)
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("1,abc\n"), 1)
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader(""), 1)
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("1\n"), 0)
	assert.Error(t, err)
}

func idxBytes(t *testing.T, images [][]byte, labels []byte, rows, cols uint32) ([]byte, []byte) {
	t.Helper()
	var img, lbl bytes.Buffer
	require.NoError(t, binary.Write(&img, binary.BigEndian, []uint32{idxImagesMagic, uint32(len(images)), rows, cols}))
	for _, im := range images {
		img.Write(im)
	}
	require.NoError(t, binary.Write(&lbl, binary.BigEndian, []uint32{idxLabelsMagic, uint32(len(labels))}))
	lbl.Write(labels)
	return img.Bytes(), lbl.Bytes()
}

func TestReadIDX(t *testing.T) {
	img, lbl := idxBytes(t, [][]byte{{0, 1, 2, 3}, {255, 254, 253, 252}}, []byte{5, 9}, 2, 2)

	ds, err := ReadIDX(bytes.NewReader(img), bytes.NewReader(lbl))
	require.NoError(t, err)
	assert.Equal(t, []int{5, 9}, ds.Labels)
	assert.Equal(t, 4, ds.Features())
	assert.Equal(t, []float64{255, 254, 253, 252}, ds.X.RawRowView(1))
}

func TestReadIDXErrors(t *testing.T) {
	img, lbl := idxBytes(t, [][]byte{{0, 1}}, []byte{1, 2}, 1, 2)
	_, err := ReadIDX(bytes.NewReader(img), bytes.NewReader(lbl))
	assert.Error(t, err, "count mismatch")

	_, err = ReadIDX(bytes.NewReader(lbl), bytes.NewReader(lbl))
	assert.Error(t, err, "wrong magic")

	img, lbl = idxBytes(t, [][]byte{{0}}, []byte{1}, 1, 2)
	_, err = ReadIDX(bytes.NewReader(img), bytes.NewReader(lbl))
	assert.Error(t, err, "truncated image")
}

func TestReadIDXRejectsBadHeaders(t *testing.T) {
	header := func(magic, count, rows, cols uint32) []byte {
		var b bytes.Buffer
		require.NoError(t, binary.Write(&b, binary.BigEndian, []uint32{magic, count, rows, cols}))
		return b.Bytes()
	}
	labels := func(count uint32) []byte {
		var b bytes.Buffer
		require.NoError(t, binary.Write(&b, binary.BigEndian, []uint32{idxLabelsMagic, count}))
		return b.Bytes()
	}

	cases := map[string]struct {
		images []byte
		labels []byte
	}{
		"zero cols":    {header(idxImagesMagic, 2, 28, 0), labels(2)},
		"zero rows":    {header(idxImagesMagic, 2, 0, 28), labels(2)},
		"no images":    {header(idxImagesMagic, 0, 28, 28), labels(0)},
		"oversized":    {header(idxImagesMagic, 0xFFFFFFF0, 65536, 65536), labels(0xFFFFFFF0)},
		"huge count":   {header(idxImagesMagic, 0xFFFFFFF0, 28, 28), labels(0xFFFFFFF0)},
		"short label":  {append(header(idxImagesMagic, 1, 1, 1), 7), labels(1)},
		"short header": {header(idxImagesMagic, 1, 1, 1)[:10], labels(1)},
		"label header": {header(idxImagesMagic, 1, 1, 1), labels(1)[:6]},
	}
	for name, tc := range cases {
		var ds *Dataset
		var err error
		require.NotPanics(t, func() {
			ds, err = ReadIDX(bytes.NewReader(tc.images), bytes.NewReader(tc.labels))
		}, name)
		assert.Error(t, err, name)
		assert.Nil(t, ds, name)
	}
}

func TestLoadIDXGzip(t *testing.T) {
	img, lbl := idxBytes(t, [][]byte{{10, 20}, {30, 40}, {50, 60}}, []byte{0, 1, 2}, 1, 2)
	dir := t.TempDir()

	imgPath := filepath.Join(dir, "images.idx.gz")
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, err := zw.Write(img)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(imgPath, zipped.Bytes(), 0644))

	lblPath := filepath.Join(dir, "labels.idx")
	require.NoError(t, os.WriteFile(lblPath, lbl, 0644))

	ds, err := LoadIDX(imgPath, lblPath)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []float64{50, 60}, ds.X.RawRowView(2))

	_, err = LoadIDX(filepath.Join(dir, "missing"), lblPath)
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digits.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,0.5,0.25\n"), 0644))

	ds, err := LoadCSV(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ds.Labels)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), 2)
	assert.Error(t, err)
}

func TestMinMaxNormalize(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 51, 102, 255})
	n := MinMaxNormalize(X)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.4, 1}, n.RawMatrix().Data, 1e-12)
	assert.Equal(t, 255.0, X.At(1, 1), "input must be left alone")

	c := MinMaxNormalize(mat.NewDense(1, 3, []float64{7, 7, 7}))
	assert.Equal(t, []float64{0, 0, 0}, c.RawMatrix().Data)
}

func TestRescaleWithTrainingRange(t *testing.T) {
	train := mat.NewDense(1, 3, []float64{0, 10, 255})
	test := mat.NewDense(1, 2, []float64{0, 128})

	lo, hi := Range(train)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 255.0, hi)

	scaled := Rescale(test, lo, hi)
	assert.InDeltaSlice(t, []float64{0, 128.0 / 255}, scaled.RawMatrix().Data, 1e-12)
	assert.Equal(t, 128.0, test.At(0, 1), "input must be left alone")

	assert.Equal(t, []float64{0, 0}, Rescale(test, 3, 3).RawMatrix().Data)
}

func TestOneHot(t *testing.T) {
	y, err := OneHot([]int{2, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0}, y.RawMatrix().Data)

	_, err = OneHot([]int{3}, 3)
	assert.Error(t, err)
	_, err = OneHot([]int{0}, 0)
	assert.Error(t, err)
	_, err = OneHot(nil, 3)
	assert.Error(t, err)
}

func TestShuffleKeepsRowsWithLabels(t *testing.T) {
	n := 50
	X := mat.NewDense(n, 2, nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		X.SetRow(i, []float64{float64(i), float64(-i)})
		labels[i] = i
	}
	ds := &Dataset{X: X, Labels: labels}

	a := Shuffle(ds, rand.NewSource(1))
	b := Shuffle(ds, rand.NewSource(1))
	assert.Equal(t, a.Labels, b.Labels, "same seed, same order")
	assert.NotEqual(t, labels, a.Labels)

	seen := make(map[int]bool)
	for i, l := range a.Labels {
		assert.Equal(t, []float64{float64(l), float64(-l)}, a.X.RawRowView(i))
		seen[l] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, 0, ds.Labels[0], "original must be left alone")
}

func TestShuffleEmpty(t *testing.T) {
	var out *Dataset
	require.NotPanics(t, func() { out = Shuffle(&Dataset{}, rand.NewSource(1)) })
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, 0, out.Features())
}

func TestSplit(t *testing.T) {
	ds := &Dataset{X: mat.NewDense(4, 1, []float64{1, 2, 3, 4}), Labels: []int{1, 2, 3, 4}}
	train, test, err := Split(ds, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, train.Len())
	assert.Equal(t, []int{4}, test.Labels)
	assert.Equal(t, 4.0, test.X.At(0, 0))

	_, _, err = Split(ds, 4)
	assert.Error(t, err)
	_, _, err = Split(ds, 0)
	assert.Error(t, err)
}

func TestAddBias(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := AddBias(X)
	assert.Equal(t, []float64{1, 2, 1, 3, 4, 1}, b.RawMatrix().Data)
}
