package utils

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/setanarut/clutmap"
	"github.com/sirupsen/logrus"
)

// ErrInvalidTableFile indicates a table cache that is not a table, or
// one written by an incompatible version.
var ErrInvalidTableFile = errors.New("invalid table file")

const (
	tableMagic   = "CLUT"
	tableVersion = 1
)

// WriteTable stores t as a zstd stream: magic, version, family, metric,
// the reference count and colors, then the three component arrays.
func WriteTable(w io.Writer, t *clutmap.Table) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)

	refs := t.References()
	header := make([]byte, 0, len(tableMagic)+7+3*refs.Len())
	header = append(header, tableMagic...)
	header = append(header, tableVersion, byte(t.Family()), byte(t.Metric()))
	header = binary.LittleEndian.AppendUint32(header, uint32(refs.Len()))
	for _, c := range refs.Colors() {
		header = append(header, c[:]...)
	}

	c0, c1, c2 := t.Arrays()
	for _, b := range [][]byte{header, c0, c1, c2} {
		if _, err := bw.Write(b); err != nil {
			enc.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadTable restores a table written by WriteTable. The arrays are
// checked against the stored reference set.
func ReadTable(r io.Reader) (*clutmap.Table, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening table stream: %w: %w", ErrInvalidTableFile, err)
	}
	defer dec.Close()

	var head [len(tableMagic) + 7]byte
	if _, err := io.ReadFull(dec, head[:]); err != nil {
		return nil, fmt.Errorf("reading table header: %w: %w", ErrInvalidTableFile, err)
	}
	if string(head[:4]) != tableMagic {
		return nil, fmt.Errorf("bad magic %q: %w", head[:4], ErrInvalidTableFile)
	}
	if head[4] != tableVersion {
		return nil, fmt.Errorf("table version %d, want %d: %w", head[4], tableVersion, ErrInvalidTableFile)
	}
	family := clutmap.Family(head[5])
	if family != clutmap.FamilyRGB && family != clutmap.FamilyYUV {
		return nil, fmt.Errorf("unknown family %d: %w", head[5], ErrInvalidTableFile)
	}
	metric := clutmap.Metric(head[6])
	if !metric.Valid() {
		return nil, fmt.Errorf("unknown metric %d: %w", head[6], ErrInvalidTableFile)
	}
	n := binary.LittleEndian.Uint32(head[7:])
	if n == 0 || n > clutmap.KeySpace {
		return nil, fmt.Errorf("reference count %d: %w", n, ErrInvalidTableFile)
	}

	raw := make([]byte, 3*int(n))
	if _, err := io.ReadFull(dec, raw); err != nil {
		return nil, fmt.Errorf("reading references: %w: %w", ErrInvalidTableFile, err)
	}
	colors := make([]clutmap.Color, n)
	for i := range colors {
		copy(colors[i][:], raw[3*i:])
	}
	refs, err := clutmap.NewReferenceSet(colors)
	if err != nil {
		return nil, err
	}
	if refs.Len() != int(n) {
		return nil, fmt.Errorf("duplicate references: %w", ErrInvalidTableFile)
	}

	arrays := make([][]byte, 3)
	for i := range arrays {
		arrays[i] = make([]byte, clutmap.KeySpace)
		if _, err := io.ReadFull(dec, arrays[i]); err != nil {
			return nil, fmt.Errorf("reading component %d: %w: %w", i, ErrInvalidTableFile, err)
		}
	}
	return clutmap.NewTableFromArrays(refs, family, metric, arrays[0], arrays[1], arrays[2])
}

// SaveTable writes t to path.
func SaveTable(path string, t *clutmap.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTable(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"function":   "SaveTable",
		"path":       path,
		"references": t.References().Len(),
	}).Info("Table cached")
	return nil
}

// LoadTable reads a table written by SaveTable.
func LoadTable(path string) (*clutmap.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadTable(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{
		"function":   "LoadTable",
		"path":       path,
		"references": t.References().Len(),
		"metric":     t.Metric().String(),
	}).Info("Table loaded")
	return t, nil
}
