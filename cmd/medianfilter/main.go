// Command medianfilter is a small demo driver around the median package:
// it reads a raw (optionally zstd-compressed) grid of float64 samples,
// runs the 2-D median filter over it, and reports before/after statistics.
//
// This mirrors the shape of the teacher's main.go (open input, run the
// core, print a short report) generalized from "decode one video frame"
// to "median-filter one image".
package main

import (
	"bufio"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/stat"

	"github.com/dwbuiten/go-medianfilter/median"
)

// fileHeader is the tiny container format this demo reads/writes: a magic
// number, image dimensions, then X*Y little-endian float64 samples.
type fileHeader struct {
	Magic  [4]byte
	Width  uint32
	Height uint32
}

var magic = [4]byte{'M', 'D', 'F', '1'}

func main() {
	in := flag.String("in", "", "input sample file (raw container, optionally .zst compressed)")
	out := flag.String("out", "", "output sample file")
	hx := flag.Int("hx", 2, "window half-width along x")
	hy := flag.Int("hy", 2, "window half-width along y")
	block := flag.Int("block", 0, "block size hint (0 = default)")
	compressed := flag.Bool("zstd", false, "read/write zstd-compressed containers")
	flag.Parse()

	if *in == "" || *out == "" {
		log.Fatalln("both -in and -out are required")
	}

	X, Y, samples, err := readContainer(*in, *compressed)
	if err != nil {
		log.Fatalln(err)
	}

	filtered := make([]float64, len(samples))
	if err := median.Filter2D[float64](X, Y, *hx, *hy, *block, samples, filtered); err != nil {
		log.Fatalln(err)
	}

	if err := writeContainer(*out, X, Y, filtered, *compressed); err != nil {
		log.Fatalln(err)
	}

	report(samples, filtered)
}

func report(before, after []float64) {
	meanBefore := stat.Mean(before, nil)
	meanAfter := stat.Mean(after, nil)
	stdBefore := stat.StdDev(before, nil)
	stdAfter := stat.StdDev(after, nil)
	fmt.Printf("samples=%d mean=%.4f->%.4f stddev=%.4f->%.4f\n",
		len(before), meanBefore, meanAfter, stdBefore, stdAfter)
}

func readContainer(path string, compressed bool) (X, Y int, samples []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, 0, nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.Magic != magic {
		return 0, 0, nil, fmt.Errorf("%s: not a medianfilter container", path)
	}

	n := int(hdr.Width) * int(hdr.Height)
	samples = make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, samples); err != nil {
		return 0, 0, nil, fmt.Errorf("read samples: %w", err)
	}
	return int(hdr.Width), int(hdr.Height), samples, nil
}

func writeContainer(path string, X, Y int, samples []float64, compressed bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var out io.Writer = w
	var zw *zstd.Encoder
	if compressed {
		zw, err = zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		out = zw
	}

	hdr := fileHeader{Magic: magic, Width: uint32(X), Height: uint32(Y)}
	if err := binary.Write(out, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zstd writer: %w", err)
		}
	}
	return w.Flush()
}
