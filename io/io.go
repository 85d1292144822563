package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DataDog/zstd"
)

/*
A trajectory file is a text file with the following layout:

    #NUMBER PARTICLES <np>
    t_0 x_0 y_0 z_0 x_1 y_1 z_1 ... x_(np-1) y_(np-1) z_(np-1)
    t_1 x_0 y_0 z_0 ...
    ...

The particle count is read from a fixed column range of the first line. After
that, the file is an undifferentiated stream of whitespace-separated numbers
with one record per timestep. Line breaks carry no meaning.
*/

const (
	// HeaderCountOffset is the first byte of the particle count in the header.
	HeaderCountOffset = 18
	// HeaderCountWidth is the maximum width of the particle count field.
	HeaderCountWidth = 10

	// ZStdSuffix marks trajectory files which are zstd compressed.
	ZStdSuffix = ".zst"

	maxTokenSize = 1 << 16
)

// Snapshot holds the particle positions of a single trajectory record.
type Snapshot struct {
	Step int     // Index of the record within the file, starting at 0.
	Time float64 // Simulation time written at the start of the record.
	Xs   [][3]float64
}

// FormatError is returned when the particle count in a trajectory header
// cannot be parsed.
type FormatError struct {
	Header string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Malformed trajectory header '%s'.", e.Header)
	}
	return fmt.Sprintf(
		"Malformed trajectory header '%s': %s", e.Header, e.Err.Error(),
	)
}

func (e *FormatError) Unwrap() error { return e.Err }

// TruncatedRecordError is returned when a trajectory record ends before all
// of its positions have been read.
type TruncatedRecordError struct {
	Step      int // Index of the truncated record.
	Want, Got int // Expected and read number of complete (x, y, z) triples.
	Err       error
}

func (e *TruncatedRecordError) Error() string {
	msg := fmt.Sprintf(
		"Record %d is truncated: expected %d positions, but only read %d.",
		e.Step, e.Want, e.Got,
	)
	if e.Err != nil {
		msg = fmt.Sprintf("%s (%s)", msg, e.Err.Error())
	}
	return msg
}

func (e *TruncatedRecordError) Unwrap() error { return e.Err }

// TrajectoryReader reads records from a trajectory stream one at a time.
type TrajectoryReader struct {
	header string
	np     int
	step   int
	sc     *bufio.Scanner
}

// ParseParticleCount reads the particle count from a trajectory header line.
func ParseParticleCount(header string) (int, error) {
	start, end := HeaderCountOffset, HeaderCountOffset+HeaderCountWidth
	if start >= len(header) {
		return 0, &FormatError{header, fmt.Errorf(
			"Header must be longer than %d bytes.", start,
		)}
	}
	if end > len(header) {
		end = len(header)
	}

	field := strings.TrimSpace(header[start:end])
	np, err := strconv.Atoi(field)
	if err != nil {
		return 0, &FormatError{header, err}
	} else if np < 0 {
		return 0, &FormatError{header, fmt.Errorf(
			"Particle count %d is negative.", np,
		)}
	}

	return np, nil
}

// NewTrajectoryReader reads the header of the trajectory in r and returns a
// reader positioned at the first record. A *FormatError is returned if the
// header does not contain a valid particle count.
func NewTrajectoryReader(r io.Reader) (*TrajectoryReader, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")

	np, err := ParseParticleCount(line)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 4096), maxTokenSize)
	sc.Split(bufio.ScanWords)

	return &TrajectoryReader{header: line, np: np, sc: sc}, nil
}

// Header returns the first line of the trajectory.
func (tr *TrajectoryReader) Header() string { return tr.header }

// Particles returns the number of particles in every record.
func (tr *TrajectoryReader) Particles() int { return tr.np }

// Steps returns the number of records which have been read so far.
func (tr *TrajectoryReader) Steps() int { return tr.step }

// Read reads the next record into snap, resizing snap.Xs as needed. io.EOF is
// returned when there are no more records, including when the next timestamp
// is not a number. A *TruncatedRecordError is returned if the stream ends
// partway through a record.
func (tr *TrajectoryReader) Read(snap *Snapshot) error {
	if !tr.sc.Scan() {
		if err := tr.sc.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	t, err := strconv.ParseFloat(tr.sc.Text(), 64)
	if err != nil {
		return io.EOF
	}

	if cap(snap.Xs) < tr.np {
		snap.Xs = make([][3]float64, tr.np)
	}
	snap.Xs = snap.Xs[:tr.np]
	snap.Step, snap.Time = tr.step, t

	for i := 0; i < tr.np; i++ {
		for dim := 0; dim < 3; dim++ {
			if !tr.sc.Scan() {
				return &TruncatedRecordError{tr.step, tr.np, i, tr.sc.Err()}
			}
			x, err := strconv.ParseFloat(tr.sc.Text(), 64)
			if err != nil {
				return &TruncatedRecordError{tr.step, tr.np, i, err}
			}
			snap.Xs[i][dim] = x
		}
	}

	tr.step++
	return nil
}

// trajectoryFile closes both the decompression stream and the underlying
// file of a trajectory.
type trajectoryFile struct {
	f  *os.File
	zr io.ReadCloser
}

func (tf *trajectoryFile) Close() error {
	if tf.zr != nil {
		if err := tf.zr.Close(); err != nil {
			tf.f.Close()
			return err
		}
	}
	return tf.f.Close()
}

// OpenTrajectory opens the trajectory file at the given path. Files ending in
// ZStdSuffix are decompressed as they are read. The returned io.Closer must
// be closed by the caller.
func OpenTrajectory(path string) (*TrajectoryReader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	tf := &trajectoryFile{f: f}
	var r io.Reader = f
	if strings.HasSuffix(path, ZStdSuffix) {
		tf.zr = zstd.NewReader(f)
		r = tf.zr
	}

	tr, err := NewTrajectoryReader(r)
	if err != nil {
		tf.Close()
		return nil, nil, err
	}
	return tr, tf, nil
}
