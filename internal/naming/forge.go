// Package naming derives output file names for converted images.
//
// A name is the lowercase hex BLAKE3-256 digest of the input path followed
// by the conversion instant in Unix milliseconds (8 bytes, big-endian).
// Two conversions of the same path within the same millisecond produce the
// same name; Forger adds a per-process sequence to the key to rule that out.
package naming

import (
	"encoding/binary"
	"encoding/hex"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"lukechampine.com/blake3"
)

// Forge returns "{hex}.{extension}" for inputPath converted at now.
func Forge(inputPath string, now time.Time, extension string) string {
	return render(key(inputPath, now), extension)
}

// ForgeSalted is Forge with salt appended to the hashed key.
func ForgeSalted(inputPath string, now time.Time, salt uint64, extension string) string {
	k := key(inputPath, now)
	k = binary.BigEndian.AppendUint64(k, salt)
	return render(k, extension)
}

// OutputPath joins dir with the name Forge returns.
func OutputPath(dir, inputPath string, now time.Time, extension string) string {
	return filepath.Join(dir, Forge(inputPath, now, extension))
}

func key(inputPath string, now time.Time) []byte {
	k := make([]byte, 0, len(inputPath)+8)
	k = append(k, inputPath...)
	return binary.BigEndian.AppendUint64(k, uint64(now.UnixMilli()))
}

func render(k []byte, extension string) string {
	sum := blake3.Sum256(k)
	return hex.EncodeToString(sum[:]) + "." + strings.TrimPrefix(extension, ".")
}

// Forger produces output paths inside one directory. It is safe for
// concurrent use.
type Forger struct {
	dir       string
	extension string
	unique    bool
	seq       atomic.Uint64
	now       func() time.Time
}

// NewForger creates a forger writing into dir. With unique set, every call
// salts the key with a fresh sequence number.
func NewForger(dir, extension string, unique bool) *Forger {
	return &Forger{
		dir:       dir,
		extension: extension,
		unique:    unique,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (f *Forger) WithClock(now func() time.Time) *Forger {
	f.now = now
	return f
}

// Dir returns the output directory.
func (f *Forger) Dir() string {
	return f.dir
}

// Next returns the output path for inputPath at the current instant.
func (f *Forger) Next(inputPath string) string {
	return filepath.Join(f.dir, f.NextName(inputPath))
}

// NextName is Next without the directory.
func (f *Forger) NextName(inputPath string) string {
	now := f.now().UTC()
	if !f.unique {
		return Forge(inputPath, now, f.extension)
	}
	return ForgeSalted(inputPath, now, f.seq.Add(1), f.extension)
}
