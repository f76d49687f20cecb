// Package kernel holds the 256-entry nearest-color scan kernels.
//
// The scalar backend walks an entry-major table one entry at a time. The
// lane backends compute a whole distance array from component planes, four
// or eight entries per vector instruction, and then scan it in index order.
// Every backend rounds each product to float32 and adds terms in the same
// order, so all of them return bit-identical distances and the same index.
//
// Native lane kernels are built on simd/archsimd and need
// GOEXPERIMENT=simd on amd64. Other builds keep the lane backends for
// testing but run them as planar loops, and detection never selects them.
package kernel

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ajroetker/go-highway/hwy"
)

// Backend identifies a kernel implementation.
type Backend uint8

const (
	Scalar Backend = iota
	Vec4
	Vec8
)

func (b Backend) String() string {
	switch b {
	case Scalar:
		return "scalar"
	case Vec4:
		return "vec4"
	case Vec8:
		return "vec8"
	default:
		return "unknown"
	}
}

// Valid reports whether b names an implementation.
func (b Backend) Valid() bool {
	return b <= Vec8
}

// ParseBackend parses a name produced by String.
func ParseBackend(s string) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, b := range Backends {
		if b.String() == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown scan backend %q", s)
}

// Backends lists every implementation, slowest first.
var Backends = []Backend{Scalar, Vec4, Vec8}

// NoSIMDEnv disables the lane kernels when set to a true value.
const NoSIMDEnv = "ANSI256_NO_SIMD"

var (
	native4, native8 = nativeLanes()
	detected         = detect()
)

func init() {
	slog.Debug("palette scan kernel initialized",
		"backend", detected.String(), "hwy", hwy.CurrentName())
}

// detect picks the widest lane backend that runs natively. hwy reports
// the vector level compiled into the binary and honors HWY_NO_SIMD.
func detect() Backend {
	if v, ok := os.LookupEnv(NoSIMDEnv); ok {
		if off, err := strconv.ParseBool(v); err != nil || off {
			return Scalar
		}
	}
	if hwy.CurrentLevel() == hwy.DispatchScalar {
		return Scalar
	}
	switch {
	case native8 && hwy.CurrentWidth() >= 32:
		return Vec8
	case native4:
		return Vec4
	default:
		return Scalar
	}
}

// Native reports whether b runs on vector instructions in this binary.
// The scalar backend is always native.
func Native(b Backend) bool {
	switch b {
	case Scalar:
		return true
	case Vec4:
		return native4
	case Vec8:
		return native8
	default:
		return false
	}
}

// Detected returns the backend selected for the running CPU.
func Detected() Backend {
	return detected
}
