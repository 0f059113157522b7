package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// decodeNpy parses a one-dimensional little-endian float array in NumPy format.
func decodeNpy(data []byte) ([]float64, error) {
	if len(data) < 10 || !bytes.HasPrefix(data, npyMagic) {
		return nil, fmt.Errorf("not a .npy file")
	}
	major := data[6]

	var headerLen, offset int
	switch major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		offset = 10
	case 2, 3:
		if len(data) < 12 {
			return nil, fmt.Errorf("truncated header")
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		offset = 12
	default:
		return nil, fmt.Errorf("unsupported .npy version %d", major)
	}
	if offset+headerLen > len(data) {
		return nil, fmt.Errorf("truncated header")
	}
	header := string(data[offset : offset+headerLen])
	body := data[offset+headerLen:]

	descr := descrRe.FindStringSubmatch(header)
	if descr == nil {
		return nil, fmt.Errorf("header has no descr")
	}
	shape := shapeRe.FindStringSubmatch(header)
	if shape == nil {
		return nil, fmt.Errorf("header has no shape")
	}
	n, err := parseShape(shape[1])
	if err != nil {
		return nil, err
	}

	var width int
	switch descr[1] {
	case "<f8":
		width = 8
	case "<f4":
		width = 4
	default:
		return nil, fmt.Errorf("unsupported dtype %q", descr[1])
	}
	if len(body) < n*width {
		return nil, fmt.Errorf("expected %d bytes of data, got %d", n*width, len(body))
	}

	out := make([]float64, n)
	for i := range n {
		chunk := body[i*width : (i+1)*width]
		if width == 8 {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(chunk))
		} else {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk)))
		}
	}
	return out, nil
}

// parseShape accepts "3," or "3" and rejects anything with more than one dimension.
func parseShape(s string) (int, error) {
	var dims []int
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("bad shape %q", s)
		}
		dims = append(dims, d)
	}
	if len(dims) != 1 {
		return 0, fmt.Errorf("expected a 1-D array, got shape (%s)", s)
	}
	return dims[0], nil
}

// encodeNpy writes values as a version 1.0 '<f8' array.
func encodeNpy(values []float64) []byte {
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d,), }", len(values))
	// magic(6) + version(2) + length(2) + header + newline, padded to 64 bytes
	total := 10 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	for _, v := range values {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float64bits(v))
	}
	return buf.Bytes()
}
