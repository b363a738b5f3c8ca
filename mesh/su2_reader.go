package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
)

type su2Reader struct {
	sc     *bufio.Scanner
	lineNo int
}

// next returns the next non-empty, non-comment line.
func (r *su2Reader) next() (line string, err error) {
	for r.sc.Scan() {
		r.lineNo++
		line = strings.TrimSpace(r.sc.Text())
		if len(line) == 0 || strings.HasPrefix(line, "%") {
			continue
		}
		return
	}
	if err = r.sc.Err(); err == nil {
		err = io.ErrUnexpectedEOF
	}
	return
}

// token reads a "KEY= value" line and returns the value.
func (r *su2Reader) token(key string) (value string, err error) {
	var line string
	if line, err = r.next(); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 || strings.TrimSpace(line[:ind]) != key {
		err = fmt.Errorf("line %d: badly formed input line [%s], expected %s=", r.lineNo, line, key)
		return
	}
	value = strings.TrimSpace(line[ind+1:])
	return
}

func (r *su2Reader) number(key string) (num int, err error) {
	var value string
	if value, err = r.token(key); err != nil {
		return
	}
	if num, err = strconv.Atoi(value); err != nil {
		err = fmt.Errorf("line %d: unable to read %s from [%s]: %w", r.lineNo, key, value, err)
	}
	return
}

// count reads a "KEY= n" line where n sizes the section that follows.
func (r *su2Reader) count(key string) (num int, err error) {
	if num, err = r.number(key); err == nil && num < 0 {
		err = fmt.Errorf("line %d: %s = %d, must not be negative", r.lineNo, key, num)
	}
	return
}

func (r *su2Reader) ints(n int) (vals []int, err error) {
	var line string
	if line, err = r.next(); err != nil {
		return
	}
	fields := strings.Fields(line)
	if len(fields) < n {
		err = fmt.Errorf("line %d: need %d integers, have [%s]", r.lineNo, n, line)
		return
	}
	vals = make([]int, n)
	for i := 0; i < n; i++ {
		if vals[i], err = strconv.Atoi(fields[i]); err != nil {
			err = fmt.Errorf("line %d: %w", r.lineNo, err)
			return
		}
	}
	return
}

func (r *su2Reader) readElements(m *Mesh) (err error) {
	var (
		K    int
		vals []int
	)
	if K, err = r.count("NELEM"); err != nil {
		return
	}
	for k := 0; k < K; k++ {
		if vals, err = r.ints(1); err != nil {
			return
		}
		switch SU2ElementType(vals[0]) {
		case ELType_Triangle:
			if vals, err = r.reread(4); err != nil {
				return
			}
			m.Tris = append(m.Tris, [3]int{vals[1], vals[2], vals[3]})
		case ELType_Quadrilateral:
			if vals, err = r.reread(5); err != nil {
				return
			}
			// Split along the 0-2 diagonal
			m.Tris = append(m.Tris,
				[3]int{vals[1], vals[2], vals[3]},
				[3]int{vals[1], vals[3], vals[4]})
		default:
			err = fmt.Errorf("line %d: unable to deal with element type %d in 2D", r.lineNo, vals[0])
			return
		}
	}
	return
}

func (r *su2Reader) readVertices(m *Mesh) (err error) {
	var (
		Nv   int
		line string
		x, y float64
	)
	if Nv, err = r.count("NPOIN"); err != nil {
		return
	}
	// Capped, a file shorter than its header fails below
	m.X, m.Y = make([]float64, 0, min(Nv, 1<<16)), make([]float64, 0, min(Nv, 1<<16))
	for i := 0; i < Nv; i++ {
		if line, err = r.next(); err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			err = fmt.Errorf("line %d: unable to read coordinates from [%s]", r.lineNo, line)
			return
		}
		if x, err = strconv.ParseFloat(fields[0], 64); err == nil {
			y, err = strconv.ParseFloat(fields[1], 64)
		}
		if err != nil {
			err = fmt.Errorf("line %d: %w", r.lineNo, err)
			return
		}
		m.X, m.Y = append(m.X, x), append(m.Y, y)
	}
	return
}

func (r *su2Reader) readMarkers(m *Mesh) (err error) {
	var (
		NBCs, nEdges int
		label        string
		vals         []int
	)
	if NBCs, err = r.count("NMARK"); err != nil {
		if err == io.ErrUnexpectedEOF { // Markers are optional
			err = nil
		}
		return
	}
	m.Markers = make(map[string][][2]int)
	for n := 0; n < NBCs; n++ {
		if label, err = r.token("MARKER_TAG"); err != nil {
			return
		}
		if nEdges, err = r.count("MARKER_ELEMS"); err != nil {
			return
		}
		for i := 0; i < nEdges; i++ {
			if vals, err = r.ints(3); err != nil {
				return
			}
			if SU2ElementType(vals[0]) != ELType_LINE {
				err = fmt.Errorf("line %d: markers should only contain line elements in 2D", r.lineNo)
				return
			}
			m.Markers[label] = append(m.Markers[label], [2]int{vals[1], vals[2]})
		}
	}
	return
}

// reread parses the current line again with a wider field count.
func (r *su2Reader) reread(n int) (vals []int, err error) {
	fields := strings.Fields(strings.TrimSpace(r.sc.Text()))
	if len(fields) < n {
		err = fmt.Errorf("line %d: need %d integers, have %d", r.lineNo, n, len(fields))
		return
	}
	vals = make([]int, n)
	for i := 0; i < n; i++ {
		if vals[i], err = strconv.Atoi(fields[i]); err != nil {
			err = fmt.Errorf("line %d: %w", r.lineNo, err)
			return
		}
	}
	return
}

// ReadSU2 reads a two dimensional SU2 mesh. Quadrilaterals are split into
// triangles.
func ReadSU2(rd io.Reader) (m *Mesh, err error) {
	var (
		r   = &su2Reader{sc: bufio.NewScanner(rd)}
		dim int
	)
	if dim, err = r.number("NDIME"); err != nil {
		return
	}
	if dim != 2 {
		err = fmt.Errorf("read file with %d dimensional data, only 2D meshes are supported", dim)
		return
	}
	m = &Mesh{}
	if err = r.readElements(m); err != nil {
		return nil, err
	}
	if err = r.readVertices(m); err != nil {
		return nil, err
	}
	if err = r.readMarkers(m); err != nil {
		return nil, err
	}
	if err = m.Check(); err != nil {
		return nil, err
	}
	return
}

func ReadSU2File(filename string) (m *Mesh, err error) {
	var file *os.File
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadSU2(file)
}
