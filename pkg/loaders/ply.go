// Package loaders reads room geometry exported from modelling tools.
package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the mesh loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle); polygons are fan triangulated
}

// TriangleCount returns the number of triangles
func (d *PLYData) TriangleCount() int {
	return len(d.Faces) / 3
}

// Triangle returns the corners of triangle i
func (d *PLYData) Triangle(i int) (core.Vec3, core.Vec3, core.Vec3) {
	return d.Vertices[d.Faces[3*i]], d.Vertices[d.Faces[3*i+1]], d.Vertices[d.Faces[3*i+2]]
}

// LoadPLY loads a PLY mesh from disk
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %v", err)
	}
	defer file.Close()

	data, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return data, nil
}

// ReadPLY reads an ASCII or binary PLY mesh
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %v", err)
	}

	var data *PLYData
	switch header.Format {
	case "binary_little_endian":
		data, err = readBinary(reader, header, binary.LittleEndian)
	case "binary_big_endian":
		data, err = readBinary(reader, header, binary.BigEndian)
	case "ascii":
		data, err = readASCII(reader, header)
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %v", err)
	}

	for _, idx := range data.Faces {
		if idx < 0 || idx >= len(data.Vertices) {
			return nil, fmt.Errorf("face index %d out of range (%d vertices)", idx, len(data.Vertices))
		}
	}
	return data, nil
}

// parsePLYHeader reads header lines up to and including end_header
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string

	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic number")
	}

	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("error reading header: %v", err)
		}
		line := strings.TrimSpace(raw)
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				if count > 0 {
					return nil, fmt.Errorf("unsupported element %q", currentElement)
				}
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %v", err)
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}

	for _, axis := range []string{"x", "y", "z"} {
		if vertexPropIndex(header.VertexProps, axis) < 0 {
			return nil, fmt.Errorf("vertex element has no %s property", axis)
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func vertexPropIndex(props []PLYProperty, name string) int {
	for i, p := range props {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func isFaceIndexList(p PLYProperty) bool {
	return p.IsList && (p.Name == "vertex_indices" || p.Name == "vertex_index")
}

// appendPolygon fan-triangulates a polygon into faces
func appendPolygon(faces []int, polygon []int) ([]int, error) {
	if len(polygon) < 3 {
		return faces, fmt.Errorf("face with %d vertices", len(polygon))
	}
	for k := 1; k+1 < len(polygon); k++ {
		faces = append(faces, polygon[0], polygon[k], polygon[k+1])
	}
	return faces, nil
}

// readASCII reads whitespace separated vertex and face lines
func readASCII(reader *bufio.Reader, header *PLYHeader) (*PLYData, error) {
	data := &PLYData{
		Vertices: make([]core.Vec3, 0, header.VertexCount),
		Faces:    make([]int, 0, header.FaceCount*3),
	}
	xi := vertexPropIndex(header.VertexProps, "x")
	yi := vertexPropIndex(header.VertexProps, "y")
	zi := vertexPropIndex(header.VertexProps, "z")

	scanner := bufio.NewScanner(reader)
	nextFields := func() ([]string, error) {
		for scanner.Scan() {
			if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}

	for i := 0; i < header.VertexCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %v", i, err)
		}
		if len(fields) < len(header.VertexProps) {
			return nil, fmt.Errorf("vertex %d: expected %d values, got %d", i, len(header.VertexProps), len(fields))
		}
		var xyz [3]float64
		for k, idx := range []int{xi, yi, zi} {
			if xyz[k], err = strconv.ParseFloat(fields[idx], 64); err != nil {
				return nil, fmt.Errorf("vertex %d: %v", i, err)
			}
		}
		data.Vertices = append(data.Vertices, core.NewVec3(xyz[0], xyz[1], xyz[2]))
	}

	for i := 0; i < header.FaceCount; i++ {
		fields, err := nextFields()
		if err != nil {
			return nil, fmt.Errorf("face %d: %v", i, err)
		}
		pos := 0
		for _, prop := range header.FaceProps {
			if !prop.IsList {
				pos++
				continue
			}
			if pos >= len(fields) {
				return nil, fmt.Errorf("face %d: truncated", i)
			}
			count, err := strconv.Atoi(fields[pos])
			if err != nil || count < 0 || pos+1+count > len(fields) {
				return nil, fmt.Errorf("face %d: invalid list", i)
			}
			if isFaceIndexList(prop) {
				polygon := make([]int, count)
				for k := range polygon {
					if polygon[k], err = strconv.Atoi(fields[pos+1+k]); err != nil {
						return nil, fmt.Errorf("face %d: %v", i, err)
					}
				}
				if data.Faces, err = appendPolygon(data.Faces, polygon); err != nil {
					return nil, fmt.Errorf("face %d: %v", i, err)
				}
			}
			pos += 1 + count
		}
	}

	return data, nil
}

// readBinary reads binary vertex and face records in the given byte order
func readBinary(reader *bufio.Reader, header *PLYHeader, order binary.ByteOrder) (*PLYData, error) {
	data := &PLYData{
		Vertices: make([]core.Vec3, 0, header.VertexCount),
		Faces:    make([]int, 0, header.FaceCount*3),
	}

	for i := 0; i < header.VertexCount; i++ {
		var v core.Vec3
		for _, prop := range header.VertexProps {
			if prop.IsList {
				return nil, fmt.Errorf("list property %q in vertex element", prop.Name)
			}
			value, err := readScalar(reader, prop.Type, order)
			if err != nil {
				return nil, fmt.Errorf("failed to read vertex %d: %v", i, err)
			}
			switch prop.Name {
			case "x":
				v.X = value
			case "y":
				v.Y = value
			case "z":
				v.Z = value
			}
		}
		data.Vertices = append(data.Vertices, v)
	}

	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if !prop.IsList {
				if _, err := readScalar(reader, prop.Type, order); err != nil {
					return nil, fmt.Errorf("failed to skip face property %s at face %d: %v", prop.Name, i, err)
				}
				continue
			}
			count, err := readScalar(reader, prop.ListType, order)
			if err != nil {
				return nil, fmt.Errorf("failed to read face vertex count at face %d: %v", i, err)
			}
			polygon := make([]int, int(count))
			for k := range polygon {
				idx, err := readScalar(reader, prop.DataType, order)
				if err != nil {
					return nil, fmt.Errorf("failed to read face indices at face %d: %v", i, err)
				}
				polygon[k] = int(idx)
			}
			if isFaceIndexList(prop) {
				if data.Faces, err = appendPolygon(data.Faces, polygon); err != nil {
					return nil, fmt.Errorf("face %d: %v", i, err)
				}
			}
		}
	}

	return data, nil
}

// readScalar reads one value of a PLY scalar type as float64
func readScalar(r io.Reader, dataType string, order binary.ByteOrder) (float64, error) {
	var buf [8]byte
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		return 0, err
	}
	b := buf[:size]

	switch dataType {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(order.Uint32(b))), nil
	default: // double
		return math.Float64frombits(order.Uint64(b)), nil
	}
}

// getTypeSize returns the size in bytes of a PLY data type, or 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
