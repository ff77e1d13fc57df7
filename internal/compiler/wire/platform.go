package wire

import (
	"fmt"
	"math"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Vector3 is a three component vector
type Vector3 struct {
	X, Y, Z float64
}

// Color3 is a color with components between 0 and 1
type Color3 struct {
	R, G, B float64
}

// CFrame is a position and a rotation given as an axis scaled by the
// rotation angle in radians.
type CFrame struct {
	Position  Vector3
	AxisAngle Vector3
}

// Instance is an engine object. Instances travel by handle, so two
// instances are the same only if they are the same pointer.
type Instance struct {
	Class string
	Name  string
}

var alignments = buildAlignments()

func buildAlignments() []Vector3 {
	out := make([]Vector3, 0, len(schema.Alignments))
	for _, a := range schema.Alignments {
		right, up := axisVector(a.Right), axisVector(a.Up)
		out = append(out, axisAngle(right, up, cross(right, up)))
	}
	return out
}

func axisVector(a schema.Axis) Vector3 {
	return Vector3{a[0], a[1], a[2]}
}

// Alignment returns the rotation of axis alignment i, 1-based
func Alignment(i int) (Vector3, bool) {
	if i < 1 || i > len(alignments) {
		return Vector3{}, false
	}
	return alignments[i-1], true
}

// AlignmentCount is the number of axis-aligned rotations
func AlignmentCount() int {
	return len(alignments)
}

func findAlignment(rot Vector3) (int, bool) {
	const eps = 1e-4
	for i, a := range alignments {
		if math.Abs(a.X-rot.X) < eps && math.Abs(a.Y-rot.Y) < eps && math.Abs(a.Z-rot.Z) < eps {
			return i + 1, true
		}
	}
	return 0, false
}

func cross(a, b Vector3) Vector3 {
	return Vector3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// axisAngle converts the rotation matrix with columns x, y, z into an
// axis scaled by its angle.
func axisAngle(x, y, z Vector3) Vector3 {
	m := [3][3]float64{
		{x.X, y.X, z.X},
		{x.Y, y.Y, z.Y},
		{x.Z, y.Z, z.Z},
	}
	trace := m[0][0] + m[1][1] + m[2][2]
	angle := math.Acos(math.Max(-1, math.Min(1, (trace-1)/2)))

	switch {
	case angle < 1e-9:
		return Vector3{}
	case math.Pi-angle < 1e-9:
		// R = 2aa' - I, take the largest diagonal for stability
		i := 0
		for j := 1; j < 3; j++ {
			if m[j][j] > m[i][i] {
				i = j
			}
		}
		var a [3]float64
		a[i] = math.Sqrt((m[i][i] + 1) / 2)
		for j := 0; j < 3; j++ {
			if j != i {
				a[j] = m[i][j] / (2 * a[i])
			}
		}
		return Vector3{a[0] * angle, a[1] * angle, a[2] * angle}
	}

	s := 2 * math.Sin(angle)
	return Vector3{
		(m[2][1] - m[1][2]) / s * angle,
		(m[0][2] - m[2][0]) / s * angle,
		(m[1][0] - m[0][1]) / s * angle,
	}
}

// component extracts slot i of the byte layout of a platform value
func component(kind schema.PlatformKind, v any, i int) (any, error) {
	switch kind {
	case schema.Vector3:
		vec, ok := v.(Vector3)
		if !ok {
			return nil, typeError("Vector3", v)
		}
		return vectorSlot(vec, i), nil

	case schema.Color3:
		c, ok := v.(Color3)
		if !ok {
			return nil, typeError("Color3", v)
		}
		return math.Round([]float64{c.R, c.G, c.B}[i] * 255), nil

	case schema.CFrame:
		cf, ok := v.(CFrame)
		if !ok {
			return nil, typeError("CFrame", v)
		}
		if i < 3 {
			return vectorSlot(cf.Position, i), nil
		}
		return vectorSlot(cf.AxisAngle, i-3), nil

	case schema.AlignedCFrame:
		cf, ok := v.(CFrame)
		if !ok {
			return nil, typeError("CFrame", v)
		}
		if i == 0 {
			idx, ok := findAlignment(cf.AxisAngle)
			if !ok {
				return nil, &RuntimeError{Message: "invalid axis alignment"}
			}
			return float64(idx), nil
		}
		return vectorSlot(cf.Position, i-1), nil
	}
	return nil, fmt.Errorf("%s has no byte layout", kind)
}

// construct rebuilds a platform value from its layout slots
func construct(kind schema.PlatformKind, parts []float64) (any, error) {
	switch kind {
	case schema.Vector3:
		return Vector3{parts[0], parts[1], parts[2]}, nil
	case schema.Color3:
		return Color3{parts[0] / 255, parts[1] / 255, parts[2] / 255}, nil
	case schema.CFrame:
		return CFrame{
			Position:  Vector3{parts[0], parts[1], parts[2]},
			AxisAngle: Vector3{parts[3], parts[4], parts[5]},
		}, nil
	case schema.AlignedCFrame:
		rot, ok := Alignment(int(parts[0]))
		if !ok {
			return nil, &RuntimeError{Message: "invalid axis alignment"}
		}
		return CFrame{Position: Vector3{parts[1], parts[2], parts[3]}, AxisAngle: rot}, nil
	}
	return nil, fmt.Errorf("%s has no byte layout", kind)
}

func vectorSlot(v Vector3, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

func typeError(want string, got any) error {
	return &RuntimeError{Message: fmt.Sprintf("expected %s, got %s", want, typeName(got))}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []byte:
		return "buffer"
	case *Table:
		return "table"
	case *Instance:
		return "Instance"
	case Vector3:
		return "Vector3"
	case Color3:
		return "Color3"
	case CFrame:
		return "CFrame"
	}
	if _, ok := toNumber(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
