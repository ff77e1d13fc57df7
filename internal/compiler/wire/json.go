package wire

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// Platform values have no JSON form of their own, so they are written as
// single-key objects:
//
//	{"$vector3": [x, y, z]}
//	{"$color3": [r, g, b]}
//	{"$cframe": [x, y, z, ax, ay, az]}
//	{"$instance": "ClassName"}  or  {"$instance": {"class": "...", "name": "..."}}
//	{"$buffer": "base64"}
const (
	tagVector3  = "$vector3"
	tagColor3   = "$color3"
	tagCFrame   = "$cframe"
	tagInstance = "$instance"
	tagBuffer   = "$buffer"
)

// FromJSON converts a value produced by encoding/json into host values.
// Objects become tables with string keys and arrays become 1-based tables.
func FromJSON(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, float64, string:
		return v, nil

	case []any:
		t := NewTable()
		for i, item := range v {
			hv, err := FromJSON(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			t.Set(float64(i+1), hv)
		}
		return t, nil

	case map[string]any:
		if len(v) == 1 {
			for k, inner := range v {
				if len(k) > 1 && k[0] == '$' {
					return fromTagged(k, inner)
				}
			}
		}
		t := NewTable()
		for k, item := range v {
			hv, err := FromJSON(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			t.Set(k, hv)
		}
		return t, nil
	}

	if n, ok := toNumber(v); ok {
		return n, nil
	}
	return nil, fmt.Errorf("unsupported JSON value %T", v)
}

func fromTagged(tag string, v any) (any, error) {
	switch tag {
	case tagVector3:
		n, err := numbers(tag, v, 3)
		if err != nil {
			return nil, err
		}
		return Vector3{n[0], n[1], n[2]}, nil

	case tagColor3:
		n, err := numbers(tag, v, 3)
		if err != nil {
			return nil, err
		}
		return Color3{n[0], n[1], n[2]}, nil

	case tagCFrame:
		n, err := numbers(tag, v, 6)
		if err != nil {
			return nil, err
		}
		return CFrame{Position: Vector3{n[0], n[1], n[2]}, AxisAngle: Vector3{n[3], n[4], n[5]}}, nil

	case tagInstance:
		switch v := v.(type) {
		case string:
			return &Instance{Class: v}, nil
		case map[string]any:
			class, _ := v["class"].(string)
			name, _ := v["name"].(string)
			return &Instance{Class: class, Name: name}, nil
		}
		return nil, fmt.Errorf("%s expects a class name or an object", tag)

	case tagBuffer:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s expects a base64 string", tag)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown value tag %q", tag)
}

func numbers(tag string, v any, n int) ([]float64, error) {
	items, ok := v.([]any)
	if !ok || len(items) != n {
		return nil, fmt.Errorf("%s expects %d numbers", tag, n)
	}
	out := make([]float64, n)
	for i, item := range items {
		f, ok := toNumber(item)
		if !ok {
			return nil, fmt.Errorf("%s expects %d numbers", tag, n)
		}
		out[i] = f
	}
	return out, nil
}

// ToPlain converts host values into values encoding/json can marshal.
// Tables with keys 1..n become arrays; other tables become objects whose
// non-string keys are formatted as text.
func ToPlain(v any) any {
	switch v := v.(type) {
	case *Table:
		if v.Count() > 0 && v.IsArray() {
			out := make([]any, v.Len())
			for i := range out {
				out[i] = ToPlain(v.Get(float64(i + 1)))
			}
			return out
		}
		out := make(map[string]any, v.Count())
		for _, k := range v.Keys() {
			out[keyString(k)] = ToPlain(v.Get(k))
		}
		return out

	case []byte:
		return map[string]any{tagBuffer: base64.StdEncoding.EncodeToString(v)}
	case Vector3:
		return map[string]any{tagVector3: []any{v.X, v.Y, v.Z}}
	case Color3:
		return map[string]any{tagColor3: []any{v.R, v.G, v.B}}
	case CFrame:
		return map[string]any{tagCFrame: []any{
			v.Position.X, v.Position.Y, v.Position.Z,
			v.AxisAngle.X, v.AxisAngle.Y, v.AxisAngle.Z,
		}}
	case *Instance:
		if v == nil {
			return nil
		}
		return map[string]any{tagInstance: map[string]any{"class": v.Class, "name": v.Name}}
	}
	return v
}

func keyString(k any) string {
	switch k := k.(type) {
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(k)
	}
	return fmt.Sprint(k)
}
