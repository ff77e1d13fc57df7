// Package size estimates the encoded size of schema types. Estimates are in
// bytes and include length prefixes, presence flags, and discriminants; the
// event id is not included.
package size

import (
	"math"
	"strconv"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

// Bounds is an inclusive estimate of encoded size. HasMax is false when the
// size has no static upper bound.
type Bounds struct {
	Min    int
	Max    int
	HasMax bool
}

// String renders the bounds as "min..max" or "min.." when unbounded
func (b Bounds) String() string {
	if !b.HasMax {
		return strconv.Itoa(b.Min) + ".."
	}
	if b.Min == b.Max {
		return strconv.Itoa(b.Min)
	}
	return strconv.Itoa(b.Min) + ".." + strconv.Itoa(b.Max)
}

// InstanceSize is the cost charged for a handle-channel instance slot
const InstanceSize = 4

// Estimator walks types with a stack of names currently being measured so
// that recursive references terminate.
type Estimator struct {
	cfg      *schema.Config
	visiting map[string]bool
}

// New creates an estimator over cfg's type table
func New(cfg *schema.Config) *Estimator {
	return &Estimator{cfg: cfg, visiting: make(map[string]bool)}
}

// Of estimates t against cfg
func Of(cfg *schema.Config, t schema.Type) Bounds {
	return New(cfg).Bounds(t)
}

// Min returns the smallest possible encoded size of t
func Min(cfg *schema.Config, t schema.Type) int {
	return Of(cfg, t).Min
}

// Max returns the largest possible encoded size of t, if bounded
func Max(cfg *schema.Config, t schema.Type) (int, bool) {
	b := Of(cfg, t)
	return b.Max, b.HasMax
}

// Bounds estimates t. A nil type is an empty payload.
func (e *Estimator) Bounds(t schema.Type) Bounds {
	b := e.bounds(t)
	if !b.HasMax {
		b.Max = 0
	}
	return b
}

func (e *Estimator) bounds(t schema.Type) Bounds {
	switch t := t.(type) {
	case nil:
		return exact(0)
	case schema.Bool:
		return exact(1)
	case schema.Num:
		return exact(t.Kind.Size())
	case schema.Str:
		return lengthPrefixed(t.Len, exact(1))
	case schema.Buf:
		return lengthPrefixed(t.Len, exact(1))
	case schema.Arr:
		return lengthPrefixed(t.Len, e.bounds(t.Elem))
	case schema.Map:
		return Bounds{Min: schema.LengthKind.Size()}
	case schema.Opt:
		inner := e.bounds(t.Inner)
		return makeBounds(1, Add(inner.Max, 1), inner.HasMax)
	case schema.Ref:
		return e.ref(t.Name)
	case *schema.Struct:
		return e.structBounds(t)
	case schema.UnitEnum:
		return exact(schema.NumTy(0, float64(len(t.Variants)-1)).Size())
	case *schema.TaggedEnum:
		return e.tagged(t)
	case schema.Platform:
		return platform(t.Kind)
	}
	return Bounds{}
}

func (e *Estimator) ref(name string) Bounds {
	if e.visiting[name] {
		return Bounds{}
	}
	td, ok := e.cfg.Type(name)
	if !ok {
		return Bounds{}
	}
	e.visiting[name] = true
	defer delete(e.visiting, name)
	return e.bounds(td.Type)
}

func (e *Estimator) structBounds(t *schema.Struct) Bounds {
	total := exact(0)
	for _, f := range t.Fields {
		total = add(total, e.bounds(f.Type))
	}
	return total
}

// tagged charges the discriminant plus the cheapest case for the minimum,
// and the sum of every case for the maximum.
func (e *Estimator) tagged(t *schema.TaggedEnum) Bounds {
	disc := exact(schema.NumTy(0, float64(len(t.Variants))).Size())

	cases := make([]Bounds, 0, len(t.Variants)+1)
	for _, v := range t.Variants {
		cases = append(cases, e.structBounds(v.Struct))
	}
	if t.CatchAll != nil {
		// the unmatched tag is written as an unbounded string
		cases = append(cases, add(lengthPrefixed(schema.Range{}, exact(1)), e.structBounds(t.CatchAll)))
	}
	if len(cases) == 0 {
		return disc
	}

	sum := exact(0)
	cheapest := math.MaxInt
	for _, c := range cases {
		sum = add(sum, c)
		cheapest = min(cheapest, c.Min)
	}
	return add(disc, Bounds{Min: cheapest, Max: sum.Max, HasMax: sum.HasMax})
}

// lengthPrefixed sizes a string, buffer, or array whose count is bounded by
// r and whose elements cost elem each.
func lengthPrefixed(r schema.Range, elem Bounds) Bounds {
	if r.Exact() {
		n := count(*r.Min)
		return makeBounds(Mul(elem.Min, n), Mul(elem.Max, n), elem.HasMax)
	}
	prefix := exact(schema.LengthKind.Size())
	items := Bounds{Min: Mul(elem.Min, count(r.MinOr(0)))}
	if r.Max != nil && elem.HasMax {
		items = makeBounds(items.Min, Mul(elem.Max, count(*r.Max)), true)
	}
	return add(prefix, items)
}

func platform(k schema.PlatformKind) Bounds {
	switch k {
	case schema.Instance:
		return exact(InstanceSize)
	case schema.Unknown:
		return Bounds{}
	}
	n := 0
	for _, c := range schema.PlatformLayout(k) {
		n += c.Kind.Size()
	}
	return exact(n)
}

func exact(n int) Bounds {
	return Bounds{Min: n, Max: n, HasMax: true}
}

func add(a, b Bounds) Bounds {
	return makeBounds(Add(a.Min, b.Min), Add(a.Max, b.Max), a.HasMax && b.HasMax)
}

// makeBounds drops a maximum that saturated
func makeBounds(lo, hi int, hasMax bool) Bounds {
	if !hasMax || hi == math.MaxInt {
		return Bounds{Min: lo}
	}
	return Bounds{Min: lo, Max: hi, HasMax: true}
}

// Add returns a+b for non-negative sizes, saturating at math.MaxInt
func Add(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Mul returns a*b for non-negative sizes, saturating at math.MaxInt
func Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

// count converts a length bound to an element count
func count(n float64) int {
	switch {
	case n <= 0:
		return 0
	case n >= math.MaxInt:
		return math.MaxInt
	}
	return int(n)
}
