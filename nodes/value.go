package nodes

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gmlewis/extrude-curve/mesh"
)

// Kind is the type of a socket or value.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindVector
	KindGeometry
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "FLOAT"
	case KindInt:
		return "INT"
	case KindBool:
		return "BOOLEAN"
	case KindVector:
		return "VECTOR"
	case KindGeometry:
		return "GEOMETRY"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is anything that flows along a link.
type Value interface {
	Kind() Kind
}

type (
	Float  float64
	Int    int
	Bool   bool
	Vector mgl64.Vec3
)

func (Float) Kind() Kind  { return KindFloat }
func (Int) Kind() Kind    { return KindInt }
func (Bool) Kind() Kind   { return KindBool }
func (Vector) Kind() Kind { return KindVector }

// Domain is the element type a field is evaluated on.
type Domain int

const (
	DomainPoint Domain = iota
	DomainFace
	DomainInstance
)

func (d Domain) String() string {
	switch d {
	case DomainPoint:
		return "POINT"
	case DomainFace:
		return "FACE"
	case DomainInstance:
		return "INSTANCE"
	default:
		return fmt.Sprintf("Domain(%d)", int(d))
	}
}

// FieldContext identifies the element a field is evaluated for.
type FieldContext struct {
	Mesh   *mesh.Mesh
	Domain Domain
	Index  int
}

// Field is a value computed per element by the node that consumes it.
type Field struct {
	kind Kind
	eval func(fc FieldContext) Value
}

// NewField returns a field of the given kind.
func NewField(kind Kind, eval func(fc FieldContext) Value) *Field {
	return &Field{kind: kind, eval: eval}
}

func (f *Field) Kind() Kind { return f.kind }

// Eval evaluates the field for one element.
func (f *Field) Eval(fc FieldContext) Value { return f.eval(fc) }

// At evaluates v for the element fc. Plain values are returned unchanged.
func At(v Value, fc FieldContext) Value {
	if f, ok := v.(*Field); ok {
		return f.Eval(fc)
	}
	return v
}

// IsField reports whether v varies per element.
func IsField(v Value) bool {
	_, ok := v.(*Field)
	return ok
}

// lift applies fn to in. If any input is a field the result is a field of
// the given kind that evaluates its inputs per element.
func lift(kind Kind, in []Value, fn func(args []Value) Value) Value {
	for _, v := range in {
		if !IsField(v) {
			continue
		}
		return NewField(kind, func(fc FieldContext) Value {
			args := make([]Value, len(in))
			for i, v := range in {
				args[i] = At(v, fc)
			}
			return fn(args)
		})
	}
	return fn(in)
}

// single evaluates fields with an empty context so that they can be used
// where one value is required.
func single(v Value) Value {
	return At(v, FieldContext{})
}

// AsFloat converts v to a float.
func AsFloat(v Value) float64 {
	switch x := single(v).(type) {
	case Float:
		return float64(x)
	case Int:
		return float64(x)
	case Bool:
		if x {
			return 1
		}
		return 0
	case Vector:
		return (x[0] + x[1] + x[2]) / 3
	}
	return 0
}

// AsInt converts v to an int, truncating floats toward zero.
func AsInt(v Value) int {
	switch x := single(v).(type) {
	case Int:
		return int(x)
	case Float:
		f := math.Trunc(float64(x))
		switch {
		case math.IsNaN(f):
			return 0
		case f > math.MaxInt32:
			return math.MaxInt32
		case f < math.MinInt32:
			return math.MinInt32
		}
		return int(f)
	case Bool:
		if x {
			return 1
		}
		return 0
	case Vector:
		return AsInt(Float(AsFloat(x)))
	}
	return 0
}

// AsBool converts v to a bool. Numbers are true when positive.
func AsBool(v Value) bool {
	switch x := single(v).(type) {
	case Bool:
		return bool(x)
	case Float:
		return x > 0
	case Int:
		return x > 0
	case Vector:
		return mgl64.Vec3(x).Len() > 0
	}
	return false
}

// AsVector converts v to a vector. Scalars are broadcast.
func AsVector(v Value) mgl64.Vec3 {
	switch x := single(v).(type) {
	case Vector:
		return mgl64.Vec3(x)
	case Float, Int, Bool:
		f := AsFloat(x)
		return mgl64.Vec3{f, f, f}
	}
	return mgl64.Vec3{}
}

// AsGeometry returns the geometry held by v, or an empty geometry.
func AsGeometry(v Value) *Geometry {
	if g, ok := v.(*Geometry); ok && g != nil {
		return g
	}
	return &Geometry{}
}

// Convert returns v as a value of the given kind.
func Convert(v Value, kind Kind) Value {
	if f, ok := v.(*Field); ok {
		if f.kind == kind {
			return f
		}
		return NewField(kind, func(fc FieldContext) Value {
			return Convert(f.Eval(fc), kind)
		})
	}
	switch kind {
	case KindFloat:
		return Float(AsFloat(v))
	case KindInt:
		return Int(AsInt(v))
	case KindBool:
		return Bool(AsBool(v))
	case KindVector:
		return Vector(AsVector(v))
	case KindGeometry:
		return AsGeometry(v)
	}
	return v
}

// convertible reports whether a link from kind a to kind b is allowed.
func convertible(a, b Kind) bool {
	if a == KindGeometry || b == KindGeometry {
		return a == b
	}
	return true
}
