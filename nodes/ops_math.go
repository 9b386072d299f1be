package nodes

import (
	"context"
	"fmt"
	"math"
)

// MathOperation is the function computed by a Math node.
type MathOperation string

const (
	MathAdd         MathOperation = "ADD"
	MathSubtract    MathOperation = "SUBTRACT"
	MathMultiply    MathOperation = "MULTIPLY"
	MathDivide      MathOperation = "DIVIDE"
	MathMultiplyAdd MathOperation = "MULTIPLY_ADD"
	MathPower       MathOperation = "POWER"
	MathMinimum     MathOperation = "MINIMUM"
	MathMaximum     MathOperation = "MAXIMUM"
	MathLessThan    MathOperation = "LESS_THAN"
	MathGreaterThan MathOperation = "GREATER_THAN"
	MathAbsolute    MathOperation = "ABSOLUTE"
	MathFloor       MathOperation = "FLOOR"
	MathCeil        MathOperation = "CEIL"
	MathRound       MathOperation = "ROUND"
	MathModulo      MathOperation = "MODULO"
)

// Math applies a float operation to its three Value inputs. Division and
// modulo by zero yield 0.
type Math struct {
	Operation MathOperation
	// UseClamp clamps the result to [0, 1].
	UseClamp bool
}

func (op *Math) Type() string        { return "Math" }
func (op *Math) DisplayName() string { return "Math" }

func (op *Math) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "Value", Kind: KindFloat, Default: Float(0.5)},
			{Name: "Value", Kind: KindFloat, Default: Float(0.5)},
			{Name: "Value", Kind: KindFloat, Default: Float(0.5)},
		},
		[]SocketDecl{{Name: "Value", Kind: KindFloat}}
}

func (op *Math) Properties() map[string]interface{} {
	return map[string]interface{}{"operation": string(op.Operation), "use_clamp": op.UseClamp}
}

func (op *Math) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	fn, ok := mathFuncs[op.Operation]
	if !ok {
		return nil, fmt.Errorf("unsupported math operation %q", op.Operation)
	}
	out := lift(KindFloat, []Value{args.Value(0), args.Value(1), args.Value(2)}, func(v []Value) Value {
		r := fn(AsFloat(v[0]), AsFloat(v[1]), AsFloat(v[2]))
		if op.UseClamp {
			r = math.Max(0, math.Min(1, r))
		}
		return Float(r)
	})
	return []Value{out}, nil
}

var mathFuncs = map[MathOperation]func(a, b, c float64) float64{
	MathAdd:         func(a, b, c float64) float64 { return a + b },
	MathSubtract:    func(a, b, c float64) float64 { return a - b },
	MathMultiply:    func(a, b, c float64) float64 { return a * b },
	MathDivide:      func(a, b, c float64) float64 { return safeDiv(a, b) },
	MathMultiplyAdd: func(a, b, c float64) float64 { return a*b + c },
	MathPower: func(a, b, c float64) float64 {
		r := math.Pow(a, b)
		if math.IsNaN(r) {
			return 0
		}
		return r
	},
	MathMinimum:     func(a, b, c float64) float64 { return math.Min(a, b) },
	MathMaximum:     func(a, b, c float64) float64 { return math.Max(a, b) },
	MathLessThan:    func(a, b, c float64) float64 { return b2f(a < b) },
	MathGreaterThan: func(a, b, c float64) float64 { return b2f(a > b) },
	MathAbsolute:    func(a, b, c float64) float64 { return math.Abs(a) },
	MathFloor:       func(a, b, c float64) float64 { return math.Floor(a) },
	MathCeil:        func(a, b, c float64) float64 { return math.Ceil(a) },
	MathRound:       func(a, b, c float64) float64 { return math.Floor(a + 0.5) },
	MathModulo: func(a, b, c float64) float64 {
		if b == 0 {
			return 0
		}
		return math.Mod(a, b)
	},
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// CombineXYZ builds a vector from three floats.
type CombineXYZ struct{}

func (op *CombineXYZ) Type() string        { return "CombineXYZ" }
func (op *CombineXYZ) DisplayName() string { return "Combine XYZ" }

func (op *CombineXYZ) Sockets() (inputs, outputs []SocketDecl) {
	return []SocketDecl{
			{Name: "X", Kind: KindFloat, Default: Float(0)},
			{Name: "Y", Kind: KindFloat, Default: Float(0)},
			{Name: "Z", Kind: KindFloat, Default: Float(0)},
		},
		[]SocketDecl{{Name: "Vector", Kind: KindVector}}
}

func (op *CombineXYZ) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	out := lift(KindVector, []Value{args.Value(0), args.Value(1), args.Value(2)}, func(v []Value) Value {
		return Vector{AsFloat(v[0]), AsFloat(v[1]), AsFloat(v[2])}
	})
	return []Value{out}, nil
}

// CompareOperation is the relation tested by a Compare node.
type CompareOperation string

const (
	CompareLessThan     CompareOperation = "LESS_THAN"
	CompareLessEqual    CompareOperation = "LESS_EQUAL"
	CompareGreaterThan  CompareOperation = "GREATER_THAN"
	CompareGreaterEqual CompareOperation = "GREATER_EQUAL"
	CompareEqual        CompareOperation = "EQUAL"
	CompareNotEqual     CompareOperation = "NOT_EQUAL"
)

// Compare tests A against B. DataType is KindFloat or KindInt and sets the
// kind of both operands. Float equality uses Epsilon.
type Compare struct {
	DataType  Kind
	Operation CompareOperation
}

func (op *Compare) Type() string        { return "Compare" }
func (op *Compare) DisplayName() string { return "Compare" }

func (op *Compare) Sockets() (inputs, outputs []SocketDecl) {
	var zero Value = Float(0)
	if op.DataType == KindInt {
		zero = Int(0)
	}
	return []SocketDecl{
			{Name: "A", Kind: op.DataType, Default: zero},
			{Name: "B", Kind: op.DataType, Default: zero},
			{Name: "Epsilon", Kind: KindFloat, Default: Float(0.001)},
		},
		[]SocketDecl{{Name: "Result", Kind: KindBool}}
}

func (op *Compare) Properties() map[string]interface{} {
	return map[string]interface{}{"data_type": op.DataType.String(), "operation": string(op.Operation)}
}

func (op *Compare) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	if op.DataType != KindFloat && op.DataType != KindInt {
		return nil, fmt.Errorf("unsupported compare data type %v", op.DataType)
	}
	switch op.Operation {
	case CompareLessThan, CompareLessEqual, CompareGreaterThan, CompareGreaterEqual, CompareEqual, CompareNotEqual:
	default:
		return nil, fmt.Errorf("unsupported compare operation %q", op.Operation)
	}
	out := lift(KindBool, []Value{args.Value(0), args.Value(1), args.Value(2)}, func(v []Value) Value {
		var a, b float64
		eps := math.Abs(AsFloat(v[2]))
		if op.DataType == KindInt {
			a, b, eps = float64(AsInt(v[0])), float64(AsInt(v[1])), 0
		} else {
			a, b = AsFloat(v[0]), AsFloat(v[1])
		}
		return Bool(compare(op.Operation, a, b, eps))
	})
	return []Value{out}, nil
}

func compare(op CompareOperation, a, b, eps float64) bool {
	switch op {
	case CompareLessThan:
		return a < b
	case CompareLessEqual:
		return a <= b
	case CompareGreaterThan:
		return a > b
	case CompareGreaterEqual:
		return a >= b
	case CompareEqual:
		return math.Abs(a-b) <= eps
	case CompareNotEqual:
		return math.Abs(a-b) > eps
	}
	return false
}

// Index outputs the index of the element a field is evaluated on.
type Index struct{}

func (op *Index) Type() string        { return "Index" }
func (op *Index) DisplayName() string { return "Index" }

func (op *Index) Sockets() (inputs, outputs []SocketDecl) {
	return nil, []SocketDecl{{Name: "Index", Kind: KindInt}}
}

func (op *Index) Exec(ctx context.Context, n *Node, args Args) ([]Value, error) {
	return []Value{NewField(KindInt, func(fc FieldContext) Value { return Int(fc.Index) })}, nil
}
