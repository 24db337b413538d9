package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/cuewgen/parser"
)

var ErrUnsupportedExpr = errors.New("unsupported enumerator expression")

// The preprocessed CUDA headers spell CUipcMemHandle's reserved field size
// as 64; keep the named constant in the generated header.
const (
	reservedField = "reserved"
	reservedDim   = "64"
	reservedConst = "CU_IPC_HANDLE_SIZE"
)

// renderStruct renders one member per line at the current indent level.
func (v *Visitor) renderStruct(decls []*parser.Decl) (string, error) {
	var b strings.Builder
	for _, d := range decls {
		member, err := v.declString(d)
		if err != nil {
			return "", fmt.Errorf("member %s: %w", d.Name, err)
		}
		b.WriteString(indentation(v.indent) + member + ";\n")
	}
	return b.String(), nil
}

// renderEnum renders one enumerator per line at the current indent level and
// returns the enumerators in declaration order.
func (v *Visitor) renderEnum(e *parser.Enum) (string, []Enumerator, error) {
	var b strings.Builder
	records := make([]Enumerator, 0, len(e.Values))

	for _, en := range e.Values {
		rec := Enumerator{Name: en.Name}
		b.WriteString(indentation(v.indent) + en.Name)

		if en.Value != nil {
			value, err := enumValue(en.Value)
			if err != nil {
				return "", nil, fmt.Errorf("enumerator %s: %w", en.Name, err)
			}
			rec.Value = value
			b.WriteString(" = " + value)
		}

		b.WriteString(",\n")
		records = append(records, rec)
	}

	return b.String(), records, nil
}

// enumValue renders an enumerator value. Binary operations are limited to
// two leaf operands.
func enumValue(e parser.Expr) (string, error) {
	if bin, ok := e.(*parser.BinaryOp); ok {
		left, err := leafExpr(bin.Left)
		if err != nil {
			return "", err
		}
		right, err := leafExpr(bin.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, bin.Op, right), nil
	}

	return leafExpr(e)
}

func leafExpr(e parser.Expr) (string, error) {
	switch x := e.(type) {
	case *parser.Constant:
		return x.Value, nil
	case *parser.ID:
		return x.Name, nil
	case *parser.UnaryOp:
		operand, err := leafExpr(x.Expr)
		if err != nil {
			return "", err
		}
		return x.Op + operand, nil
	}

	return "", fmt.Errorf("%w: %T", ErrUnsupportedExpr, e)
}

// arraySuffix renders the bounds of the array declarators wrapping n.
func arraySuffix(name string, n parser.Node) (string, error) {
	var b strings.Builder
	for {
		arr, ok := n.(*parser.ArrayDecl)
		if !ok {
			return b.String(), nil
		}

		var dim string
		if arr.Dim != nil {
			var err error
			if dim, err = enumValue(arr.Dim); err != nil {
				return "", err
			}
		}
		if name == reservedField && dim == reservedDim {
			dim = reservedConst
		}
		b.WriteString("[" + dim + "]")

		n = arr.Type
	}
}
