package filterexpr

import (
	"errors"
	"fmt"
	"time"

	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// DateLayout is the layout accepted by date() literals.
const DateLayout = "2006-01-02"

type atomicPredicate struct {
	Field string
	Op    Op
	Value any
}

var binaryOps = map[string]Op{
	"_==_": OpEQ,
	"_!=_": OpNE,
	"_<_":  OpLT,
	"_<=_": OpLTE,
	"_>_":  OpGT,
	"_>=_": OpGTE,
}

func parseAtomicPredicate(expr *exprpb.Expr) (atomicPredicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return atomicPredicate{}, errors.New("unsupported expression; expected comparison or function call")
	}

	if op, ok := binaryOps[call.Function]; ok {
		return parseBinaryPredicate(call, op)
	}
	switch call.Function {
	case "@in", "_in_":
		return parseInPredicate(call)
	case "startsWith":
		return parseMethodPredicate(call, OpSW)
	case "contains":
		return parseMethodPredicate(call, OpContains)
	default:
		return atomicPredicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func parseBinaryPredicate(call *exprpb.Expr_Call, op Op) (atomicPredicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return atomicPredicate{}, fmt.Errorf("operator %q expects two operands", string(op))
	}

	fieldName, err := parseFieldIdent(call.Args[0])
	if err != nil {
		return atomicPredicate{}, err
	}
	value, err := parseLiteral(call.Args[1])
	if err != nil {
		return atomicPredicate{}, err
	}
	return atomicPredicate{Field: fieldName, Op: op, Value: value}, nil
}

func parseInPredicate(call *exprpb.Expr_Call) (atomicPredicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return atomicPredicate{}, errors.New("in operator expects two operands")
	}

	fieldName, err := parseFieldIdent(call.Args[0])
	if err != nil {
		return atomicPredicate{}, err
	}
	value, err := parseLiteral(call.Args[1])
	if err != nil {
		return atomicPredicate{}, err
	}
	return atomicPredicate{Field: fieldName, Op: OpIN, Value: value}, nil
}

// parseMethodPredicate accepts both field.fn('x') and fn(field, 'x').
func parseMethodPredicate(call *exprpb.Expr_Call, op Op) (atomicPredicate, error) {
	var fieldExpr, valueExpr *exprpb.Expr
	switch {
	case call.Target != nil && len(call.Args) == 1:
		fieldExpr, valueExpr = call.Target, call.Args[0]
	case call.Target == nil && len(call.Args) == 2:
		fieldExpr, valueExpr = call.Args[0], call.Args[1]
	default:
		return atomicPredicate{}, fmt.Errorf("%s expects a field and one argument", string(op))
	}

	fieldName, err := parseFieldIdent(fieldExpr)
	if err != nil {
		return atomicPredicate{}, err
	}
	value, err := parseLiteral(valueExpr)
	if err != nil {
		return atomicPredicate{}, err
	}
	str, ok := value.(string)
	if !ok {
		return atomicPredicate{}, fmt.Errorf("%s requires a string literal argument", string(op))
	}
	return atomicPredicate{Field: fieldName, Op: op, Value: str}, nil
}

func parseFieldIdent(expr *exprpb.Expr) (string, error) {
	ident := expr.GetIdentExpr()
	if ident == nil {
		return "", errors.New("left-hand side must be an identifier")
	}
	return ident.GetName(), nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		switch constant.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return constant.GetStringValue(), nil
		case *exprpb.Constant_BoolValue:
			return constant.GetBoolValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(constant.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(constant.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return constant.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		elements := list.GetElements()
		values := make([]string, len(elements))
		for i, elem := range elements {
			val, err := parseLiteral(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			str, ok := val.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values[i] = str
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil {
		switch call.Function {
		case "timestamp":
			return parseTimeCall(call, func(s string) (time.Time, error) {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return t, nil
				}
				return time.Time{}, fmt.Errorf("timestamp literal %q is not RFC3339", s)
			})
		case "date":
			return parseTimeCall(call, func(s string) (time.Time, error) {
				t, err := time.ParseInLocation(DateLayout, s, time.Local)
				if err != nil {
					return time.Time{}, fmt.Errorf("date literal %q is not %s", s, DateLayout)
				}
				return t, nil
			})
		}
	}

	return nil, errors.New("right-hand side must be a literal, list literal, date() or timestamp() call")
}

func parseTimeCall(call *exprpb.Expr_Call, parse func(string) (time.Time, error)) (any, error) {
	if call.Target != nil || len(call.Args) != 1 {
		return nil, fmt.Errorf("%s() expects a single string argument", call.Function)
	}
	arg := call.Args[0].GetConstExpr()
	if arg == nil {
		return nil, fmt.Errorf("%s() argument must be a string literal", call.Function)
	}
	str := arg.GetStringValue()
	if str == "" {
		return nil, fmt.Errorf("%s() argument must not be empty", call.Function)
	}
	return parse(str)
}

// coerceLiteral checks value against the field kind. Date fields also accept plain
// 'YYYY-MM-DD' strings.
func coerceLiteral(kind ValueKind, op Op, value any) (any, error) {
	switch kind {
	case KindString:
		if op == OpIN {
			list, ok := value.([]string)
			if !ok {
				return nil, fmt.Errorf("expected list of %s literals", kind)
			}
			if len(list) == 0 {
				return nil, errors.New("list literal must not be empty")
			}
			for _, item := range list {
				if item == "" {
					return nil, errors.New("list literal must not contain empty strings")
				}
			}
			return list, nil
		}
		if _, ok := value.(string); !ok {
			return nil, fmt.Errorf("expected %s literal", kind)
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return nil, fmt.Errorf("expected %s literal", kind)
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return nil, fmt.Errorf("expected %s literal", kind)
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return nil, fmt.Errorf("expected %s literal", kind)
		}
	case KindDate:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.ParseInLocation(DateLayout, v, time.Local)
			if err != nil {
				return nil, fmt.Errorf("expected %s literal in %s layout", kind, DateLayout)
			}
			return t, nil
		default:
			return nil, fmt.Errorf("expected %s literal", kind)
		}
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
	return value, nil
}
