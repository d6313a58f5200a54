package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Msg wraps query values that expose filter and order_by raw inputs.
type Msg interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind describes the kind of literal value a field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindBool      ValueKind = "bool"
	KindTimestamp ValueKind = "timestamp"
	// KindDate accepts date('2006-01-02') as well as timestamp() literals.
	KindDate ValueKind = "date"
)

// Op represents a supported comparison operation.
type Op string

const (
	OpEQ       Op = "=="
	OpNE       Op = "!="
	OpLT       Op = "<"
	OpLTE      Op = "<="
	OpGT       Op = ">"
	OpGTE      Op = ">="
	OpSW       Op = "startsWith"
	OpContains Op = "contains"
	OpIN       Op = "in"
)

// SetterFunc allows custom assignment of literal values to struct fields.
type SetterFunc func(field reflect.Value, value any) error

// FilterField maps the operations allowed on a filter field to params struct fields.
type FilterField struct {
	Kind   ValueKind
	Ops    map[Op]string
	Setter SetterFunc
}

// OrderField describes an orderable key. Nulls is "first" or "last" and places unset
// values of the key.
type OrderField struct {
	Nulls string
}

// OrderSchema describes ordering defaults and whitelisted keys.
type OrderSchema struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Fields             map[string]OrderField
}

// ResourceSchema aggregates filtering and ordering rules for a resource.
type ResourceSchema struct {
	Filter map[string]FilterField
	Order  OrderSchema
}

var timeType = reflect.TypeOf(time.Time{})

// Bind parses the filter and order_by of msg and populates binding accordingly.
// binding must be a pointer to a struct carrying the fields named by the schema plus
// PrimaryKey, PrimaryDesc, SecondaryKey and SecondaryDesc.
func Bind[M Msg, P any](msg M, binding *P, schema ResourceSchema) error {
	if binding == nil {
		return errors.New("binding must not be nil")
	}

	if err := BindFilter(msg.GetFilter(), binding, schema.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	order, err := parseOrderBy(msg.GetOrderBy(), schema.Order)
	if err != nil {
		return fmt.Errorf("order_by: %w", err)
	}
	return setOrderParams(binding, order)
}

// BindFilter parses a conjunction of comparisons and assigns each literal to the params
// field its schema rule names.
func BindFilter(filter string, binding any, fields map[string]FilterField) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(fields) == 0 {
		return errors.New("filter schema has no fields defined")
	}

	dest, err := structTarget(binding)
	if err != nil {
		return err
	}

	conjuncts, err := parseConjuncts(filter, fields)
	if err != nil {
		return err
	}

	for _, expr := range conjuncts {
		pred, err := parseAtomicPredicate(expr)
		if err != nil {
			return err
		}
		if err := bindPredicate(dest, pred, fields); err != nil {
			return err
		}
	}
	return nil
}

func bindPredicate(dest reflect.Value, pred atomicPredicate, fields map[string]FilterField) error {
	rule, ok := fields[pred.Field]
	if !ok {
		return fmt.Errorf("field %q is not allowed", pred.Field)
	}

	targetName, ok := rule.Ops[pred.Op]
	if !ok {
		return fmt.Errorf("operator %q is not allowed for field %q", string(pred.Op), pred.Field)
	}

	value, err := coerceLiteral(rule.Kind, pred.Op, pred.Value)
	if err != nil {
		return fmt.Errorf("field %q: %w", pred.Field, err)
	}

	field := dest.FieldByName(targetName)
	if !field.IsValid() {
		return fmt.Errorf("params struct %s has no field named %q", dest.Type(), targetName)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field %q on params struct", targetName)
	}

	if rule.Setter != nil {
		if err := callSetter(rule.Setter, field, value); err != nil {
			return fmt.Errorf("setter for field %q failed: %w", targetName, err)
		}
		return nil
	}
	if err := assignValue(field, value); err != nil {
		return fmt.Errorf("failed to assign field %q: %w", targetName, err)
	}
	return nil
}

func structTarget(binding any) (reflect.Value, error) {
	rv := reflect.ValueOf(binding)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, errors.New("binding must be a non-nil pointer")
	}
	dest := rv.Elem()
	if dest.Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("binding must point to a struct")
	}
	return dest, nil
}

func parseConjuncts(filter string, fields map[string]FilterField) ([]*exprpb.Expr, error) {
	env, err := buildEnv(fields)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter: %w", issues.Err())
	}

	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to convert AST: %w", err)
	}
	return extractConjuncts(parsed.GetExpr())
}

func buildEnv(fields map[string]FilterField) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, rule := range fields {
		celType, err := celTypeForKind(rule.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

func celTypeForKind(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindBool:
		return cel.BoolType, nil
	case KindTimestamp, KindDate:
		return cel.TimestampType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

// extractConjuncts flattens nested && chains; any other logical operator is rejected.
func extractConjuncts(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}

	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}

	switch call.Function {
	case "_&&_":
		if len(call.Args) < 2 || call.Target != nil {
			return nil, errors.New("logical AND must have at least two operands")
		}
		var result []*exprpb.Expr
		for _, arg := range call.Args {
			conjuncts, err := extractConjuncts(arg)
			if err != nil {
				return nil, err
			}
			result = append(result, conjuncts...)
		}
		return result, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}
