package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// OrderKey is one resolved ordering key.
type OrderKey struct {
	Key   string
	Desc  bool
	Nulls string
}

type orderParams struct {
	Primary   OrderKey
	Secondary OrderKey
}

func (s OrderSchema) validate() error {
	if s.DefaultPrimary == "" {
		return errors.New("order schema default primary key required")
	}
	if s.FallbackKey == "" {
		return errors.New("order schema fallback key required")
	}
	if _, ok := s.Fields[s.DefaultPrimary]; !ok {
		return fmt.Errorf("order key %q missing from schema fields", s.DefaultPrimary)
	}
	if _, ok := s.Fields[s.FallbackKey]; !ok {
		return fmt.Errorf("fallback order key %q missing from schema fields", s.FallbackKey)
	}
	return nil
}

func (s OrderSchema) key(name string, desc bool) OrderKey {
	return OrderKey{Key: name, Desc: desc, Nulls: s.Fields[name].Nulls}
}

// parseOrderBy reads "key [asc|desc], key [asc|desc]". At most two keys are accepted;
// the schema fallback fills the second slot.
func parseOrderBy(raw string, schema OrderSchema) (orderParams, error) {
	if err := schema.validate(); err != nil {
		return orderParams{}, err
	}

	var keys []OrderKey
	seen := map[string]struct{}{}
	for _, seg := range strings.Split(strings.TrimSpace(raw), ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		name := parts[0]
		if _, ok := schema.Fields[name]; !ok {
			return orderParams{}, fmt.Errorf("field %q cannot be used for ordering", name)
		}
		if _, dup := seen[name]; dup {
			return orderParams{}, fmt.Errorf("duplicate order key %q", name)
		}
		seen[name] = struct{}{}

		desc := false
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return orderParams{}, fmt.Errorf("invalid direction %q for field %q", parts[1], name)
			}
		default:
			return orderParams{}, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}
		keys = append(keys, schema.key(name, desc))
	}
	if len(keys) > 2 {
		return orderParams{}, errors.New("order_by supports at most two keys")
	}

	ord := orderParams{
		Primary:   schema.key(schema.DefaultPrimary, schema.DefaultPrimaryDesc),
		Secondary: schema.key(schema.FallbackKey, schema.FallbackDesc),
	}
	if len(keys) > 0 {
		ord.Primary = keys[0]
	}
	if len(keys) > 1 {
		ord.Secondary = keys[1]
	}
	if ord.Secondary.Key == ord.Primary.Key {
		if ord.Primary.Key == schema.DefaultPrimary {
			return ord, nil
		}
		ord.Secondary = schema.key(schema.DefaultPrimary, schema.DefaultPrimaryDesc)
	}
	return ord, nil
}

func setOrderParams(binding any, ord orderParams) error {
	target, err := structTarget(binding)
	if err != nil {
		return err
	}

	fields := []struct {
		name  string
		value any
	}{
		{"PrimaryKey", ord.Primary.Key},
		{"PrimaryDesc", ord.Primary.Desc},
		{"SecondaryKey", ord.Secondary.Key},
		{"SecondaryDesc", ord.Secondary.Desc},
	}
	for _, f := range fields {
		if err := setAssignableField(target, f.name, reflect.ValueOf(f.value)); err != nil {
			return err
		}
	}

	// Null placement is only bound when the params struct asks for it.
	for name, nulls := range map[string]string{"PrimaryNulls": ord.Primary.Nulls, "SecondaryNulls": ord.Secondary.Nulls} {
		if !target.FieldByName(name).IsValid() {
			continue
		}
		if err := setAssignableField(target, name, reflect.ValueOf(nulls)); err != nil {
			return err
		}
	}
	return nil
}

func setAssignableField(target reflect.Value, name string, value reflect.Value) error {
	field := target.FieldByName(name)
	if !field.IsValid() {
		return fmt.Errorf("params struct %s has no field named %q", target.Type(), name)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field %q on params struct", name)
	}

	switch field.Kind() {
	case reflect.Interface:
		field.Set(value)
		return nil
	case reflect.Ptr:
		elemType := field.Type().Elem()
		if !value.Type().ConvertibleTo(elemType) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, elemType, value.Type())
		}
		if field.IsNil() {
			field.Set(reflect.New(elemType))
		}
		field.Elem().Set(value.Convert(elemType))
		return nil
	default:
		if !value.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, field.Type(), value.Type())
		}
		field.Set(value.Convert(field.Type()))
		return nil
	}
}
