package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// parseURLValues fills dst from values keyed by JSON field name. A
// destination that is not a struct pointer is a programming error and comes
// back as a plain error. Unparseable values come back as an *Error.
func parseURLValues(values map[string][]string, dst any) error {
	dstValue := reflect.ValueOf(dst)
	if dstValue.Kind() != reflect.Pointer || dstValue.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dst)
	}

	dstElem := dstValue.Elem()
	if dstElem.Kind() != reflect.Struct {
		return fmt.Errorf("destination must be a pointer to a struct, got %T", dst)
	}

	fieldErrs := &Error{Message: "invalid parameters"}
	setNestedField(dstElem, values, "", fieldErrs)
	if len(fieldErrs.Fields) > 0 {
		return fieldErrs
	}
	return nil
}

func setNestedField(v reflect.Value, values map[string][]string, path string, errs *Error) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		if field.Anonymous && fieldValue.Kind() == reflect.Struct {
			setNestedField(fieldValue, values, path, errs)
			continue
		}

		name := jsonFieldName(field)
		if name == "" {
			continue
		}

		if fieldValue.Kind() == reflect.Struct {
			nested := make(map[string][]string)
			prefix := name + "."
			for key, value := range values {
				if strings.HasPrefix(key, prefix) {
					nested[strings.TrimPrefix(key, prefix)] = value
				}
			}
			setNestedField(fieldValue, nested, path+prefix, errs)
			continue
		}

		if value, ok := values[name]; ok {
			if err := setField(fieldValue, value); err != nil {
				errs.Add(path+name, err.Error())
			}
		}
	}
}

func setField(field reflect.Value, values []string) error {
	if len(values) == 0 {
		return nil
	}

	switch field.Kind() {
	case reflect.Pointer:
		if values[0] == "" {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setSingleValueField(field.Elem(), values[0])
	case reflect.Slice:
		return setSliceField(field, values)
	case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		return setSingleValueField(field, values[0])
	default:
		return fmt.Errorf("has unsupported type %s", field.Type())
	}
}

func setSliceField(field reflect.Value, values []string) error {
	slice := reflect.MakeSlice(field.Type(), len(values), len(values))
	for i, value := range values {
		elem := slice.Index(i)
		if elem.Kind() == reflect.Pointer {
			elem.Set(reflect.New(elem.Type().Elem()))
			elem = elem.Elem()
		}
		if err := setSingleValueField(elem, value); err != nil {
			return err
		}
	}
	field.Set(slice)
	return nil
}

func setSingleValueField(field reflect.Value, value string) error {
	if value == "" {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("must be an integer")
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("must be a non-negative integer")
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("must be a boolean")
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("has unsupported type %s", field.Type())
	}
	return nil
}
