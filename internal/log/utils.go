package log

import (
	"context"
	"encoding/json"
	"reflect"
)

const separator = "--------------------------------------"

// PrintArray writes arr as a JSON document when asJSON is set, otherwise one block per item.
func PrintArray[K any](ctx context.Context, arr []K, asJSON bool, fieldNameReplacements map[string]string) {
	if asJSON {
		data, _ := json.Marshal(arr)
		From(ctx).Println(string(data))
	} else {
		PrettyPrintArray(ctx, arr, fieldNameReplacements)
	}
}

func PrintValue(ctx context.Context, value interface{}, asJSON bool, fieldNameReplacements map[string]string) {
	l := From(ctx)

	if asJSON {
		data, _ := json.Marshal(value)
		l.Println(string(data))
	} else {
		l.Println(separator)
		PrettyPrint(ctx, value, fieldNameReplacements)
	}
}

func PrettyPrintArray[K any](ctx context.Context, arr []K, fieldNameReplacements map[string]string) {
	l := From(ctx)

	if len(arr) == 0 {
		l.Println("NO RESULTS")
		return
	}

	l.Println(separator)
	for _, item := range arr {
		PrettyPrint(ctx, item, fieldNameReplacements)
		l.Println(separator)
	}
}

// PrettyPrint writes one "Field: value" line per exported struct field. Composite values are
// rendered as JSON; anything that is not a struct is printed as is.
func PrettyPrint(ctx context.Context, value interface{}, fieldNameReplacements map[string]string) {
	l := From(ctx)

	refVal := reflect.ValueOf(value)

	if refVal.Kind() == reflect.Ptr {
		refVal = refVal.Elem()
	}

	if refVal.Kind() != reflect.Struct {
		l.PrintlnUnstyled(value)
		return
	}

	for i := 0; i < refVal.NumField(); i++ {
		field := refVal.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		fieldName := field.Name
		val := refVal.Field(i)

		if field.Type.Kind() == reflect.Ptr && !val.IsNil() {
			val = val.Elem()
		}

		value := val.Interface()

		switch val.Kind() {
		case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
			data, _ := json.Marshal(value)
			value = string(data)
		}

		if replacement, ok := fieldNameReplacements[fieldName]; ok {
			fieldName = replacement
		}

		l.Printf("%s: %v", fieldName, value)
	}
}
