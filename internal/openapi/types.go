package openapi

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

var timeType = reflect.TypeOf(time.Time{})

// SchemaFor derives a schema from the json tags of a struct value. Fields
// tagged "-" are skipped; omitempty and pointer fields are optional,
// everything else is required. It panics on types openapi3gen cannot
// describe, which only happens for cyclic types.
func SchemaFor(v any) *openapi3.Schema {
	ref, err := openapi3gen.NewSchemaRefForValue(v, nil,
		openapi3gen.UseAllExportedFields(),
		openapi3gen.SchemaCustomizer(markRequired),
	)
	if err != nil {
		panic(fmt.Sprintf("openapi: schema for %T: %v", v, err))
	}
	return ref.Value
}

// markRequired fills Required on every generated object schema.
func markRequired(_ string, t reflect.Type, _ reflect.StructTag, schema *openapi3.Schema) error {
	if t.Kind() != reflect.Struct || t == timeType {
		return nil
	}
	schema.Required = nil
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() == reflect.Pointer {
			continue
		}
		name, omitempty := jsonName(f)
		if name == "-" || omitempty {
			continue
		}
		if _, ok := schema.Properties[name]; ok {
			schema.Required = append(schema.Required, name)
		}
	}
	return nil
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, strings.Contains(opts, "omitempty")
}
