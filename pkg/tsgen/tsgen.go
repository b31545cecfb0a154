// Package tsgen writes a TypeScript module describing a dispatcher's
// endpoints: the wire envelope, the Go header, and per-endpoint param,
// query, body and output types.
package tsgen

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/tkrajina/typescriptify-golang-structs/typescriptify"

	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/fsutil"
	"github.com/sjc5/dispatch/pkg/matcher"
	"github.com/sjc5/dispatch/pkg/response"
)

const FileName = "api-types.ts"

type Opts struct {
	OutDest   string
	Endpoints []dispatch.EndpointInfo
	// GoHeader defaults to response.DefaultGoHeader.
	GoHeader string
}

// Generate writes Render's output to OutDest/api-types.ts.
func Generate(opts Opts) error {
	ts, err := Render(opts)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(filepath.Join(opts.OutDest, FileName), []byte(ts)); err != nil {
		return errors.New("failed to write ts file: " + err.Error())
	}
	return nil
}

func Render(opts Opts) (string, error) {
	goHeader := opts.GoHeader
	if goHeader == "" {
		goHeader = response.DefaultGoHeader
	}

	endpoints := append([]dispatch.EndpointInfo(nil), opts.Endpoints...)
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].Identifier < endpoints[j].Identifier
	})

	r := newRenderer()
	var defs strings.Builder
	names := make([]string, 0, len(endpoints))
	seen := make(map[string]string, len(endpoints))

	for _, e := range endpoints {
		name := convertToPascalCase(e.Identifier)
		if name == "" {
			return "", fmt.Errorf("endpoint %q has no usable TypeScript name", e.Identifier)
		}
		if prev, ok := seen[name]; ok {
			return "", fmt.Errorf("endpoints %q and %q both map to TypeScript name %s", prev, e.Identifier, name)
		}
		seen[name] = e.Identifier
		names = append(names, name)

		params, err := r.paramsType(e)
		if err != nil {
			return "", err
		}
		query, err := r.typeOf(e.Meta.Query)
		if err != nil {
			return "", err
		}
		body, err := r.typeOf(e.Meta.Body)
		if err != nil {
			return "", err
		}
		output, err := r.typeOf(e.Meta.Output)
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&defs, "export type %sParams = %s;\n", name, params)
		fmt.Fprintf(&defs, "export type %sQuery = %s;\n", name, query)
		fmt.Fprintf(&defs, "export type %sBody = %s;\n", name, body)
		fmt.Fprintf(&defs, "export type %sOutput = %s;\n", name, output)
		defs.WriteString("const " + name + " = " + toTsEndpointDef(name, e) + "\n\n")
	}

	named, err := r.named.Convert(make(map[string]string))
	if err != nil {
		return "", errors.New("failed to convert types to ts: " + err.Error())
	}

	var ts strings.Builder
	ts.WriteString("/*\n * This file is auto-generated. Do not edit.\n */\n\n")
	ts.WriteString("export const GO_HEADER = " + strconv.Quote(goHeader) + ";\n")
	ts.WriteString(envelopeCode)
	if strings.TrimSpace(named) != "" {
		ts.WriteString(strings.TrimSpace(named) + "\n\n")
	}
	for _, deps := range r.inlineDeps {
		ts.WriteString(deps + "\n\n")
	}
	ts.WriteString(defs.String())
	ts.WriteString("export const ENDPOINT_DEFS = [" + strings.Join(names, ", ") + "] as const;\n")
	ts.WriteString(extraCode)
	return ts.String(), nil
}

var envelopeCode = `
export type ErrorShape = {
	message: string;
	status?: number;
	fieldMessages?: Record<string, Array<string>>;
};

export type Envelope<T> =
	| { data: T; error?: undefined }
	| { data?: undefined; error: ErrorShape };

`

var extraCode = `
export type EndpointDef = (typeof ENDPOINT_DEFS)[number];
export type EndpointID = EndpointDef["id"];

export type Endpoints = {
	[K in EndpointID]: Extract<EndpointDef, { id: K }>;
};

export const ENDPOINTS = Object.fromEntries(
	ENDPOINT_DEFS.map((e) => [e.id, e]),
) as Endpoints;

export type EndpointParams<T extends EndpointID> = Endpoints[T]["params"];
export type EndpointQuery<T extends EndpointID> = Endpoints[T]["query"];
export type EndpointBody<T extends EndpointID> = Endpoints[T]["body"];
export type EndpointOutput<T extends EndpointID> = Endpoints[T]["output"];
`

func toTsEndpointDef(name string, e dispatch.EndpointInfo) string {
	methods := make([]string, len(e.Methods))
	for i, m := range e.Methods {
		methods[i] = strconv.Quote(m)
	}
	return fmt.Sprintf(
		`{
	id: %s,
	template: %s,
	methods: [%s],
	params: "" as unknown as %sParams,
	query: "" as unknown as %sQuery,
	body: "" as unknown as %sBody,
	output: "" as unknown as %sOutput,
} as const;`,
		strconv.Quote(e.Identifier),
		strconv.Quote(e.Template),
		strings.Join(methods, ", "),
		name, name, name, name,
	)
}

/////////////////////////////////////////////////////////////////////
/////// TYPES
/////////////////////////////////////////////////////////////////////

type renderer struct {
	// named collects every named struct so each interface is emitted once.
	named      *typescriptify.TypeScriptify
	inlineDeps []string
}

func newRenderer() *renderer {
	return &renderer{named: newConverter()}
}

func newConverter() *typescriptify.TypeScriptify {
	converter := typescriptify.New()
	converter.CreateInterface = true
	return converter
}

// paramsType uses Meta.Params when set and otherwise derives the shape from
// the template, with optional segments as optional properties.
func (r *renderer) paramsType(e dispatch.EndpointInfo) (string, error) {
	if e.Meta.Params != nil {
		return r.typeOf(e.Meta.Params)
	}
	var fields []string
	for _, seg := range e.Segments {
		switch seg.Type {
		case matcher.SegmentRequired:
			fields = append(fields, propertyName(seg.Value)+": string")
		case matcher.SegmentOptional:
			fields = append(fields, propertyName(seg.Value)+"?: string")
		}
	}
	return buildObj(fields), nil
}

func (r *renderer) typeOf(sample any) (string, error) {
	if sample == nil {
		return "undefined", nil
	}
	return r.ref(reflect.TypeOf(sample))
}

func (r *renderer) ref(t reflect.Type) (string, error) {
	switch {
	case t == reflect.TypeOf(time.Time{}):
		return "string", nil
	case t == reflect.TypeOf(time.Duration(0)):
		return "number", nil
	}

	switch t.Kind() {
	case reflect.Ptr:
		inner, err := r.ref(t.Elem())
		if err != nil {
			return "", err
		}
		return inner + " | null", nil
	case reflect.Bool:
		return "boolean", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number", nil
	case reflect.String:
		return "string", nil
	case reflect.Slice, reflect.Array:
		elem, err := r.ref(t.Elem())
		if err != nil {
			return "", err
		}
		return "Array<" + elem + ">", nil
	case reflect.Map:
		key, err := r.ref(t.Key())
		if err != nil {
			return "", err
		}
		elem, err := r.ref(t.Elem())
		if err != nil {
			return "", err
		}
		return "Record<" + key + ", " + elem + ">", nil
	case reflect.Struct:
		if t.Name() != "" {
			r.named.AddType(t)
			return t.Name(), nil
		}
		return r.anonymousStruct(t)
	default:
		return "unknown", nil
	}
}

// anonymousStruct converts an unnamed struct on its own and inlines the body
// of the interface typescriptify emits for it. Named types it depends on are
// emitted ahead of it, so those are kept as top-level declarations.
func (r *renderer) anonymousStruct(t reflect.Type) (string, error) {
	if t.NumField() == 0 {
		return buildObj(nil), nil
	}
	converter := newConverter()
	converter.AddType(t)
	out, err := converter.Convert(make(map[string]string))
	if err != nil {
		return "", errors.New("failed to convert anonymous struct to ts: " + err.Error())
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "export interface  {") || strings.HasPrefix(line, "export interface {") {
			start = i
		}
	}
	if start < 0 {
		return "unknown", nil
	}
	if deps := strings.TrimSpace(strings.Join(lines[:start], "\n")); deps != "" {
		r.inlineDeps = append(r.inlineDeps, deps)
	}
	return "{\n" + strings.Join(lines[start+1:], "\n"), nil
}

// propertyName quotes param names that are not valid identifiers.
func propertyName(name string) string {
	if name == "" || unicode.IsDigit(rune(name[0])) || strings.ContainsFunc(name, isIllegalCharacter) {
		return strconv.Quote(name)
	}
	return name
}

func buildObj(fields []string) string {
	if len(fields) == 0 {
		return "Record<never, never>"
	}
	var sb strings.Builder
	sb.WriteString("{ ")
	sb.WriteString(strings.Join(fields, "; "))
	sb.WriteString(" }")
	return sb.String()
}
