package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Result is the outcome of one tool invocation. Success carries Result text,
// failure carries Error text; the two are mutually exclusive.
type Result struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Ok(text string) Result { return Result{Success: true, Result: text} }

func Fail(text string) Result { return Result{Success: false, Error: text} }

// Definition is the wire shape of one tool entry in the upstream
// session.update tool list.
type Definition struct {
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// Tool is a named local procedure the model may request via a function_call
// item. Run receives the raw JSON argument object.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Run         func(ctx context.Context, args json.RawMessage) Result
}

// Registry holds the tools offered to the upstream model.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry returns a registry with the built-in tools registered.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.Register(faqLookupTool())
	r.Register(convertTemperatureTool())
	return r
}

func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Definitions lists the registered tools in registration order, for the
// upstream session.update.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, Definition{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Execute runs the named tool. An unknown name is a failed Result, not an
// error: the text is fed back to the model as the function output.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) Result {
	t, ok := r.tools[name]
	if !ok {
		return Fail(fmt.Sprintf("Unknown tool: %s", name))
	}
	return t.Run(ctx, args)
}

// schemaFor reflects an inline object schema from the argument struct.
func schemaFor(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}
