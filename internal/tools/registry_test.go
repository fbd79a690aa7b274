package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestFAQLookupAnswers(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name     string
		question string
		want     string
	}{
		{"baggage", "расскажи про багаж", answerBaggage},
		{"bag synonym", "можно ли взять сумку", answerBaggage},
		{"seats", "сколько мест в самолете", answerSeats},
		{"meals", "какое питание на борту", answerMeals},
		{"menu", "что в меню", answerMeals},
		{"unknown", "когда вылет", answerUnknown},
		{"case folding", "БАГАЖ", answerBaggage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args, _ := json.Marshal(map[string]string{"question": tc.question})
			res := r.Execute(context.Background(), "faq_lookup_tool", args)
			if !res.Success {
				t.Fatalf("Execute() failed: %s", res.Error)
			}
			if res.Result != tc.want {
				t.Fatalf("answer = %q, want %q", res.Result, tc.want)
			}
		})
	}
}

func TestConvertTemperature(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		celsius string
		want    string
	}{
		{`12`, "12°C = 53.6°F"},
		{`0`, "0°C = 32.0°F"},
		{`-40`, "-40°C = -40.0°F"},
		{`36.6`, "36.6°C = 97.9°F"},
	}
	for _, tc := range cases {
		res := r.Execute(context.Background(), "convert_temperature_tool",
			json.RawMessage(`{"value_celsius":`+tc.celsius+`}`))
		if !res.Success {
			t.Fatalf("Execute(%s) failed: %s", tc.celsius, res.Error)
		}
		if res.Result != tc.want {
			t.Fatalf("Execute(%s) = %q, want %q", tc.celsius, res.Result, tc.want)
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "unknown_tool", nil)
	if res.Success {
		t.Fatalf("unknown tool should fail")
	}
	if res.Error != "Unknown tool: unknown_tool" {
		t.Fatalf("error = %q, want %q", res.Error, "Unknown tool: unknown_tool")
	}
}

func TestExecuteEmptyArguments(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), "faq_lookup_tool", json.RawMessage(`{}`))
	if !res.Success {
		t.Fatalf("Execute() with empty args failed: %s", res.Error)
	}
	if res.Result != answerUnknown {
		t.Fatalf("answer = %q, want fallback", res.Result)
	}
}

func TestDefinitionsShape(t *testing.T) {
	r := NewRegistry()
	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("len(Definitions()) = %d, want 2", len(defs))
	}
	if defs[0].Name != "faq_lookup_tool" || defs[1].Name != "convert_temperature_tool" {
		t.Fatalf("unexpected order: %s, %s", defs[0].Name, defs[1].Name)
	}
	for _, d := range defs {
		if d.Type != "function" {
			t.Fatalf("definition type = %q, want function", d.Type)
		}
		raw, err := json.Marshal(d.Parameters)
		if err != nil {
			t.Fatalf("marshal parameters: %v", err)
		}
		var schema map[string]any
		if err := json.Unmarshal(raw, &schema); err != nil {
			t.Fatalf("unmarshal parameters: %v", err)
		}
		if schema["type"] != "object" {
			t.Fatalf("parameters type = %v, want object", schema["type"])
		}
		if _, ok := schema["properties"]; !ok {
			t.Fatalf("parameters missing properties: %s", raw)
		}
		if strings.Contains(string(raw), "$schema") {
			t.Fatalf("parameters should not carry $schema: %s", raw)
		}
	}
}
