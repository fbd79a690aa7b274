package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	answerBaggage = "Можно взять одну сумку весом до 23 килограммов и размером 56 на 36 на 23 сантиметра."
	answerSeats   = "В самолёте 120 мест: 22 бизнес и 98 эконом. Аварийные выходы — в рядах 4 и 16."
	answerMeals   = "На борту подают горячее питание на рейсах более 3 часов. Напитки доступны всегда."
	answerUnknown = "Извините, я не знаю ответа на этот вопрос."
)

type faqArgs struct {
	Question string `json:"question" jsonschema:"description=Вопрос пользователя"`
}

func faqLookupTool() Tool {
	return Tool{
		Name:        "faq_lookup_tool",
		Description: "Простейший поиск по часто задаваемым вопросам.",
		Parameters:  schemaFor(&faqArgs{}),
		Run: func(_ context.Context, raw json.RawMessage) Result {
			var args faqArgs
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return Fail(err.Error())
				}
			}
			q := strings.ToLower(args.Question)
			switch {
			case strings.Contains(q, "багаж") || strings.Contains(q, "сумк"):
				return Ok(answerBaggage)
			case strings.Contains(q, "мест") || strings.Contains(q, "самолет"):
				return Ok(answerSeats)
			case strings.Contains(q, "еда") || strings.Contains(q, "питание") || strings.Contains(q, "меню"):
				return Ok(answerMeals)
			default:
				return Ok(answerUnknown)
			}
		},
	}
}

type temperatureArgs struct {
	ValueCelsius float64 `json:"value_celsius" jsonschema:"description=Температура в градусах Цельсия"`
}

func convertTemperatureTool() Tool {
	return Tool{
		Name:        "convert_temperature_tool",
		Description: "Конвертирует температуру из градусов Цельсия в Фаренгейты.",
		Parameters:  schemaFor(&temperatureArgs{}),
		Run: func(_ context.Context, raw json.RawMessage) Result {
			var args temperatureArgs
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return Fail(err.Error())
				}
			}
			fahrenheit := args.ValueCelsius*9/5 + 32
			celsius := strconv.FormatFloat(args.ValueCelsius, 'f', -1, 64)
			return Ok(fmt.Sprintf("%s°C = %.1f°F", celsius, fahrenheit))
		},
	}
}
