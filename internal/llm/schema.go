package llm

// BuildApplicationJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is sent to the model as a structured-output constraint and
// used locally to validate the response. Every field is required and nullable:
// the model must answer for each field, with null meaning "not found".
func BuildApplicationJSONSchema() map[string]any {
	nullableString := func() map[string]any {
		return map[string]any{"type": []string{"string", "null"}}
	}
	props := map[string]any{
		"application_number": map[string]any{
			"type": []string{"string", "null"}, "pattern": `^\d{5}$`,
		},
		"project_name":   nullableString(),
		"street_address": nullableString(),
		"city":           nullableString(),
		"county":         nullableString(),
		"zip_code": map[string]any{
			"type": []string{"string", "null"}, "pattern": `^\d{5}(-\d{4})?$`,
		},
		"total_units": map[string]any{
			"type": []string{"integer", "null"}, "minimum": 0, "maximum": 10000,
		},
		"developer_name": nullableString(),
		"application_date": map[string]any{
			"type": []string{"string", "null"}, "pattern": `^\d{4}-\d{2}-\d{2}$`,
		},
		"total_development_cost":  decimalProp(),
		"credit_amount_requested": decimalProp(),
		"total_score": map[string]any{
			"type": []string{"integer", "null"}, "minimum": 0, "maximum": 300,
		},
	}
	required := []string{
		"application_number", "project_name", "street_address", "city",
		"county", "zip_code", "total_units", "developer_name",
		"application_date", "total_development_cost",
		"credit_amount_requested", "total_score",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    []string{"string", "null"},
		"pattern": `^\d+(\.\d{1,2})?$`,
	}
}
