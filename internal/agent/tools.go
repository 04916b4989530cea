package agent

import "github.com/healtfolio/healtfolio/internal/providers"

// Tool schemas exposed to the LLM. The model decides when to call them;
// execution happens in runToolCalls against the directory.
var (
	findProfessionalsTool = providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionSchema{
			Name:        "find_professionals",
			Description: "Devuelve lista de profesionales sanitarios que cubren la ciudad y la especialidad",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"specialty": map[string]interface{}{"type": "string"},
					"city":      map[string]interface{}{"type": "string"},
				},
				"required": []string{"specialty", "city"},
			},
		},
	}

	findProfessionalByNameTool = providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionSchema{
			Name:        "find_professional_by_name",
			Description: "Busca un profesional específico por nombre para obtener sus datos de contacto completos",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{"type": "string"},
				},
				"required": []string{"name"},
			},
		},
	}
)
