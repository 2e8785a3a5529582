package generator

// Схема ответа в формате generateContent. Повторяет поля domain.Persona.

func stringProp(description string) map[string]any {
	p := map[string]any{"type": "STRING"}
	if description != "" {
		p["description"] = description
	}
	return p
}

func objectProp(props map[string]any) map[string]any {
	return map[string]any{"type": "OBJECT", "properties": props}
}

func personaSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"archetype":   stringProp(""),
			"description": stringProp("Short bio based on analysis"),
			"vibeColor":   stringProp(""),
			"powerWord":   stringProp(""),
			"soundtrack":  stringProp(""),
			"topThemes": map[string]any{
				"type":        "ARRAY",
				"items":       stringProp(""),
				"description": "Top 5 themes",
			},
			"biggestWins": map[string]any{
				"type":        "ARRAY",
				"items":       stringProp(""),
				"description": "List of 2-3 wins or progress points",
			},
			"thinkingPatterns":  stringProp("Observation of thinking patterns"),
			"mindsetRoadblocks": stringProp("Observation of roadblocks"),
			"unhingedMoment": objectProp(map[string]any{
				"quote":   stringProp("The actual quote"),
				"context": stringProp("Short comment on why it's unhinged"),
			}),
			"mostAskedQuestion": objectProp(map[string]any{
				"question": stringProp("The recurring topic/question"),
				"insight":  stringProp("What this says about the user"),
			}),
			"finalMotivationalMessage": stringProp("Hype-y final message"),
			"topMoments": map[string]any{
				"type": "ARRAY",
				"items": objectProp(map[string]any{
					"quote":     stringProp(""),
					"reasoning": stringProp(""),
				}),
				"description": "Top 3 insightful/funny AI responses",
			},
			"chattingStyle": objectProp(map[string]any{
				"badge":       stringProp("Name of the badge"),
				"description": stringProp("Short description of the style"),
			}),
			"powerSkill": objectProp(map[string]any{
				"skill":       stringProp("The upgraded capability"),
				"description": stringProp("How they improved it"),
			}),
		},
		"required": []string{
			"archetype", "description", "vibeColor", "powerWord", "soundtrack", "topThemes",
			"biggestWins", "thinkingPatterns", "mindsetRoadblocks", "unhingedMoment",
			"mostAskedQuestion", "finalMotivationalMessage", "topMoments", "chattingStyle", "powerSkill",
		},
	}
}
