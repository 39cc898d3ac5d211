package action

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// OpenAPI document types, limited to what the action group schema uses.
type (
	apiDocument struct {
		OpenAPI string                 `yaml:"openapi"`
		Info    apiInfo                `yaml:"info"`
		Paths   map[string]apiPathItem `yaml:"paths"`
	}
	apiInfo struct {
		Title       string `yaml:"title"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	}
	apiPathItem struct {
		Post apiOperation `yaml:"post"`
	}
	apiOperation struct {
		OperationID string                 `yaml:"operationId"`
		Summary     string                 `yaml:"summary"`
		Description string                 `yaml:"description"`
		RequestBody apiRequestBody         `yaml:"requestBody"`
		Responses   map[string]apiResponse `yaml:"responses"`
	}
	apiRequestBody struct {
		Required bool                    `yaml:"required"`
		Content  map[string]apiMediaType `yaml:"content"`
	}
	apiResponse struct {
		Description string                  `yaml:"description"`
		Content     map[string]apiMediaType `yaml:"content"`
	}
	apiMediaType struct {
		Schema apiSchema `yaml:"schema"`
	}
	apiSchema struct {
		Type        string               `yaml:"type"`
		Required    []string             `yaml:"required,omitempty"`
		Properties  map[string]apiSchema `yaml:"properties,omitempty"`
		Description string               `yaml:"description,omitempty"`
	}
)

func stringProp(desc string) apiSchema {
	return apiSchema{Type: "string", Description: desc}
}

func operation(id, summary, desc string, required []string, props map[string]apiSchema) apiPathItem {
	return apiPathItem{Post: apiOperation{
		OperationID: id,
		Summary:     summary,
		Description: desc,
		RequestBody: apiRequestBody{
			Required: true,
			Content: map[string]apiMediaType{
				ContentType: {Schema: apiSchema{Type: "object", Required: required, Properties: props}},
			},
		},
		Responses: map[string]apiResponse{
			"200": {
				Description: "Tool result, or an object with an error field",
				Content: map[string]apiMediaType{
					ContentType: {Schema: apiSchema{Type: "object"}},
				},
			},
		},
	}}
}

func actionGroupDocument() apiDocument {
	return apiDocument{
		OpenAPI: "3.0.0",
		Info: apiInfo{
			Title:       "ThreadHer garment tools",
			Version:     "1.0.0",
			Description: "Garment analysis, carbon footprint and circular-economy options",
		},
		Paths: map[string]apiPathItem{
			PathAnalyzeGarment: operation(
				"analyzeGarment",
				"Analyze an uploaded garment image",
				"Identifies garment type, material, condition and style from an image stored in S3.",
				[]string{"image_s3_key", "bucket_name"},
				map[string]apiSchema{
					"image_s3_key": stringProp("S3 key of the uploaded image"),
					"bucket_name":  stringProp("S3 bucket holding the image"),
					"user_id":      stringProp("User the garment belongs to"),
				},
			),
			PathCalculateCarbon: operation(
				"calculateCarbon",
				"Calculate a garment's carbon footprint",
				"Estimates production footprint, yearly footprint, potential savings and a sustainability score.",
				[]string{"garment_type"},
				map[string]apiSchema{
					"garment_type":        stringProp("Garment type, e.g. tshirt, jeans, dress, jacket, sweater, shoes"),
					"material":            stringProp("Primary material, e.g. cotton, organic_cotton, polyester, wool, leather"),
					"origin":              stringProp("Country or region of manufacture"),
					"estimated_age_years": stringProp("How many years the garment has been worn"),
				},
			),
			PathGetCircularOptions: operation(
				"getCircularOptions",
				"Recommend circular-economy options",
				"Suggests repair, resale, donation, recycling or upcycling based on condition.",
				[]string{"condition"},
				map[string]apiSchema{
					"garment_type":  stringProp("Garment type"),
					"condition":     stringProp("new, good, fair, worn or damaged"),
					"user_location": stringProp("City or region of the user"),
				},
			),
		},
	}
}

// OpenAPISchema returns the action group's OpenAPI document as YAML.
func OpenAPISchema() ([]byte, error) {
	out, err := yaml.Marshal(actionGroupDocument())
	if err != nil {
		return nil, fmt.Errorf("failed to encode action group schema: %w", err)
	}
	return out, nil
}
