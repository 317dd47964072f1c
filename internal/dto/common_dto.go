package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	DB            string `json:"db"`
	Cache         string `json:"cache,omitempty"`
	TemplateCount int    `json:"template_count"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
