package endpoints

import (
	"github.com/jackzampolin/ebookstudio/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances in registration order.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Document endpoints
		&SubmitEbookEndpoint{},
		&GetEbookEndpoint{},
		&ResetEbookEndpoint{},
		&ExportEbookEndpoint{},

		// Asset endpoints
		&AssetPromptsEndpoint{},
		&GenerateAssetEndpoint{},
		&ApproveAssetEndpoint{},
		&ClearAssetEndpoint{},
		&UploadAssetEndpoint{},

		// Wizard endpoints
		&GetPhaseEndpoint{},
		&NextPhaseEndpoint{},
		&PrevPhaseEndpoint{},

		&NotificationsEndpoint{},
		&SummarizeEndpoint{},

		// Call history endpoints
		&ListLLMCallsEndpoint{},
		&GetLLMCallEndpoint{},
		&LLMCallCountsEndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},
		&SetPromptEndpoint{},
		&ClearPromptEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},
		&ResetSettingEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath},
		&SwaggerUIEndpoint{},
	}
}
