package logging

import (
	"fmt"

	"coverletter-service/internal/logging/adapters"
	"coverletter-service/internal/logging/types"
)

// AdapterFactory creates logging adapters based on configuration
type AdapterFactory struct{}

// NewAdapterFactory creates a new adapter factory
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// CreateAdapter creates a logging adapter based on the provided configuration
func (f *AdapterFactory) CreateAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	switch adapterConfig.Type {
	case "stdout":
		return adapters.NewStdoutAdapter(adapterConfig.Name, adapters.StdoutConfig{
			Format:    getStringOption(adapterConfig.Options, "format", "json"),
			Colorized: getBoolOption(adapterConfig.Options, "colorized", false),
		}), nil
	case "file":
		fileConfig := adapters.FileConfig{
			FilePath:   getStringOption(adapterConfig.Options, "file_path", ""),
			Format:     getStringOption(adapterConfig.Options, "format", "json"),
			MaxSize:    getInt64Option(adapterConfig.Options, "max_size", 50*1024*1024),
			MaxBackups: getIntOption(adapterConfig.Options, "max_backups", 5),
		}
		if fileConfig.FilePath == "" {
			return nil, fmt.Errorf("file_path is required for file adapter")
		}
		return adapters.NewFileAdapter(adapterConfig.Name, fileConfig)
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", adapterConfig.Type)
	}
}

func getStringOption(options map[string]interface{}, key string, defaultValue string) string {
	if str, ok := options[key].(string); ok {
		return str
	}
	return defaultValue
}

func getIntOption(options map[string]interface{}, key string, defaultValue int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return defaultValue
}

func getInt64Option(options map[string]interface{}, key string, defaultValue int64) int64 {
	switch v := options[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return defaultValue
}

func getBoolOption(options map[string]interface{}, key string, defaultValue bool) bool {
	if b, ok := options[key].(bool); ok {
		return b
	}
	return defaultValue
}
