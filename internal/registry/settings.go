package registry

import "strings"

const (
	configurationOwnerKeyConstant          = "owner"
	configurationOwnerTypeKeyConstant      = "owner_type"
	configurationPackageTypeKeyConstant    = "package_type"
	configurationTokenSourceKeyConstant    = "token_source"
	configurationServiceBaseURLKeyConstant = "service_base_url"
	configurationPageSizeKeyConstant       = "page_size"
	configurationRetryAttemptsKeyConstant  = "retry_attempts"
)

// Settings aggregates the registry scope options shared by every command.
type Settings struct {
	Owner          string `mapstructure:"owner"`
	OwnerType      string `mapstructure:"owner_type"`
	PackageType    string `mapstructure:"package_type"`
	TokenSource    string `mapstructure:"token_source"`
	ServiceBaseURL string `mapstructure:"service_base_url"`
	PageSize       int    `mapstructure:"page_size"`
	RetryAttempts  int    `mapstructure:"retry_attempts"`
}

// DefaultSettings supplies baseline values for registry settings.
func DefaultSettings() Settings {
	return Settings{
		OwnerType:      string(UserOwnerType),
		PackageType:    DefaultPackageType,
		ServiceBaseURL: DefaultServiceBaseURL,
		PageSize:       DefaultPageSize,
	}
}

// DefaultConfigurationValues produces Viper defaults for the registry settings section.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultSettings()
	return map[string]any{
		rootKey + "." + configurationOwnerKeyConstant:          defaults.Owner,
		rootKey + "." + configurationOwnerTypeKeyConstant:      defaults.OwnerType,
		rootKey + "." + configurationPackageTypeKeyConstant:    defaults.PackageType,
		rootKey + "." + configurationTokenSourceKeyConstant:    defaults.TokenSource,
		rootKey + "." + configurationServiceBaseURLKeyConstant: defaults.ServiceBaseURL,
		rootKey + "." + configurationPageSizeKeyConstant:       defaults.PageSize,
		rootKey + "." + configurationRetryAttemptsKeyConstant:  defaults.RetryAttempts,
	}
}

// Sanitize trims configured values and clamps numeric options.
func (settings Settings) Sanitize() Settings {
	sanitized := settings
	sanitized.Owner = strings.TrimSpace(settings.Owner)
	sanitized.OwnerType = strings.TrimSpace(settings.OwnerType)
	sanitized.PackageType = strings.TrimSpace(settings.PackageType)
	sanitized.TokenSource = strings.TrimSpace(settings.TokenSource)
	sanitized.ServiceBaseURL = strings.TrimSpace(settings.ServiceBaseURL)
	if sanitized.PageSize < 0 {
		sanitized.PageSize = 0
	}
	if sanitized.RetryAttempts < 0 {
		sanitized.RetryAttempts = 0
	}
	return sanitized
}

// ClientConfiguration converts the settings into a registry client configuration.
func (settings Settings) ClientConfiguration() ClientConfiguration {
	return ClientConfiguration{
		BaseURL:       settings.ServiceBaseURL,
		PackageType:   settings.PackageType,
		PageSize:      settings.PageSize,
		RetryAttempts: settings.RetryAttempts,
	}
}
