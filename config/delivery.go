package config

import "time"

// ServicePlatformConfig contains configuration for the external
// registration-lookup and Digital Post delivery APIs.
type ServicePlatformConfig struct {
	BaseURL      string `env:"BASE_URL"`
	TokenURL     string `env:"TOKEN_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// SenderCVR and SenderLabel identify the sending authority on outgoing post.
	SenderCVR   string `env:"SENDER_CVR"`
	SenderLabel string `env:"SENDER_LABEL"`

	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// ConverterConfig contains configuration for the document converter subprocess.
type ConverterConfig struct {
	// BinaryPath is the headless office binary used for conversion.
	BinaryPath string `env:"BINARY" envDefault:"soffice"`

	// TargetFormat is the delivery format letters are converted to.
	TargetFormat string `env:"TARGET_FORMAT" envDefault:"pdf"`

	// Timeout bounds a single conversion.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"2m"`
}

// Sanitize applies guardrails to converter configuration values.
func (c *ConverterConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.TargetFormat == "" {
		c.TargetFormat = "pdf"
	}
}
