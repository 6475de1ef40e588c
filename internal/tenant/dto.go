package tenant

import (
	"fmt"

	internal "github.com/frahmantamala/feegateway/internal"
	"github.com/frahmantamala/feegateway/internal/core/common/validation"
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

type SaveSettingsDTO struct {
	Provider   string `json:"provider"`
	MerchantID string `json:"merchant_id"`
	SecretKey  string `json:"secret_key"`
	AccessCode string `json:"access_code"`
	TestMode   *bool  `json:"test_mode"`
}

func (d *SaveSettingsDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("provider", d.Provider).
		Required().
		Custom(func(value interface{}) *internal.AppError {
			provider := paymentgatewaytypes.ParseProvider(value.(string))
			if provider != "" && !provider.IsLive() {
				return internal.NewValidationFieldError("provider", fmt.Sprintf("provider %q is not supported", value), internal.ErrCodeValidationFailed)
			}
			return nil
		})
	validator.Field("merchant_id", d.MerchantID).MaxLength(64).ExcludesChars("|", internal.ErrCodeValidationFailed)
	validator.Field("secret_key", d.SecretKey).MaxLength(256)
	validator.Field("access_code", d.AccessCode).MaxLength(64).ExcludesChars("|", internal.ErrCodeValidationFailed)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// SettingsView never carries the secret itself.
type SettingsView struct {
	Provider      string `json:"provider"`
	MerchantID    string `json:"merchant_id"`
	AccessCode    string `json:"access_code"`
	HasSecretKey  bool   `json:"has_secret_key"`
	TestMode      *bool  `json:"test_mode"`
	EffectiveMode string `json:"effective_mode"`
}

func NewSettingsView(cfg paymentgatewaytypes.GatewayConfig) *SettingsView {
	mode := "simulation"
	if cfg.IsLive() {
		mode = "live"
	}
	return &SettingsView{
		Provider:      string(cfg.Provider),
		MerchantID:    cfg.MerchantID,
		AccessCode:    maskTail(cfg.AccessCode),
		HasSecretKey:  cfg.SecretKey != "",
		TestMode:      cfg.TestMode,
		EffectiveMode: mode,
	}
}

func maskTail(s string) string {
	if len(s) <= 4 {
		return "****"[:len(s)]
	}
	masked := make([]byte, len(s))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(s)-4:], s[len(s)-4:])
	return string(masked)
}
