package service

import (
	"context"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/store"
)

// AdSettingsService reads and writes the ad-injection settings.
type AdSettingsService struct {
	settings store.SettingsStore
}

// NewAdSettingsService creates an AdSettingsService.
func NewAdSettingsService(settings store.SettingsStore) *AdSettingsService {
	return &AdSettingsService{settings: settings}
}

// Get returns the current settings; unset keys are empty and ads disabled.
func (a *AdSettingsService) Get(ctx context.Context) (*model.AdSettings, error) {
	values, err := a.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &model.AdSettings{
		HeaderScript: values[model.SettingHeaderScript],
		FooterScript: values[model.SettingFooterScript],
		BannerScript: values[model.SettingBannerScript],
		PopupScript:  values[model.SettingPopupScript],
		IsEnabled:    values[model.SettingAdsEnabled] == "true",
	}, nil
}

// Save upserts all five settings.
func (a *AdSettingsService) Save(ctx context.Context, s model.AdSettings) error {
	enabled := "false"
	if s.IsEnabled {
		enabled = "true"
	}
	return a.settings.SetSettings(ctx, map[string]string{
		model.SettingHeaderScript: s.HeaderScript,
		model.SettingFooterScript: s.FooterScript,
		model.SettingBannerScript: s.BannerScript,
		model.SettingPopupScript:  s.PopupScript,
		model.SettingAdsEnabled:   enabled,
	})
}
