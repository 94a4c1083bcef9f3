package model

// Setting keys for the ad-injection zones. The enable flag is persisted under
// "adsEnabled" and exposed as isEnabled.
const (
	SettingHeaderScript = "headerScript"
	SettingFooterScript = "footerScript"
	SettingBannerScript = "bannerScript"
	SettingPopupScript  = "popupScript"
	SettingAdsEnabled   = "adsEnabled"
)

// AdSettings holds raw script fragments injected verbatim into page zones.
// Content is admin-supplied and deliberately not sanitized.
type AdSettings struct {
	HeaderScript string `json:"headerScript"`
	FooterScript string `json:"footerScript"`
	BannerScript string `json:"bannerScript"`
	PopupScript  string `json:"popupScript"`
	IsEnabled    bool   `json:"isEnabled"`
}

// AdminSetting is a single persisted key/value row.
type AdminSetting struct {
	Key   string `json:"key" db:"setting_key"`
	Value string `json:"value" db:"setting_value"`
}
