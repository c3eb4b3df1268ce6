package models

// ServerSetting is a simple key/value row for server-level state such as
// the identity claim token and the server unique ID.
type ServerSetting struct {
	// Key is the setting name.
	Key string `gorm:"primarykey;size:255" json:"key"`

	// Value is the setting value.
	Value string `gorm:"not null;type:text" json:"value"`
}

// Well-known setting keys.
const (
	SettingClaimToken     = "claim_token"
	SettingServerUniqueID = "server_unique_id"
	SettingServerName     = "server_name"
)

// TableName returns the table name for ServerSetting.
func (ServerSetting) TableName() string {
	return "server_settings"
}

// Validate performs basic validation on the setting.
func (s *ServerSetting) Validate() error {
	if s.Key == "" {
		return ErrKeyRequired
	}
	return nil
}
