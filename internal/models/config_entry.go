package models

// ConfigKeyAssemblyName is the display name shown on voter and admin
// screens.
const ConfigKeyAssemblyName = "conjunto_nombre"

// ConfigEntry is a key/value row for assembly-level settings.
type ConfigEntry struct {
	Key   string `gorm:"primaryKey;size:100" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}
