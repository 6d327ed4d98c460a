package models

// Device is a Bluetooth peripheral seen during a scan.
type Device struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	RSSI    int16  `json:"rssi"`
}

// DisplayName returns the advertised name or a placeholder.
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "(unknown)"
	}
	return d.Name
}
