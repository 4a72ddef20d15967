package discovery

import (
	"fmt"
	"strings"
)

// TXT record keys for the pacer service.
const (
	// TXTKeyDeviceID is the device identifier (UUID).
	TXTKeyDeviceID = "id"

	// TXTKeyModel is the device model name.
	TXTKeyModel = "md"

	// TXTKeyFirmware is the firmware version.
	TXTKeyFirmware = "fw"
)

// DeviceInfo is the identity a device advertises.
type DeviceInfo struct {
	// DeviceID is the device identifier (UUID).
	DeviceID string

	// Model is the device model name.
	Model string

	// Firmware is the firmware version.
	Firmware string
}

// EncodeTXT builds the TXT record strings for a device.
func EncodeTXT(info DeviceInfo) []string {
	txt := []string{
		fmt.Sprintf("%s=%s", TXTKeyDeviceID, info.DeviceID),
	}
	if info.Model != "" {
		txt = append(txt, fmt.Sprintf("%s=%s", TXTKeyModel, info.Model))
	}
	if info.Firmware != "" {
		txt = append(txt, fmt.Sprintf("%s=%s", TXTKeyFirmware, info.Firmware))
	}
	return txt
}

// DecodeTXT parses TXT record strings into a DeviceInfo.
// Unknown keys are ignored for forward compatibility.
func DecodeTXT(txt []string) (DeviceInfo, error) {
	var info DeviceInfo
	for _, record := range txt {
		key, value, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		switch key {
		case TXTKeyDeviceID:
			info.DeviceID = value
		case TXTKeyModel:
			info.Model = value
		case TXTKeyFirmware:
			info.Firmware = value
		}
	}
	if info.DeviceID == "" {
		return DeviceInfo{}, fmt.Errorf("TXT records missing %q key", TXTKeyDeviceID)
	}
	return info, nil
}
