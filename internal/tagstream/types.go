package tagstream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/tagtools/internal/layout"
)

// Record types.
const (
	DtReboot     uint16 = 1
	DtVersion    uint16 = 2
	DtSync       uint16 = 3
	DtEvent      uint16 = 4
	DtDebug      uint16 = 5
	DtGPSVersion uint16 = 16
	DtGPSTime    uint16 = 17
	DtGPSGeo     uint16 = 18
	DtGPSXYZ     uint16 = 19
	DtSensorData uint16 = 20
	DtTest       uint16 = 22
	DtNote       uint16 = 23
	DtConfig     uint16 = 24
	DtGPSRaw     uint16 = 32
)

// SyncMajik marks SYNC and REBOOT records.
const SyncMajik uint32 = 0xdedf00ef

var dtypeNames = map[uint16]string{
	DtReboot:     "REBOOT",
	DtVersion:    "VERSION",
	DtSync:       "SYNC",
	DtEvent:      "EVENT",
	DtDebug:      "DEBUG",
	DtGPSVersion: "GPS_VERSION",
	DtGPSTime:    "GPS_TIME",
	DtGPSGeo:     "GPS_GEO",
	DtGPSXYZ:     "GPS_XYZ",
	DtSensorData: "SENSOR_DATA",
	DtTest:       "TEST",
	DtNote:       "NOTE",
	DtConfig:     "CONFIG",
	DtGPSRaw:     "GPS_RAW",
}

// DtypeName returns the record type name, or "" when unknown.
func DtypeName(dt uint16) string {
	return dtypeNames[dt]
}

func showDtype(v layout.Value) string {
	if name := dtypeNames[uint16(v.Uint)]; name != "" {
		return fmt.Sprintf("%s(%d)", name, v.Uint)
	}
	return strconv.FormatUint(v.Uint, 10)
}

// ParseDtype accepts a decimal code or a record type name, case-insensitive.
func ParseDtype(raw string) (uint16, error) {
	raw = strings.TrimSpace(raw)
	for dt, name := range dtypeNames {
		if strings.EqualFold(name, raw) {
			return dt, nil
		}
	}
	v, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("tagstream: unknown record type %q", raw)
	}
	return uint16(v), nil
}

// Event codes.
const (
	EvPanicWarn   uint16 = 1
	EvFault       uint16 = 2
	EvGPSBoot     uint16 = 3
	EvGPSBootTime uint16 = 4
	EvGPSBootFail uint16 = 5
	EvGPSMonMinor uint16 = 6
	EvGPSMonMajor uint16 = 7
	EvGPSRxErr    uint16 = 8
	EvGPSLostInt  uint16 = 9
	EvGPSMsgOff   uint16 = 10
	EvGPSFirstFix uint16 = 11
	EvGPSSats     uint16 = 12
	EvSDOn        uint16 = 13
	EvSDOff       uint16 = 14
	EvSSWDelay    uint16 = 15
	EvSSWBlk      uint16 = 16
)

var eventNames = map[uint16]string{
	EvPanicWarn:   "PANIC_WARN",
	EvFault:       "FAULT",
	EvGPSBoot:     "GPS_BOOT",
	EvGPSBootTime: "GPS_BOOT_TIME",
	EvGPSBootFail: "GPS_BOOT_FAIL",
	EvGPSMonMinor: "GPS_MON_MINOR",
	EvGPSMonMajor: "GPS_MON_MAJOR",
	EvGPSRxErr:    "GPS_RX_ERR",
	EvGPSLostInt:  "GPS_LOST_INT",
	EvGPSMsgOff:   "GPS_MSG_OFF",
	EvGPSFirstFix: "GPS_FIRST_FIX",
	EvGPSSats:     "GPS_SATS",
	EvSDOn:        "SD_ON",
	EvSDOff:       "SD_OFF",
	EvSSWDelay:    "SSW_DELAY",
	EvSSWBlk:      "SSW_BLK",
}

func showEvent(v layout.Value) string {
	if name := eventNames[uint16(v.Uint)]; name != "" {
		return name
	}
	return fmt.Sprintf("ev_%d", v.Uint)
}

// GPS_RAW chip codes.
const (
	ChipSirf uint8 = 1
	ChipUBX  uint8 = 2
)

var chipNames = map[uint8]string{ChipSirf: "sirf", ChipUBX: "ubx"}

func showChip(v layout.Value) string {
	if name := chipNames[uint8(v.Uint)]; name != "" {
		return name
	}
	return fmt.Sprintf("chip_%d", v.Uint)
}

func showDir(v layout.Value) string {
	if v.Uint == 0 {
		return "rx"
	}
	return "tx"
}
