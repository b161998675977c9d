package settings

import (
	"encoding/binary"
	"fmt"
)

// RecordSize is the on-storage size of an encoded Configuration.
//
// Layout (little-endian):
//
//	0..3   mode         int32
//	4      invertLogic  uint8 (0 = false, anything else = true)
//	5..7   padding
//	8..11  sensorMax    int32
//	12..15 language     int32
const RecordSize = 16

// EncodeRecord serialises c into its fixed-size storage form.
func EncodeRecord(c Configuration) []byte {
	buf := make([]byte, RecordSize)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(c.Mode))
	if c.InvertLogic {
		buf[4] = 1
	}
	binary.LittleEndian.PutUint32(buf[8:12], uint32(int32(c.SensorMaxBrightness)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(c.Language))

	return buf
}

// DecodeRecord parses a stored record. It does not validate field values:
// uninitialised storage decodes into whatever the bytes say and is rejected
// afterwards by Configuration.Valid.
func DecodeRecord(data []byte) (Configuration, error) {
	if len(data) < RecordSize {
		return Configuration{}, fmt.Errorf("record too short: %d bytes", len(data))
	}

	return Configuration{
		Mode:                Mode(int32(binary.LittleEndian.Uint32(data[0:4]))),
		InvertLogic:         data[4] != 0,
		SensorMaxBrightness: int(int32(binary.LittleEndian.Uint32(data[8:12]))),
		Language:            Language(int32(binary.LittleEndian.Uint32(data[12:16]))),
	}, nil
}
