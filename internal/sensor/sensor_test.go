package sensor

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func xyz(samples ...[3]int16) []byte {
	var b []byte
	for _, s := range samples {
		for _, v := range s {
			b = binary.LittleEndian.AppendUint16(b, uint16(v))
		}
	}
	return b
}

func TestDecodeScalarSensors(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()

	obj, n, err := d.Decode(Batt, []byte{0x80, 0x0e})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, uint64(3712), obj.Uint("mv"))

	obj, _, err = d.Decode(TempPX, []byte{0x2d, 0xf6})
	require.NoError(t, err)
	require.Equal(t, int64(-2515), obj.Int("centi_c"))

	var out bytes.Buffer
	require.NoError(t, d.Emit(&out, emit.Emission{}, TempPX, obj))
	require.Equal(t, "    temp centi_c -25.15\n", out.String())
}

func TestDecodeRepeatedSamples(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	buf := append(xyz([3]int16{1, -2, 3}, [3]int16{100, 200, -300}), 0xff)

	obj, n, err := d.Decode(Accel, buf)
	require.NoError(t, err)
	require.Equal(t, 12, n)
	require.Equal(t, "accel", obj.Name)
	require.Len(t, obj.Items, 2)
	require.Equal(t, int64(-300), obj.Items[1].Int("z"))
	require.Equal(t, uint64(2), obj.Uint("count"))
	require.Len(t, obj.Anomalies, 1)

	var out bytes.Buffer
	require.NoError(t, d.Emit(&out, emit.Emission{Level: 1}, Accel, obj))
	require.Equal(t, "    accel 2 samples, first (1, -2, 3)\n"+
		"      0:      1     -2      3\n"+
		"      1:    100    200   -300\n", out.String())
}

func TestDecodeUnknownSensorTallied(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	obj, n, err := d.Decode(77, []byte{1, 2, 3})
	if err != nil || obj != nil || n != 0 {
		t.Fatalf("unknown sensor should be tallied only: obj=%v n=%d err=%v", obj, n, err)
	}
	require.Equal(t, 1, d.Unknown.Count(77))
	require.Equal(t, "77", d.Name(77))
	require.Equal(t, "MAG_N", d.Name(Mag))
}

func TestDecodeShortPayload(t *testing.T) {
	testlog.Start(t)
	_, _, err := NewDecoder().Decode(Press, []byte{1, 2})
	require.Error(t, err)
}
