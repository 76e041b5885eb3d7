package ubx

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func frame(key uint16, body []byte) []byte {
	out := []byte{Sync1, Sync2, byte(key >> 8), byte(key)}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(body)))
	out = append(out, body...)
	a, b := Checksum(out[2:])
	return append(out, a, b)
}

func navSatBody(svs ...[2]byte) []byte {
	b := binary.LittleEndian.AppendUint32(nil, 5000)
	b = append(b, 1, byte(len(svs)), 0, 0)
	for _, sv := range svs {
		b = append(b, 0, sv[0], sv[1], 0xf6)
		b = binary.LittleEndian.AppendUint16(b, 270)
		b = binary.LittleEndian.AppendUint16(b, 0)
		b = binary.LittleEndian.AppendUint32(b, 0x1f)
	}
	return b
}

func TestChecksumFletcher(t *testing.T) {
	testlog.Start(t)
	a, b := Checksum([]byte{0x05, 0x01, 0x02, 0x00, 0x06, 0x01})
	if a != 0x0f || b != 0x38 {
		t.Fatalf("unexpected checksum %02x %02x", a, b)
	}
}

func TestDecodeNavSatItems(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	pkt, n, err := d.Decode(frame(KeyNavSat, navSatBody([2]byte{12, 41}, [2]byte{7, 33})))
	require.NoError(t, err)
	require.Empty(t, pkt.Anomalies)
	require.Equal(t, HeaderLen+8+2*12, n)
	require.Equal(t, "NAV-SAT", pkt.Text("name"))

	msg := pkt.Sub("msg")
	require.Len(t, msg.Items, 2)
	require.Equal(t, uint64(41), msg.Items[0].Uint("cno"))
	require.Equal(t, int64(-10), msg.Items[1].Int("elev"))
	require.Equal(t, int64(270), msg.Items[1].Int("azim"))
}

func TestDecodeNavPVT(t *testing.T) {
	testlog.Start(t)
	body := make([]byte, navPVTProto.Len())
	binary.LittleEndian.PutUint16(body[4:], 2026)
	body[6], body[7] = 10, 19
	body[20] = 3
	body[23] = 14
	lon := int32(-1223456789)
	binary.LittleEndian.PutUint32(body[24:], uint32(lon))
	binary.LittleEndian.PutUint32(body[28:], 371234567)

	d := NewDecoder()
	pkt, _, err := d.Decode(frame(KeyNavPVT, body))
	require.NoError(t, err)
	msg := pkt.Sub("msg")
	require.Equal(t, 92, navPVTProto.Len())
	require.Equal(t, int64(-1223456789), msg.Int("lon"))

	var out bytes.Buffer
	require.NoError(t, d.Emit(&out, emit.Emission{}, pkt))
	require.Equal(t, "    2026/10/19 00:00:00  3d  lat 37.1234567 lon -122.3456789 msl 0mm  nsv 14\n", out.String())
}

func TestDecodeMonVerExtensions(t *testing.T) {
	testlog.Start(t)
	body := make([]byte, 40+2*30)
	copy(body, "ROM CORE 3.01")
	copy(body[30:], "00080000")
	copy(body[40:], "FWVER=SPG 3.01")
	copy(body[70:], "PROTVER=18.00")

	pkt, _, err := NewDecoder().Decode(frame(KeyMonVer, body))
	require.NoError(t, err)
	msg := pkt.Sub("msg")
	require.Equal(t, "ROM CORE 3.01", msg.Text("sw_version"))
	require.Len(t, msg.Items, 2)
	require.Equal(t, "PROTVER=18.00", msg.Items[1].Text("extension"))
}

func TestDecodeSyncMismatch(t *testing.T) {
	testlog.Start(t)
	raw := frame(KeyAckAck, []byte{0x06, 0x01})
	raw[0] = 0x00
	pkt, n, err := NewDecoder().Decode(raw)
	if err != nil || n != 0 {
		t.Fatalf("expected anomaly only, got n=%d err=%v", n, err)
	}
	require.Len(t, pkt.Anomalies, 1)
}

func TestDecodeUnknownAndChecksum(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	pkt, n, err := d.Decode(frame(Key(0x02, 0x15), []byte{1, 2, 3, 4}))
	require.NoError(t, err)
	require.Equal(t, HeaderLen, n)
	require.Equal(t, 1, d.Unknown.Count(0x0215))
	require.Equal(t, "0x0215", pkt.Text("name"))

	raw := frame(KeyAckNak, []byte{0x06, 0x01})
	raw[len(raw)-1] ^= 0xff
	pkt, _, err = d.Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, pkt.Sub("msg"))
	require.Len(t, pkt.Anomalies, 1)
	require.Contains(t, pkt.Anomalies[0], "checksum")
}

func TestEmitAck(t *testing.T) {
	testlog.Start(t)
	d := NewDecoder()
	pkt, _, err := d.Decode(frame(KeyAckAck, []byte{0x01, 0x07}))
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, d.Emit(&out, emit.Emission{}, pkt))
	require.Equal(t, "    for NAV-PVT\n", out.String())
}

func TestWalk(t *testing.T) {
	testlog.Start(t)
	var buf []byte
	buf = append(buf, 0xde, 0xad)
	buf = append(buf, frame(KeyAckAck, []byte{0x01, 0x07})...)
	buf = append(buf, Sync1, Sync2, 0x01, 0x07, 0xff, 0xff)
	buf = append(buf, frame(KeyNavSat, navSatBody([2]byte{3, 20}))...)

	var names []string
	stats, err := NewDecoder().Walk(buf, func(p Packet) error {
		require.NoError(t, p.Err)
		names = append(names, p.Obj.Text("name"))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ACK-ACK", "NAV-SAT"}, names)
	require.Equal(t, 1, stats.FalseSync)
	require.False(t, stats.Truncated)
	require.Equal(t, 2+6, stats.Skipped)
}

func TestParseKey(t *testing.T) {
	testlog.Start(t)
	for raw, want := range map[string]uint16{"NAV-PVT": KeyNavPVT, "0x0135": KeyNavSat, "1283": 0x0503} {
		got, err := ParseKey(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}
	_, err := ParseKey("NAV-NOPE")
	require.Error(t, err)
}

func TestDecodeNavMessages(t *testing.T) {
	testlog.Start(t)
	le := binary.LittleEndian
	cases := []struct {
		name  string
		key   uint16
		body  []byte
		check func(t *testing.T, msg *layout.Aggregate)
	}{
		{
			name: "nav status",
			key:  KeyNavStatus,
			body: func() []byte {
				b := le.AppendUint32(nil, 345600000)
				b = append(b, 3, 0xdd, 0x01, 0x08)
				b = le.AppendUint32(b, 28123)
				return le.AppendUint32(b, 912345)
			}(),
			check: func(t *testing.T, msg *layout.Aggregate) {
				require.Equal(t, uint64(345600000), msg.Uint("itow"))
				require.Equal(t, uint64(3), msg.Uint("gps_fix"))
				require.Equal(t, uint64(0xdd), msg.Uint("flags"))
				require.Equal(t, uint64(0x08), msg.Uint("flags2"))
				require.Equal(t, uint64(28123), msg.Uint("ttff"))
				require.Equal(t, uint64(912345), msg.Uint("msss"))
			},
		},
		{
			name: "nav timegps",
			key:  KeyNavTimeGPS,
			body: func() []byte {
				ftow, week, leap := int32(-250000), int16(2391), int8(-18)
				b := le.AppendUint32(nil, 345600001)
				b = le.AppendUint32(b, uint32(ftow))
				b = le.AppendUint16(b, uint16(week))
				b = append(b, byte(leap), 0x07)
				return le.AppendUint32(b, 45)
			}(),
			check: func(t *testing.T, msg *layout.Aggregate) {
				require.Equal(t, uint64(345600001), msg.Uint("itow"))
				require.Equal(t, int64(-250000), msg.Int("ftow"))
				require.Equal(t, int64(2391), msg.Int("week"))
				require.Equal(t, int64(-18), msg.Int("leap_s"))
				require.Equal(t, uint64(0x07), msg.Uint("valid"))
				require.Equal(t, uint64(45), msg.Uint("t_acc"))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDecoder()
			pkt, n, err := d.Decode(frame(tc.key, tc.body))
			require.NoError(t, err)
			require.Empty(t, pkt.Anomalies)
			require.Equal(t, HeaderLen+16, n)
			require.Equal(t, KeyName(tc.key), pkt.Text("name"))
			msg := pkt.Sub("msg")
			require.NotNil(t, msg)
			tc.check(t, msg)
		})
	}
}
