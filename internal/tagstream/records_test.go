package tagstream

import (
	"encoding/binary"
	"testing"

	"github.com/danmuck/tagtools/internal/layout"
	"github.com/danmuck/tagtools/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func lei32(v int32) []byte { return binary.LittleEndian.AppendUint32(nil, uint32(v)) }

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func notePayload(noteLen uint16, text string) []byte {
	return join(le16(noteLen), le16(2026), []byte{10, 19, 8, 15, 30, 0}, []byte(text))
}

func TestDecodeRecordTypes(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name     string
		dtype    uint16
		payload  []byte
		status   Status
		consumed int
		check    func(t *testing.T, obj *layout.Aggregate)
	}{
		{
			name:  "reboot",
			dtype: DtReboot,
			payload: join(le32(SyncMajik), le32(0x1234), le16(7), le16(0), le32(42),
				le32(0x80000001), le32(0x2), le32(0x00020000)),
			status:   StatusOK,
			consumed: HeaderLen + 28,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, uint64(SyncMajik), obj.Uint("majik"))
				require.Equal(t, uint64(0x1234), obj.Uint("prev_sync"))
				require.Equal(t, uint64(7), obj.Uint("dt_rev"))
				require.Equal(t, uint64(42), obj.Uint("boot_count"))
				require.Equal(t, uint64(0x80000001), obj.Uint("reset_status"))
				require.Equal(t, "0x80000001", fieldString(obj, "reset_status"))
				require.Equal(t, uint64(0x00020000), obj.Uint("from_base"))
			},
		},
		{
			name:  "gps geo southern western hemisphere",
			dtype: DtGPSGeo,
			payload: join(le32(5000), le32(345600), le16(2391), []byte{9, 4},
				lei32(-338688000), lei32(-1512093000), lei32(-12), le32(350)),
			status:   StatusOK,
			consumed: HeaderLen + 28,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, uint64(345600), obj.Uint("tow"))
				require.Equal(t, uint64(2391), obj.Uint("week"))
				require.Equal(t, uint64(9), obj.Uint("nsats"))
				require.Equal(t, int64(-338688000), obj.Int("lat"))
				require.Equal(t, int64(-1512093000), obj.Int("lon"))
				require.Equal(t, int64(-12), obj.Int("alt"))
				require.Equal(t, "-33.8688000", fieldString(obj, "lat"))
				require.Equal(t, "-151.2093000", fieldString(obj, "lon"))
				require.Equal(t, uint64(350), obj.Uint("ehpe"))
			},
		},
		{
			name:  "gps xyz",
			dtype: DtGPSXYZ,
			payload: join(le32(1), le32(2), le16(3),
				lei32(-4646000), lei32(2553000), lei32(-3534000), []byte{7, 3}),
			status:   StatusOK,
			consumed: HeaderLen + 24,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, int64(-4646000), obj.Int("x"))
				require.Equal(t, int64(2553000), obj.Int("y"))
				require.Equal(t, int64(-3534000), obj.Int("z"))
				require.Equal(t, uint64(7), obj.Uint("nsats"))
				require.Equal(t, uint64(3), obj.Uint("mode"))
			},
		},
		{
			name:     "note exact length",
			dtype:    DtNote,
			payload:  notePayload(5, "hello"),
			status:   StatusOK,
			consumed: HeaderLen + 15,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, uint64(2026), obj.Uint("year"))
				require.Equal(t, uint64(30), obj.Uint("sec"))
				require.Equal(t, "hello", obj.Text("text"))
				require.Empty(t, obj.Anomalies)
			},
		},
		{
			name:     "note length clamps payload",
			dtype:    DtNote,
			payload:  notePayload(2, "hello"),
			status:   StatusOK,
			consumed: HeaderLen + 12,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, "he", obj.Text("text"))
				require.Empty(t, obj.Anomalies)
			},
		},
		{
			name:     "note length past payload",
			dtype:    DtNote,
			payload:  notePayload(9, "hi\x00"),
			status:   StatusPartial,
			consumed: HeaderLen + 13,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, "hi", obj.Text("text"))
				require.Equal(t, []string{"note: note_len 9, 3 bytes present"}, obj.Anomalies)
			},
		},
		{
			name:     "debug padded",
			dtype:    DtDebug,
			payload:  []byte("boot ok\x00\x00\x00"),
			status:   StatusOK,
			consumed: HeaderLen + 10,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, "boot ok", obj.Text("text"))
				_, ok := obj.Field("tail")
				require.False(t, ok)
			},
		},
		{
			name:     "debug bytes after terminator",
			dtype:    DtDebug,
			payload:  []byte{'o', 'k', 0xff, 0x00, 'x'},
			status:   StatusPartial,
			consumed: HeaderLen + 5,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, "ok\xff", obj.Text("text"))
				require.Equal(t, []byte("x"), obj.Value("tail").Bytes)
				require.Equal(t, []string{"text: 1 bytes after terminator"}, obj.Anomalies)
			},
		},
		{
			name:     "gps version",
			dtype:    DtGPSVersion,
			payload:  []byte("GSD4e_4.1.2-P1\x00\x00"),
			status:   StatusOK,
			consumed: HeaderLen + 16,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, "GSD4e_4.1.2-P1", obj.Text("text"))
			},
		},
		{
			name:     "test",
			dtype:    DtTest,
			payload:  []byte{0xde, 0xad, 0xbe, 0xef},
			status:   StatusOK,
			consumed: HeaderLen + 4,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, obj.Value("data").Bytes)
			},
		},
		{
			name:     "config",
			dtype:    DtConfig,
			payload:  []byte{1, 0, 2, 0, 3},
			status:   StatusOK,
			consumed: HeaderLen + 5,
			check: func(t *testing.T, obj *layout.Aggregate) {
				require.Equal(t, []byte{1, 0, 2, 0, 3}, obj.Value("data").Bytes)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := record(tc.dtype, 9, tc.payload)
			r := NewWalker().Decode(buf, 0)
			require.NoError(t, r.Err)
			require.True(t, r.Known)
			require.Equal(t, tc.status, r.Status)
			require.Equal(t, tc.consumed, r.Consumed)
			require.NotNil(t, r.Obj)
			tc.check(t, r.Obj)
		})
	}
}

func TestZeroWalkerTallyIsUsable(t *testing.T) {
	testlog.Start(t)
	w := &Walker{Table: Table(NewNested())}
	buf := record(77, 1, []byte{1})
	buf = append(buf, record(77, 2, nil)...)

	results, _, err := collect(t, w, buf, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, StatusUnknown, results[1].Status)
	require.Equal(t, 2, w.Unknown.Count(77))
}
