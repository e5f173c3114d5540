package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestWireRoundTrip(t *testing.T) {
	tcs := []struct {
		name   string
		report *Report
	}{
		{name: "full", report: sampleReport()},
		{name: "empty", report: &Report{
			AliceKey:      []int{},
			BobKey:        []int{},
			ReconciledKey: []int{},
			FinalKey:      []int{},
		}},
		{name: "aborted without eavesdropper", report: func() *Report {
			r := sampleReport()
			r.EveKey = nil
			r.CHSH = nil
			r.Aborted = true
			r.Risk = 1
			return r
		}()},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Marshal(tc.report)
			require.NoError(t, err)
			got, err := Unmarshal(b)
			require.NoError(t, err)
			assert.Equal(t, tc.report, got)
		})
	}
}

func TestMarshalInvalidBit(t *testing.T) {
	r := sampleReport()
	r.FinalKey = []int{0, 2}
	_, err := Marshal(r)
	assert.Error(t, err)
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	b, err := Marshal(sampleReport())
	require.NoError(t, err)
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "from a newer writer")
	b = protowire.AppendTag(b, 100, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	got, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, sampleReport(), got)
}

func TestUnmarshalMalformed(t *testing.T) {
	b, err := Marshal(sampleReport())
	require.NoError(t, err)
	_, err = Unmarshal(b[:len(b)-3])
	assert.Error(t, err)

	short := protowire.AppendTag(nil, fieldAliceKey, protowire.BytesType)
	key := protowire.AppendTag(nil, keyFieldLen, protowire.VarintType)
	key = protowire.AppendVarint(key, 64)
	short = protowire.AppendBytes(short, key)
	_, err = Unmarshal(short)
	assert.Error(t, err)
}

func TestUnmarshalOversizedKeyLength(t *testing.T) {
	tcs := []struct {
		name  string
		size  uint64
		known bool
	}{
		{name: "max uint64", size: math.MaxUint64},
		{name: "max int64", size: math.MaxInt64},
		{name: "one bit past data", size: 9},
		{name: "known shorter than bits", size: 16, known: true},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			key := protowire.AppendTag(nil, keyFieldLen, protowire.VarintType)
			key = protowire.AppendVarint(key, tc.size)
			key = protowire.AppendTag(key, keyFieldBits, protowire.BytesType)
			if tc.known {
				key = protowire.AppendBytes(key, []byte{0xFF, 0x01})
				key = protowire.AppendTag(key, keyFieldKnown, protowire.BytesType)
			}
			key = protowire.AppendBytes(key, []byte{0xFF})
			b := protowire.AppendTag(nil, fieldEveKey, protowire.BytesType)
			b = protowire.AppendBytes(b, key)

			assert.NotPanics(t, func() {
				_, err := Unmarshal(b)
				assert.Error(t, err)
			})
		})
	}
}
