package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Glassar/dd2394-Security-Project/qkd"
	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
	"github.com/Glassar/dd2394-Security-Project/qkd/photon"
)

func intPtr(v int) *int { return &v }

func sampleReport() *Report {
	chsh := 2.79
	return &Report{
		Protocol:           "e91",
		AliceKey:           []int{1, 0, 1, 1, 0, 0, 1, 0, 1},
		BobKey:             []int{1, 0, 1, 0, 0, 0, 1, 0, 1},
		EveKey:             []*int{intPtr(1), nil, nil, intPtr(0), nil, nil, intPtr(1), nil, nil},
		ErrorRate:          0.125,
		Risk:               0.5,
		CHSH:               &chsh,
		ReconciledKey:      []int{1, 0, 1, 1, 0, 0, 1},
		FinalKey:           []int{0, 1, 1, 0},
		BitsSent:           30,
		BitsSifted:         9,
		BitsFinal:          4,
		ResidualMismatches: 0,
		Aborted:            false,
	}
}

func TestJSONRoundTrip(t *testing.T) {
	want := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, want))
	assert.Contains(t, buf.String(), `"alice_key"`)
	assert.Contains(t, buf.String(), `"eve_key"`)
	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJSONOmitsAbsentFields(t *testing.T) {
	r := sampleReport()
	r.EveKey = nil
	r.CHSH = nil
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	assert.NotContains(t, buf.String(), "eve_key")
	assert.NotContains(t, buf.String(), "chsh")
}

func TestReadJSONError(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"alice_key": "nope"}`))
	assert.Error(t, err)
}

func TestFromResult(t *testing.T) {
	sender, _ := bitmap.FromString("1101")
	receiver, _ := bitmap.FromString("1001")
	final, _ := bitmap.FromString("01")
	res := qkd.Result{
		Protocol: qkd.E91,
		Sifted: qkd.SiftedKey{
			Sender:       sender,
			Receiver:     receiver,
			Eavesdropper: []photon.MaybeBit{photon.Known(true), photon.Unknown(), photon.Known(false), photon.Unknown()},
		},
		Estimate:   qkd.Estimate{Rate: 0.25},
		CHSH:       &qkd.CHSH{S: 2.5},
		Risk:       1,
		Reconciled: qkd.Reconciliation{Key: receiver, ResidualMismatches: 1},
		FinalKey:   final,
		Stats:      qkd.Stats{BitsSent: 12, BitsSifted: 4, BitsFinal: 2, ResidualMismatches: 1},
	}
	r := FromResult(res)
	assert.Equal(t, "e91", r.Protocol)
	assert.Equal(t, []int{1, 1, 0, 1}, r.AliceKey)
	assert.Equal(t, []int{1, 0, 0, 1}, r.BobKey)
	assert.Equal(t, []*int{intPtr(1), nil, intPtr(0), nil}, r.EveKey)
	assert.Equal(t, 0.25, r.ErrorRate)
	require.NotNil(t, r.CHSH)
	assert.Equal(t, 2.5, *r.CHSH)
	assert.Equal(t, []int{0, 1}, r.FinalKey)
	assert.Equal(t, 12, r.BitsSent)
	assert.Equal(t, 1, r.ResidualMismatches)
}

func TestFromPipelineRun(t *testing.T) {
	cfg := qkd.DefaultConfig()
	cfg.NumberOfBits = 256
	p, err := qkd.NewPipeline(qkd.PipelineOpts{Config: cfg})
	require.NoError(t, err)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	r := FromResult(res)
	assert.Len(t, r.AliceKey, res.Stats.BitsSifted)
	assert.Len(t, r.FinalKey, res.Stats.BitsFinal)
	assert.Nil(t, r.EveKey)
	assert.Nil(t, r.CHSH)

	b, err := Marshal(r)
	require.NoError(t, err)
	got, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}
