// Package report serialises the produced results of a key distribution run,
// as JSON for people and as length-prefixed protobuf wire records for
// transcripts.
package report

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/Glassar/dd2394-Security-Project/qkd"
	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
)

// A Report is the externally visible summary of one run. Keys are lists of
// 0s and 1s.
type Report struct {
	Protocol string `json:"protocol"`

	AliceKey []int `json:"alice_key"`
	BobKey   []int `json:"bob_key"`
	// EveKey holds nil wherever the eavesdropper did not learn the bit. It
	// is omitted when no eavesdropper took part.
	EveKey []*int `json:"eve_key,omitempty"`

	ErrorRate float64  `json:"error_rate"`
	Risk      float64  `json:"risk"`
	CHSH      *float64 `json:"chsh,omitempty"`

	ReconciledKey []int `json:"reconciled_key"`
	FinalKey      []int `json:"final_key"`

	BitsSent           int  `json:"bits_sent"`
	BitsSifted         int  `json:"bits_sifted"`
	BitsFinal          int  `json:"bits_final"`
	ResidualMismatches int  `json:"residual_mismatches"`
	Aborted            bool `json:"aborted"`
}

// FromResult summarises res. The key fields report the sifted keys, the
// receiver's reconciled key and the receiver's final key.
func FromResult(res qkd.Result) *Report {
	r := &Report{
		Protocol:           string(res.Protocol),
		AliceKey:           bitmap.Ints(res.Sifted.Sender),
		BobKey:             bitmap.Ints(res.Sifted.Receiver),
		ErrorRate:          res.Estimate.Rate,
		Risk:               res.Risk,
		ReconciledKey:      bitmap.Ints(res.Reconciled.Key),
		FinalKey:           bitmap.Ints(res.FinalKey),
		BitsSent:           res.Stats.BitsSent,
		BitsSifted:         res.Stats.BitsSifted,
		BitsFinal:          res.Stats.BitsFinal,
		ResidualMismatches: res.Stats.ResidualMismatches,
		Aborted:            res.Aborted,
	}
	if res.CHSH != nil {
		s := res.CHSH.S
		r.CHSH = &s
	}
	if res.Sifted.Eavesdropper != nil {
		r.EveKey = make([]*int, len(res.Sifted.Eavesdropper))
		for i, b := range res.Sifted.Eavesdropper {
			if bit, ok := b.Get(); ok {
				v := 0
				if bit {
					v = 1
				}
				r.EveKey[i] = &v
			}
		}
	}
	return r
}

// WriteJSON writes r to w as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(r), "encoding report")
}

// ReadJSON decodes a single report from rd.
func ReadJSON(rd io.Reader) (*Report, error) {
	r := new(Report)
	if err := json.NewDecoder(rd).Decode(r); err != nil {
		return nil, errors.Wrap(err, "decoding report")
	}
	return r, nil
}
