package report

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Glassar/dd2394-Security-Project/qkd/bitmap"
)

// Field numbers of the Report wire message.
const (
	fieldProtocol           protowire.Number = 1
	fieldAliceKey           protowire.Number = 2
	fieldBobKey             protowire.Number = 3
	fieldEveKey             protowire.Number = 4
	fieldErrorRate          protowire.Number = 5
	fieldRisk               protowire.Number = 6
	fieldCHSH               protowire.Number = 7
	fieldReconciledKey      protowire.Number = 8
	fieldFinalKey           protowire.Number = 9
	fieldBitsSent           protowire.Number = 10
	fieldBitsSifted         protowire.Number = 11
	fieldBitsFinal          protowire.Number = 12
	fieldResidualMismatches protowire.Number = 13
	fieldAborted            protowire.Number = 14
)

// Field numbers of the nested key message.
const (
	keyFieldLen   protowire.Number = 1
	keyFieldBits  protowire.Number = 2
	keyFieldKnown protowire.Number = 3
)

// Marshal encodes r in protobuf wire format. Keys are packed eight bits to a
// byte.
func Marshal(r *Report) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldProtocol, protowire.BytesType)
	b = protowire.AppendString(b, r.Protocol)
	for _, k := range []struct {
		num  protowire.Number
		bits []int
	}{
		{fieldAliceKey, r.AliceKey},
		{fieldBobKey, r.BobKey},
		{fieldReconciledKey, r.ReconciledKey},
		{fieldFinalKey, r.FinalKey},
	} {
		d, err := bitmap.FromInts(k.bits)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", k.num)
		}
		b = protowire.AppendTag(b, k.num, protowire.BytesType)
		b = protowire.AppendBytes(b, appendKey(nil, d, nil))
	}
	if r.EveKey != nil {
		var bits, known bitmap.Dense
		for _, v := range r.EveKey {
			known.AppendBit(v != nil)
			bits.AppendBit(v != nil && *v == 1)
		}
		b = protowire.AppendTag(b, fieldEveKey, protowire.BytesType)
		b = protowire.AppendBytes(b, appendKey(nil, bits, &known))
	}
	b = appendDouble(b, fieldErrorRate, r.ErrorRate)
	b = appendDouble(b, fieldRisk, r.Risk)
	if r.CHSH != nil {
		b = appendDouble(b, fieldCHSH, *r.CHSH)
	}
	for _, f := range []struct {
		num protowire.Number
		v   int
	}{
		{fieldBitsSent, r.BitsSent},
		{fieldBitsSifted, r.BitsSifted},
		{fieldBitsFinal, r.BitsFinal},
		{fieldResidualMismatches, r.ResidualMismatches},
	} {
		b = protowire.AppendTag(b, f.num, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(f.v))
	}
	b = protowire.AppendTag(b, fieldAborted, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(r.Aborted))
	return b, nil
}

func appendKey(b []byte, bits bitmap.Dense, known *bitmap.Dense) []byte {
	b = protowire.AppendTag(b, keyFieldLen, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(bits.Size()))
	b = protowire.AppendTag(b, keyFieldBits, protowire.BytesType)
	b = protowire.AppendBytes(b, bits.Data()[:bits.SizeBytes()])
	if known != nil {
		b = protowire.AppendTag(b, keyFieldKnown, protowire.BytesType)
		b = protowire.AppendBytes(b, known.Data()[:known.SizeBytes()])
	}
	return b
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// Unmarshal decodes a Report encoded by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*Report, error) {
	r := &Report{
		AliceKey:      []int{},
		BobKey:        []int{},
		ReconciledKey: []int{},
		FinalKey:      []int{},
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == fieldProtocol && typ == protowire.BytesType:
			var v string
			v, n = protowire.ConsumeString(b)
			r.Protocol = v
		case isKeyField(num) && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			if n < 0 {
				break
			}
			bits, known, err := consumeKey(v)
			if err != nil {
				return nil, errors.Wrapf(err, "field %d", num)
			}
			r.setKey(num, bits, known)
		case typ == protowire.Fixed64Type:
			var v uint64
			v, n = protowire.ConsumeFixed64(b)
			r.setDouble(num, math.Float64frombits(v))
		case typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			r.setVarint(num, v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
	}
	return r, nil
}

func isKeyField(num protowire.Number) bool {
	switch num {
	case fieldAliceKey, fieldBobKey, fieldEveKey, fieldReconciledKey, fieldFinalKey:
		return true
	}
	return false
}

func consumeKey(b []byte) (bits bitmap.Dense, known *bitmap.Dense, err error) {
	var size uint64
	var data, knownData []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return bitmap.Empty(), nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == keyFieldLen && typ == protowire.VarintType:
			size, n = protowire.ConsumeVarint(b)
		case num == keyFieldBits && typ == protowire.BytesType:
			data, n = protowire.ConsumeBytes(b)
		case num == keyFieldKnown && typ == protowire.BytesType:
			knownData, n = protowire.ConsumeBytes(b)
			if knownData == nil {
				knownData = []byte{}
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return bitmap.Empty(), nil, protowire.ParseError(n)
		}
		b = b[n:]
	}
	// Compare in uint64 so that huge lengths cannot overflow BytesFor.
	if size > uint64(len(data))*8 {
		return bitmap.Empty(), nil, errors.Errorf("key of %d bits carries %d bytes", size, len(data))
	}
	bits = bitmap.NewDense(append([]byte(nil), data...), int(size))
	if knownData != nil {
		if size > uint64(len(knownData))*8 {
			return bitmap.Empty(), nil, errors.Errorf("key of %d bits carries %d known bytes", size, len(knownData))
		}
		k := bitmap.NewDense(append([]byte(nil), knownData...), int(size))
		known = &k
	}
	return bits, known, nil
}

func (r *Report) setKey(num protowire.Number, bits bitmap.Dense, known *bitmap.Dense) {
	switch num {
	case fieldAliceKey:
		r.AliceKey = bitmap.Ints(bits)
	case fieldBobKey:
		r.BobKey = bitmap.Ints(bits)
	case fieldReconciledKey:
		r.ReconciledKey = bitmap.Ints(bits)
	case fieldFinalKey:
		r.FinalKey = bitmap.Ints(bits)
	case fieldEveKey:
		r.EveKey = make([]*int, bits.Size())
		for i := range r.EveKey {
			if known != nil && !known.Get(i) {
				continue
			}
			v := 0
			if bits.Get(i) {
				v = 1
			}
			r.EveKey[i] = &v
		}
	}
}

func (r *Report) setDouble(num protowire.Number, v float64) {
	switch num {
	case fieldErrorRate:
		r.ErrorRate = v
	case fieldRisk:
		r.Risk = v
	case fieldCHSH:
		r.CHSH = &v
	}
}

func (r *Report) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldBitsSent:
		r.BitsSent = int(v)
	case fieldBitsSifted:
		r.BitsSifted = int(v)
	case fieldBitsFinal:
		r.BitsFinal = int(v)
	case fieldResidualMismatches:
		r.ResidualMismatches = int(v)
	case fieldAborted:
		r.Aborted = protowire.DecodeBool(v)
	}
}
