/*
DESCRIPTION
  codec.go provides encoding and decoding of cached artifacts.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cache

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/ausocean/hoof/flow"
)

// Flow artifacts start with this magic followed by the little endian
// uint32 field count, width and height, then every field's vectors as
// little endian float32s. The whole artifact is zstd compressed.
var flowMagic = [4]byte{'H', 'F', 'L', 'W'}

type flowHeader struct {
	Magic  [4]byte
	Count  uint32
	Width  uint32
	Height uint32
}

// EncodeFields encodes fields, which must share a size. The frames the fields
// were computed from are not stored.
func EncodeFields(fields []*flow.Field) ([]byte, error) {
	h := flowHeader{Magic: flowMagic, Count: uint32(len(fields))}
	if len(fields) != 0 {
		h.Width, h.Height = uint32(fields[0].Width), uint32(fields[0].Height)
	}

	var buf bytes.Buffer
	err := binary.Write(&buf, binary.LittleEndian, h)
	if err != nil {
		return nil, errors.Wrap(err, "could not write flow header")
	}
	for i, f := range fields {
		if f.Width != int(h.Width) || f.Height != int(h.Height) || len(f.Vec) != 2*f.Width*f.Height {
			return nil, errors.Errorf("field %d differs in size", i)
		}
		err = binary.Write(&buf, binary.LittleEndian, f.Vec)
		if err != nil {
			return nil, errors.Wrapf(err, "could not write field %d", i)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create zstd encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(buf.Bytes(), nil), nil
}

// DecodeFields decodes fields encoded by EncodeFields.
func DecodeFields(b []byte) ([]*flow.Field, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create zstd decoder")
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not decompress flow artifact")
	}

	r := bytes.NewReader(raw)
	var h flowHeader
	err = binary.Read(r, binary.LittleEndian, &h)
	if err != nil {
		return nil, errors.Wrap(err, "could not read flow header")
	}
	if h.Magic != flowMagic {
		return nil, errors.New("not a flow artifact")
	}
	if h.Count != 0 && (h.Width == 0 || h.Height == 0) {
		return nil, errors.Errorf("flow artifact has empty %dx%d fields", h.Width, h.Height)
	}
	n := 2 * int(h.Width) * int(h.Height)
	if int64(h.Count)*int64(n)*4 != int64(r.Len()) {
		return nil, errors.Errorf("flow artifact holds %d bytes, header implies %d fields of %dx%d", r.Len(), h.Count, h.Width, h.Height)
	}

	fields := make([]*flow.Field, h.Count)
	for i := range fields {
		f := flow.NewField(int(h.Width), int(h.Height))
		err = binary.Read(r, binary.LittleEndian, f.Vec)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read field %d", i)
		}
		fields[i] = f
	}
	return fields, nil
}

// EncodeVectors encodes a set of feature vectors.
func EncodeVectors(v [][]float64) ([]byte, error) { return encodeGob(v) }

// DecodeVectors decodes feature vectors encoded by EncodeVectors.
func DecodeVectors(b []byte) ([][]float64, error) {
	var v [][]float64
	return v, decodeGob(b, &v)
}

// EncodeLabels encodes a set of category labels.
func EncodeLabels(l []string) ([]byte, error) { return encodeGob(l) }

// DecodeLabels decodes labels encoded by EncodeLabels.
func DecodeLabels(b []byte) ([]string, error) {
	var l []string
	return l, decodeGob(b, &l)
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(v)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode artifact")
	}
	return buf.Bytes(), nil
}

func decodeGob(b []byte, v interface{}) error {
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(v)
	if err != nil {
		return errors.Wrap(err, "could not decode artifact")
	}
	return nil
}
