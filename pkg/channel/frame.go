package channel

import (
	"errors"
	"io"
	"strconv"
)

// netstring framing: `<len>:<payload>,`
// same codec on both directions of the engine pipe

const maxFrameSize = 4 << 20

func writeFrame(w io.Writer, payload []byte) error {
	b := make([]byte, 0, len(payload)+16)
	b = strconv.AppendUint(b, uint64(len(payload)), 10)
	b = append(b, ':')
	b = append(b, payload...)
	b = append(b, ',')
	_, err := w.Write(b)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var size uint64
	var n int

	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		if b[0] == ':' {
			break
		}
		if b[0] < '0' || b[0] > '9' {
			return nil, errors.New("channel: wrong frame header")
		}
		size = size*10 + uint64(b[0]-'0')
		if n++; n > 7 || size > maxFrameSize {
			return nil, errors.New("channel: frame too big")
		}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	if b[0] != ',' {
		return nil, errors.New("channel: wrong frame trailer")
	}

	return payload, nil
}
