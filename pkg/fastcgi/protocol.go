// Package fastcgi implements the wire-level pieces of FCGI/1.0 needed to
// act as a FastCGI client: record framing, the begin/end-request bodies,
// and the name/value pair codec used for PARAMS records. Only the
// RESPONDER role (the only role constant defined here) and
// single-request-per-connection operation are used; the keep-connection
// flag, the abort-request type and the multiplexing/overload protocol
// status codes are kept for completeness even though this client never
// sets them.
package fastcgi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// FastCGI protocol constants.
const (
	// Version1 is the FastCGI protocol version.
	Version1 uint8 = 1

	// Record types.
	TypeBeginRequest uint8 = 1
	TypeAbortRequest uint8 = 2
	TypeEndRequest   uint8 = 3
	TypeParams       uint8 = 4
	TypeStdin        uint8 = 5
	TypeStdout       uint8 = 6
	TypeStderr       uint8 = 7

	// Roles.
	RoleResponder uint16 = 1

	// Flags.
	FlagKeepConn uint8 = 1

	// Protocol status codes.
	StatusRequestComplete uint8 = 0
	StatusCantMultiplex   uint8 = 1
	StatusOverloaded      uint8 = 2
	StatusUnknownRole     uint8 = 3

	// HeaderSize is the fixed size of a FastCGI record header.
	HeaderSize = 8

	// MaxRecordContent is the largest content length a single record's
	// 16-bit length field can carry.
	MaxRecordContent = 65535

	// RequestID is always 1: this client never multiplexes more than one
	// request over a connection.
	RequestID uint16 = 1
)

// Header is the 8-byte header that precedes every FastCGI record.
type Header struct {
	Version       uint8
	Type          uint8
	RequestID     uint16
	ContentLength uint16
	PaddingLength uint8
	Reserved      uint8
}

// Encode serializes the header, big-endian, per spec.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Version
	buf[1] = h.Type
	binary.BigEndian.PutUint16(buf[2:4], h.RequestID)
	binary.BigEndian.PutUint16(buf[4:6], h.ContentLength)
	buf[6] = h.PaddingLength
	buf[7] = h.Reserved
	return buf
}

// DecodeHeader parses an 8-byte header.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("fastcgi: short header: %d bytes", len(data))
	}
	return &Header{
		Version:       data[0],
		Type:          data[1],
		RequestID:     binary.BigEndian.Uint16(data[2:4]),
		ContentLength: binary.BigEndian.Uint16(data[4:6]),
		PaddingLength: data[6],
		Reserved:      data[7],
	}, nil
}

// BeginRequestBody is the content of a BEGIN_REQUEST record.
type BeginRequestBody struct {
	Role     uint16
	Flags    uint8
	Reserved [5]uint8
}

// Encode serializes the begin-request body.
func (b *BeginRequestBody) Encode() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint16(buf[0:2], b.Role)
	buf[2] = b.Flags
	return buf
}

// EndRequestBody is the content of an END_REQUEST record.
type EndRequestBody struct {
	AppStatus      uint32
	ProtocolStatus uint8
	Reserved       [3]uint8
}

// DecodeEndRequestBody parses an 8-byte end-request body.
func DecodeEndRequestBody(data []byte) (*EndRequestBody, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("fastcgi: short end-request body: %d bytes", len(data))
	}
	return &EndRequestBody{
		AppStatus:      binary.BigEndian.Uint32(data[0:4]),
		ProtocolStatus: data[4],
	}, nil
}

// Record is a complete FastCGI record: header plus content and its
// 8-byte-alignment padding.
type Record struct {
	Header  *Header
	Content []byte
	Padding []byte
}

// NewRecord builds a record of type typ carrying content. PaddingLength is
// always 0: spec.md §4.9 simplifies the wire format to an unpadded record
// (no alignment requirement on the reader's side), matching
// FastCgiClient.cpp's own records, which likewise never pad.
func NewRecord(typ uint8, requestID uint16, content []byte) *Record {
	return &Record{
		Header: &Header{
			Version:       Version1,
			Type:          typ,
			RequestID:     requestID,
			ContentLength: uint16(len(content)),
			PaddingLength: 0,
		},
		Content: content,
		Padding: nil,
	}
}

// Encode serializes a full record: header, content, padding.
func (r *Record) Encode() []byte {
	out := make([]byte, 0, HeaderSize+len(r.Content)+len(r.Padding))
	out = append(out, r.Header.Encode()...)
	out = append(out, r.Content...)
	out = append(out, r.Padding...)
	return out
}

// DecodeRecord parses one record from the front of data, returning the
// record and the total number of bytes it consumed.
func DecodeRecord(data []byte) (*Record, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, fmt.Errorf("fastcgi: insufficient data for header")
	}
	header, err := DecodeHeader(data[:HeaderSize])
	if err != nil {
		return nil, 0, err
	}
	total := HeaderSize + int(header.ContentLength) + int(header.PaddingLength)
	if len(data) < total {
		return nil, 0, fmt.Errorf("fastcgi: insufficient data for record: need %d, have %d", total, len(data))
	}
	contentEnd := HeaderSize + int(header.ContentLength)
	paddingEnd := contentEnd + int(header.PaddingLength)
	return &Record{
		Header:  header,
		Content: data[HeaderSize:contentEnd],
		Padding: data[contentEnd:paddingEnd],
	}, total, nil
}

// ErrInvalidParamLength marks a PARAMS record that is truncated or has an
// otherwise malformed length-prefix sequence.
var ErrInvalidParamLength = errors.New("fastcgi: invalid parameter length")

// nameValueLengthPrefix returns the FCGI_NVLEN encoding of n: one byte if
// n < 128, else a 4-byte big-endian value with the high bit set.
func nameValueLengthPrefix(n int) []byte {
	if n < 128 {
		return []byte{byte(n)}
	}
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n)|0x80000000)
	return b
}

// EncodeParam encodes a single CGI name/value pair in the length-prefixed
// form PARAMS records carry (FCGI spec §3.4).
func EncodeParam(name, value string) []byte {
	var buf bytes.Buffer
	buf.Write(nameValueLengthPrefix(len(name)))
	buf.Write(nameValueLengthPrefix(len(value)))
	buf.WriteString(name)
	buf.WriteString(value)
	return buf.Bytes()
}

// EncodeParams concatenates the FCGI_NVLEN-encoded form of every entry in
// params into one PARAMS record payload.
func EncodeParams(params map[string]string) []byte {
	var buf bytes.Buffer
	for name, value := range params {
		buf.Write(EncodeParam(name, value))
	}
	return buf.Bytes()
}

// decodeNameValueLength reads one FCGI_NVLEN field from the front of data,
// returning its value and how many bytes it occupied (1 or 4), or (0, 0)
// if data is too short to contain one.
func decodeNameValueLength(data []byte) (length, consumed int) {
	if len(data) == 0 {
		return 0, 0
	}
	if data[0] < 128 {
		return int(data[0]), 1
	}
	if len(data) < 4 {
		return 0, 0
	}
	return int(binary.BigEndian.Uint32(data[0:4]) & 0x7fffffff), 4
}

// DecodeParams parses a PARAMS record payload back into a name/value map.
func DecodeParams(data []byte) (map[string]string, error) {
	params := make(map[string]string)

	pos := 0
	for pos < len(data) {
		nameLen, n := decodeNameValueLength(data[pos:])
		if n == 0 {
			return nil, ErrInvalidParamLength
		}
		pos += n

		valueLen, n := decodeNameValueLength(data[pos:])
		if n == 0 {
			return nil, ErrInvalidParamLength
		}
		pos += n

		if pos+nameLen > len(data) {
			return nil, ErrInvalidParamLength
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen

		if pos+valueLen > len(data) {
			return nil, ErrInvalidParamLength
		}
		value := string(data[pos : pos+valueLen])
		pos += valueLen

		params[name] = value
	}

	return params, nil
}
