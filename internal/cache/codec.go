package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrCorruptEntry is matched (via errors.Is) by every DecodeError.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// DecodeReason classifies why a record could not be decoded.
type DecodeReason string

// Decode failure reasons.
const (
	ReasonTruncated    DecodeReason = "truncated"
	ReasonMalformed    DecodeReason = "malformed"
	ReasonMissingField DecodeReason = "missing_field"
)

// Required record field names, reported in DecodeError.Field.
const (
	fieldCachedAt = "cached_at"
	fieldTTL      = "ttl"
)

// maxDecodedSize bounds decompression so a hostile frame cannot exhaust memory.
const maxDecodedSize = 256 << 20

// zstdMagic starts every zstd frame.
//
//nolint:gochecknoglobals // Constant byte sequence.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// DecodeError reports a record that cannot be turned back into a CacheEntry.
type DecodeError struct {
	Reason DecodeReason
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("corrupt cache entry (%s): field %q", e.Reason, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("corrupt cache entry (%s): %v", e.Reason, e.Err)
	default:
		return fmt.Sprintf("corrupt cache entry (%s)", e.Reason)
	}
}

// Is makes every DecodeError match ErrCorruptEntry.
func (e *DecodeError) Is(target error) bool {
	return target == ErrCorruptEntry
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EntryCodec converts entries to and from their durable form.
type EntryCodec interface {
	Encode(entry *CacheEntry) ([]byte, error)
	Decode(data []byte) (*CacheEntry, error)
}

// record is the on-disk shape. Pointers distinguish absent fields from zero.
type record struct {
	CachedAt   *float64        `json:"cached_at"`
	TTL        *int            `json:"ttl"`
	Identifier string          `json:"identifier"`
	Data       json.RawMessage `json:"data"`
}

// JSONCodec stores entries as indented JSON, optionally inside a zstd frame.
// Decode accepts both forms regardless of the compress setting.
type JSONCodec struct {
	compress bool
}

// NewJSONCodec returns a codec; compress wraps encoded records in zstd.
func NewJSONCodec(compress bool) *JSONCodec {
	return &JSONCodec{compress: compress}
}

//nolint:gochecknoglobals // Encoders are safe for concurrent EncodeAll use and costly to build.
var encoder = func() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(runtime.NumCPU()),
	)
	if err != nil {
		panic(err)
	}
	return enc
}()

//nolint:gochecknoglobals // Decoders are safe for concurrent DecodeAll use and costly to build.
var decoder = func() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(runtime.NumCPU()),
		zstd.WithDecoderMaxMemory(maxDecodedSize),
	)
	if err != nil {
		panic(err)
	}
	return dec
}()

// Encode serializes entry. A nil payload is stored as JSON null.
func (c *JSONCodec) Encode(entry *CacheEntry) ([]byte, error) {
	if entry == nil {
		return nil, errors.New("cannot encode nil cache entry")
	}
	cachedAt := toEpochSeconds(entry.CachedAt)
	ttl := entry.TTLSeconds
	data := entry.Payload
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record{
		CachedAt:   &cachedAt,
		TTL:        &ttl,
		Identifier: entry.Identifier,
		Data:       data,
	}); err != nil {
		return nil, fmt.Errorf("marshaling cache entry: %w", err)
	}

	if !c.compress {
		return buf.Bytes(), nil
	}
	return encoder.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len()/2)), nil
}

// Decode parses a record. Failures are always *DecodeError.
func (c *JSONCodec) Decode(data []byte) (*CacheEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DecodeError{Reason: ReasonTruncated, Err: io.ErrUnexpectedEOF}
	}

	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := decoder.DecodeAll(data, nil)
		if err != nil {
			reason := ReasonMalformed
			if errors.Is(err, io.ErrUnexpectedEOF) {
				reason = ReasonTruncated
			}
			return nil, &DecodeError{Reason: reason, Err: err}
		}
		data = plain
	}

	var rec record
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, &DecodeError{Reason: ReasonTruncated, Err: err}
		}
		return nil, &DecodeError{Reason: ReasonMalformed, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Reason: ReasonMalformed, Err: errors.New("trailing data after record")}
	}

	if rec.CachedAt == nil || math.IsNaN(*rec.CachedAt) || math.IsInf(*rec.CachedAt, 0) {
		return nil, &DecodeError{Reason: ReasonMissingField, Field: fieldCachedAt}
	}
	if rec.TTL == nil || *rec.TTL < 0 {
		return nil, &DecodeError{Reason: ReasonMissingField, Field: fieldTTL}
	}

	payload := rec.Data
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	return &CacheEntry{
		Identifier: rec.Identifier,
		CachedAt:   fromEpochSeconds(*rec.CachedAt),
		TTLSeconds: *rec.TTL,
		Payload:    payload,
	}, nil
}

func toEpochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromEpochSeconds(s float64) time.Time {
	return time.UnixMicro(int64(math.Round(s * 1e6)))
}
