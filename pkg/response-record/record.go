// Package record serializes response snapshots for storage.
// A snapshot is stored in HTTP/1.1 wire format, with the storage instant
// carried in a marker header that is stripped on decode.
package record

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"
)

const storedAtHeaderName = "Ocache-Stored-At"

// Record is an opaque response snapshot: status, headers, and the full body.
// The body, once stored, is immutable; a Put replaces the whole record.
type Record struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// The value of the clock at the time the record was written.
	StoredAt time.Time
}

// FromResponse builds a Record from a response whose body has not been
// consumed yet. The response body is fully read and closed.
func FromResponse(res *http.Response) (Record, error) {
	var body []byte
	if res.Body != nil {
		var err error
		body, err = io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return Record{}, err
		}
	}
	return Record{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now(),
	}, nil
}

// ToBytes converts a record to its stored representation.
func ToBytes(rec Record) ([]byte, error) {
	header := rec.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(storedAtHeaderName, strconv.FormatInt(rec.StoredAt.Unix(), 10))
	res := &http.Response{
		StatusCode:    rec.StatusCode,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(rec.Body)),
		ContentLength: int64(len(rec.Body)),
	}
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes converts a stored representation back to a record.
func FromBytes(b []byte) (Record, error) {
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return Record{}, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}
	if storedAtInt, err := strconv.ParseInt(res.Header.Get(storedAtHeaderName), 10, 64); err == nil {
		rec.StoredAt = time.Unix(storedAtInt, 0)
	}
	rec.Header.Del(storedAtHeaderName)
	return rec, nil
}
