// Package envelope encodes the {code, message, data} response body shared by
// every catalog endpoint.
package envelope

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// CodeOK is the code of a successful response. Failed responses carry their
// HTTP status as the code.
const CodeOK = 0

// Envelope is a response body. Data holds raw JSON and is encoded as null
// when empty.
type Envelope struct {
	Code    int
	Message string
	Data    jx.Raw
}

// OK wraps an encoded payload in a successful envelope.
func OK(data []byte) Envelope {
	return Envelope{Code: CodeOK, Message: "ok", Data: data}
}

// Fail returns an envelope without data for the given HTTP status.
func Fail(status int, message string) Envelope {
	return Envelope{Code: status, Message: message}
}

// Encode writes the envelope as a JSON object.
func (v Envelope) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("code")
	e.Int(v.Code)
	e.FieldStart("message")
	e.Str(v.Message)
	e.FieldStart("data")
	if len(v.Data) == 0 {
		e.Null()
	} else {
		e.Raw(v.Data)
	}
	e.ObjEnd()
}

// Decode reads an envelope. Unknown fields are skipped; a null data field
// leaves Data empty.
func (v *Envelope) Decode(d *jx.Decoder) error {
	*v = Envelope{}
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			code, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "code")
			}
			v.Code = code
		case "message":
			msg, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "message")
			}
			v.Message = msg
		case "data":
			if d.Next() == jx.Null {
				return d.Null()
			}
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrap(err, "data")
			}
			// Raw aliases the decoder buffer.
			v.Data = append(jx.Raw(nil), raw...)
		default:
			return d.Skip()
		}
		return nil
	})
}

// MarshalJSON implements json.Marshaler.
func (v Envelope) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	v.Encode(&e)
	return e.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Envelope) UnmarshalJSON(data []byte) error {
	return v.Decode(jx.DecodeBytes(data))
}

// Write sends the envelope with the given HTTP status.
func Write(w http.ResponseWriter, status int, v Envelope) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	v.Encode(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// Error sends a failed envelope whose code is the HTTP status.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, Fail(status, message))
}
