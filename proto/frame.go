package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Request struct {
	Version string          `json:"version"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func NewRequest(method string, params any) (*Request, error) {
	raw, err := encode(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", method, err)
	}
	return &Request{
		Version: Version,
		ID:      ID(),
		Method:  method,
		Params:  raw,
	}, nil
}

func (r *Request) Kind() Kind { return KindRequest }

// Reply answers the request with result. A result that cannot be encoded
// turns into an internal error response.
func (r *Request) Reply(result any) *Response {
	raw, err := encode(result)
	if err != nil {
		return r.Reject(NewError(CodeInternal, err))
	}
	return &Response{Version: r.Version, Response: r.ID, Result: raw}
}

func (r *Request) Reject(err *ResponseError) *Response {
	return &Response{Version: r.Version, Response: r.ID, Error: err}
}

type Response struct {
	Version  string          `json:"version,omitempty"`
	Response string          `json:"response"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    *ResponseError  `json:"error,omitempty"`
}

func (r *Response) Kind() Kind { return KindResponse }

// Err returns the response error, or nil on success.
func (r *Response) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

type Event struct {
	Version string          `json:"version"`
	ID      string          `json:"id,omitempty"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func NewEvent(name string, data any) (*Event, error) {
	raw, err := encode(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", name, err)
	}
	return &Event{
		Version: Version,
		ID:      ID(),
		Event:   name,
		Data:    raw,
	}, nil
}

func (e *Event) Kind() Kind { return KindEvent }

// Parse decodes one frame. The kind is told apart by the field naming it:
// event, method or response.
func Parse(data []byte) (Frame, error) {
	var probe struct {
		Event    string `json:"event"`
		Method   string `json:"method"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch {
	case probe.Event != "":
		return unmarshalFrame[Event](data)
	case probe.Method != "":
		req, err := unmarshalFrame[Request](data)
		if err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, errors.New("request id is required")
		}
		return req, nil
	case probe.Response != "":
		return unmarshalFrame[Response](data)
	}

	return nil, fmt.Errorf("unknown frame: %s", data)
}

// Decode unmarshals a raw payload into T. An absent or null payload yields nil.
func Decode[T any](raw json.RawMessage) (*T, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %T: %w", out, err)
	}
	return &out, nil
}

func unmarshalFrame[T any](data []byte) (*T, error) {
	var f T
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func encode(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
