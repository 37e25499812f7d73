package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

const maxBodyBytes = 1 << 20

// params is the flattened request input: query string merged with a JSON
// or form body. Body values win over query values.
type params map[string]string

func (p params) get(key string) string {
	return p[key]
}

// readParams never returns a nil map. On a malformed body the query
// string values are still returned alongside the error.
func readParams(r *http.Request) (params, error) {
	p := params{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			p[key] = values[0]
		}
	}
	if r.Body == nil || r.Body == http.NoBody {
		return p, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]any
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return p, fmt.Errorf("decoding JSON body: %w", err)
		}
		for key, v := range body {
			p[key] = stringify(v)
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return p, fmt.Errorf("parsing multipart body: %w", err)
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				p[key] = values[0]
			}
		}
	default:
		if err := r.ParseForm(); err != nil {
			return p, fmt.Errorf("parsing form body: %w", err)
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				p[key] = values[0]
			}
		}
	}
	return p, nil
}

// stringify flattens a decoded JSON value. Clients send ids and dates as
// strings or numbers interchangeably.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, _ := json.Marshal(v)
		return string(raw)
	}
}
