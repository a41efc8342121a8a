// Package problem builds RFC 7807 problem-details responses, the uniform
// error payload every framework-generated failure uses.
// Shape grounded on the C++ original's problem_details (builders per
// status code); the instance-id stamping is an enrichment pulled from
// google/uuid the way vitalvas-kasper uses it for correlation ids.
package problem

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ContentType is the media type every Details response is served with.
const ContentType = "application/problem+json"

// Details is the RFC 7807 payload.
type Details struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

// MarshalJSON flattens Extensions alongside the fixed fields. Ordering of
// extension keys is otherwise unconstrained; encoding/json sorts map
// keys, which is a stricter guarantee than required but never violates
// it.
func (d Details) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type":   d.Type,
		"title":  d.Title,
		"status": d.Status,
	}
	if d.Detail != "" {
		out["detail"] = d.Detail
	}
	if d.Instance != "" {
		out["instance"] = d.Instance
	}
	for k, v := range d.Extensions {
		out[k] = v
	}
	return json.Marshal(out)
}

func newInstance() string {
	return "urn:uuid:" + uuid.NewString()
}

func build(status int, title, detail string) Details {
	return Details{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: newInstance(),
	}
}

// BadRequest builds a 400 problem-details response.
func BadRequest(detail string) Details { return build(400, "Bad Request", detail) }

// Unauthorized builds a 401 problem-details response.
func Unauthorized(detail string) Details { return build(401, "Unauthorized", detail) }

// Forbidden builds a 403 problem-details response.
func Forbidden(detail string) Details { return build(403, "Forbidden", detail) }

// NotFound builds a 404 problem-details response.
func NotFound(detail string) Details { return build(404, "Not Found", detail) }

// MethodNotAllowed builds a 405 problem-details response.
func MethodNotAllowed(detail string) Details { return build(405, "Method Not Allowed", detail) }

// NotAcceptable builds a 406 problem-details response.
func NotAcceptable(detail string) Details { return build(406, "Not Acceptable", detail) }

// Conflict builds a 409 problem-details response.
func Conflict(detail string) Details { return build(409, "Conflict", detail) }

// UnsupportedMediaType builds a 415 problem-details response.
func UnsupportedMediaType(detail string) Details {
	return build(415, "Unsupported Media Type", detail)
}

// UnprocessableEntity builds a 422 problem-details response.
func UnprocessableEntity(detail string) Details {
	return build(422, "Unprocessable Entity", detail)
}

// InternalServerError builds a 500 problem-details response.
func InternalServerError(detail string) Details {
	return build(500, "Internal Server Error", detail)
}

// ServiceUnavailable builds a 503 problem-details response.
func ServiceUnavailable(detail string) Details {
	return build(503, "Service Unavailable", detail)
}
