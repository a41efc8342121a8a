// Package contentneg implements content-type matching: FindContentType
// for validating a request body's Content-Type against a route's
// accepted list, and NegotiateResponseType
// for picking a response representation from a route's produced list
// against the request's Accept header. Grounded on the C++ original's
// content_negotiation.hpp (extract_media_type / validate_content_type /
// validate_accept), kept as plain functions rather than middleware since
// katana/router calls them directly during dispatch.
package contentneg

import "strings"

// ExtractMediaType strips parameters (";charset=utf-8") and surrounding
// OWS from a Content-Type or Accept-header token.
func ExtractMediaType(s string) string {
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// FindContentType returns the index of the allowed entry matching header
// (after stripping parameters), or -1 if none match. An empty allowed
// list means no restriction is in effect; callers should treat that case
// separately since there is no index to return.
func FindContentType(header string, allowed []string) int {
	media := ExtractMediaType(header)
	for i, a := range allowed {
		if media == a {
			return i
		}
	}
	return -1
}

// NegotiateResponseType picks the produced media type to serve for an
// Accept header value, via three fast paths (absent/`*/*`, single
// produced value, single Accept value) plus a general token-walk
// fallback. ok is false when produces is empty or when nothing in
// accept matches it.
func NegotiateResponseType(accept string, produces []string) (string, bool) {
	if len(produces) == 0 {
		return "", false
	}
	trimmed := strings.TrimSpace(accept)
	if trimmed == "" || trimmed == "*/*" {
		return produces[0], true
	}
	if len(produces) == 1 && trimmed == produces[0] {
		return produces[0], true
	}
	if !strings.Contains(trimmed, ",") {
		if m, ok := matchOne(ExtractMediaType(trimmed), produces); ok {
			return m, true
		}
		return "", false
	}

	remaining := trimmed
	for {
		part := remaining
		comma := strings.IndexByte(remaining, ',')
		if comma >= 0 {
			part = remaining[:comma]
		}
		media := ExtractMediaType(part)
		if m, ok := matchOne(media, produces); ok {
			return m, true
		}
		if comma < 0 {
			break
		}
		remaining = remaining[comma+1:]
	}
	return "", false
}

// matchOne checks one Accept token (already stripped of parameters and
// q-values) against produces, supporting "*/*", "type/*" and exact match.
func matchOne(media string, produces []string) (string, bool) {
	if media == "*/*" {
		return produces[0], true
	}
	if strings.HasSuffix(media, "/*") {
		prefix := media[:len(media)-1] // keep trailing '/'
		for _, p := range produces {
			if strings.HasPrefix(p, prefix) {
				return p, true
			}
		}
		return "", false
	}
	for _, p := range produces {
		if media == p {
			return p, true
		}
	}
	return "", false
}
