package protocol

import (
	"fmt"
	"strings"
)

// Response is the envelope for one reply: status, server identity, resolved
// api version and the raw payload, with the remote error (if any) already
// detected. Immutable after construction.
type Response struct {
	StatusCode int
	ServerID   string
	Version    int
	Operation  string
	Method     string
	Body       map[string]any
	Err        *ErrorInfo
}

// ParseResponse constructs the envelope for a versioned reply. The
// server-declared version must be one this build supports.
func ParseResponse(statusCode int, serverID string, version int, body map[string]any, operation, method string) (*Response, error) {
	if err := AcceptVersion(version); err != nil {
		return nil, err
	}
	errInfo, err := DetectError(body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: statusCode,
		ServerID:   serverID,
		Version:    version,
		Operation:  operation,
		Method:     method,
		Body:       body,
		Err:        errInfo,
	}, nil
}

func (r *Response) String() string {
	return fmt.Sprintf("<- %s v%d %s /%s %d", r.ServerID, r.Version, strings.ToUpper(r.Method), r.Operation, r.StatusCode)
}

// RootResponse is the reply to GET /. It is the one unversioned message per
// connection lifecycle: it carries the api version everything later uses,
// plus the remote library and device description.
type RootResponse struct {
	Response
	LibraryVersion string
	CBL            string
	Device         map[string]any
	AdditionalInfo string
}

const (
	rootVersionKey        = "version"
	rootAPIVersionKey     = "apiVersion"
	rootCBLKey            = "cbl"
	rootDeviceKey         = "device"
	rootAdditionalInfoKey = "additionalInfo"
)

// ParseRoot constructs the capability response. Library version, api version,
// variant and device are load-bearing for every later request, so a missing
// or ill-typed field fails construction.
func ParseRoot(statusCode int, serverID string, body map[string]any) (*RootResponse, error) {
	libVersion, err := rootString(body, rootVersionKey)
	if err != nil {
		return nil, err
	}
	rawAPIVersion, ok := body[rootAPIVersionKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedRoot, rootAPIVersionKey)
	}
	apiVersion, ok := asInt(rawAPIVersion)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrMalformedRoot, rootAPIVersionKey)
	}
	cbl, err := rootString(body, rootCBLKey)
	if err != nil {
		return nil, err
	}
	rawDevice, ok := body[rootDeviceKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedRoot, rootDeviceKey)
	}
	device, ok := rawDevice.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an object", ErrMalformedRoot, rootDeviceKey)
	}

	var additionalInfo string
	if raw, ok := body[rootAdditionalInfoKey]; ok {
		additionalInfo, ok = raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a string", ErrMalformedRoot, rootAdditionalInfoKey)
		}
	}

	resp, err := ParseResponse(statusCode, serverID, apiVersion, body, "", "get")
	if err != nil {
		return nil, err
	}
	return &RootResponse{
		Response:       *resp,
		LibraryVersion: libVersion,
		CBL:            cbl,
		Device:         device,
		AdditionalInfo: additionalInfo,
	}, nil
}

func rootString(body map[string]any, key string) (string, error) {
	raw, ok := body[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedRoot, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a string", ErrMalformedRoot, key)
	}
	return s, nil
}
