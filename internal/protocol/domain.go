package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrorDomain classifies where a remote-reported error originated.
type ErrorDomain int

const (
	// DomainTestServer is an error in the test server itself, not the library under test.
	DomainTestServer ErrorDomain = iota
	// DomainCBL is a high level Couchbase Lite error.
	DomainCBL
	// DomainPOSIX is a low level OS error.
	DomainPOSIX
	// DomainSQLite is an error returned from SQLite.
	DomainSQLite
	// DomainFleece is an error returned from Fleece.
	DomainFleece
	// DomainNetwork is an error in the network connection.
	DomainNetwork
	// DomainWebSocket is a web socket protocol error.
	DomainWebSocket
)

var domainNames = [...]string{
	DomainTestServer: "TESTSERVER",
	DomainCBL:        "CBL",
	DomainPOSIX:      "POSIX",
	DomainSQLite:     "SQLITE",
	DomainFleece:     "FLEECE",
	DomainNetwork:    "NETWORK",
	DomainWebSocket:  "WEBSOCKET",
}

func (d ErrorDomain) String() string {
	if d < 0 || int(d) >= len(domainNames) {
		return fmt.Sprintf("ErrorDomain(%d)", int(d))
	}
	return domainNames[d]
}

// ParseErrorDomain maps a wire value onto the closed domain set. Servers send
// either the domain name or its numeric index; anything else is a hard
// failure rather than a silent default.
func ParseErrorDomain(raw any) (ErrorDomain, error) {
	switch v := raw.(type) {
	case string:
		for i, name := range domainNames {
			if name == v {
				return ErrorDomain(i), nil
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownErrorDomain, v)
	case float64:
		d := ErrorDomain(int(v))
		if v != float64(int(v)) || d < 0 || int(d) >= len(domainNames) {
			return 0, fmt.Errorf("%w: %v", ErrUnknownErrorDomain, v)
		}
		return d, nil
	case int:
		if v < 0 || v >= len(domainNames) {
			return 0, fmt.Errorf("%w: %d", ErrUnknownErrorDomain, v)
		}
		return ErrorDomain(v), nil
	default:
		return 0, fmt.Errorf("%w: %v (%T)", ErrUnknownErrorDomain, raw, raw)
	}
}

func (d ErrorDomain) MarshalJSON() ([]byte, error) {
	if d < 0 || int(d) >= len(domainNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownErrorDomain, int(d))
	}
	return json.Marshal(domainNames[d])
}

func (d *ErrorDomain) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseErrorDomain(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ErrorInfo is an error condition reported by the remote server. It is data,
// not a Go error: callers often assert that an operation should fail.
type ErrorInfo struct {
	Domain  ErrorDomain `json:"domain"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
}

func (e *ErrorInfo) String() string {
	return fmt.Sprintf("%s/%d: %s", e.Domain, e.Code, e.Message)
}

const (
	errorDomainKey  = "domain"
	errorCodeKey    = "code"
	errorMessageKey = "message"
)

// DetectError recognizes the error shape in a response body. All three keys
// must be present; a partial triple is not an error object and yields nil.
func DetectError(body map[string]any) (*ErrorInfo, error) {
	if body == nil {
		return nil, nil
	}
	rawDomain, ok := body[errorDomainKey]
	if !ok {
		return nil, nil
	}
	rawCode, ok := body[errorCodeKey]
	if !ok {
		return nil, nil
	}
	rawMessage, ok := body[errorMessageKey]
	if !ok {
		return nil, nil
	}

	domain, err := ParseErrorDomain(rawDomain)
	if err != nil {
		return nil, err
	}
	code, ok := asInt(rawCode)
	if !ok {
		return nil, fmt.Errorf("protocol: error code is not an integer: %v", rawCode)
	}
	message, ok := rawMessage.(string)
	if !ok {
		return nil, fmt.Errorf("protocol: error message is not a string: %v", rawMessage)
	}
	return &ErrorInfo{Domain: domain, Code: code, Message: message}, nil
}

func asInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), v == float64(int(v))
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}
