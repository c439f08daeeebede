package nodeapi

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorKind represents the category of a node service failure
type ErrorKind int

const (
	// KindTransport covers network and protocol failures on any call
	KindTransport ErrorKind = iota
	// KindValidation means required fields were rejected, locally or by the controller
	KindValidation
	// KindNotFound means the target node no longer exists on the controller
	KindNotFound
	// KindParse means the controller answered with something that is not a command response
	KindParse
)

// NetworkErrorSubtype gives a finer classification of transport failures
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "Transport Error"
	case KindValidation:
		return "Validation Error"
	case KindNotFound:
		return "Not Found"
	case KindParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// APIError is returned by every Client operation
type APIError struct {
	Kind           ErrorKind
	Command        string // controller command, e.g. "domocanaddnode"
	Message        string
	StatusCode     int // HTTP status code (if applicable)
	Err            error
	NetworkSubtype NetworkErrorSubtype
	Retryable      bool
}

// Error implements the error interface
func (e *APIError) Error() string {
	prefix := e.Kind.String()
	if e.Command != "" {
		prefix = fmt.Sprintf("%s (%s)", prefix, e.Command)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError turns a low-level error into a transport APIError
func ClassifyNetworkError(err error) *APIError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &APIError{
			Kind:           KindTransport,
			Message:        "request timed out",
			Err:            err,
			NetworkSubtype: NetworkErrorTimeout,
			Retryable:      true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{
			Kind:           KindTransport,
			Message:        fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:            err,
			NetworkSubtype: NetworkErrorDNS,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &APIError{
				Kind:           KindTransport,
				Message:        "controller refused connection",
				Err:            err,
				NetworkSubtype: NetworkErrorConnectionRefused,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &APIError{
				Kind:           KindTransport,
				Message:        "host unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorHostUnreachable,
				Retryable:      true,
			}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &APIError{
				Kind:           KindTransport,
				Message:        "network unreachable",
				Err:            err,
				NetworkSubtype: NetworkErrorNetworkUnreachable,
				Retryable:      true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &APIError{
		Kind:           KindTransport,
		Message:        "network error occurred",
		Err:            err,
		NetworkSubtype: NetworkErrorGeneral,
		Retryable:      true,
	}
}

// NewTransportError creates a transport error with automatic classification
func NewTransportError(command, message string, err error) *APIError {
	e := ClassifyNetworkError(err)
	if e == nil {
		e = &APIError{Kind: KindTransport, Retryable: true}
	}
	e.Command = command
	e.Message = message
	return e
}

// NewHTTPError creates a transport error for a non-2xx response
func NewHTTPError(command string, statusCode int, message string) *APIError {
	return &APIError{
		Kind:       KindTransport,
		Command:    command,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(command, message string, err error) *APIError {
	return &APIError{
		Kind:    KindParse,
		Command: command,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(command, message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Command: command,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error for a node id
func NewNotFoundError(command, id string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Command: command,
		Message: fmt.Sprintf("node %s not found", id),
	}
}

func kindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// IsTransportError reports whether err is a transport failure
func IsTransportError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransport
}

// IsValidationError reports whether err is a validation failure
func IsValidationError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsNotFoundError reports whether err means the node vanished
func IsNotFoundError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsParseError reports whether err is a response decoding failure
func IsParseError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindParse
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}

// ShortMessage returns a concise, operator-facing message for err
func ShortMessage(err error) string {
	var e *APIError
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Kind {
	case KindTransport:
		switch e.NetworkSubtype {
		case NetworkErrorTimeout:
			return "Controller not responding (timeout)"
		case NetworkErrorConnectionRefused:
			return "Controller refused connection"
		case NetworkErrorDNS:
			return "Cannot resolve controller hostname"
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			return "Controller unreachable - check network connection"
		}
		if e.StatusCode != 0 {
			return fmt.Sprintf("Controller error (HTTP %d)", e.StatusCode)
		}
		return "Controller communication failed"
	case KindNotFound:
		return "Node no longer exists on the controller"
	case KindParse:
		return "Failed to parse controller response"
	default:
		return e.Message
	}
}

// TroubleshootingHint returns operator advice for err, one tip per line
func TroubleshootingHint(err error) string {
	var e *APIError
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Kind {
	case KindTransport:
		switch e.NetworkSubtype {
		case NetworkErrorTimeout:
			return strings.Join([]string{
				"The controller did not respond in time.",
				"Troubleshooting:",
				"  • Check that the controller is running",
				"  • Try increasing --timeout",
			}, "\n")
		case NetworkErrorConnectionRefused:
			return strings.Join([]string{
				"The controller refused the connection.",
				"Troubleshooting:",
				"  • Verify the controller URL and port",
				"  • Check that the web server is enabled",
			}, "\n")
		case NetworkErrorDNS:
			return strings.Join([]string{
				"Could not resolve the controller hostname.",
				"Troubleshooting:",
				"  • Use the IP address instead of hostname",
				"  • Try 'domocan-cfg scan' to find controllers",
			}, "\n")
		}
		if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
			return "The controller rejected the request. Node management requires an admin session."
		}
		if e.StatusCode >= 500 {
			return fmt.Sprintf("The controller returned an error (HTTP %d). Check the controller log.", e.StatusCode)
		}
		return strings.Join([]string{
			"Communication with the controller failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Verify the hardware index (--hid) refers to a DomoCAN gateway",
		}, "\n")
	case KindValidation:
		return "The controller rejected the node. Name, device type and DomoCAN ID are all required."
	case KindNotFound:
		return "The node was removed by someone else. Refresh the list and try again."
	case KindParse:
		return "The controller response could not be decoded. Check the controller version."
	default:
		return "An error occurred. Please check the error message for details."
	}
}
