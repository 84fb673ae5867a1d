// Package httperr holds the tagged error taxonomies for httpcore: routing,
// client connect, client send, and WebSocket protocol errors.
package httperr

import "fmt"

// RoutingCode enumerates URL generation failures.
type RoutingCode int

const (
	ResourceNotFound RoutingCode = iota
	NotEnoughElements
)

func (c RoutingCode) String() string {
	switch c {
	case ResourceNotFound:
		return "resource not found"
	case NotEnoughElements:
		return "not enough elements"
	default:
		return "unknown routing error"
	}
}

// UrlGenerationError is returned by Router.URLFor.
type UrlGenerationError struct {
	Code     RoutingCode
	Name     string
	Elements []string
}

func (e *UrlGenerationError) Error() string {
	return fmt.Sprintf("url generation for %q: %s", e.Name, e.Code)
}

func NewResourceNotFound(name string) *UrlGenerationError {
	return &UrlGenerationError{Code: ResourceNotFound, Name: name}
}

func NewNotEnoughElements(name string, elements []string) *UrlGenerationError {
	return &UrlGenerationError{Code: NotEnoughElements, Name: name, Elements: elements}
}

// ConnectCode enumerates failures while resolving and dialing a connection.
type ConnectCode int

const (
	InvalidUrl ConnectCode = iota
	SslIsNotSupported
	SslError
	Connector
	ConnectTimeout
	Disconnected
	IoError
)

func (c ConnectCode) String() string {
	switch c {
	case InvalidUrl:
		return "invalid url"
	case SslIsNotSupported:
		return "ssl is not supported"
	case SslError:
		return "ssl error"
	case Connector:
		return "connector error"
	case ConnectTimeout:
		return "timeout"
	case Disconnected:
		return "disconnected"
	case IoError:
		return "io error"
	default:
		return "unknown connect error"
	}
}

// ConnectError is returned by Connector.Connect.
type ConnectError struct {
	Code  ConnectCode
	Cause error
}

func (e *ConnectError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return e.Code.String()
}

func (e *ConnectError) Unwrap() error { return e.Cause }

func NewConnectError(code ConnectCode, cause error) *ConnectError {
	return &ConnectError{Code: code, Cause: cause}
}

// SendCode enumerates failures while sending a request and reading its response.
type SendCode int

const (
	SendTimeout SendCode = iota
	SendConnector
	ParseError
	SendIo
)

func (c SendCode) String() string {
	switch c {
	case SendTimeout:
		return "timeout waiting for response"
	case SendConnector:
		return "failed to connect to host"
	case ParseError:
		return "error parsing response"
	case SendIo:
		return "error reading response payload"
	default:
		return "unknown send error"
	}
}

// SendError is returned by the SendRequest future.
type SendError struct {
	Code  SendCode
	Cause error
}

func (e *SendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return e.Code.String()
}

func (e *SendError) Unwrap() error { return e.Cause }

func NewSendError(code SendCode, cause error) *SendError {
	return &SendError{Code: code, Cause: cause}
}

// FromConnectError maps a ConnectError onto the SendError taxonomy, the way
// SendRequestError::from(ClientConnectorError) does in the original source.
func FromConnectError(err *ConnectError) *SendError {
	if err.Code == ConnectTimeout {
		return &SendError{Code: SendTimeout}
	}
	return &SendError{Code: SendConnector, Cause: err}
}

// WSCode enumerates WebSocket frame protocol violations.
type WSCode int

const (
	UnmaskedFrame WSCode = iota
	MaskedFrame
	InvalidOpcode
	InvalidLength
	Overflow
)

func (c WSCode) String() string {
	switch c {
	case UnmaskedFrame:
		return "unmasked frame"
	case MaskedFrame:
		return "masked frame"
	case InvalidOpcode:
		return "invalid opcode"
	case InvalidLength:
		return "invalid length"
	case Overflow:
		return "overflow"
	default:
		return "unknown websocket protocol error"
	}
}

// WSError is returned by the frame codec's Parse function.
type WSError struct {
	Code  WSCode
	Value int
	Cause error
}

func (e *WSError) Error() string {
	switch e.Code {
	case InvalidOpcode:
		return fmt.Sprintf("invalid opcode: %d", e.Value)
	case InvalidLength:
		return fmt.Sprintf("invalid length: %d", e.Value)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return e.Code.String()
}

func (e *WSError) Unwrap() error { return e.Cause }

func NewWSError(code WSCode) *WSError { return &WSError{Code: code} }

func NewInvalidOpcode(opcode byte) *WSError {
	return &WSError{Code: InvalidOpcode, Value: int(opcode)}
}

func NewInvalidLength(length int) *WSError {
	return &WSError{Code: InvalidLength, Value: length}
}
