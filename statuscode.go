package ixws

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// StatusCode is a WebSocket close status code.
// https://tools.ietf.org/html/rfc6455#section-7.4
type StatusCode int

// https://www.iana.org/assignments/websocket/websocket.xhtml#close-code-number
//
// The 3000-3999 range is reserved for libraries, frameworks and
// applications. The 4000-4999 range is reserved for private use.
const (
	StatusNormalClosure   StatusCode = 1000
	StatusGoingAway       StatusCode = 1001
	StatusProtocolError   StatusCode = 1002
	StatusUnsupportedData StatusCode = 1003

	// 1004 is reserved.
	statusReserved StatusCode = 1004

	// StatusNoStatusRcvd is never sent on the wire; it represents a close
	// frame received with no payload at all.
	StatusNoStatusRcvd StatusCode = 1005

	// StatusAbnormalClosure is never sent on the wire; it is synthesized
	// locally when the underlying connection drops without a close frame.
	StatusAbnormalClosure StatusCode = 1006

	StatusInvalidFramePayloadData StatusCode = 1007
	StatusPolicyViolation         StatusCode = 1008
	StatusMessageTooBig           StatusCode = 1009
	StatusMandatoryExtension      StatusCode = 1010
	StatusInternalError           StatusCode = 1011
	StatusServiceRestart          StatusCode = 1012
	StatusTryAgainLater           StatusCode = 1013
	StatusBadGateway              StatusCode = 1014

	// StatusTLSHandshake is never sent on the wire.
	StatusTLSHandshake StatusCode = 1015
)

// CloseError is returned from Conn methods when the connection closes with
// a status code and reason, whether the local or the remote end initiated
// the close. Use errors.As (or the CloseStatus/CloseRemote helpers) to
// recover it.
type CloseError struct {
	Code   StatusCode
	Reason string

	// Remote is true if the peer sent the close frame this CloseError
	// describes (we merely echoed it back), and false if we were the
	// one to initiate the close.
	Remote bool
}

func (ce CloseError) Error() string {
	return fmt.Sprintf("status = %v and reason = %q", ce.Code, ce.Reason)
}

// CloseStatus returns the status code from a CloseError wrapped anywhere in
// err's chain, or -1 if err is nil or does not wrap a CloseError.
func CloseStatus(err error) StatusCode {
	var ce CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return -1
}

// CloseRemote reports whether the CloseError wrapped anywhere in err's
// chain was initiated by the peer rather than by us. It returns false if
// err does not wrap a CloseError.
func CloseRemote(err error) bool {
	var ce CloseError
	if errors.As(err, &ce) {
		return ce.Remote
	}
	return false
}

const maxCloseReason = maxControlPayload - 2

func parseClosePayload(p []byte) (CloseError, error) {
	if len(p) == 0 {
		return CloseError{Code: StatusNoStatusRcvd}, nil
	}
	if len(p) < 2 {
		return CloseError{}, fmt.Errorf("close payload %q too small, cannot even contain the 2 byte status code", p)
	}

	ce := CloseError{
		Code:   StatusCode(binary.BigEndian.Uint16(p)),
		Reason: string(p[2:]),
	}
	if !validWireCloseCode(ce.Code) {
		return CloseError{}, fmt.Errorf("invalid status code %v", ce.Code)
	}
	return ce, nil
}

// validWireCloseCode reports whether code is legal to receive or send on
// the wire in a close frame. Status codes that only exist to describe
// local conditions (no status received, abnormal closure, TLS handshake
// failure) must never appear in an actual frame.
// https://tools.ietf.org/html/rfc6455#section-7.4.1
func validWireCloseCode(code StatusCode) bool {
	switch code {
	case statusReserved, StatusNoStatusRcvd, StatusAbnormalClosure, StatusTLSHandshake:
		return false
	}
	if code >= StatusNormalClosure && code <= StatusBadGateway {
		return true
	}
	if code >= 3000 && code <= 4999 {
		return true
	}
	return false
}

func (ce CloseError) bytes() ([]byte, error) {
	p, err := ce.bytesErr()
	if err != nil {
		err = fmt.Errorf("failed to marshal close frame: %w", err)
		ce = CloseError{Code: StatusInternalError}
		p, _ = ce.bytesErr()
	}
	return p, err
}

func (ce CloseError) bytesErr() ([]byte, error) {
	if len(ce.Reason) > maxCloseReason {
		return nil, fmt.Errorf("reason string max is %v but got %q with length %v", maxCloseReason, ce.Reason, len(ce.Reason))
	}
	if !validWireCloseCode(ce.Code) {
		return nil, fmt.Errorf("status code %v cannot be set", ce.Code)
	}

	buf := make([]byte, 2+len(ce.Reason))
	binary.BigEndian.PutUint16(buf, uint16(ce.Code))
	copy(buf[2:], ce.Reason)
	return buf, nil
}
