package noderpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// CallError is returned by Client.Call for both JSON-RPC level errors and
// HTTP level failures. Code is the node's RPC error code when known.
type CallError struct {
	Method     string
	Code       int
	StatusCode int
	Message    string
	cause      error
}

func (e *CallError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.cause
}

// nodeErrorBody matches the JSON-RPC 1.0 error envelope bitcoind sends with
// non-2xx statuses.
type nodeErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newCallError(method string, err error) *CallError {
	ce := &CallError{Method: method, Message: err.Error(), cause: err}

	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) {
		ce.StatusCode = httpErr.StatusCode
		var body nodeErrorBody
		if json.Unmarshal(httpErr.Body, &body) == nil && body.Error != nil {
			ce.Code = body.Error.Code
			ce.Message = body.Error.Message
			return ce
		}
		msg := strings.TrimSpace(string(httpErr.Body))
		if msg == "" {
			msg = httpErr.Status
		}
		ce.Message = msg
		return ce
	}

	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		ce.Code = rpcErr.ErrorCode()
		ce.Message = rpcErr.Error()
	}
	return ce
}
