package main

import (
	"fmt"

	"github.com/Iyzyman/facility-booking/common"
)

// ReplyError is an application failure that is reported to the client as an
// Error reply rather than a transport fault.
type ReplyError struct {
	Code    common.ErrorCode
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func replyErrorf(code common.ErrorCode, format string, args ...interface{}) error {
	return &ReplyError{Code: code, Message: fmt.Sprintf(format, args...)}
}
