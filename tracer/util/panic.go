package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// PanicHandler handles panic and returns a error.
// If fn() does not panic, PanicHandler returns nil.
// Otherwise, PanicHandler returns an error object.
func PanicHandler(fn func()) (err error) {
	defer func() {
		if obj := recover(); obj != nil {
			err = PanicError(obj)
		}
	}()
	fn()
	return nil
}

// PanicError converts a value of recover() to an error.
func PanicError(obj interface{}) error {
	if err, ok := obj.(error); ok {
		return err
	}
	// convert the obj from unknown type to error type.
	return errors.New(fmt.Sprint(obj))
}
