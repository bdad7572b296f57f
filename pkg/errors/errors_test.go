package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := &Error{
		Type:    ErrorTypeNotFound,
		Message: "404 Not Found",
		Code:    404,
	}
	assert.Equal(t, "not_found error (code 404): 404 Not Found", err.Error())
}

func TestIsMissingFile(t *testing.T) {
	missing := &Error{Type: ErrorTypeMissingFile, Message: "post 7 has no file URL"}
	assert.True(t, IsMissingFile(missing))

	other := &Error{Type: ErrorTypeNetwork, Message: "timeout"}
	assert.False(t, IsMissingFile(other))

	assert.False(t, IsMissingFile(fmt.Errorf("plain error")))
	assert.False(t, IsMissingFile(nil))
}
