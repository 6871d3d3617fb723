package ioerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(OpWrite, "/tmp/run.tmp", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "/tmp/run.tmp")
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "open", OpOpen.String())
	assert.Equal(t, "read", OpRead.String())
	assert.Equal(t, "write", OpWrite.String())
}

func TestAsRecoversOp(t *testing.T) {
	var wrapped error = New(OpRead, "/tmp/a.bin", errors.New("boom"))

	var opErr *Error
	if !errors.As(wrapped, &opErr) {
		t.Fatal("expected errors.As to match *Error")
	}
	assert.Equal(t, OpRead, opErr.Op)
}
