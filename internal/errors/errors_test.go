package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"arbiter/domain/core"
)

func TestWrap_DerivesCodeFromSentinel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		http int
	}{
		{"compilation", fmt.Errorf("bad: %w", core.ErrCompilation), CodeCompilationError, http.StatusBadRequest},
		{"duplicate block", core.ErrDuplicateBlock, CodeInvalidBlock, http.StatusBadRequest},
		{"judge", core.ErrUnparseableJudgeResponse, CodeJudgeUnparseable, http.StatusBadGateway},
		{"missing run", core.NewNotFoundError("run", "x"), CodeNotFound, http.StatusNotFound},
		{"plain", stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, "analysis failed")
			assert.Equal(t, tt.code, GetCode(wrapped))
			assert.Equal(t, tt.http, HTTPStatus(wrapped))
			assert.True(t, stderrors.Is(wrapped, tt.err))
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
	assert.Nil(t, WithCode(CodeNotFound, nil))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("conn refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))

	recoded := WithCode(CodeExternalService, ConfigInvalid("no key"))
	assert.Equal(t, CodeExternalService, GetCode(recoded))
	assert.Equal(t, "no key", recoded.Error())
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(fmt.Errorf("ctx: %w", NotFound("run"))))
	assert.False(t, IsAppError(stderrors.New("plain")))
}
