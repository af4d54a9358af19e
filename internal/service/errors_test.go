package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/streck/internal/calculator"
	"github.com/mmynk/streck/internal/flags"
	"github.com/mmynk/streck/internal/storage"
)

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"invalid argument", fmt.Errorf("wrapped: %w", storage.ErrInvalidArgument), connect.CodeInvalidArgument},
		{"calculator rule", calculator.ErrInvalidQuantity, connect.CodeInvalidArgument},
		{"amount out of range", fmt.Errorf("line 0: %w", calculator.ErrAmountOutOfRange), connect.CodeInvalidArgument},
		{"unknown flag", fmt.Errorf("%w: %q", flags.ErrUnknownFlag, "pinned"), connect.CodeInvalidArgument},
		{"unknown flag from store", fmt.Errorf("%w: %w", storage.ErrInvalidArgument, flags.ErrUnknownFlag), connect.CodeInvalidArgument},
		{"empty result", fmt.Errorf("item 3: %w", storage.ErrEmptyResult), connect.CodeNotFound},
		{"purchased item", storage.ErrItemPurchased, connect.CodeFailedPrecondition},
		{"not ready", storage.ErrNotReady, connect.CodeUnavailable},
		{"canceled", context.Canceled, connect.CodeCanceled},
		{"deadline", context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{"execution", &storage.ExecutionError{Statement: "SELECT secret", Err: errors.New("boom")}, connect.CodeInternal},
		{"invalid state", storage.ErrInvalidState, connect.CodeInternal},
		{"already mapped", connect.NewError(connect.CodeAlreadyExists, ErrDisplayNameNotUnique), connect.CodeAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connect.CodeOf(toConnectError("Test", tt.err)))
		})
	}
}

func TestToConnectErrorHidesStatements(t *testing.T) {
	err := toConnectError("Test", &storage.ExecutionError{Statement: "SELECT secret", Err: errors.New("boom")})
	assert.NotContains(t, err.Error(), "secret")
}
