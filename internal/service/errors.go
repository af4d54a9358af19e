package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/streck/internal/calculator"
	"github.com/mmynk/streck/internal/flags"
	"github.com/mmynk/streck/internal/storage"
)

var (
	ErrUserNotExist         = errors.New("user does not exist")
	ErrItemNotExist         = errors.New("item does not exist")
	ErrTransactionNotExist  = errors.New("transaction does not exist")
	ErrPurchaseInvisible    = errors.New("cannot purchase an invisible item")
	ErrDisplayNameNotUnique = errors.New("display name is not unique")
	ErrDeletePurchasedItem  = errors.New("an item that has been purchased cannot be deleted")
	ErrNoIdentity           = errors.New("request carries no user or group")
)

var errInternal = errors.New("internal error")

// toConnectError maps storage and validation errors to Connect codes.
// Internal failures are logged and replaced by a generic message so that
// statements never reach the client.
func toConnectError(op string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, storage.ErrInvalidArgument),
		errors.Is(err, flags.ErrUnknownFlag),
		errors.Is(err, calculator.ErrUnknownSortMode),
		errors.Is(err, calculator.ErrEmptyPurchase),
		errors.Is(err, calculator.ErrInvalidQuantity),
		errors.Is(err, calculator.ErrNegativeAmount),
		errors.Is(err, calculator.ErrAmountOutOfRange),
		errors.Is(err, calculator.ErrDuplicateItem),
		errors.Is(err, calculator.ErrNegativeStock),
		errors.Is(err, calculator.ErrEmptyStockUpdate):
		code = connect.CodeInvalidArgument
	case errors.Is(err, storage.ErrEmptyResult):
		code = connect.CodeNotFound
	case errors.Is(err, storage.ErrItemPurchased):
		return connect.NewError(connect.CodeFailedPrecondition, ErrDeletePurchasedItem)
	case errors.Is(err, storage.ErrNotReady):
		code = connect.CodeUnavailable
	}

	if code == connect.CodeInternal || code == connect.CodeUnavailable {
		slog.Error(op+" failed", "error", err)
		if code == connect.CodeInternal {
			return connect.NewError(code, errInternal)
		}
	}
	return connect.NewError(code, err)
}
