package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/streck/internal/calculator"
	"github.com/mmynk/streck/internal/middleware"
	"github.com/mmynk/streck/internal/models"
	"github.com/mmynk/streck/internal/storage"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 100
)

// LedgerService implements the Connect LedgerService. Every method acts on
// behalf of the user and group placed in the context by middleware.RequireAuth.
type LedgerService struct {
	store storage.Store
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

func identity(ctx context.Context) (userID, groupID int64, err error) {
	userID, groupID = middleware.GetUserID(ctx), middleware.GetGroupID(ctx)
	if userID == 0 || groupID == 0 {
		return 0, 0, connect.NewError(connect.CodeUnauthenticated, ErrNoIdentity)
	}
	return userID, groupID, nil
}

// GetUser returns the calling user with its balance.
func (s *LedgerService) GetUser(ctx context.Context, _ *connect.Request[GetUserRequest]) (*connect.Response[GetUserResponse], error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, toConnectError("GetUser", err)
	}
	return connect.NewResponse(&GetUserResponse{User: toUser(*user)}), nil
}

// GetGroup returns the calling user's group and its members.
func (s *LedgerService) GetGroup(ctx context.Context, _ *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	_, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError("GetGroup", err)
	}
	return connect.NewResponse(&GetGroupResponse{Group: toGroup(group)}), nil
}

// ListItems returns the group's items in the requested order.
func (s *LedgerService) ListItems(ctx context.Context, req *connect.Request[ListItemsRequest]) (*connect.Response[ListItemsResponse], error) {
	userID, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	mode, err := calculator.ParseSortMode(req.Msg.Sort)
	if err != nil {
		return nil, toConnectError("ListItems", err)
	}

	items, err := s.store.ListItems(ctx, groupID, userID)
	if err != nil {
		return nil, toConnectError("ListItems", err)
	}

	if req.Msg.VisibleOnly == nil || *req.Msg.VisibleOnly {
		items = calculator.VisibleOnly(items)
	}
	calculator.SortItems(items, mode)

	return connect.NewResponse(&ListItemsResponse{Items: toItems(items)}), nil
}

// GetItem returns one item of the group.
func (s *LedgerService) GetItem(ctx context.Context, req *connect.Request[GetItemRequest]) (*connect.Response[ItemResponse], error) {
	userID, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireItem(ctx, req.Msg.ID, groupID); err != nil {
		return nil, err
	}

	item, err := s.store.GetItem(ctx, req.Msg.ID, userID)
	if err != nil {
		return nil, toConnectError("GetItem", err)
	}
	return connect.NewResponse(&ItemResponse{Item: toItem(*item)}), nil
}

// CreateItem adds an item with its prices to the group.
func (s *LedgerService) CreateItem(ctx context.Context, req *connect.Request[CreateItemRequest]) (*connect.Response[ItemResponse], error) {
	userID, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Msg.DisplayName)
	if err := s.requireUniqueName(ctx, name, groupID); err != nil {
		return nil, err
	}
	icon := strings.TrimSpace(req.Msg.Icon)
	if err := validateIcon(icon); err != nil {
		return nil, err
	}
	prices, err := validatePrices(req.Msg.Prices)
	if err != nil {
		return nil, err
	}

	item, err := s.store.CreateItem(ctx, groupID, userID, name, icon, prices)
	if err != nil {
		return nil, toConnectError("CreateItem", err)
	}

	slog.Info("Item created", "item_id", item.ID, "group_id", groupID)
	return connect.NewResponse(&ItemResponse{Item: toItem(*item)}), nil
}

// UpdateItem changes the fields set in the request.
func (s *LedgerService) UpdateItem(ctx context.Context, req *connect.Request[UpdateItemRequest]) (*connect.Response[ItemResponse], error) {
	userID, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if err := s.requireItem(ctx, msg.ID, groupID); err != nil {
		return nil, err
	}

	var update models.ItemUpdate

	if msg.DisplayName != nil {
		name := strings.TrimSpace(*msg.DisplayName)
		current, err := s.store.GetItem(ctx, msg.ID, userID)
		if err != nil {
			return nil, toConnectError("UpdateItem", err)
		}
		if name != current.DisplayName {
			if err := s.requireUniqueName(ctx, name, groupID); err != nil {
				return nil, err
			}
		}
		update.DisplayName = &name
	}

	if msg.Icon != nil {
		icon := strings.TrimSpace(*msg.Icon)
		if err := validateIcon(icon); err != nil {
			return nil, err
		}
		update.IconURL = &icon
	}

	if msg.Visible != nil {
		invisible := !*msg.Visible
		update.Invisible = &invisible
	}
	update.Favorite = msg.Favorite

	if msg.Prices != nil {
		prices, err := validatePrices(msg.Prices)
		if err != nil {
			return nil, err
		}
		update.Prices = prices
	}

	item, err := s.store.UpdateItem(ctx, msg.ID, userID, update)
	if err != nil {
		return nil, toConnectError("UpdateItem", err)
	}
	return connect.NewResponse(&ItemResponse{Item: toItem(*item)}), nil
}

// DeleteItem removes an item that has never been purchased.
func (s *LedgerService) DeleteItem(ctx context.Context, req *connect.Request[DeleteItemRequest]) (*connect.Response[DeleteItemResponse], error) {
	_, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireItem(ctx, req.Msg.ID, groupID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteItem(ctx, req.Msg.ID, groupID); err != nil {
		return nil, toConnectError("DeleteItem", err)
	}

	slog.Info("Item deleted", "item_id", req.Msg.ID, "group_id", groupID)
	return connect.NewResponse(&DeleteItemResponse{}), nil
}

// ListTransactions returns a page of the group's transactions, newest first,
// together with the total count.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	_, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	limit := req.Msg.Limit
	if limit == 0 {
		limit = defaultTransactionLimit
	}
	if limit < 1 || limit > maxTransactionLimit {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("limit must be between 1 and %d", maxTransactionLimit))
	}
	if req.Msg.Offset < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("offset must not be negative"))
	}

	txs, err := s.store.ListTransactions(ctx, groupID, limit, req.Msg.Offset)
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}
	count, err := s.store.CountTransactionsInGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}

	return connect.NewResponse(&ListTransactionsResponse{
		Transactions: toTransactions(txs),
		Count:        count,
	}), nil
}

// GetTransaction returns one transaction of the group.
func (s *LedgerService) GetTransaction(ctx context.Context, req *connect.Request[GetTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	_, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireTransaction(ctx, req.Msg.ID, groupID); err != nil {
		return nil, err
	}

	tx, err := s.store.GetTransaction(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetTransaction", err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(tx)}), nil
}

// CreatePurchase records a purchase for a member of the group and returns
// the member's new balance.
func (s *LedgerService) CreatePurchase(ctx context.Context, req *connect.Request[CreatePurchaseRequest]) (*connect.Response[CreatedTransactionResponse], error) {
	userID, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	purchase := models.NewPurchase{
		GroupID:    groupID,
		CreatedBy:  userID,
		CreatedFor: msg.UserID,
		Comment:    msg.Comment,
		Items:      make([]models.NewPurchaseLine, len(msg.Items)),
	}
	for i, line := range msg.Items {
		purchase.Items[i] = models.NewPurchaseLine{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			PurchasePrice: models.Price{
				Amount: line.PurchasePrice.Price,
				Label:  strings.TrimSpace(line.PurchasePrice.DisplayName),
			},
		}
	}
	if err := calculator.ValidatePurchaseLines(purchase.Items); err != nil {
		return nil, toConnectError("CreatePurchase", err)
	}

	if err := s.requireMember(ctx, msg.UserID, groupID); err != nil {
		return nil, err
	}
	for _, line := range purchase.Items {
		if err := s.requireItem(ctx, line.ItemID, groupID); err != nil {
			return nil, err
		}
		visible, err := s.store.IsItemVisible(ctx, line.ItemID)
		if err != nil {
			return nil, toConnectError("CreatePurchase", err)
		}
		if !visible {
			return nil, connect.NewError(connect.CodePermissionDenied, ErrPurchaseInvisible)
		}
	}

	created, err := s.store.CreatePurchase(ctx, purchase)
	if err != nil {
		return nil, toConnectError("CreatePurchase", err)
	}

	slog.Info("Purchase created",
		"transaction_id", created.ID,
		"created_for", created.CreatedFor,
		"total", calculator.PurchaseTotal(purchase.Items).String(),
	)
	return s.withBalance(ctx, "CreatePurchase", created, created.CreatedFor)
}

// CreateDeposit records a deposit for a member of the group and returns the
// member's new balance.
func (s *LedgerService) CreateDeposit(ctx context.Context, req *connect.Request[CreateDepositRequest]) (*connect.Response[CreatedTransactionResponse], error) {
	userID, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, req.Msg.UserID, groupID); err != nil {
		return nil, err
	}

	created, err := s.store.CreateDeposit(ctx, models.NewDeposit{
		GroupID:    groupID,
		CreatedBy:  userID,
		CreatedFor: req.Msg.UserID,
		Comment:    req.Msg.Comment,
		Total:      req.Msg.Total,
	})
	if err != nil {
		return nil, toConnectError("CreateDeposit", err)
	}

	slog.Info("Deposit created", "transaction_id", created.ID, "created_for", created.CreatedFor)
	return s.withBalance(ctx, "CreateDeposit", created, created.CreatedFor)
}

// CreateStockUpdate sets the stock of one or more items of the group.
func (s *LedgerService) CreateStockUpdate(ctx context.Context, req *connect.Request[CreateStockUpdateRequest]) (*connect.Response[TransactionResponse], error) {
	userID, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	update := models.NewStockUpdate{
		GroupID:   groupID,
		CreatedBy: userID,
		Comment:   req.Msg.Comment,
		Items:     make([]models.NewStockLine, len(req.Msg.Items)),
	}
	for i, line := range req.Msg.Items {
		update.Items[i] = models.NewStockLine{ItemID: line.ItemID, After: line.After}
	}
	if err := calculator.ValidateStockLines(update.Items); err != nil {
		return nil, toConnectError("CreateStockUpdate", err)
	}
	for _, line := range update.Items {
		if err := s.requireItem(ctx, line.ItemID, groupID); err != nil {
			return nil, err
		}
	}

	created, err := s.store.CreateStockUpdate(ctx, update)
	if err != nil {
		return nil, toConnectError("CreateStockUpdate", err)
	}

	slog.Info("Stock updated", "transaction_id", created.ID, "items", len(created.Items))
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(created)}), nil
}

// UpdateTransaction sets or clears the removed flag of a transaction.
func (s *LedgerService) UpdateTransaction(ctx context.Context, req *connect.Request[UpdateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	_, groupID, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireTransaction(ctx, req.Msg.ID, groupID); err != nil {
		return nil, err
	}

	tx, err := s.store.UpdateTransaction(ctx, req.Msg.ID, models.TransactionUpdate{Removed: req.Msg.Removed})
	if err != nil {
		return nil, toConnectError("UpdateTransaction", err)
	}

	slog.Info("Transaction updated", "transaction_id", req.Msg.ID, "removed", tx.Header().Flags.Removed)
	return connect.NewResponse(&TransactionResponse{Transaction: toTransaction(tx)}), nil
}

func (s *LedgerService) withBalance(ctx context.Context, op string, tx models.Transaction, userID int64) (*connect.Response[CreatedTransactionResponse], error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(op, err)
	}
	return connect.NewResponse(&CreatedTransactionResponse{
		Transaction: toTransaction(tx),
		Balance:     user.Balance,
	}), nil
}

func (s *LedgerService) requireItem(ctx context.Context, itemID, groupID int64) error {
	ok, err := s.store.ItemExistsInGroup(ctx, itemID, groupID)
	if err != nil {
		return toConnectError("ItemExistsInGroup", err)
	}
	if !ok {
		return connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %d", ErrItemNotExist, itemID))
	}
	return nil
}

func (s *LedgerService) requireTransaction(ctx context.Context, transactionID, groupID int64) error {
	ok, err := s.store.TransactionExistsInGroup(ctx, transactionID, groupID)
	if err != nil {
		return toConnectError("TransactionExistsInGroup", err)
	}
	if !ok {
		return connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %d", ErrTransactionNotExist, transactionID))
	}
	return nil
}

func (s *LedgerService) requireMember(ctx context.Context, userID, groupID int64) error {
	ok, err := s.store.UserExistsInGroup(ctx, userID, groupID)
	if err != nil {
		return toConnectError("UserExistsInGroup", err)
	}
	if !ok {
		return connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %d", ErrUserNotExist, userID))
	}
	return nil
}

func (s *LedgerService) requireUniqueName(ctx context.Context, name string, groupID int64) error {
	if name == "" {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("display name is required"))
	}
	taken, err := s.store.ItemNameExistsInGroup(ctx, name, groupID)
	if err != nil {
		return toConnectError("ItemNameExistsInGroup", err)
	}
	if taken {
		return connect.NewError(connect.CodeAlreadyExists, ErrDisplayNameNotUnique)
	}
	return nil
}

func validatePrices(in []Price) ([]models.Price, error) {
	if len(in) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("at least one price is required"))
	}
	prices := fromPrices(in)
	for i := range prices {
		prices[i].Label = strings.TrimSpace(prices[i].Label)
		if prices[i].Label == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("price %d has no display name", i))
		}
		if prices[i].Amount.IsNegative() {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("price %d is negative", i))
		}
		if err := calculator.ValidateAmount(prices[i].Amount); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("price %d: %w", i, err))
		}
	}
	return prices, nil
}

// validateIcon accepts an empty icon or an absolute http(s) URL.
func validateIcon(icon string) error {
	if icon == "" {
		return nil
	}
	u, err := url.ParseRequestURI(icon)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("icon is not a valid URL"))
	}
	return nil
}
