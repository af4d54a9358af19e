package service

import (
	"net/http"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService.
const LedgerServiceName = "streck.v1.LedgerService"

// Procedure paths of the LedgerService RPCs.
const (
	GetUserProcedure           = "/" + LedgerServiceName + "/GetUser"
	GetGroupProcedure          = "/" + LedgerServiceName + "/GetGroup"
	ListItemsProcedure         = "/" + LedgerServiceName + "/ListItems"
	GetItemProcedure           = "/" + LedgerServiceName + "/GetItem"
	CreateItemProcedure        = "/" + LedgerServiceName + "/CreateItem"
	UpdateItemProcedure        = "/" + LedgerServiceName + "/UpdateItem"
	DeleteItemProcedure        = "/" + LedgerServiceName + "/DeleteItem"
	ListTransactionsProcedure  = "/" + LedgerServiceName + "/ListTransactions"
	GetTransactionProcedure    = "/" + LedgerServiceName + "/GetTransaction"
	CreatePurchaseProcedure    = "/" + LedgerServiceName + "/CreatePurchase"
	CreateDepositProcedure     = "/" + LedgerServiceName + "/CreateDeposit"
	CreateStockUpdateProcedure = "/" + LedgerServiceName + "/CreateStockUpdate"
	UpdateTransactionProcedure = "/" + LedgerServiceName + "/UpdateTransaction"
)

// CodecOption makes handlers and clients exchange plain JSON messages.
func CodecOption() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

// NewLedgerServiceHandler builds an HTTP handler serving every LedgerService
// procedure. It returns the path on which to mount the handler and the
// handler itself.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{CodecOption()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetUserProcedure, connect.NewUnaryHandler(GetUserProcedure, svc.GetUser, opts...))
	mux.Handle(GetGroupProcedure, connect.NewUnaryHandler(GetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(ListItemsProcedure, connect.NewUnaryHandler(ListItemsProcedure, svc.ListItems, opts...))
	mux.Handle(GetItemProcedure, connect.NewUnaryHandler(GetItemProcedure, svc.GetItem, opts...))
	mux.Handle(CreateItemProcedure, connect.NewUnaryHandler(CreateItemProcedure, svc.CreateItem, opts...))
	mux.Handle(UpdateItemProcedure, connect.NewUnaryHandler(UpdateItemProcedure, svc.UpdateItem, opts...))
	mux.Handle(DeleteItemProcedure, connect.NewUnaryHandler(DeleteItemProcedure, svc.DeleteItem, opts...))
	mux.Handle(ListTransactionsProcedure, connect.NewUnaryHandler(ListTransactionsProcedure, svc.ListTransactions, opts...))
	mux.Handle(GetTransactionProcedure, connect.NewUnaryHandler(GetTransactionProcedure, svc.GetTransaction, opts...))
	mux.Handle(CreatePurchaseProcedure, connect.NewUnaryHandler(CreatePurchaseProcedure, svc.CreatePurchase, opts...))
	mux.Handle(CreateDepositProcedure, connect.NewUnaryHandler(CreateDepositProcedure, svc.CreateDeposit, opts...))
	mux.Handle(CreateStockUpdateProcedure, connect.NewUnaryHandler(CreateStockUpdateProcedure, svc.CreateStockUpdate, opts...))
	mux.Handle(UpdateTransactionProcedure, connect.NewUnaryHandler(UpdateTransactionProcedure, svc.UpdateTransaction, opts...))

	return "/" + LedgerServiceName + "/", mux
}
