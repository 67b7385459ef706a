package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arjundesai/medikart-backend/api/middleware"
	"github.com/arjundesai/medikart-backend/api/responses"
	"github.com/arjundesai/medikart-backend/api/validators"
	ordersvc "github.com/arjundesai/medikart-backend/internal/orders"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	pkgerrors "github.com/arjundesai/medikart-backend/pkg/errors"
	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/arjundesai/medikart-backend/pkg/pagination"
	"github.com/arjundesai/medikart-backend/pkg/types"
)

type createOrderRequest struct {
	Attachments      []string       `json:"attachments" validate:"required,min=1,dive,required"`
	Notes            *string        `json:"notes,omitempty"`
	Address          *types.Address `json:"address,omitempty"`
	Mode             string         `json:"mode,omitempty" validate:"omitempty,oneof=auto manual"`
	ChosenPharmacyID *uuid.UUID     `json:"chosen_pharmacy_id,omitempty"`
}

type quoteLineRequest struct {
	MedicineName *string          `json:"medicine_name,omitempty"`
	Brand        *string          `json:"brand,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Quantity     *int             `json:"quantity,omitempty"`
	Available    bool             `json:"available"`
}

type submitQuoteRequest struct {
	Mode  string             `json:"mode" validate:"required,oneof=accept partial"`
	Lines []quoteLineRequest `json:"lines" validate:"required,min=1"`
}

type respondRequest struct {
	Response string `json:"response" validate:"required,oneof=accepted rejected"`
}

type acceptQuoteRequest struct {
	Address        *types.Address `json:"address,omitempty"`
	PaymentStatus  string         `json:"payment_status" validate:"required,oneof=pending paid failed"`
	PaymentDetails *types.JSONMap `json:"payment_details,omitempty"`
}

// OrderCreate opens a prescription order and starts its quote window.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := ordersvc.CreateOrderInput{
			Attachments:      payload.Attachments,
			Notes:            payload.Notes,
			Address:          payload.Address,
			ChosenPharmacyID: payload.ChosenPharmacyID,
		}
		if payload.Mode != "" {
			mode, err := enums.ParseAssignmentMode(payload.Mode)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignment mode"))
				return
			}
			input.Mode = mode
		}

		order, err := svc.Create(r.Context(), customerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderDetail returns one of the customer's orders with its quote history.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCustomer(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// PharmacyOrderList pages the orders visible to the calling pharmacy.
func PharmacyOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		pharmacyID, ok := middleware.ActorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "pharmacy context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		list, err := svc.ListForPharmacy(r.Context(), pharmacyID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// QuoteSubmit records a pharmacy's quote against an open order.
func QuoteSubmit(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		pharmacyID, ok := middleware.ActorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "pharmacy context missing"))
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParseQuoteMode(payload.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quote mode"))
			return
		}
		lines := make([]ordersvc.QuoteLineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, ordersvc.QuoteLineInput{
				MedicineName: line.MedicineName,
				Brand:        line.Brand,
				Price:        line.Price,
				Quantity:     line.Quantity,
				Available:    line.Available,
			})
		}

		order, err := svc.SubmitQuote(r.Context(), pharmacyID, orderID, ordersvc.SubmitQuoteInput{Mode: mode, Lines: lines})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderRespond records an accept or reject decision from either actor.
func OrderRespond(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		role, ok := middleware.ActorRoleFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "actor context missing"))
			return
		}
		actorID, ok := middleware.ActorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "actor context missing"))
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload respondRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		response, err := enums.ParseOrderResponse(payload.Response)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid response"))
			return
		}

		order, err := svc.Respond(r.Context(), role, actorID, orderID, response)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// QuoteAccept locks in the standing quote for the customer.
func QuoteAccept(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload acceptQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentStatus, err := enums.ParsePaymentStatus(payload.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		order, err := svc.AcceptQuote(r.Context(), customerID, orderID, ordersvc.AcceptQuoteInput{
			Address:        payload.Address,
			PaymentStatus:  paymentStatus,
			PaymentDetails: payload.PaymentDetails,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderConvert turns an accepted, paid order into a payable order.
func OrderConvert(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		convertedID, err := svc.Convert(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"converted_order_id": convertedID.String()})
	}
}
