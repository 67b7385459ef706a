package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arjundesai/medikart-backend/pkg/db"
	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	pkgerrors "github.com/arjundesai/medikart-backend/pkg/errors"
	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/arjundesai/medikart-backend/pkg/pagination"
	"github.com/arjundesai/medikart-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the quote negotiation lifecycle. Every status change is a
// compare-and-swap against the stored status, so concurrent writers (a
// submission and the expiry sweep, say) resolve to exactly one winner.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, input CreateOrderInput) (*models.PrescriptionOrder, error)
	GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*models.PrescriptionOrder, error)
	ListForPharmacy(ctx context.Context, pharmacyID uuid.UUID, params pagination.Params) (*OrderList, error)
	SubmitQuote(ctx context.Context, pharmacyID, orderID uuid.UUID, input SubmitQuoteInput) (*models.PrescriptionOrder, error)
	Respond(ctx context.Context, role enums.ActorRole, actorID, orderID uuid.UUID, response enums.OrderResponse) (*models.PrescriptionOrder, error)
	AcceptQuote(ctx context.Context, customerID, orderID uuid.UUID, input AcceptQuoteInput) (*models.PrescriptionOrder, error)
	Convert(ctx context.Context, customerID, orderID uuid.UUID) (uuid.UUID, error)
	ExpireDue(ctx context.Context) (int, error)
}

// ServiceParams configure the orders service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Logger *logger.Logger
	Window time.Duration
	Now    func() time.Time
}

type service struct {
	repo   Repository
	tx     txRunner
	logg   *logger.Logger
	window time.Duration
	now    func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Window <= 0 {
		return nil, fmt.Errorf("quote window must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		logg:   params.Logger,
		window: params.Window,
		now:    now,
	}, nil
}

// Create opens a new prescription order with the quote window anchored at
// creation time. Manual assignment requires a chosen pharmacy; auto leaves
// the order unassigned until the first quote claims it.
func (s *service) Create(ctx context.Context, customerID uuid.UUID, input CreateOrderInput) (*models.PrescriptionOrder, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if len(input.Attachments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one prescription attachment is required")
	}
	mode := input.Mode
	if mode == "" {
		mode = enums.AssignmentModeAuto
	}
	if !mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown assignment mode")
	}
	if mode == enums.AssignmentModeManual && (input.ChosenPharmacyID == nil || *input.ChosenPharmacyID == uuid.Nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manual assignment requires a pharmacy")
	}
	if input.Address != nil {
		if err := input.Address.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
		}
	}

	expiry := s.now().UTC().Add(s.window)
	order := &models.PrescriptionOrder{
		CustomerID:      customerID,
		Status:          enums.OrderStatusWaitingForQuotes,
		AssignmentMode:  mode,
		Attachments:     pq.StringArray(input.Attachments),
		Notes:           input.Notes,
		DeliveryAddress: input.Address,
		QuoteExpiry:     &expiry,
		PaymentStatus:   enums.PaymentStatusPending,
	}
	if mode == enums.AssignmentModeManual {
		order.AssignedPharmacyID = input.ChosenPharmacyID
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create prescription order")
	}

	logCtx := s.logg.WithOrderID(ctx, created.ID.String())
	logCtx = s.logg.WithCustomerID(logCtx, customerID.String())
	s.logg.Info(logCtx, "prescription order opened")
	return created, nil
}

// GetForCustomer loads an order restricted to its owner.
func (s *service) GetForCustomer(ctx context.Context, customerID, orderID uuid.UUID) (*models.PrescriptionOrder, error) {
	if customerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and order id are required")
	}

	order, err := s.findOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return order, nil
}

// ListForPharmacy pages the orders visible to the pharmacy.
func (s *service) ListForPharmacy(ctx context.Context, pharmacyID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if pharmacyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pharmacy id is required")
	}
	list, err := s.repo.ListForPharmacy(ctx, pharmacyID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pharmacy orders")
	}
	return list, nil
}

// SubmitQuote records a pharmacy quote and advances the order to quoted.
// The submission is validated line by line, then guarded by the quote
// window, then applied with a compare-and-swap so a quote racing the expiry
// sweep can never both win.
func (s *service) SubmitQuote(ctx context.Context, pharmacyID, orderID uuid.UUID, input SubmitQuoteInput) (*models.PrescriptionOrder, error) {
	if pharmacyID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pharmacy id and order id are required")
	}
	if err := ValidateQuote(input.Mode, input.Lines); err != nil {
		return nil, err
	}

	var result *models.PrescriptionOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := s.findOrder(ctx, txRepo, orderID)
		if err != nil {
			return err
		}
		if order.AssignedPharmacyID != nil && *order.AssignedPharmacyID != pharmacyID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is assigned to another pharmacy")
		}
		if err := s.guardWindow(order); err != nil {
			return err
		}
		if order.Status != enums.OrderStatusWaitingForQuotes {
			return s.stateConflict(order.Status, enums.OrderStatusQuoted)
		}

		now := s.now().UTC()
		swapped, err := txRepo.UpdateStatusCAS(ctx, orderID,
			enums.OrderStatusWaitingForQuotes, enums.OrderStatusQuoted,
			map[string]any{
				"quoted_at":            now,
				"assigned_pharmacy_id": pharmacyID,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order to quoted")
		}
		if !swapped {
			return s.reportLostRace(ctx, txRepo, orderID, enums.OrderStatusQuoted)
		}

		quote := &models.Quote{
			OrderID:     orderID,
			PharmacyID:  pharmacyID,
			Mode:        input.Mode,
			SubmittedAt: now,
			Lines:       buildQuoteLines(input.Lines),
		}
		if err := txRepo.CreateQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store quote")
		}

		result, err = s.findOrder(ctx, txRepo, orderID)
		return err
	})
	if err != nil {
		return nil, normalizeErr(err, "submit quote")
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithPharmacyID(logCtx, pharmacyID.String())
	s.logg.Info(logCtx, "quote submitted")
	return result, nil
}

// Respond records an actor's decision on an open order. A rejection cancels
// the order; an acceptance acknowledges it without a status change, leaving
// the quote submission to advance the lifecycle.
func (s *service) Respond(ctx context.Context, role enums.ActorRole, actorID, orderID uuid.UUID, response enums.OrderResponse) (*models.PrescriptionOrder, error) {
	if actorID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id and order id are required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown actor role")
	}
	if !response.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order response")
	}

	var result *models.PrescriptionOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := s.findOrder(ctx, txRepo, orderID)
		if err != nil {
			return err
		}
		if err := s.authorizeActor(order, role, actorID); err != nil {
			return err
		}
		if err := s.guardWindow(order); err != nil {
			return err
		}
		if order.Status != enums.OrderStatusWaitingForQuotes {
			return s.stateConflict(order.Status, enums.OrderStatusCancelled)
		}

		if response == enums.OrderResponseAccepted {
			result = order
			return nil
		}

		swapped, err := txRepo.UpdateStatusCAS(ctx, orderID,
			enums.OrderStatusWaitingForQuotes, enums.OrderStatusCancelled,
			map[string]any{"cancelled_at": s.now().UTC()})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !swapped {
			return s.reportLostRace(ctx, txRepo, orderID, enums.OrderStatusCancelled)
		}

		result, err = s.findOrder(ctx, txRepo, orderID)
		return err
	})
	if err != nil {
		return nil, normalizeErr(err, "respond to order")
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithActorRole(logCtx, role.String())
	logCtx = s.logg.WithField(logCtx, "response", response.String())
	s.logg.Info(logCtx, "order response recorded")
	return result, nil
}

// AcceptQuote moves a quoted order to accepted. The guard is a non-null
// delivery address plus at least one available line on the standing quote.
func (s *service) AcceptQuote(ctx context.Context, customerID, orderID uuid.UUID, input AcceptQuoteInput) (*models.PrescriptionOrder, error) {
	if customerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and order id are required")
	}
	if input.PaymentStatus != "" && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}

	var result *models.PrescriptionOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := s.findOrder(ctx, txRepo, orderID)
		if err != nil {
			return err
		}
		if order.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
		if order.Status != enums.OrderStatusQuoted {
			return s.stateConflict(order.Status, enums.OrderStatusAccepted)
		}

		address := input.Address
		if address == nil {
			address = order.DeliveryAddress
		}
		if address == nil || address.IsZero() {
			return pkgerrors.New(pkgerrors.CodeValidation, "a delivery address is required to accept a quote")
		}
		if err := address.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
		}

		quote := latestQuote(order)
		if quote == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quoted order has no quote on file")
		}
		if countAvailable(quote) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "accepted quote has no available lines")
		}

		paymentStatus := input.PaymentStatus
		if paymentStatus == "" {
			paymentStatus = enums.PaymentStatusPending
		}

		updates := map[string]any{
			"accepted_at":       s.now().UTC(),
			"accepted_quote_id": quote.ID,
			"delivery_address":  address,
			"payment_status":    paymentStatus,
		}
		if input.PaymentDetails != nil {
			updates["payment_details"] = input.PaymentDetails
		}

		swapped, err := txRepo.UpdateStatusCAS(ctx, orderID,
			enums.OrderStatusQuoted, enums.OrderStatusAccepted, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept quote")
		}
		if !swapped {
			return s.reportLostRace(ctx, txRepo, orderID, enums.OrderStatusAccepted)
		}

		result, err = s.findOrder(ctx, txRepo, orderID)
		return err
	})
	if err != nil {
		return nil, normalizeErr(err, "accept quote")
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithCustomerID(logCtx, customerID.String())
	s.logg.Info(logCtx, "quote accepted")
	return result, nil
}

// Convert turns an accepted, paid order into a standalone payable order.
// Calling it again for the same order returns the same payable id: the
// unique index on source_order_id deduplicates concurrent retries and the
// recorded converted_order_id short-circuits later ones.
func (s *service) Convert(ctx context.Context, customerID, orderID uuid.UUID) (uuid.UUID, error) {
	if customerID == uuid.Nil || orderID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and order id are required")
	}

	var payableID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		order, err := s.findOrder(ctx, txRepo, orderID)
		if err != nil {
			return err
		}
		if order.CustomerID != customerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}

		if order.Status == enums.OrderStatusConverted {
			if order.ConvertedOrderID == nil {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "converted order is missing its payable order id")
			}
			payableID = *order.ConvertedOrderID
			return pkgerrors.New(pkgerrors.CodeConversionConflict, "order was already converted")
		}

		if order.Status != enums.OrderStatusAccepted {
			return s.stateConflict(order.Status, enums.OrderStatusConverted)
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment must be confirmed before conversion")
		}
		if order.AssignedPharmacyID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "accepted order has no assigned pharmacy")
		}

		quote := acceptedQuote(order)
		if quote == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "accepted order has no accepted quote")
		}

		payable, err := s.ensurePayable(ctx, txRepo, order, quote)
		if err != nil {
			return err
		}
		payableID = payable.ID

		swapped, err := txRepo.UpdateStatusCAS(ctx, orderID,
			enums.OrderStatusAccepted, enums.OrderStatusConverted,
			map[string]any{
				"converted_at":       s.now().UTC(),
				"converted_order_id": payable.ID,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record conversion")
		}
		if !swapped {
			current, err := s.findOrder(ctx, txRepo, orderID)
			if err != nil {
				return err
			}
			if current.Status == enums.OrderStatusConverted && current.ConvertedOrderID != nil {
				payableID = *current.ConvertedOrderID
				return pkgerrors.New(pkgerrors.CodeConversionConflict, "order was converted by a concurrent request")
			}
			return s.reportLostRace(ctx, txRepo, orderID, enums.OrderStatusConverted)
		}
		return nil
	})
	if err != nil {
		// A duplicate conversion carries the recorded payable id, so the
		// retry reports success instead of surfacing the conflict.
		if pkgerrors.HasCode(err, pkgerrors.CodeConversionConflict) {
			logCtx := s.logg.WithOrderID(ctx, orderID.String())
			logCtx = s.logg.WithField(logCtx, "payable_order_id", payableID.String())
			s.logg.Info(logCtx, "conversion already recorded")
			return payableID, nil
		}
		return uuid.Nil, normalizeErr(err, "convert order")
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithField(logCtx, "payable_order_id", payableID.String())
	s.logg.Info(logCtx, "order converted")
	return payableID, nil
}

// ExpireDue sweeps every open order whose quote window has closed, marking
// each expired with its own compare-and-swap so a concurrent submission or
// conversion that just landed is left alone.
func (s *service) ExpireDue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.repo.ListOpenExpiredBefore(ctx, now, 0)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders past expiry")
	}

	var errs []error
	expired := 0
	for _, order := range due {
		swapped, err := s.repo.UpdateStatusCAS(ctx, order.ID,
			order.Status, enums.OrderStatusExpired,
			map[string]any{"expired_at": now})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		if swapped {
			expired++
		}
	}

	if expired > 0 {
		logCtx := s.logg.WithField(ctx, "count", expired)
		s.logg.Info(logCtx, "quote windows expired")
	}
	return expired, multierr.Combine(errs...)
}

func (s *service) findOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.PrescriptionOrder, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "prescription order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load prescription order")
	}
	return order, nil
}

// guardWindow rejects mutations once the quote window has closed. The sweep
// records the terminal status asynchronously; this guard keeps the answer
// correct in the gap between expiry and the next sweep run.
func (s *service) guardWindow(order *models.PrescriptionOrder) error {
	if order.QuoteExpiry == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no quote window")
	}
	if !s.now().UTC().Before(order.QuoteExpiry.UTC()) {
		return pkgerrors.New(pkgerrors.CodeWindowExpired, "quote window has expired")
	}
	return nil
}

func (s *service) authorizeActor(order *models.PrescriptionOrder, role enums.ActorRole, actorID uuid.UUID) error {
	switch role {
	case enums.ActorRoleCustomer:
		if order.CustomerID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
	case enums.ActorRolePharmacy:
		if order.AssignedPharmacyID != nil && *order.AssignedPharmacyID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is assigned to another pharmacy")
		}
	}
	return nil
}

// reportLostRace reloads the order after a failed swap and reports the
// recorded status, which is authoritative over whatever the caller saw.
func (s *service) reportLostRace(ctx context.Context, repo Repository, orderID uuid.UUID, wanted enums.OrderStatus) error {
	current, err := s.findOrder(ctx, repo, orderID)
	if err != nil {
		return err
	}
	if current.Status == enums.OrderStatusExpired {
		return pkgerrors.New(pkgerrors.CodeWindowExpired, "quote window expired before the change was recorded")
	}
	return s.stateConflict(current.Status, wanted)
}

func (s *service) stateConflict(current, wanted enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("order is %s, cannot move to %s", current, wanted))
}

// ensurePayable returns the payable order for this prescription order,
// creating it when absent. A concurrent creator is absorbed through the
// unique index on source_order_id.
func (s *service) ensurePayable(ctx context.Context, repo Repository, order *models.PrescriptionOrder, quote *models.Quote) (*models.PayableOrder, error) {
	existing, err := repo.FindPayableBySource(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payable order")
	}

	lines := buildOrderLines(quote)
	payable := &models.PayableOrder{
		SourceOrderID: order.ID,
		CustomerID:    order.CustomerID,
		PharmacyID:    *order.AssignedPharmacyID,
		Total:         lines.Total(),
		Lines:         lines,
		PlacedAt:      s.now().UTC(),
	}

	created, err := repo.CreatePayable(ctx, payable)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_payable_source_order") {
			return repo.FindPayableBySource(ctx, order.ID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payable order")
	}
	return created, nil
}

// latestQuote returns the most recently submitted quote on the order.
func latestQuote(order *models.PrescriptionOrder) *models.Quote {
	if len(order.Quotes) == 0 {
		return nil
	}
	return &order.Quotes[len(order.Quotes)-1]
}

// acceptedQuote resolves the quote recorded at acceptance, falling back to
// the latest quote for rows written before accepted_quote_id existed.
func acceptedQuote(order *models.PrescriptionOrder) *models.Quote {
	if order.AcceptedQuoteID != nil {
		for i := range order.Quotes {
			if order.Quotes[i].ID == *order.AcceptedQuoteID {
				return &order.Quotes[i]
			}
		}
	}
	return latestQuote(order)
}

func countAvailable(quote *models.Quote) int {
	count := 0
	for i := range quote.Lines {
		if quote.Lines[i].Available {
			count++
		}
	}
	return count
}

func buildQuoteLines(inputs []QuoteLineInput) []models.QuoteLine {
	lines := make([]models.QuoteLine, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, models.QuoteLine{
			MedicineName: in.MedicineName,
			Brand:        in.Brand,
			Price:        in.Price,
			Quantity:     in.Quantity,
			Available:    in.Available,
		})
	}
	return lines
}

// buildOrderLines snapshots the available quote lines onto the payable order.
func buildOrderLines(quote *models.Quote) types.OrderLines {
	var lines types.OrderLines
	for i := range quote.Lines {
		line := quote.Lines[i]
		if !line.Available || line.Price == nil || line.Quantity == nil {
			continue
		}
		out := types.OrderLine{
			Price:    *line.Price,
			Quantity: *line.Quantity,
		}
		if line.MedicineName != nil {
			out.MedicineName = *line.MedicineName
		}
		if line.Brand != nil {
			out.Brand = *line.Brand
		}
		lines = append(lines, out)
	}
	return lines
}

// normalizeErr passes coded failures through and wraps raw driver errors.
func normalizeErr(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
