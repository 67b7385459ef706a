package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arjundesai/medikart-backend/pkg/db/models"
	pkgerrors "github.com/arjundesai/medikart-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart mutation and read operations. A customer has at most
// one cart, and every line in it belongs to the cart's bound pharmacy.
type Service interface {
	AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.CartRecord, error)
	RemoveOne(ctx context.Context, customerID, medicineID uuid.UUID) (*models.CartRecord, error)
	RemoveAll(ctx context.Context, customerID, medicineID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
	Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// AddItemInput carries the medicine being added to the cart.
type AddItemInput struct {
	MedicineID uuid.UUID
	PharmacyID uuid.UUID
	Name       string
	Price      decimal.Decimal
}

func (in AddItemInput) validate() error {
	if in.MedicineID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "medicine id is required")
	}
	if in.PharmacyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pharmacy id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "medicine name is required")
	}
	if in.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}

// AddItem inserts a line with quantity 1 or increments an existing line. The
// first item added to an empty cart binds the cart to that item's pharmacy;
// an item from any other pharmacy is rejected without touching the cart.
func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (*models.CartRecord, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindByCustomer(ctx, customerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if record == nil {
			pharmacyID := input.PharmacyID
			record, err = txRepo.Create(ctx, &models.CartRecord{
				CustomerID: customerID,
				PharmacyID: &pharmacyID,
			})
			if err != nil {
				return err
			}
		}

		if len(record.Items) > 0 {
			if record.PharmacyID == nil || *record.PharmacyID != input.PharmacyID {
				return pkgerrors.New(pkgerrors.CodePharmacyMismatch, "cart is bound to a different pharmacy")
			}
		} else if record.PharmacyID == nil || *record.PharmacyID != input.PharmacyID {
			pharmacyID := input.PharmacyID
			record.PharmacyID = &pharmacyID
			if _, err := txRepo.Update(ctx, record); err != nil {
				return err
			}
		}

		var line *models.CartItem
		for i := range record.Items {
			if record.Items[i].MedicineID == input.MedicineID {
				line = &record.Items[i]
				break
			}
		}

		if line != nil {
			line.Quantity++
			if err := txRepo.SaveItem(ctx, line); err != nil {
				return err
			}
		} else {
			item := models.CartItem{
				CartID:     record.ID,
				MedicineID: input.MedicineID,
				PharmacyID: input.PharmacyID,
				Name:       strings.TrimSpace(input.Name),
				Price:      input.Price,
				Quantity:   1,
			}
			if err := txRepo.SaveItem(ctx, &item); err != nil {
				return err
			}
		}

		saved, err = s.reload(ctx, txRepo, customerID)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	return saved, nil
}

// RemoveOne decrements the line's quantity, deleting the line when it reaches
// zero and unbinding the pharmacy when the cart drains.
func (s *service) RemoveOne(ctx context.Context, customerID, medicineID uuid.UUID) (*models.CartRecord, error) {
	return s.mutateLine(ctx, customerID, medicineID, func(txRepo CartRepository, record *models.CartRecord, line *models.CartItem) error {
		line.Quantity--
		if line.Quantity >= 1 {
			return txRepo.SaveItem(ctx, line)
		}
		return txRepo.DeleteItem(ctx, line.ID)
	})
}

// RemoveAll deletes the line outright regardless of its quantity.
func (s *service) RemoveAll(ctx context.Context, customerID, medicineID uuid.UUID) (*models.CartRecord, error) {
	return s.mutateLine(ctx, customerID, medicineID, func(txRepo CartRepository, record *models.CartRecord, line *models.CartItem) error {
		return txRepo.DeleteItem(ctx, line.ID)
	})
}

func (s *service) mutateLine(ctx context.Context, customerID, medicineID uuid.UUID, mutate func(CartRepository, *models.CartRecord, *models.CartItem) error) (*models.CartRecord, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if medicineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "medicine id is required")
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindByCustomer(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}

		var line *models.CartItem
		for i := range record.Items {
			if record.Items[i].MedicineID == medicineID {
				line = &record.Items[i]
				break
			}
		}
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}

		if err := mutate(txRepo, record, line); err != nil {
			return err
		}

		saved, err = s.reload(ctx, txRepo, customerID)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	return saved, nil
}

// Clear empties the cart and unbinds the pharmacy.
func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindByCustomer(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := txRepo.DeleteItems(ctx, record.ID); err != nil {
			return err
		}
		return txRepo.SetBoundPharmacy(ctx, record.ID, nil)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}

	return nil
}

// Get returns the customer's cart, or not-found.
func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	record, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, err
	}
	return record, nil
}

// reload fetches the cart after a mutation, repairs any line whose quantity
// fell below one, and unbinds the pharmacy once the cart is empty.
func (s *service) reload(ctx context.Context, txRepo CartRepository, customerID uuid.UUID) (*models.CartRecord, error) {
	record, err := txRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	kept := record.Items[:0]
	for i := range record.Items {
		if record.Items[i].Quantity < 1 {
			if err := txRepo.DeleteItem(ctx, record.Items[i].ID); err != nil {
				return nil, err
			}
			continue
		}
		kept = append(kept, record.Items[i])
	}
	record.Items = kept

	if len(record.Items) == 0 && record.PharmacyID != nil {
		if err := txRepo.SetBoundPharmacy(ctx, record.ID, nil); err != nil {
			return nil, err
		}
		record.PharmacyID = nil
	}

	if err := checkExclusivity(record); err != nil {
		return nil, err
	}
	return record, nil
}

// checkExclusivity verifies every line shares the cart's bound pharmacy.
func checkExclusivity(record *models.CartRecord) error {
	if len(record.Items) == 0 {
		return nil
	}
	if record.PharmacyID == nil {
		return pkgerrors.New(pkgerrors.CodePharmacyMismatch, "non-empty cart has no bound pharmacy")
	}
	for i := range record.Items {
		if record.Items[i].PharmacyID != *record.PharmacyID {
			return pkgerrors.New(pkgerrors.CodePharmacyMismatch, "cart line pharmacy does not match bound pharmacy")
		}
	}
	return nil
}
