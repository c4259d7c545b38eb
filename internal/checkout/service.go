package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopward/shopward-backend/internal/orders"
	"github.com/shopward/shopward-backend/internal/products"
	"github.com/shopward/shopward-backend/pkg/db/models"
	"github.com/shopward/shopward-backend/pkg/enums"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/outbox"
	"github.com/shopward/shopward-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// paymentIntentCreator issues the gateway intent and persists the PENDING
// payment row inside the checkout transaction.
type paymentIntentCreator interface {
	CreateIntent(ctx context.Context, tx *gorm.DB, order *models.Order) (string, error)
}

// Service executes cart validation and checkout orchestration.
type Service interface {
	ValidateCart(ctx context.Context, storeID uuid.UUID, items []CartItemInput) (*CartValidation, error)
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	tx          txRunner
	catalogRepo products.Repository
	ordersRepo  orders.Repository
	payments    paymentIntentCreator
	outbox      outboxPublisher
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	catalogRepo products.Repository,
	ordersRepo orders.Repository,
	payments paymentIntentCreator,
	publisher outboxPublisher,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment intent creator required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:          tx,
		catalogRepo: catalogRepo,
		ordersRepo:  ordersRepo,
		payments:    payments,
		outbox:      publisher,
	}, nil
}

// ValidateCart checks every requested line and collects all errors before
// returning. A failing line, whether the product is missing or stock is
// short, is excluded from the resolved items and subtotal.
func (s *service) ValidateCart(ctx context.Context, storeID uuid.UUID, items []CartItemInput) (*CartValidation, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}

	result := &CartValidation{IsValid: true, Subtotal: decimal.Zero}
	for _, line := range items {
		if line.Quantity <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Quantity must be positive for product %s", line.ProductID))
			result.IsValid = false
			continue
		}

		product, err := s.catalogRepo.FindProduct(ctx, storeID, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("Product %s not found", line.ProductID))
				result.IsValid = false
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			result.Errors = append(result.Errors, fmt.Sprintf("Product %s not found", line.ProductID))
			result.IsValid = false
			continue
		}

		unitPrice := product.Price
		available := product.Quantity
		var variantID *uuid.UUID
		if line.VariantID != nil {
			variant, err := s.catalogRepo.FindVariant(ctx, product.ID, *line.VariantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					result.Errors = append(result.Errors, fmt.Sprintf("Variant %s not found", line.VariantID))
					result.IsValid = false
					continue
				}
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
			}
			if variant.Price != nil {
				unitPrice = *variant.Price
			}
			available = variant.Quantity
			variantID = line.VariantID
		}

		if product.TrackInventory && line.Quantity > available {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Insufficient stock for %q. Available: %d, Requested: %d",
				product.Name, available, line.Quantity))
			result.IsValid = false
			continue
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		result.Items = append(result.Items, ValidatedItem{
			ProductID: product.ID,
			VariantID: variantID,
			SKU:       product.SKU,
			Name:      product.Name,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
		result.Subtotal = result.Subtotal.Add(lineTotal)
	}

	result.Subtotal = result.Subtotal.Round(2)
	return result, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if input.CustomerName == "" || input.CustomerEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name and email required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	if input.Discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	validation, err := s.ValidateCart(ctx, input.StoreID, input.Items)
	if err != nil {
		return nil, err
	}
	if !validation.IsValid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart validation failed").
			WithDetails(validation.Errors)
	}

	subtotal := validation.Subtotal
	tax := CalculateTax(input.ShippingAddress, subtotal)
	shipping := EstimateShipping(input.ShippingAddress, subtotal)
	total := subtotal.Add(tax).Add(shipping).Sub(input.Discount)
	if total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds order total")
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	billing := input.BillingAddress
	if billing == nil {
		shippingCopy := input.ShippingAddress
		billing = &shippingCopy
	}

	var result *CheckoutResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		catalogRepo := s.catalogRepo.WithTx(tx)

		count, err := ordersRepo.CountOrders(ctx, input.StoreID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
		}

		shippingAddr := input.ShippingAddress
		order := &models.Order{
			StoreID:         input.StoreID,
			OrderNumber:     orders.GenerateOrderNumber(count),
			CustomerID:      input.CustomerID,
			CustomerName:    input.CustomerName,
			CustomerEmail:   input.CustomerEmail,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			ShippingStatus:  enums.ShippingStatusPending,
			Subtotal:        subtotal,
			Tax:             tax,
			Shipping:        shipping,
			Discount:        input.Discount,
			Total:           total,
			Currency:        currency,
			ShippingAddress: &shippingAddr,
			BillingAddress:  billing,
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, len(validation.Items))
		for i, line := range validation.Items {
			productID := line.ProductID
			items[i] = models.OrderItem{
				OrderID:   order.ID,
				ProductID: &productID,
				VariantID: line.VariantID,
				Name:      line.Name,
				SKU:       line.SKU,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				Total:     line.LineTotal,
			}
		}
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		if err := s.decrementInventory(ctx, tx, catalogRepo, input, validation.Items, order.ID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			StoreID:       input.StoreID,
			Version:       1,
			Actor:         checkoutActor(input),
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				StoreID:       input.StoreID,
				OrderNumber:   order.OrderNumber,
				CustomerName:  order.CustomerName,
				CustomerEmail: order.CustomerEmail,
				Total:         order.Total,
				Currency:      order.Currency,
				ItemCount:     len(items),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		secret, err := s.payments.CreateIntent(ctx, tx, order)
		if err != nil {
			return err
		}

		result = &CheckoutResult{Order: order, ClientSecret: secret}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// decrementInventory re-checks stock inside the transaction and appends one
// inventory log row per tracked line.
func (s *service) decrementInventory(
	ctx context.Context,
	tx *gorm.DB,
	catalogRepo products.Repository,
	input CheckoutInput,
	lines []ValidatedItem,
	orderID uuid.UUID,
) error {
	for _, line := range lines {
		product, err := catalogRepo.FindProduct(ctx, input.StoreID, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "Product %s not found", line.ProductID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.TrackInventory {
			continue
		}

		previous := product.Quantity
		if line.VariantID != nil {
			variant, err := catalogRepo.FindVariant(ctx, product.ID, *line.VariantID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
			}
			previous = variant.Quantity
		}

		next := previous - line.Quantity
		if next < 0 {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"Insufficient stock for %q. Available: %d, Requested: %d",
				product.Name, previous, line.Quantity)
		}

		if line.VariantID != nil {
			if err := catalogRepo.UpdateVariantQuantity(ctx, *line.VariantID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement variant stock")
			}
		} else {
			if err := catalogRepo.UpdateProduct(ctx, input.StoreID, product.ID, map[string]any{"quantity": next}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement product stock")
			}
		}

		note := fmt.Sprintf("order %s", orderID)
		entry := &models.InventoryLog{
			StoreID:     input.StoreID,
			ProductID:   product.ID,
			VariantID:   line.VariantID,
			PreviousQty: previous,
			NewQty:      next,
			Reason:      enums.InventoryReasonSale,
			Note:        &note,
		}
		if err := catalogRepo.CreateInventoryLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append inventory log")
		}

		if line.VariantID == nil && previous > product.LowStockThreshold && next <= product.LowStockThreshold {
			event := outbox.DomainEvent{
				EventType:     enums.EventLowStock,
				AggregateType: enums.AggregateProduct,
				AggregateID:   product.ID,
				StoreID:       input.StoreID,
				Version:       1,
				Data: payloads.LowStockEvent{
					ProductID: product.ID,
					StoreID:   input.StoreID,
					SKU:       product.SKU,
					Name:      product.Name,
					Quantity:  next,
					Threshold: product.LowStockThreshold,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkoutActor(input CheckoutInput) *outbox.ActorRef {
	if input.ActorUserID == uuid.Nil {
		return nil
	}
	store := input.StoreID
	return &outbox.ActorRef{
		UserID:  input.ActorUserID,
		StoreID: &store,
		Role:    input.ActorRole,
	}
}
