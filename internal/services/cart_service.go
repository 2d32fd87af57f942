package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sante-plus/api/internal/domain"
	"github.com/sante-plus/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

const maxLineQuantity = 99

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart backend cannot fulfil the request.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartNotFound indicates the requested cart or line does not exist.
var ErrCartNotFound = errors.New("cart service: not found")

// CartPricer defines the dependency capable of calculating cart totals.
type CartPricer interface {
	Calculate(ctx context.Context, cmd PriceCartCommand) (PricingBreakdown, error)
}

// CartServiceDeps wires the repository and pricing dependencies for cart operations.
type CartServiceDeps struct {
	Repository      repositories.CartRepository
	Pricer          CartPricer
	Clock           func() time.Time
	DefaultCurrency string
	Logger          func(context.Context, string, map[string]any)
	IDGenerator     func() string
}

type cartService struct {
	repo     repositories.CartRepository
	pricer   CartPricer
	newID    func() string
	now      func() time.Time
	currency string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.DefaultCurrency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &cartService{
		repo:     deps.Repository,
		pricer:   deps.Pricer,
		newID:    idGen,
		now:      func() time.Time { return deps.Clock().UTC() },
		currency: currency,
		logger:   logger,
	}, nil
}

// GetOrCreateCart loads the active cart for the user, creating an empty cart when absent.
func (s *cartService) GetOrCreateCart(ctx context.Context, userID string) (Cart, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.GetCart(ctx, uid)
	if err != nil {
		if !isRepoNotFound(err) {
			return Cart{}, translateCartRepoError(err)
		}
		saved, err := s.repo.SaveCart(ctx, s.newCart(uid))
		if err != nil {
			return Cart{}, translateCartRepoError(err)
		}
		cart = saved
	}

	return s.withEstimate(ctx, cart)
}

// AddItem appends the product to the cart, merging quantity into an existing
// line for the same product.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (Cart, error) {
	uid := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.Product.ID)
	name := strings.TrimSpace(cmd.Product.Name)
	if uid == "" || productID == "" || name == "" {
		return Cart{}, ErrCartInvalidInput
	}
	if cmd.Product.Price < 0 || cmd.Quantity < 1 || cmd.Quantity > maxLineQuantity {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.loadOrNewCart(ctx, uid)
	if err != nil {
		return Cart{}, err
	}

	now := s.now()
	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID != productID {
			continue
		}
		quantity := cart.Items[i].Quantity + cmd.Quantity
		if quantity > maxLineQuantity {
			return Cart{}, ErrCartInvalidInput
		}
		cart.Items[i].Quantity = quantity
		ts := now
		cart.Items[i].UpdatedAt = &ts
		if cmd.PrescriptionID != nil {
			prescription := strings.TrimSpace(*cmd.PrescriptionID)
			cart.Items[i].PrescriptionID = &prescription
		}
		merged = true
		break
	}
	if !merged {
		item := domain.CartItem{
			ID:                   s.newID(),
			ProductID:            productID,
			Name:                 name,
			UnitPrice:            cmd.Product.Price,
			Quantity:             cmd.Quantity,
			RequiresPrescription: cmd.Product.RequiresPrescription,
			AddedAt:              now,
		}
		if cmd.PrescriptionID != nil {
			prescription := strings.TrimSpace(*cmd.PrescriptionID)
			if prescription != "" {
				item.PrescriptionID = &prescription
			}
		}
		cart.Items = append(cart.Items, item)
	}

	return s.persist(ctx, cart, "cart.item_added", map[string]any{
		"userID":    uid,
		"productID": productID,
	})
}

// UpdateItemQuantity sets the line quantity; values below one remove the line.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cmd UpdateCartItemCommand) (Cart, error) {
	uid := strings.TrimSpace(cmd.UserID)
	itemID := strings.TrimSpace(cmd.ItemID)
	if uid == "" || itemID == "" {
		return Cart{}, ErrCartInvalidInput
	}
	if cmd.Quantity > maxLineQuantity {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, translateCartRepoError(err)
	}

	index := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			index = i
			break
		}
	}
	if index < 0 {
		return Cart{}, ErrCartNotFound
	}

	if cmd.Quantity < 1 {
		cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
	} else {
		cart.Items[index].Quantity = cmd.Quantity
		ts := s.now()
		cart.Items[index].UpdatedAt = &ts
	}

	return s.persist(ctx, cart, "cart.item_updated", map[string]any{
		"userID": uid,
		"itemID": itemID,
	})
}

// RemoveItem deletes the line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) (Cart, error) {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(itemID)
	if uid == "" || id == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.GetCart(ctx, uid)
	if err != nil {
		return Cart{}, translateCartRepoError(err)
	}

	filtered := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.ID == id {
			removed = true
			continue
		}
		filtered = append(filtered, item)
	}
	if !removed {
		return Cart{}, ErrCartNotFound
	}
	cart.Items = filtered

	return s.persist(ctx, cart, "cart.item_removed", map[string]any{
		"userID": uid,
		"itemID": id,
	})
}

// ClearCart removes the cart entirely. Clearing a missing cart is not an error.
func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}
	if err := s.repo.DeleteCart(ctx, uid); err != nil && !isRepoNotFound(err) {
		return translateCartRepoError(err)
	}
	s.logger(ctx, "cart.cleared", map[string]any{"userID": uid})
	return nil
}

func (s *cartService) loadOrNewCart(ctx context.Context, userID string) (Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return s.newCart(userID), nil
		}
		return Cart{}, translateCartRepoError(err)
	}
	return cart, nil
}

func (s *cartService) persist(ctx context.Context, cart Cart, event string, fields map[string]any) (Cart, error) {
	cart.UpdatedAt = s.now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = cart.UpdatedAt
	}
	saved, err := s.repo.SaveCart(ctx, cart)
	if err != nil {
		return Cart{}, translateCartRepoError(err)
	}
	s.logger(ctx, event, fields)
	return s.withEstimate(ctx, saved)
}

func (s *cartService) withEstimate(ctx context.Context, cart Cart) (Cart, error) {
	if s.pricer == nil {
		return cart, nil
	}
	breakdown, err := s.pricer.Calculate(ctx, PriceCartCommand{Items: cart.Items})
	if err != nil {
		s.logger(ctx, "cart.pricing_failed", map[string]any{
			"userID": cart.UserID,
			"error":  err.Error(),
		})
		return Cart{}, ErrCartUnavailable
	}
	estimate := breakdown.Estimate()
	cart.Estimate = &estimate
	return cart, nil
}

func (s *cartService) newCart(userID string) Cart {
	now := s.now()
	return Cart{
		ID:        userID,
		UserID:    userID,
		Currency:  s.currency,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func translateCartRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrCartNotFound
	}
	return ErrCartUnavailable
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
