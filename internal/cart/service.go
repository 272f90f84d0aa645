package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/andeanmarket/storefront/internal/stock"
	"golang.org/x/sync/singleflight"
)

var ErrOutOfStock = errors.New("product is out of stock")

// Service owns cart mutation and reconciliation. Reconciliation validates a
// cart against live stock without committing any inventory change: lines for
// exhausted products are pruned, oversized lines are clamped, and each
// adjustment surfaces a warning for the user.
type Service struct {
	repo    Repository
	cache   Cache
	catalog catalog.Store
	ledger  stock.Ledger
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cache Cache, cat catalog.Store, ledger stock.Ledger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		catalog: cat,
		ledger:  ledger,
	}
}

// GetCart returns the stored cart without stock validation. A user with no
// cart gets an empty one.
func (s *Service) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(fmt.Sprint(userID), func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cached, nil // cart is in cache
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		stored, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, ErrCartNotFound) {
			return &Cart{
				UserID:    userID,
				Items:     nil,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), userID, stored); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return stored, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*Cart), nil
}

// Reconcile validates every cart line against the stock ledger. It runs on
// every cart view and again immediately before checkout; it reads stock but
// never decrements it.
func (s *Service) Reconcile(ctx context.Context, userID int64) (*ReconciledCart, error) {
	cartDoc, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ReconciledCart{}
	mutated := false

	for _, item := range cartDoc.Items {
		available, err := s.ledger.CheckAvailable(ctx, item.ProductID)
		if errors.Is(err, stock.ErrProductNotFound) {
			if err := s.repo.RemoveItem(ctx, userID, item.ProductID); err != nil && !errors.Is(err, ErrCartNotFound) {
				return nil, err
			}
			mutated = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s is no longer available and was removed from your cart", s.productLabel(ctx, item.ProductID)))
			continue
		}
		if err != nil {
			return nil, err
		}

		if available == 0 {
			if err := s.repo.RemoveItem(ctx, userID, item.ProductID); err != nil && !errors.Is(err, ErrCartNotFound) {
				return nil, err
			}
			mutated = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s is out of stock and was removed from your cart", s.productLabel(ctx, item.ProductID)))
			continue
		}

		// One catalog fetch per surviving line, shared between the clamp
		// warning and the priced line.
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		quantity := item.Quantity
		if quantity > available {
			quantity = available
			if err := s.repo.SetItemQuantity(ctx, userID, item.ProductID, quantity); err != nil {
				return nil, err
			}
			mutated = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("quantity of %s was reduced to %d (only %d in stock)",
					product.Name, quantity, available))
		}

		line := Line{
			ProductID: item.ProductID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
			Subtotal:  product.Price * float64(quantity),
		}
		result.Lines = append(result.Lines, line)
		result.Total += line.Subtotal
	}

	if mutated {
		s.invalidateCache(userID)
	}

	return result, nil
}

// AddItem adds requestedQty units of a product to the user's cart, merging
// with an existing line. The resulting quantity is clamped to current stock;
// a clamp is persisted and reported as a warning, not an error.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, requestedQty int) (string, error) {
	if requestedQty < 1 {
		requestedQty = 1
	}

	available, err := s.ledger.CheckAvailable(ctx, productID)
	if err != nil {
		return "", err
	}
	if available == 0 {
		return "", ErrOutOfStock
	}

	cartDoc, err := s.GetCart(ctx, userID)
	if err != nil {
		return "", err
	}

	newQty := requestedQty
	if existing := cartDoc.Item(productID); existing != nil {
		newQty += existing.Quantity
	}

	warning := ""
	if newQty > available {
		newQty = available
		warning = fmt.Sprintf("quantity of %s was limited to %d (only %d in stock)",
			s.productLabel(ctx, productID), newQty, available)
	}

	if err := s.repo.SetItemQuantity(ctx, userID, productID, newQty); err != nil {
		return "", err
	}

	s.invalidateCache(userID)
	return warning, nil
}

// UpdateQuantity sets the absolute quantity of a cart line, clamped to
// current stock the same way AddItem clamps.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (string, error) {
	if quantity < 1 {
		quantity = 1
	}

	available, err := s.ledger.CheckAvailable(ctx, productID)
	if err != nil {
		return "", err
	}
	if available == 0 {
		return "", ErrOutOfStock
	}

	warning := ""
	if quantity > available {
		quantity = available
		warning = fmt.Sprintf("quantity of %s was limited to %d (only %d in stock)",
			s.productLabel(ctx, productID), quantity, available)
	}

	if err := s.repo.SetItemQuantity(ctx, userID, productID, quantity); err != nil {
		return "", err
	}

	s.invalidateCache(userID)
	return warning, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

func (s *Service) productLabel(ctx context.Context, productID int64) string {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Sprintf("product %d", productID)
	}
	return product.Name
}

func (s *Service) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
