package address

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidAddress = errors.New("receiverName, phoneNumber and streetAddress are required")

// Service orchestrates address management. At most one address per user is
// the default; the first address saved becomes it.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetAddresses(ctx context.Context, userID string) ([]Address, error) {
	return s.repo.List(ctx, userID)
}

// GetDefault returns the default address, or ErrNotFound when none is set.
func (s *Service) GetDefault(ctx context.Context, userID string) (Address, error) {
	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	for _, a := range all {
		if a.IsDefault {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

func validate(a *Address) error {
	a.ReceiverName = strings.TrimSpace(a.ReceiverName)
	a.PhoneNumber = strings.TrimSpace(a.PhoneNumber)
	a.StreetAddress = strings.TrimSpace(a.StreetAddress)
	if a.ReceiverName == "" || a.PhoneNumber == "" || a.StreetAddress == "" {
		return ErrInvalidAddress
	}
	return nil
}

func (s *Service) AddAddress(ctx context.Context, userID string, a Address) (Address, error) {
	if err := validate(&a); err != nil {
		return Address{}, err
	}
	existing, err := s.repo.List(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	a.ID = uuid.NewString()
	a.UserID = userID
	promote := a.IsDefault && len(existing) > 0
	a.IsDefault = len(existing) == 0
	if err := s.repo.Save(ctx, a); err != nil {
		return Address{}, fmt.Errorf("add address: %w", err)
	}
	if promote {
		return s.SetDefault(ctx, userID, a.ID)
	}
	return a, nil
}

// UpdateAddress replaces the editable fields. The default flag is only
// changed through SetDefault.
func (s *Service) UpdateAddress(ctx context.Context, userID string, a Address) (Address, error) {
	if err := validate(&a); err != nil {
		return Address{}, err
	}
	cur, err := s.repo.Get(ctx, userID, a.ID)
	if err != nil {
		return Address{}, err
	}
	a.UserID = userID
	a.IsDefault = cur.IsDefault
	if err := s.repo.Save(ctx, a); err != nil {
		return Address{}, fmt.Errorf("update address: %w", err)
	}
	return a, nil
}

// DeleteAddress removes the address. Deleting the default promotes the
// first remaining address.
func (s *Service) DeleteAddress(ctx context.Context, userID, id string) error {
	cur, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if !cur.IsDefault {
		return nil
	}
	rest, err := s.repo.List(ctx, userID)
	if err != nil || len(rest) == 0 {
		return err
	}
	if _, err := s.SetDefault(ctx, userID, rest[0].ID); err != nil {
		log.Printf("[address] WARN: promote default for %s: %v", userID, err)
	}
	return nil
}

// SetDefault marks id as the default and clears the flag on every other
// address. There are no multi-document transactions, so a failure part way
// leaves more than one default until the next call.
func (s *Service) SetDefault(ctx context.Context, userID, id string) (Address, error) {
	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	var target *Address
	for i := range all {
		if all[i].ID == id {
			target = &all[i]
		}
	}
	if target == nil {
		return Address{}, ErrNotFound
	}
	if err := s.repo.SetDefaultFlag(ctx, userID, id, true); err != nil {
		return Address{}, err
	}
	for _, a := range all {
		if a.ID == id || !a.IsDefault {
			continue
		}
		if err := s.repo.SetDefaultFlag(ctx, userID, a.ID, false); err != nil {
			return Address{}, fmt.Errorf("clear default %s: %w", a.ID, err)
		}
	}
	target.IsDefault = true
	return *target, nil
}
