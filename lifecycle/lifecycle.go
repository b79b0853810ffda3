// Package lifecycle implements the pickup request state machine end to
// end: opening a request when an item is listed, the volunteer claim
// (atomic against the stored status), completion with proof, cancellation,
// and lazy expiry. All authorization goes through authz.CanAccess and all
// transitions through the statemachine tables, so handlers stay thin.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/authz"
	"mealconnect-api/models"
	"mealconnect-api/statemachine"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrNotMatched is returned by conditional store updates when no document
// matched the status predicate. The service reloads the record to decide
// whether the caller lost a race or hit a terminal state.
var ErrNotMatched = errors.New("no document matched the status predicate")

// PickupStore is the persistence the lifecycle needs for pickup requests.
// ClaimOpen and CompleteClaimed must be atomic compare-and-set operations
// against the stored status field.
type PickupStore interface {
	Create(ctx context.Context, p models.PickupRequest) (models.PickupRequest, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.PickupRequest, error)
	ClaimOpen(ctx context.Context, id, volunteerID primitive.ObjectID, at time.Time) (models.PickupRequest, error)
	CompleteClaimed(ctx context.Context, id primitive.ObjectID, proofRef string, at time.Time) (models.PickupRequest, error)
	CancelActive(ctx context.Context, id primitive.ObjectID, at time.Time) (models.PickupRequest, error)
	ActiveByItem(ctx context.Context, itemID primitive.ObjectID) (models.PickupRequest, error)
	HasCompletedForItem(ctx context.Context, itemID primitive.ObjectID) (bool, error)
}

// ItemStore is the slice of the menu item store the lifecycle mutates.
type ItemStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.MenuItem, error)
	SetAvailability(ctx context.Context, id primitive.ObjectID, a models.Availability) error
}

type Service struct {
	pickups PickupStore
	items   ItemStore
	log     *zap.Logger
	now     func() time.Time
}

func New(pickups PickupStore, items ItemStore, log *zap.Logger) *Service {
	return &Service{pickups: pickups, items: items, log: log, now: time.Now}
}

// Open creates the open pickup request for a freshly listed item. At most
// one non-terminal request may exist per item; the store signals a
// Conflict when that invariant would break.
func (s *Service) Open(ctx context.Context, item models.MenuItem) (models.PickupRequest, error) {
	now := s.now()
	if item.Expired(now) {
		return models.PickupRequest{}, apperr.Validationf("menu item has already expired")
	}
	req := models.PickupRequest{
		MenuItemID:   item.ID,
		RestaurantID: item.RestaurantID,
		Status:       models.PickupOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.pickups.Create(ctx, req)
	if err != nil {
		return models.PickupRequest{}, err
	}
	s.log.Info("pickup request opened",
		zap.String("pickup_id", created.ID.Hex()),
		zap.String("menu_item_id", item.ID.Hex()))
	return created, nil
}

// Claim transitions open → claimed for the volunteer principal. The status
// check and update are a single compare-and-set; a racing volunteer loses
// with a Conflict, never a silent success.
func (s *Service) Claim(ctx context.Context, id primitive.ObjectID, p authz.Principal) (models.PickupRequest, error) {
	req, item, err := s.loadFresh(ctx, id)
	if err != nil {
		return models.PickupRequest{}, err
	}
	if req.Status == models.PickupClaimed {
		return models.PickupRequest{}, apperr.Conflict("pickup request has already been claimed")
	}
	if err := statemachine.CanTransition(req.Status, models.PickupClaimed, statemachine.ActorFor(p.Role)); err != nil {
		return models.PickupRequest{}, err
	}
	if err := authz.CanAccess(p, authz.ActionClaim, authz.ForPickup(req)); err != nil {
		return models.PickupRequest{}, err
	}

	claimed, err := s.pickups.ClaimOpen(ctx, id, p.UserID, s.now())
	if errors.Is(err, ErrNotMatched) {
		// Lost the race or the request moved under us; reload to classify.
		cur, gerr := s.pickups.GetByID(ctx, id)
		if gerr != nil {
			return models.PickupRequest{}, gerr
		}
		if cur.Status == models.PickupClaimed {
			return models.PickupRequest{}, apperr.Conflict("pickup request has already been claimed")
		}
		return models.PickupRequest{}, apperr.InvalidTransitionf("pickup request is %s and can no longer be claimed", cur.Status)
	}
	if err != nil {
		return models.PickupRequest{}, err
	}

	if err := s.items.SetAvailability(ctx, item.ID, models.ItemClaimed); err != nil {
		return models.PickupRequest{}, err
	}
	s.log.Info("pickup claimed",
		zap.String("pickup_id", id.Hex()),
		zap.String("volunteer_id", p.UserID.Hex()))
	return claimed, nil
}

// Complete transitions claimed → completed. Only the claiming volunteer or
// an admin may complete, and a proof reference is required. On success the
// item moves to picked-up.
func (s *Service) Complete(ctx context.Context, id primitive.ObjectID, p authz.Principal, proofRef string) (models.PickupRequest, error) {
	if proofRef == "" {
		return models.PickupRequest{}, apperr.Validationf("a proof reference is required to complete a pickup")
	}
	req, item, err := s.loadFresh(ctx, id)
	if err != nil {
		return models.PickupRequest{}, err
	}
	if err := statemachine.CanTransition(req.Status, models.PickupCompleted, statemachine.ActorFor(p.Role)); err != nil {
		return models.PickupRequest{}, err
	}
	if err := authz.CanAccess(p, authz.ActionComplete, authz.ForPickup(req)); err != nil {
		return models.PickupRequest{}, err
	}

	done, err := s.pickups.CompleteClaimed(ctx, id, proofRef, s.now())
	if errors.Is(err, ErrNotMatched) {
		cur, gerr := s.pickups.GetByID(ctx, id)
		if gerr != nil {
			return models.PickupRequest{}, gerr
		}
		return models.PickupRequest{}, apperr.InvalidTransitionf("pickup request is %s and cannot be completed", cur.Status)
	}
	if err != nil {
		return models.PickupRequest{}, err
	}

	if err := s.items.SetAvailability(ctx, item.ID, models.ItemPickedUp); err != nil {
		return models.PickupRequest{}, err
	}
	s.log.Info("pickup completed",
		zap.String("pickup_id", id.Hex()),
		zap.String("proof", proofRef))
	return done, nil
}

// Cancel transitions open|claimed → cancelled. The volunteer ID is kept
// for audit. The item reverts to available for re-listing unless it has
// expired in the meantime.
func (s *Service) Cancel(ctx context.Context, id primitive.ObjectID, p authz.Principal) (models.PickupRequest, error) {
	req, item, err := s.loadFresh(ctx, id)
	if err != nil {
		return models.PickupRequest{}, err
	}
	if err := statemachine.CanTransition(req.Status, models.PickupCancelled, statemachine.ActorFor(p.Role)); err != nil {
		return models.PickupRequest{}, err
	}
	if err := authz.CanAccess(p, authz.ActionCancel, authz.ForPickup(req)); err != nil {
		return models.PickupRequest{}, err
	}

	cancelled, err := s.pickups.CancelActive(ctx, id, s.now())
	if errors.Is(err, ErrNotMatched) {
		cur, gerr := s.pickups.GetByID(ctx, id)
		if gerr != nil {
			return models.PickupRequest{}, gerr
		}
		return models.PickupRequest{}, apperr.InvalidTransitionf("pickup request is %s and cannot be cancelled", cur.Status)
	}
	if err != nil {
		return models.PickupRequest{}, err
	}

	next := models.ItemAvailable
	if item.Expired(s.now()) {
		next = models.ItemExpired
	}
	if err := s.items.SetAvailability(ctx, item.ID, next); err != nil {
		return models.PickupRequest{}, err
	}
	s.log.Info("pickup cancelled",
		zap.String("pickup_id", id.Hex()),
		zap.String("item_availability", string(next)))
	return cancelled, nil
}

// CloseForItem cancels any active request on the item and marks the item
// with the given availability. Used when an item is soft-deleted, zeroed
// out, or expires. Returns the cancelled request if one existed.
func (s *Service) CloseForItem(ctx context.Context, itemID primitive.ObjectID, a models.Availability) (*models.PickupRequest, error) {
	active, err := s.pickups.ActiveByItem(ctx, itemID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			if serr := s.items.SetAvailability(ctx, itemID, a); serr != nil {
				return nil, serr
			}
			return nil, nil
		}
		return nil, err
	}
	cancelled, err := s.pickups.CancelActive(ctx, active.ID, s.now())
	if err != nil && !errors.Is(err, ErrNotMatched) {
		return nil, err
	}
	if err := s.items.SetAvailability(ctx, itemID, a); err != nil {
		return nil, err
	}
	return &cancelled, nil
}

// loadFresh loads the request and its item, applying lazy expiry: if the
// item's expiry time passed while the request was non-terminal, the
// request auto-cancels and the item moves to expired before the caller's
// own transition is evaluated.
func (s *Service) loadFresh(ctx context.Context, id primitive.ObjectID) (models.PickupRequest, models.MenuItem, error) {
	req, err := s.pickups.GetByID(ctx, id)
	if err != nil {
		return models.PickupRequest{}, models.MenuItem{}, err
	}
	item, err := s.items.GetByID(ctx, req.MenuItemID)
	if err != nil {
		return models.PickupRequest{}, models.MenuItem{}, err
	}
	if !req.Status.Terminal() && item.Expired(s.now()) {
		cancelled, cerr := s.pickups.CancelActive(ctx, req.ID, s.now())
		if cerr != nil && !errors.Is(cerr, ErrNotMatched) {
			return models.PickupRequest{}, models.MenuItem{}, cerr
		}
		if cerr == nil {
			req = cancelled
		}
		if serr := s.items.SetAvailability(ctx, item.ID, models.ItemExpired); serr != nil {
			return models.PickupRequest{}, models.MenuItem{}, serr
		}
		item.Availability = models.ItemExpired
		s.log.Info("pickup expired lazily", zap.String("pickup_id", req.ID.Hex()))
	}
	return req, item, nil
}

// HasCompletedForItem reports whether a completed pickup references the
// item; such items are only ever soft-deleted.
func (s *Service) HasCompletedForItem(ctx context.Context, itemID primitive.ObjectID) (bool, error) {
	return s.pickups.HasCompletedForItem(ctx, itemID)
}
