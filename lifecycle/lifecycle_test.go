package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"mealconnect-api/apperr"
	"mealconnect-api/authz"
	"mealconnect-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakePickups implements PickupStore in memory with the same atomicity
// contract as the mongo store: every conditional update checks and writes
// under one lock acquisition.
type fakePickups struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.PickupRequest
}

func newFakePickups() *fakePickups {
	return &fakePickups{byID: map[primitive.ObjectID]models.PickupRequest{}}
}

func (f *fakePickups) Create(_ context.Context, p models.PickupRequest) (models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cur := range f.byID {
		if cur.MenuItemID == p.MenuItemID && !cur.Status.Terminal() {
			return models.PickupRequest{}, apperr.Conflict("an active pickup request already exists for this item")
		}
	}
	p.ID = primitive.NewObjectID()
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakePickups) GetByID(_ context.Context, id primitive.ObjectID) (models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return models.PickupRequest{}, apperr.NotFound("pickup request not found")
	}
	return p, nil
}

func (f *fakePickups) ClaimOpen(_ context.Context, id, volunteerID primitive.ObjectID, at time.Time) (models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.Status != models.PickupOpen {
		return models.PickupRequest{}, ErrNotMatched
	}
	p.Status = models.PickupClaimed
	p.VolunteerID = &volunteerID
	p.ClaimedAt = &at
	f.byID[id] = p
	return p, nil
}

func (f *fakePickups) CompleteClaimed(_ context.Context, id primitive.ObjectID, proofRef string, at time.Time) (models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.Status != models.PickupClaimed {
		return models.PickupRequest{}, ErrNotMatched
	}
	p.Status = models.PickupCompleted
	p.ProofRef = proofRef
	p.CompletedAt = &at
	f.byID[id] = p
	return p, nil
}

func (f *fakePickups) CancelActive(_ context.Context, id primitive.ObjectID, at time.Time) (models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.Status.Terminal() {
		return models.PickupRequest{}, ErrNotMatched
	}
	p.Status = models.PickupCancelled
	p.CancelledAt = &at
	f.byID[id] = p
	return p, nil
}

func (f *fakePickups) ActiveByItem(_ context.Context, itemID primitive.ObjectID) (models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.MenuItemID == itemID && !p.Status.Terminal() {
			return p, nil
		}
	}
	return models.PickupRequest{}, apperr.NotFound("no active pickup request for this item")
}

func (f *fakePickups) HasCompletedForItem(_ context.Context, itemID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.MenuItemID == itemID && p.Status == models.PickupCompleted {
			return true, nil
		}
	}
	return false, nil
}

// activeCount counts non-terminal requests for an item, for invariant
// checks.
func (f *fakePickups) activeCount(itemID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.byID {
		if p.MenuItemID == itemID && !p.Status.Terminal() {
			n++
		}
	}
	return n
}

type fakeItems struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.MenuItem
}

func newFakeItems() *fakeItems {
	return &fakeItems{byID: map[primitive.ObjectID]models.MenuItem{}}
}

func (f *fakeItems) put(m models.MenuItem) models.MenuItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	f.byID[m.ID] = m
	return m
}

func (f *fakeItems) GetByID(_ context.Context, id primitive.ObjectID) (models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return models.MenuItem{}, apperr.NotFound("menu item not found")
	}
	return m, nil
}

func (f *fakeItems) SetAvailability(_ context.Context, id primitive.ObjectID, a models.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return apperr.NotFound("menu item not found")
	}
	m.Availability = a
	f.byID[id] = m
	return nil
}

type fixture struct {
	svc     *Service
	pickups *fakePickups
	items   *fakeItems
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pickups := newFakePickups()
	items := newFakeItems()
	return &fixture{
		svc:     New(pickups, items, zap.NewNop()),
		pickups: pickups,
		items:   items,
	}
}

func (fx *fixture) listItem(expiry time.Time) models.MenuItem {
	return fx.items.put(models.MenuItem{
		RestaurantID: primitive.NewObjectID(),
		Name:         "Veg Biryani",
		Quantity:     5,
		Category:     "Rice",
		ExpiryTime:   expiry,
		Availability: models.ItemAvailable,
	})
}

func volunteer() authz.Principal {
	return authz.Principal{UserID: primitive.NewObjectID(), Role: models.RoleVolunteer}
}

func TestOpenRejectsExpiredItem(t *testing.T) {
	fx := newFixture(t)
	item := fx.listItem(time.Now().Add(-time.Hour))

	_, err := fx.svc.Open(context.Background(), item)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestOpenEnforcesSingleActiveRequest(t *testing.T) {
	fx := newFixture(t)
	item := fx.listItem(time.Now().Add(time.Hour))

	_, err := fx.svc.Open(context.Background(), item)
	require.NoError(t, err)

	_, err = fx.svc.Open(context.Background(), item)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, fx.pickups.activeCount(item.ID))
}

func TestClaimHappyPath(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, err := fx.svc.Open(ctx, item)
	require.NoError(t, err)

	vol := volunteer()
	claimed, err := fx.svc.Claim(ctx, req.ID, vol)
	require.NoError(t, err)
	assert.Equal(t, models.PickupClaimed, claimed.Status)
	require.NotNil(t, claimed.VolunteerID)
	assert.Equal(t, vol.UserID, *claimed.VolunteerID)
	assert.NotNil(t, claimed.ClaimedAt)

	got, _ := fx.items.GetByID(ctx, item.ID)
	assert.Equal(t, models.ItemClaimed, got.Availability)
}

func TestClaimAlreadyClaimedConflicts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)

	_, err := fx.svc.Claim(ctx, req.ID, volunteer())
	require.NoError(t, err)

	_, err = fx.svc.Claim(ctx, req.ID, volunteer())
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestConcurrentClaimExactlyOneWinner(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Claim(ctx, req.ID, volunteer())
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperr.KindOf(err) == apperr.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer must win")
	assert.Equal(t, racers-1, conflicts, "every loser must see a conflict")
	assert.Equal(t, 1, fx.pickups.activeCount(item.ID))
}

func TestCompleteRequiresProof(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)
	vol := volunteer()
	_, err := fx.svc.Claim(ctx, req.ID, vol)
	require.NoError(t, err)

	_, err = fx.svc.Complete(ctx, req.ID, vol, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCompleteByWrongVolunteerForbidden(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)
	_, err := fx.svc.Claim(ctx, req.ID, volunteer())
	require.NoError(t, err)

	_, err = fx.svc.Complete(ctx, req.ID, volunteer(), "img123")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCompleteFromOpenIsInvalidTransition(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)

	admin := authz.Principal{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
	_, err := fx.svc.Complete(ctx, req.ID, admin, "img123")
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestCompleteMarksItemPickedUp(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)
	vol := volunteer()
	_, err := fx.svc.Claim(ctx, req.ID, vol)
	require.NoError(t, err)

	done, err := fx.svc.Complete(ctx, req.ID, vol, "img123")
	require.NoError(t, err)
	assert.Equal(t, models.PickupCompleted, done.Status)
	assert.Equal(t, "img123", done.ProofRef)
	assert.NotNil(t, done.CompletedAt)

	got, _ := fx.items.GetByID(ctx, item.ID)
	assert.Equal(t, models.ItemPickedUp, got.Availability)
}

func TestCancelFromClaimedRevertsItemAndKeepsVolunteer(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)
	vol := volunteer()
	_, err := fx.svc.Claim(ctx, req.ID, vol)
	require.NoError(t, err)

	cancelled, err := fx.svc.Cancel(ctx, req.ID, vol)
	require.NoError(t, err)
	assert.Equal(t, models.PickupCancelled, cancelled.Status)
	require.NotNil(t, cancelled.VolunteerID, "volunteer id retained for audit")
	assert.Equal(t, vol.UserID, *cancelled.VolunteerID)

	got, _ := fx.items.GetByID(ctx, item.ID)
	assert.Equal(t, models.ItemAvailable, got.Availability, "item re-listable after cancel")
}

func TestCancelAfterExpiryMarksItemExpired(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)
	vol := volunteer()
	_, err := fx.svc.Claim(ctx, req.ID, vol)
	require.NoError(t, err)

	// Move the clock past the item's expiry.
	fx.svc.now = func() time.Time { return item.ExpiryTime.Add(time.Minute) }

	_, err = fx.svc.Cancel(ctx, req.ID, vol)
	// Lazy expiry already cancelled the request before the explicit
	// cancel could run.
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	got, _ := fx.items.GetByID(ctx, item.ID)
	assert.Equal(t, models.ItemExpired, got.Availability)
	cur, _ := fx.pickups.GetByID(ctx, req.ID)
	assert.Equal(t, models.PickupCancelled, cur.Status)
}

func TestClaimExpiredItemFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)

	fx.svc.now = func() time.Time { return item.ExpiryTime.Add(time.Minute) }

	_, err := fx.svc.Claim(ctx, req.ID, volunteer())
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	got, _ := fx.items.GetByID(ctx, item.ID)
	assert.Equal(t, models.ItemExpired, got.Availability)
}

func TestCancelByOwningRestaurant(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)

	owner := authz.Principal{
		UserID:       primitive.NewObjectID(),
		Role:         models.RoleRestaurant,
		RestaurantID: item.RestaurantID,
	}
	cancelled, err := fx.svc.Cancel(ctx, req.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.PickupCancelled, cancelled.Status)
}

func TestCancelByOtherRestaurantForbidden(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)

	stranger := authz.Principal{
		UserID:       primitive.NewObjectID(),
		Role:         models.RoleRestaurant,
		RestaurantID: primitive.NewObjectID(),
	}
	_, err := fx.svc.Cancel(ctx, req.ID, stranger)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCloseForItemCancelsActiveRequest(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))
	req, _ := fx.svc.Open(ctx, item)

	cancelled, err := fx.svc.CloseForItem(ctx, item.ID, models.ItemExpired)
	require.NoError(t, err)
	require.NotNil(t, cancelled)
	assert.Equal(t, req.ID, cancelled.ID)
	assert.Equal(t, models.PickupCancelled, cancelled.Status)

	got, _ := fx.items.GetByID(ctx, item.ID)
	assert.Equal(t, models.ItemExpired, got.Availability)
}

func TestCloseForItemWithoutActiveRequest(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))

	cancelled, err := fx.svc.CloseForItem(ctx, item.ID, models.ItemExpired)
	require.NoError(t, err)
	assert.Nil(t, cancelled)
}

// Full walkthrough: list → auto-open → claim → losing racer conflicts →
// complete with proof → item picked up.
func TestEndToEndDonationFlow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	item := fx.listItem(time.Now().Add(time.Hour))

	req, err := fx.svc.Open(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, models.PickupOpen, req.Status)

	volA, volB := volunteer(), volunteer()

	claimed, err := fx.svc.Claim(ctx, req.ID, volA)
	require.NoError(t, err)
	assert.Equal(t, volA.UserID, *claimed.VolunteerID)

	_, err = fx.svc.Claim(ctx, req.ID, volB)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	done, err := fx.svc.Complete(ctx, req.ID, volA, "img123")
	require.NoError(t, err)
	assert.Equal(t, models.PickupCompleted, done.Status)

	got, _ := fx.items.GetByID(ctx, item.ID)
	assert.Equal(t, models.ItemPickedUp, got.Availability)
	assert.Equal(t, 0, fx.pickups.activeCount(item.ID))
}
