package service

import (
	"context"
	"testing"
	"time"

	"github.com/apexgas/commerce/internal/clock"
	"github.com/apexgas/commerce/internal/intake"
	"github.com/apexgas/commerce/internal/purchase/domain"
	"github.com/apexgas/commerce/internal/purchase/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Record{},
		&domain.FormSubmission{},
		&domain.SubscriptionState{},
	))
	return db
}

func newTestService(t *testing.T, fake *clock.FakeClock) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(10)
	require.NoError(t, err)
	return New(Params{
		DB:    newTestDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
}

func buyer() intake.BusinessInfo {
	return intake.BusinessInfo{
		CompanyName:   "Lone Star Pulmonary",
		ContactName:   "Dana Reyes",
		PhoneNumber:   "214-400-3781",
		BusinessEmail: "dana@lonestarpulmonary.com",
	}
}

func oneTimeRequest() domain.CreateRecordRequest {
	return domain.CreateRecordRequest{
		Type:         domain.RecordTypeOneTime,
		Email:        "dana@lonestarpulmonary.com",
		AmountCents:  9999,
		Currency:     "usd",
		OrderID:      "ORD-1",
		Status:       "COMPLETED",
		BusinessInfo: buyer(),
	}
}

type capturingSubscriber struct {
	records     []domain.Record
	submissions []domain.FormSubmission
}

func (c *capturingSubscriber) OnPurchaseCreated(_ context.Context, record domain.Record) {
	c.records = append(c.records, record)
}

func (c *capturingSubscriber) OnFormSubmissionCreated(_ context.Context, submission domain.FormSubmission) {
	c.submissions = append(c.submissions, submission)
}

func TestRecordAssignsServerTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	svc := newTestService(t, clock.NewFakeClock(now))

	record, err := svc.Record(context.Background(), oneTimeRequest())
	require.NoError(t, err)
	require.Equal(t, now, record.CreatedAt)
	require.Equal(t, "USD", record.Currency)
	require.NotZero(t, record.ID)
}

func TestRecordMutualExclusivity(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Now()))

	req := oneTimeRequest()
	req.SubscriptionID = "SUB-1"
	_, err := svc.Record(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidRecord)

	req = oneTimeRequest()
	req.Type = domain.RecordTypeSubscription
	_, err = svc.Record(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidRecord)

	req = oneTimeRequest()
	req.Type = "refund"
	_, err = svc.Record(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestRecordAmountPerType(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Now()))

	req := oneTimeRequest()
	req.AmountCents = 0
	_, err := svc.Record(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInvalidRecord)

	sub := oneTimeRequest()
	sub.Type = domain.RecordTypeSubscription
	sub.OrderID = ""
	sub.SubscriptionID = "I-BW4X2"
	sub.AmountCents = 0
	record, err := svc.Record(context.Background(), sub)
	require.NoError(t, err)
	require.Zero(t, record.AmountCents)

	sub.SubscriptionID = "I-BW4X3"
	sub.AmountCents = -1
	_, err = svc.Record(context.Background(), sub)
	require.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestRecordRejectsInvalidBuyerInfo(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Now()))

	req := oneTimeRequest()
	req.BusinessInfo.BusinessEmail = "not-an-email"
	_, err := svc.Record(context.Background(), req)
	require.ErrorIs(t, err, intake.ErrInvalidEmail)
}

func TestRecordNotifiesSubscribers(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Now()))
	captured := &capturingSubscriber{}
	svc.Subscribe(captured)

	record, err := svc.Record(context.Background(), oneTimeRequest())
	require.NoError(t, err)
	require.Len(t, captured.records, 1)
	require.Equal(t, record.ID, captured.records[0].ID)
}

func TestListPagination(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	svc := newTestService(t, fake)

	for i, orderID := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		req := oneTimeRequest()
		req.OrderID = orderID
		_, err := svc.Record(context.Background(), req)
		require.NoError(t, err)
		_ = i
		fake.Advance(time.Minute)
	}

	first, err := svc.List(context.Background(), domain.ListRecordsRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Purchases, 2)
	require.True(t, first.HasMore)
	require.Equal(t, "ORD-3", first.Purchases[0].OrderID)

	second, err := svc.List(context.Background(), domain.ListRecordsRequest{
		PageSize:  2,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second.Purchases, 1)
	require.False(t, second.HasMore)
	require.Equal(t, "ORD-1", second.Purchases[0].OrderID)
}

func TestGetByID(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Now()))

	record, err := svc.Record(context.Background(), oneTimeRequest())
	require.NoError(t, err)

	found, err := svc.GetByID(context.Background(), record.ID.String())
	require.NoError(t, err)
	require.Equal(t, record.OrderID, found.OrderID)

	_, err = svc.GetByID(context.Background(), "999999999999999999")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(context.Background(), "not-a-snowflake")
	require.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestSubmitForm(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	svc := newTestService(t, clock.NewFakeClock(now))
	captured := &capturingSubscriber{}
	svc.Subscribe(captured)

	submission, err := svc.SubmitForm(context.Background(), domain.CreateFormSubmissionRequest{
		Info:    buyer(),
		Message: "Need a standing order of ten cylinders monthly.",
	})
	require.NoError(t, err)
	require.Equal(t, now, submission.CreatedAt)
	require.Len(t, captured.submissions, 1)
}

func TestUpsertSubscriptionStateMerges(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Now()))
	ctx := context.Background()

	periodEnd := time.Date(2027, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.UpsertSubscriptionState(ctx, domain.SubscriptionStateChange{
		ProviderSubscriptionID: "sub_123",
		Status:                 domain.SubscriptionStatusActive,
		PriceID:                "price_abc",
		CustomerEmail:          "dana@lonestarpulmonary.com",
		CurrentPeriodEnd:       &periodEnd,
	}))

	// Partial update: only status changes, everything else stays.
	require.NoError(t, svc.UpsertSubscriptionState(ctx, domain.SubscriptionStateChange{
		ProviderSubscriptionID: "sub_123",
		Status:                 domain.SubscriptionStatusPastDue,
	}))

	impl := svc.(*Service)
	state, err := impl.repo.FindSubscriptionState(ctx, impl.db, "sub_123")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, domain.SubscriptionStatusPastDue, state.Status)
	require.Equal(t, "price_abc", state.PriceID)
	require.Equal(t, "dana@lonestarpulmonary.com", state.CustomerEmail)
	require.NotNil(t, state.CurrentPeriodEnd)
}

func TestCancelSubscription(t *testing.T) {
	svc := newTestService(t, clock.NewFakeClock(time.Now()))
	ctx := context.Background()

	require.NoError(t, svc.UpsertSubscriptionState(ctx, domain.SubscriptionStateChange{
		ProviderSubscriptionID: "sub_456",
		Status:                 domain.SubscriptionStatusActive,
	}))

	canceledAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.CancelSubscription(ctx, "sub_456", canceledAt))

	impl := svc.(*Service)
	state, err := impl.repo.FindSubscriptionState(ctx, impl.db, "sub_456")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, domain.SubscriptionStatusCanceled, state.Status)
	require.NotNil(t, state.CanceledAt)

	// Cancellation for a subscription never seen before still lands.
	require.NoError(t, svc.CancelSubscription(ctx, "sub_789", canceledAt))
	state, err = impl.repo.FindSubscriptionState(ctx, impl.db, "sub_789")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, domain.SubscriptionStatusCanceled, state.Status)
}
