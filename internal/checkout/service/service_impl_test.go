package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/apexgas/commerce/internal/catalog"
	"github.com/apexgas/commerce/internal/checkout/domain"
	checkoutrepo "github.com/apexgas/commerce/internal/checkout/repository"
	"github.com/apexgas/commerce/internal/clock"
	"github.com/apexgas/commerce/internal/config"
	"github.com/apexgas/commerce/internal/intake"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
	purchaserepo "github.com/apexgas/commerce/internal/purchase/repository"
	purchaseservice "github.com/apexgas/commerce/internal/purchase/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v74"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test"

type fakeSessions struct {
	params *stripe.CheckoutSessionParams
	err    error
}

func (f *fakeSessions) NewSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.params = params
	return &stripe.CheckoutSession{
		ID:  "cs_test_123",
		URL: "https://checkout.stripe.example/c/pay/cs_test_123",
	}, nil
}

type testEnv struct {
	svc domain.Service
	db  *gorm.DB
}

func newTestEnv(t *testing.T, sessions SessionClient) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.EventRecord{},
		&purchasedomain.Record{},
		&purchasedomain.FormSubmission{},
		&purchasedomain.SubscriptionState{},
	))

	node, err := snowflake.NewNode(12)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Now())

	purchases := purchaseservice.New(purchaseservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  purchaserepo.Provide(),
	})

	holder, err := catalog.NewHolder("", zap.NewNop())
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Cfg: config.Config{
			Stripe: config.StripeConfig{
				SecretKey:     "sk_test",
				WebhookSecret: webhookSecret,
				SuccessURL:    "https://apexgas.example/success",
				CancelURL:     "https://apexgas.example/cancel",
			},
		},
		Catalog:   holder,
		Purchases: purchases,
		Sessions:  sessions,
		Repo:      checkoutrepo.Provide(),
	})

	return testEnv{svc: svc, db: db}
}

func buyer() intake.BusinessInfo {
	return intake.BusinessInfo{
		CompanyName:   "Lone Star Pulmonary",
		ContactName:   "Dana Reyes",
		PhoneNumber:   "214-400-3781",
		BusinessEmail: "dana@lonestarpulmonary.com",
	}
}

func signPayload(payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":%s}}`, id, eventType, object))
}

const completedSession = `{
  "id": "cs_test_123",
  "object": "checkout.session",
  "mode": "payment",
  "amount_total": 9999,
  "currency": "usd",
  "customer_email": "dana@lonestarpulmonary.com",
  "payment_intent": "pi_123",
  "payment_status": "paid",
  "metadata": {
    "companyName": "Lone Star Pulmonary",
    "contactName": "Dana Reyes",
    "phoneNumber": "214-400-3781",
    "businessEmail": "dana@lonestarpulmonary.com",
    "hasSpecialEquipment": "false"
  }
}`

func TestCreateSessionOneTime(t *testing.T) {
	sessions := &fakeSessions{}
	env := newTestEnv(t, sessions)

	sess, err := env.svc.CreateSession(context.Background(), domain.CreateSessionRequest{
		TierCode: catalog.TierSingle,
		Buyer:    buyer(),
	})
	require.NoError(t, err)
	require.Equal(t, "cs_test_123", sess.ID)
	require.NotEmpty(t, sess.URL)

	params := sessions.params
	require.NotNil(t, params)
	require.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	require.Len(t, params.LineItems, 1)

	priceData := params.LineItems[0].PriceData
	require.NotNil(t, priceData)
	require.Equal(t, int64(9999), *priceData.UnitAmount)
	require.Equal(t, "usd", *priceData.Currency)
	require.Nil(t, priceData.Recurring)

	meta := params.Params.Metadata
	require.Equal(t, "Lone Star Pulmonary", meta["companyName"])
	require.Equal(t, "dana@lonestarpulmonary.com", meta["businessEmail"])
	require.Equal(t, "false", meta["hasSpecialEquipment"])
}

func TestCreateSessionSubscription(t *testing.T) {
	sessions := &fakeSessions{}
	env := newTestEnv(t, sessions)

	_, err := env.svc.CreateSession(context.Background(), domain.CreateSessionRequest{
		TierCode: catalog.TierSubscription,
		Buyer:    buyer(),
	})
	require.NoError(t, err)

	params := sessions.params
	require.Equal(t, string(stripe.CheckoutSessionModeSubscription), *params.Mode)
	priceData := params.LineItems[0].PriceData
	require.Equal(t, int64(9499), *priceData.UnitAmount)
	require.NotNil(t, priceData.Recurring)
	require.Equal(t, "year", *priceData.Recurring.Interval)
}

func TestCreateSessionValidation(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})
	ctx := context.Background()

	_, err := env.svc.CreateSession(ctx, domain.CreateSessionRequest{
		TierCode: "enterprise",
		Buyer:    buyer(),
	})
	require.ErrorIs(t, err, catalog.ErrUnknownTier)

	bad := buyer()
	bad.PhoneNumber = "call me"
	_, err = env.svc.CreateSession(ctx, domain.CreateSessionRequest{
		TierCode: catalog.TierSingle,
		Buyer:    bad,
	})
	require.ErrorIs(t, err, intake.ErrInvalidPhone)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})

	payload := eventPayload("evt_1", "checkout.session.completed", completedSession)
	err := env.svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, domain.ErrInvalidSignature)

	var events, purchases int64
	require.NoError(t, env.db.Model(&domain.EventRecord{}).Count(&events).Error)
	require.NoError(t, env.db.Model(&purchasedomain.Record{}).Count(&purchases).Error)
	require.Zero(t, events)
	require.Zero(t, purchases)
}

func TestWebhookSessionCompleted(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})

	payload := eventPayload("evt_2", "checkout.session.completed", completedSession)
	err := env.svc.HandleWebhook(context.Background(), payload, signPayload(payload, time.Now()))
	require.NoError(t, err)

	var record purchasedomain.Record
	require.NoError(t, env.db.Model(&purchasedomain.Record{}).Take(&record).Error)
	require.Equal(t, purchasedomain.RecordTypeOneTime, record.Type)
	require.Equal(t, "pi_123", record.OrderID)
	require.Equal(t, int64(9999), record.AmountCents)
	require.Equal(t, "USD", record.Currency)
	require.Equal(t, "Lone Star Pulmonary", record.BusinessInfo.CompanyName)

	var event domain.EventRecord
	require.NoError(t, env.db.Model(&domain.EventRecord{}).Take(&event).Error)
	require.NotNil(t, event.ProcessedAt)
	require.Equal(t, domain.ResultProcessed, event.Result)
}

func TestWebhookSessionCompletedSubscriptionMode(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})

	object := `{
	  "id": "cs_test_456",
	  "object": "checkout.session",
	  "mode": "subscription",
	  "amount_total": 9499,
	  "currency": "usd",
	  "customer_email": "dana@lonestarpulmonary.com",
	  "subscription": "sub_456",
	  "payment_status": "paid",
	  "metadata": {
	    "companyName": "Lone Star Pulmonary",
	    "contactName": "Dana Reyes",
	    "phoneNumber": "214-400-3781",
	    "businessEmail": "dana@lonestarpulmonary.com"
	  }
	}`
	payload := eventPayload("evt_3", "checkout.session.completed", object)
	require.NoError(t, env.svc.HandleWebhook(context.Background(), payload, signPayload(payload, time.Now())))

	var record purchasedomain.Record
	require.NoError(t, env.db.Model(&purchasedomain.Record{}).Take(&record).Error)
	require.Equal(t, purchasedomain.RecordTypeSubscription, record.Type)
	require.Equal(t, "sub_456", record.SubscriptionID)
	require.Empty(t, record.OrderID)
}

func TestWebhookSessionMissingBuyerInfo(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})

	object := `{
	  "id": "cs_test_789",
	  "object": "checkout.session",
	  "mode": "payment",
	  "amount_total": 9999,
	  "currency": "usd",
	  "payment_status": "paid",
	  "metadata": {}
	}`
	payload := eventPayload("evt_4", "checkout.session.completed", object)
	err := env.svc.HandleWebhook(context.Background(), payload, signPayload(payload, time.Now()))
	require.ErrorIs(t, err, domain.ErrBuyerInfoLost)

	var purchases int64
	require.NoError(t, env.db.Model(&purchasedomain.Record{}).Count(&purchases).Error)
	require.Zero(t, purchases)
}

func TestWebhookDuplicateEvent(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})
	ctx := context.Background()

	payload := eventPayload("evt_5", "checkout.session.completed", completedSession)
	sig := signPayload(payload, time.Now())
	require.NoError(t, env.svc.HandleWebhook(ctx, payload, sig))

	err := env.svc.HandleWebhook(ctx, payload, sig)
	require.ErrorIs(t, err, domain.ErrEventAlreadyProcessed)

	var purchases int64
	require.NoError(t, env.db.Model(&purchasedomain.Record{}).Count(&purchases).Error)
	require.Equal(t, int64(1), purchases)
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})
	ctx := context.Background()

	created := `{
	  "id": "sub_900",
	  "object": "subscription",
	  "status": "active",
	  "current_period_end": 1789300000,
	  "items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_year", "object": "price"}}]}
	}`
	payload := eventPayload("evt_6", "customer.subscription.created", created)
	require.NoError(t, env.svc.HandleWebhook(ctx, payload, signPayload(payload, time.Now())))

	var state purchasedomain.SubscriptionState
	require.NoError(t, env.db.Model(&purchasedomain.SubscriptionState{}).Take(&state).Error)
	require.Equal(t, purchasedomain.SubscriptionStatusActive, state.Status)
	require.Equal(t, "price_year", state.PriceID)

	updated := `{"id": "sub_900", "object": "subscription", "status": "past_due"}`
	payload = eventPayload("evt_7", "customer.subscription.updated", updated)
	require.NoError(t, env.svc.HandleWebhook(ctx, payload, signPayload(payload, time.Now())))

	require.NoError(t, env.db.Model(&purchasedomain.SubscriptionState{}).Take(&state).Error)
	require.Equal(t, purchasedomain.SubscriptionStatusPastDue, state.Status)
	require.Equal(t, "price_year", state.PriceID)

	deleted := `{"id": "sub_900", "object": "subscription", "status": "canceled", "canceled_at": 1789300100}`
	payload = eventPayload("evt_8", "customer.subscription.deleted", deleted)
	require.NoError(t, env.svc.HandleWebhook(ctx, payload, signPayload(payload, time.Now())))

	require.NoError(t, env.db.Model(&purchasedomain.SubscriptionState{}).Take(&state).Error)
	require.Equal(t, purchasedomain.SubscriptionStatusCanceled, state.Status)
	require.NotNil(t, state.CanceledAt)
}

func TestWebhookUnknownEventIgnored(t *testing.T) {
	env := newTestEnv(t, &fakeSessions{})

	payload := eventPayload("evt_9", "invoice.paid", `{"id": "in_1", "object": "invoice"}`)
	require.NoError(t, env.svc.HandleWebhook(context.Background(), payload, signPayload(payload, time.Now())))

	var event domain.EventRecord
	require.NoError(t, env.db.Model(&domain.EventRecord{}).Take(&event).Error)
	require.Equal(t, domain.ResultIgnored, event.Result)
	require.NotNil(t, event.ProcessedAt)
}
