package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/apexgas/commerce/internal/clock"
	"github.com/apexgas/commerce/internal/config"
	"github.com/apexgas/commerce/internal/intake"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeChannel struct {
	name string
	fail bool

	mu   sync.Mutex
	sent []Message
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, msg Message) error {
	if c.fail {
		return errors.New("transport unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeChannel) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}

func newTestService(t *testing.T, email, sms Channel) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Delivery{}))

	node, err := snowflake.NewNode(11)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Now()),
		Cfg: config.Config{
			Notify: config.NotifyConfig{
				AdminEmail: "dispatch@apexgas.com",
				AdminPhone: "5125550100",
			},
		},
		Channels: Channels{Email: email, SMS: sms},
	})
}

func testRecord(id int64) purchasedomain.Record {
	return purchasedomain.Record{
		ID:          snowflake.ID(id),
		Type:        purchasedomain.RecordTypeOneTime,
		Email:       "dana@lonestarpulmonary.com",
		AmountCents: 9999,
		Currency:    "USD",
		OrderID:     "ORD-1",
		Status:      "COMPLETED",
		BusinessInfo: intake.BusinessInfo{
			CompanyName:   "Lone Star Pulmonary",
			ContactName:   "Dana Reyes",
			PhoneNumber:   "214-400-3781",
			BusinessEmail: "dana@lonestarpulmonary.com",
		},
	}
}

func TestPurchaseFanOut(t *testing.T) {
	email := &fakeChannel{name: "email"}
	sms := &fakeChannel{name: "sms"}
	svc := newTestService(t, email, sms)

	svc.OnPurchaseCreated(context.Background(), testRecord(1001))

	emails := email.messages()
	require.Len(t, emails, 2)
	recipients := []string{emails[0].To, emails[1].To}
	require.Contains(t, recipients, "dispatch@apexgas.com")
	require.Contains(t, recipients, "dana@lonestarpulmonary.com")

	for _, msg := range emails {
		require.Contains(t, msg.Body, "99.99")
	}

	texts := sms.messages()
	require.Len(t, texts, 2)
}

func TestChannelFailureIsolated(t *testing.T) {
	email := &fakeChannel{name: "email", fail: true}
	sms := &fakeChannel{name: "sms"}
	svc := newTestService(t, email, sms)

	svc.OnPurchaseCreated(context.Background(), testRecord(1002))

	// Email bounced for both recipients; SMS still went out.
	require.Empty(t, email.messages())
	require.Len(t, sms.messages(), 2)
}

func TestRedeliveredEventSendsNothing(t *testing.T) {
	email := &fakeChannel{name: "email"}
	sms := &fakeChannel{name: "sms"}
	svc := newTestService(t, email, sms)

	record := testRecord(1003)
	svc.OnPurchaseCreated(context.Background(), record)
	svc.OnPurchaseCreated(context.Background(), record)

	require.Len(t, email.messages(), 2)
	require.Len(t, sms.messages(), 2)
}

func TestInquiryFanOut(t *testing.T) {
	email := &fakeChannel{name: "email"}
	sms := &fakeChannel{name: "sms"}
	svc := newTestService(t, email, sms)

	svc.OnFormSubmissionCreated(context.Background(), purchasedomain.FormSubmission{
		ID:            snowflake.ID(2001),
		CompanyName:   "Hill Country Dental",
		ContactName:   "Sam Ortiz",
		PhoneNumber:   "512-555-0188",
		BusinessEmail: "sam@hillcountrydental.com",
		Message:       "Need nitrous oxide refills.",
	})

	emails := email.messages()
	require.Len(t, emails, 2)
	require.Len(t, sms.messages(), 1)

	var adminBody string
	for _, msg := range emails {
		if msg.To == "dispatch@apexgas.com" {
			adminBody = msg.Body
		}
	}
	require.Contains(t, adminBody, "Need nitrous oxide refills.")
}

func TestSubscriptionReceiptWording(t *testing.T) {
	record := testRecord(3001)
	record.Type = purchasedomain.RecordTypeSubscription
	record.OrderID = ""
	record.SubscriptionID = "I-BW4X2"
	record.AmountCents = 9499

	msg := customerPurchaseReceipt(record, record.BusinessInfo.BusinessEmail)
	require.Contains(t, msg.Body, "per year until canceled")
	require.Contains(t, msg.Body, "94.99")
	require.Contains(t, msg.Body, "I-BW4X2")

	oneTime := customerPurchaseReceipt(testRecord(3002), "dana@lonestarpulmonary.com")
	require.NotContains(t, oneTime.Body, "per year")
	require.Contains(t, oneTime.Body, "ORD-1")
}
