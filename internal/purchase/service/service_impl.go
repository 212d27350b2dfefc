package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apexgas/commerce/internal/clock"
	"github.com/apexgas/commerce/internal/intake"
	"github.com/apexgas/commerce/internal/purchase/domain"
	"github.com/apexgas/commerce/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	mu          sync.RWMutex
	subscribers []domain.Subscriber
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("purchase.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Subscribe(sub domain.Subscriber) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()
}

func (s *Service) Record(ctx context.Context, req domain.CreateRecordRequest) (domain.Record, error) {
	if err := validateRecord(req); err != nil {
		return domain.Record{}, err
	}

	var address datatypes.JSON
	if req.DeliveryAddress != nil {
		raw, err := json.Marshal(req.DeliveryAddress)
		if err != nil {
			return domain.Record{}, fmt.Errorf("%w: delivery address", domain.ErrInvalidRecord)
		}
		address = raw
	}

	record := domain.Record{
		ID:              s.genID.Generate(),
		Type:            req.Type,
		Email:           strings.TrimSpace(req.Email),
		AmountCents:     req.AmountCents,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		OrderID:         strings.TrimSpace(req.OrderID),
		SubscriptionID:  strings.TrimSpace(req.SubscriptionID),
		Status:          strings.TrimSpace(req.Status),
		PlanID:          strings.TrimSpace(req.PlanID),
		StartTime:       strings.TrimSpace(req.StartTime),
		BusinessInfo:    req.BusinessInfo,
		DeliveryAddress: address,
		CreatedAt:       s.clock.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return domain.Record{}, err
	}

	s.log.Info("purchase recorded",
		zap.String("purchase_id", record.ID.String()),
		zap.String("type", string(record.Type)),
		zap.Int64("amount_cents", record.AmountCents),
	)

	for _, sub := range s.snapshotSubscribers() {
		sub.OnPurchaseCreated(ctx, record)
	}

	return record, nil
}

func (s *Service) SubmitForm(ctx context.Context, req domain.CreateFormSubmissionRequest) (domain.FormSubmission, error) {
	if err := intake.Verify(req.Info); err != nil {
		return domain.FormSubmission{}, err
	}

	submission := domain.FormSubmission{
		ID:                  s.genID.Generate(),
		CompanyName:         req.Info.CompanyName,
		ContactName:         req.Info.ContactName,
		PhoneNumber:         req.Info.PhoneNumber,
		BusinessEmail:       req.Info.BusinessEmail,
		FacilityType:        req.Info.FacilityType,
		Message:             strings.TrimSpace(req.Message),
		HasSpecialEquipment: req.Info.HasSpecialEquipment,
		CreatedAt:           s.clock.Now().UTC(),
	}

	if err := s.repo.InsertFormSubmission(ctx, s.db, &submission); err != nil {
		return domain.FormSubmission{}, err
	}

	s.log.Info("inquiry recorded", zap.String("submission_id", submission.ID.String()))

	for _, sub := range s.snapshotSubscribers() {
		sub.OnFormSubmissionCreated(ctx, submission)
	}

	return submission, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRecordsRequest) (domain.ListRecordsResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListRecordsFilter{
		Type:  req.Type,
		Email: strings.TrimSpace(req.Email),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListRecordsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *domain.Record) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	purchases := make([]domain.Record, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		purchases = append(purchases, *item)
	}

	resp := domain.ListRecordsResponse{Purchases: purchases}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Record, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Record{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Record{}, err
	}
	if item == nil {
		return domain.Record{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) UpsertSubscriptionState(ctx context.Context, change domain.SubscriptionStateChange) error {
	if strings.TrimSpace(change.ProviderSubscriptionID) == "" {
		return fmt.Errorf("%w: provider subscription id", domain.ErrInvalidRecord)
	}
	return s.repo.UpsertSubscriptionState(ctx, s.db, change, s.clock.Now().UTC())
}

func (s *Service) CancelSubscription(ctx context.Context, providerSubscriptionID string, at time.Time) error {
	if strings.TrimSpace(providerSubscriptionID) == "" {
		return fmt.Errorf("%w: provider subscription id", domain.ErrInvalidRecord)
	}
	return s.repo.MarkSubscriptionCanceled(ctx, s.db, providerSubscriptionID, at.UTC(), s.clock.Now().UTC())
}

func (s *Service) snapshotSubscribers() []domain.Subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subscriber, len(s.subscribers))
	copy(out, s.subscribers)
	return out
}

func validateRecord(req domain.CreateRecordRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: email", domain.ErrInvalidRecord)
	}
	if req.AmountCents < 0 {
		return fmt.Errorf("%w: amount", domain.ErrInvalidRecord)
	}

	orderID := strings.TrimSpace(req.OrderID)
	subscriptionID := strings.TrimSpace(req.SubscriptionID)

	switch req.Type {
	case domain.RecordTypeOneTime:
		if orderID == "" || subscriptionID != "" {
			return fmt.Errorf("%w: one_time requires order id only", domain.ErrInvalidRecord)
		}
		if req.AmountCents == 0 {
			return fmt.Errorf("%w: amount", domain.ErrInvalidRecord)
		}
	case domain.RecordTypeSubscription:
		// The plan amount is held provider-side; approvals may not
		// echo it back, so zero is a valid recorded amount here.
		if subscriptionID == "" || orderID != "" {
			return fmt.Errorf("%w: subscription requires subscription id only", domain.ErrInvalidRecord)
		}
	default:
		return fmt.Errorf("%w: type %q", domain.ErrInvalidRecord, req.Type)
	}

	return intake.Verify(req.BusinessInfo)
}
