package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"handle-ledger/internal/core/domain"
	"handle-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			assert.Equal(t, domain.AuditActionTransfer, log.Action)
			assert.Equal(t, "uid-a", log.PrincipalID)
			assert.NoError(t, ctx.Err())
			close(done)
			return nil
		},
	)

	// The request context is already gone when the write happens.
	ctx, cancel := context.WithCancel(context.Background())
	svc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		PrincipalID:  "uid-a",
		Action:       domain.AuditActionTransfer,
		ResourceType: "transfer",
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})
	cancel()

	select {
	case <-done:
		// OK
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_RepoFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *domain.AuditLog) error {
			defer close(done)
			return errors.New("db down")
		},
	)

	svc.Log(context.Background(), &domain.AuditLog{ID: uuid.New(), Action: domain.AuditActionClaimUsername})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit repo not called")
	}
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, newTestLogger())

	// Should not panic
	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		PrincipalID:  "uid-a",
		Action:       domain.AuditActionEnsureAccount,
		ResourceType: "account",
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})

	time.Sleep(50 * time.Millisecond) // let goroutine run
}
