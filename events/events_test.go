package events

import (
	"context"
	"testing"
	"time"

	"refbounty/models"

	"github.com/stretchr/testify/assert"
)

func TestBus_Emit(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeReferralRewarded, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), ReferralRewardedEvent{ReferrerID: 7, RewardAmount: 100})

	select {
	case event := <-received:
		rewarded, ok := event.(ReferralRewardedEvent)
		assert.True(t, ok)
		assert.Equal(t, int64(100), rewarded.RewardAmount)
	case <-time.After(time.Second):
		t.Fatal("handler was never called")
	}
}

func TestBus_EmitOnlyMatchingType(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeWithdrawalProcessed, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), ReferralRewardedEvent{ReferrerID: 7})

	select {
	case <-received:
		t.Fatal("handler fired for an unrelated event type")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTransactionalBus_FlushAfterCommit(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 2)

	bus.Subscribe(EventTypeWithdrawalProcessed, func(ctx context.Context, event Event) {
		received <- event
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(WithdrawalProcessedEvent{WithdrawalID: 11, Status: models.WithdrawalStatusApproved})

	// Nothing leaves the bus before the flush
	select {
	case <-received:
		t.Fatal("event escaped before flush")
	case <-time.After(100 * time.Millisecond):
	}

	txBus.Flush(context.Background())

	select {
	case event := <-received:
		processed := event.(WithdrawalProcessedEvent)
		assert.Equal(t, int64(11), processed.WithdrawalID)
	case <-time.After(time.Second):
		t.Fatal("flushed event never arrived")
	}
}

func TestTransactionalBus_Discard(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeWithdrawalRequested, func(ctx context.Context, event Event) {
		received <- event
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(WithdrawalRequestedEvent{WithdrawalID: 11})
	txBus.Discard()
	txBus.Flush(context.Background())

	select {
	case <-received:
		t.Fatal("discarded event was still emitted")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), BalanceChangeEvent{UserID: 7})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("surviving handler never ran")
	}
}
