package market

import (
	"context"
	"errors"
	"testing"

	"github.com/taskbay/taskbay/internal/ledger"
	"github.com/taskbay/taskbay/internal/models"
)

func TestSplitEscrow(t *testing.T) {
	tests := []struct {
		payment     int64
		clientShare int64
		workerShare int64
	}{
		{100, 50, 50},
		{101, 50, 51},
		{1, 0, 1},
		{2, 1, 1},
	}

	for _, tt := range tests {
		clientShare, workerShare := splitEscrow(tt.payment)
		if clientShare != tt.clientShare || workerShare != tt.workerShare {
			t.Errorf("splitEscrow(%d) = (%d, %d), want (%d, %d)",
				tt.payment, clientShare, workerShare, tt.clientShare, tt.workerShare)
		}
		if clientShare+workerShare != tt.payment {
			t.Errorf("splitEscrow(%d) shares sum to %d", tt.payment, clientShare+workerShare)
		}
	}
}

// setupDisputedJob drives a fresh job to the disputed state between client
// and the given worker, raising the dispute before completion.
func setupDisputedJob(t *testing.T, m *Marketplace, funds ledger.Ledger, client, worker string, payment int64) int64 {
	t.Helper()
	ctx := context.Background()

	mustFund(t, funds, client, payment)
	jobID := mustPost(t, m, client, "contested work", payment)
	if err := m.ApplyForJob(ctx, worker, jobID); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := m.SelectWorker(ctx, client, jobID, worker); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := m.RaiseDispute(ctx, client, jobID); err != nil {
		t.Fatalf("dispute failed: %v", err)
	}
	return jobID
}

// rateBoth drives a job between client and worker to completion and
// records the mutual ratings, building rating history for arbitration.
func rateBoth(t *testing.T, m *Marketplace, funds ledger.Ledger, client, worker string, workerRating, clientRating int64) {
	t.Helper()
	ctx := context.Background()

	mustFund(t, funds, client, 10)
	jobID := mustPost(t, m, client, "history builder", 10)
	if err := m.ApplyForJob(ctx, worker, jobID); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := m.SelectWorker(ctx, client, jobID, worker); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if err := m.CompleteJob(ctx, worker, jobID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if err := m.ReleasePayment(ctx, client, jobID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := m.RateWorker(ctx, client, jobID, workerRating); err != nil {
		t.Fatalf("rate worker failed: %v", err)
	}
	if err := m.RateClient(ctx, worker, jobID, clientRating); err != nil {
		t.Fatalf("rate client failed: %v", err)
	}
}

func TestResolveDispute_Authorization(t *testing.T) {
	m, _, funds := newTestMarket(t)
	ctx := context.Background()
	mustRegister(t, m, "w1", "Wanda", "design")
	jobID := setupDisputedJob(t, m, funds, "c1", "w1", 100)

	if err := m.ResolveDispute(ctx, "c1", jobID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-arbiter, got %v", err)
	}
	if err := m.ResolveDispute(ctx, "w1", jobID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-arbiter, got %v", err)
	}
}

func TestResolveDispute_RequiresOpenDispute(t *testing.T) {
	m, _, funds := newTestMarket(t)
	ctx := context.Background()
	mustRegister(t, m, "w1", "Wanda", "design")
	mustFund(t, funds, "c1", 100)
	jobID := mustPost(t, m, "c1", "calm work", 100)

	if err := m.ResolveDispute(ctx, testArbiter, jobID); !errors.Is(err, ErrNotDisputed) {
		t.Errorf("expected ErrNotDisputed, got %v", err)
	}
	if err := m.ResolveDispute(ctx, testArbiter, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestResolveDispute_DefaultTie verifies the scenario where neither party
// has rating history: both averages default to 3 and the odd escrow splits
// remainder-safe.
func TestResolveDispute_DefaultTie(t *testing.T) {
	m, _, funds := newTestMarket(t)
	ctx := context.Background()
	mustRegister(t, m, "w1", "Wanda", "design")
	jobID := setupDisputedJob(t, m, funds, "c1", "w1", 101)

	if err := m.ResolveDispute(ctx, testArbiter, jobID); err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}

	if got := balance(t, funds, "c1"); got != 50 {
		t.Errorf("expected client refund 50, got %d", got)
	}
	if got := balance(t, funds, "w1"); got != 51 {
		t.Errorf("expected worker share 51, got %d", got)
	}

	view, err := m.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if !view.Job.Paid {
		t.Error("expected paid after arbitration")
	}
	if !view.Job.Disputed {
		t.Error("disputed must stay true as a historical record")
	}
}

func TestResolveDispute_WorkerWins(t *testing.T) {
	m, store, funds := newTestMarket(t)
	ctx := context.Background()
	mustRegister(t, m, "w1", "Wanda", "design")

	// History: worker averages 4, client averages 2.
	rateBoth(t, m, funds, "c1", "w1", 4, 2)

	jobID := setupDisputedJob(t, m, funds, "c1", "w1", 100)
	workerBefore := balance(t, funds, "w1")

	if err := m.ResolveDispute(ctx, testArbiter, jobID); err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}
	if got := balance(t, funds, "w1"); got != workerBefore+100 {
		t.Errorf("expected worker to receive full 100, balance = %d", got)
	}

	events, err := store.ListEvents(ctx, jobID)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	last := events[len(events)-1]
	if last.Type != models.EventDisputeResolved || last.Detail != models.OutcomeWorkerWins {
		t.Errorf("expected DisputeResolved/%q, got %s/%q", models.OutcomeWorkerWins, last.Type, last.Detail)
	}
}

func TestResolveDispute_ClientWins(t *testing.T) {
	m, store, funds := newTestMarket(t)
	ctx := context.Background()
	mustRegister(t, m, "w1", "Wanda", "design")

	// History: worker averages 2, client averages 5.
	rateBoth(t, m, funds, "c1", "w1", 2, 5)

	jobID := setupDisputedJob(t, m, funds, "c1", "w1", 100)
	clientBefore := balance(t, funds, "c1")

	if err := m.ResolveDispute(ctx, testArbiter, jobID); err != nil {
		t.Fatalf("ResolveDispute failed: %v", err)
	}
	if got := balance(t, funds, "c1"); got != clientBefore+100 {
		t.Errorf("expected client to receive full 100, balance = %d", got)
	}

	events, err := store.ListEvents(ctx, jobID)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	last := events[len(events)-1]
	if last.Detail != models.OutcomeClientWins {
		t.Errorf("expected outcome %q, got %q", models.OutcomeClientWins, last.Detail)
	}
}

func TestResolveDispute_SettleFailureRollsBack(t *testing.T) {
	_, store, funds := newTestMarket(t)
	flaky := &failingStore{Store: store}
	m := New(flaky, testArbiter)

	ctx := context.Background()
	mustRegister(t, m, "w1", "Wanda", "design")
	jobID := setupDisputedJob(t, m, funds, "c1", "w1", 100)

	flaky.failSettle = true
	if err := m.ResolveDispute(ctx, testArbiter, jobID); err == nil {
		t.Fatal("expected error from failing settlement")
	}

	// The job must stay disputed and unpaid so the arbiter can retry, with
	// no party credited.
	view, err := m.GetJob(ctx, jobID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if view.Job.Paid {
		t.Fatal("paid latch must roll back with the failed settlement")
	}
	if !view.Job.Disputed {
		t.Fatal("disputed must survive the failed resolution")
	}
	if got := balance(t, funds, "w1"); got != 0 {
		t.Fatalf("failed resolution must not credit the worker, balance = %d", got)
	}

	flaky.failSettle = false
	if err := m.ResolveDispute(ctx, testArbiter, jobID); err != nil {
		t.Fatalf("retry after settlement failure should succeed: %v", err)
	}
	if got := balance(t, funds, "w1"); got != 50 {
		t.Errorf("expected worker split 50, got %d", got)
	}
	if got := balance(t, funds, "c1"); got != 50 {
		t.Errorf("expected client split 50, got %d", got)
	}
}
