package listings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/infra/storage/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var testNow = func() time.Time { return date(2025, 5, 1) }

type testEnv struct {
	properties *memory.PropertyRepository
	approvals  *memory.ApprovalRepository
	policies   *memory.PolicyRepository
	factory    memory.Factory
	outbox     *memory.Outbox
}

func newTestEnv() *testEnv {
	properties := memory.NewPropertyRepository()
	env := &testEnv{
		properties: properties,
		approvals:  memory.NewApprovalRepository(properties),
		policies:   memory.NewPolicyRepository(),
		outbox:     memory.NewOutbox(),
	}
	env.factory = memory.Factory{
		PropertiesRepo: env.properties,
		ApprovalsRepo:  env.approvals,
		LeasesRepo:     memory.NewLeaseRepository(),
		PolicyRepo:     env.policies,
	}
	return env
}

func (env *testEnv) setPolicy(t *testing.T, enabled bool) {
	t.Helper()
	pol := domainpolicy.Default()
	if err := pol.Toggle(enabled, "admin-1", testNow()); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := env.policies.Save(context.Background(), pol); err != nil {
		t.Fatalf("save policy: %v", err)
	}
}

func (env *testEnv) submitHandler() *SubmitListingHandler {
	return &SubmitListingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: testNow}
}

func (env *testEnv) reviewHandler() *ReviewListingHandler {
	return &ReviewListingHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: testNow}
}

func submitCmd(id, ownerID string) SubmitListingCommand {
	return SubmitListingCommand{
		CommandID:  id,
		OwnerID:    ownerID,
		Title:      "City center loft",
		RentAmount: 120000,
		Currency:   "USD",
	}
}

func TestSubmitListingManualReview(t *testing.T) {
	env := newTestEnv()
	result, err := env.submitHandler().Handle(context.Background(), submitCmd("prop-1", "owner-1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != string(domainproperty.StatusPendingReview) {
		t.Errorf("status = %s, want PENDING_REVIEW with no policy record", result.Status)
	}
	if result.ApprovalStatus != string(domainproperty.ApprovalPending) {
		t.Errorf("approval = %s, want PENDING", result.ApprovalStatus)
	}

	approval, err := env.approvals.ByPropertyID(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("approval not created atomically: %v", err)
	}
	if approval.Status != domainproperty.ApprovalPending {
		t.Errorf("stored approval = %s", approval.Status)
	}
}

func TestSubmitListingAutoApprove(t *testing.T) {
	env := newTestEnv()
	env.setPolicy(t, true)

	result, err := env.submitHandler().Handle(context.Background(), submitCmd("prop-1", "owner-1"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != string(domainproperty.StatusApproved) {
		t.Errorf("status = %s, want APPROVED", result.Status)
	}
	approval, err := env.approvals.ByPropertyID(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("approval: %v", err)
	}
	if approval.Notes != domainpolicy.SystemApprovalNote {
		t.Errorf("notes = %q, want system approval note", approval.Notes)
	}
}

func TestReviewListingApprove(t *testing.T) {
	env := newTestEnv()
	if _, err := env.submitHandler().Handle(context.Background(), submitCmd("prop-1", "owner-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := env.reviewHandler().HandleApprove(context.Background(), ApproveListingCommand{PropertyID: "prop-1", ReviewerID: "admin-1", Notes: "ok"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Status != string(domainproperty.StatusApproved) || result.ApprovalStatus != string(domainproperty.ApprovalApproved) {
		t.Errorf("result = %+v, property and approval must move together", result)
	}
	if result.ReviewedAt.IsZero() {
		t.Error("reviewed_at not stamped")
	}

	// A decided listing cannot be decided again.
	_, err = env.reviewHandler().HandleReject(context.Background(), RejectListingCommand{PropertyID: "prop-1", ReviewerID: "admin-2", Notes: "late objection"})
	if !errors.Is(err, domainproperty.ErrInvalidState) {
		t.Fatalf("second decision err = %v, want ErrInvalidState", err)
	}
}

func TestReviewListingRejectRequiresNotes(t *testing.T) {
	env := newTestEnv()
	if _, err := env.submitHandler().Handle(context.Background(), submitCmd("prop-1", "owner-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := env.reviewHandler().HandleReject(context.Background(), RejectListingCommand{PropertyID: "prop-1", ReviewerID: "admin-1"})
	if !errors.Is(err, domainproperty.ErrReviewNotesRequired) {
		t.Fatalf("err = %v, want ErrReviewNotesRequired", err)
	}

	prop, err := env.properties.ByID(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if prop.Status != domainproperty.StatusPendingReview {
		t.Errorf("failed reject must not mutate, status = %s", prop.Status)
	}
}

func TestReviewListingNotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.reviewHandler().HandleApprove(context.Background(), ApproveListingCommand{PropertyID: "missing", ReviewerID: "admin-1"})
	if !errors.Is(err, domainproperty.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPendingListingsDoubleCondition(t *testing.T) {
	env := newTestEnv()
	submit := env.submitHandler()
	for i := 1; i <= 3; i++ {
		if _, err := submit.Handle(context.Background(), submitCmd(fmt.Sprintf("prop-%d", i), "owner-1")); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	// prop-2 gets decided; it must leave the queue.
	if _, err := env.reviewHandler().HandleApprove(context.Background(), ApproveListingCommand{PropertyID: "prop-2", ReviewerID: "admin-1"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// prop-3's approval record diverges (simulated partial write); the
	// double condition keeps it out of the queue too.
	approval, err := env.approvals.ByPropertyID(context.Background(), "prop-3")
	if err != nil {
		t.Fatalf("approval: %v", err)
	}
	approval.Status = domainproperty.ApprovalApproved
	if err := env.approvals.Save(context.Background(), approval); err != nil {
		t.Fatalf("save diverged approval: %v", err)
	}

	h := &PendingListingsHandler{UoWFactory: env.factory}
	result, err := h.Handle(context.Background(), PendingListingsQuery{})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(result.Items))
	}
	if result.Items[0].PropertyID != "prop-1" {
		t.Errorf("queue item = %s, want prop-1", result.Items[0].PropertyID)
	}
}

func TestPendingListingsPagination(t *testing.T) {
	env := newTestEnv()
	submit := env.submitHandler()
	for i := 1; i <= 5; i++ {
		if _, err := submit.Handle(context.Background(), submitCmd(fmt.Sprintf("prop-%d", i), "owner-1")); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	h := &PendingListingsHandler{UoWFactory: env.factory}
	result, err := h.Handle(context.Background(), PendingListingsQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if result.Total != 5 {
		t.Errorf("total = %d, want 5", result.Total)
	}
	if len(result.Items) != 2 {
		t.Errorf("got %d items on page 2, want 2", len(result.Items))
	}
}

func TestRepairApprovals(t *testing.T) {
	env := newTestEnv()
	submit := env.submitHandler()
	if _, err := submit.Handle(context.Background(), submitCmd("prop-1", "owner-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.reviewHandler().HandleApprove(context.Background(), ApproveListingCommand{PropertyID: "prop-1", ReviewerID: "admin-1"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// Force a divergence: approval slides back to PENDING while the
	// property stays APPROVED.
	approval, err := env.approvals.ByPropertyID(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("approval: %v", err)
	}
	approval.Status = domainproperty.ApprovalPending
	if err := env.approvals.Save(context.Background(), approval); err != nil {
		t.Fatalf("save diverged approval: %v", err)
	}

	h := &RepairApprovalsHandler{UoWFactory: env.factory, Outbox: env.outbox, Clock: testNow}
	result, err := h.Handle(context.Background(), RepairApprovalsCommand{AdminID: "admin-1"})
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if len(result.Repaired) != 1 {
		t.Fatalf("repaired %d records, want 1", len(result.Repaired))
	}
	if result.Repaired[0].To != string(domainproperty.ApprovalApproved) {
		t.Errorf("repaired to %s, property status is authoritative", result.Repaired[0].To)
	}

	// Second run finds nothing: the repair is idempotent.
	again, err := h.Handle(context.Background(), RepairApprovalsCommand{AdminID: "admin-1"})
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	if again.Scanned != 0 || len(again.Repaired) != 0 {
		t.Errorf("second run = %+v, want nothing to fix", again)
	}
}
