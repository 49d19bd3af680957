package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"business-svc/internal/business"
)

func TestMemberRepositoryCreateDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	m, err := business.NewOwner(testBusinessID, "user-1", "r-owner", business.WithClock(testClock))
	if err != nil {
		t.Fatalf("NewOwner failed: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO business.business_members")).
		WithArgs(anyArgs(len(memberColumns))...).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "business_members_business_id_user_id_key"})

	_, err = s.Members().Create(context.Background(), m)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("There were unfulfilled expectations: %s", err)
	}
}

func TestMemberRepositoryFindByBusinessAndUser(t *testing.T) {
	s, mock := newMockStore(t)
	m, err := business.NewOwner(testBusinessID, "user-1", "r-owner", business.WithClock(testClock))
	if err != nil {
		t.Fatalf("NewOwner failed: %v", err)
	}

	rows := sqlmock.NewRows(memberColumns).
		AddRow(recordRow(t, memberColumns, MemberToRecord(m))...)
	mock.ExpectQuery(regexp.QuoteMeta(selectMemberSQL + " WHERE business_id = $1 AND user_id = $2")).
		WithArgs(testBusinessID, "user-1").
		WillReturnRows(rows)

	got, err := s.Members().FindByBusinessAndUser(context.Background(), testBusinessID, "user-1")
	if err != nil {
		t.Fatalf("FindByBusinessAndUser failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a member, got nil")
	}
	if !got.IsOwner() {
		t.Error("Expected the owner flag to survive the round trip")
	}
	if len(got.ActivityHistory()) != 1 {
		t.Errorf("Expected 1 activity entry, got %d", len(got.ActivityHistory()))
	}
	if !got.HasPermission(business.PermBusinessDelete) {
		t.Error("Expected owner permissions to survive the round trip")
	}
}

func TestMemberRepositoryFindByBusiness(t *testing.T) {
	s, mock := newMockStore(t)
	owner, _ := business.NewOwner(testBusinessID, "user-1", "r-owner", business.WithClock(testClock))
	viewer, _ := business.NewMemberFromInvitation(testBusinessID, "user-2", "r-viewer",
		[]business.Permission{business.PermBusinessRead}, "user-1", business.WithClock(testClock))

	rows := sqlmock.NewRows(memberColumns).
		AddRow(recordRow(t, memberColumns, MemberToRecord(owner))...).
		AddRow(recordRow(t, memberColumns, MemberToRecord(viewer))...)
	mock.ExpectQuery(regexp.QuoteMeta(selectMemberSQL + " WHERE business_id = $1 ORDER BY created_at")).
		WithArgs(testBusinessID).
		WillReturnRows(rows)

	members, err := s.Members().FindByBusiness(context.Background(), testBusinessID)
	if err != nil {
		t.Fatalf("FindByBusiness failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(members))
	}
	if members[1].UserID() != "user-2" {
		t.Errorf("Expected second member 'user-2', got '%s'", members[1].UserID())
	}
	if members[1].Status() != business.MemberPending {
		t.Errorf("Expected PENDING, got %s", members[1].Status())
	}
}

func TestMemberRepositoryDeleteMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM business.business_members WHERE id = $1")).
		WithArgs(missingID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Members().Delete(context.Background(), missingID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}
