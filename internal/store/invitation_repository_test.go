package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"business-svc/internal/business"
)

func testInvitation(t *testing.T, email string) *business.Invitation {
	t.Helper()
	inv, err := business.NewInvitation(business.InvitationInput{
		BusinessID:  "b-1",
		Email:       email,
		RoleID:      "r-viewer",
		InvitedBy:   "user-1",
		Permissions: []business.Permission{business.PermBusinessRead},
	}, business.WithClock(testClock))
	if err != nil {
		t.Fatalf("NewInvitation failed: %v", err)
	}
	return inv
}

func TestInvitationRepositoryFindByToken(t *testing.T) {
	s, mock := newMockStore(t)
	inv := testInvitation(t, "New.Hire@Example.com")

	rows := sqlmock.NewRows(invitationColumns).
		AddRow(recordRow(t, invitationColumns, InvitationToRecord(inv))...)
	mock.ExpectQuery(regexp.QuoteMeta(selectInvitationSQL + " WHERE token = $1")).
		WithArgs(inv.Token()).
		WillReturnRows(rows)

	got, err := s.Invitations().FindByToken(context.Background(), inv.Token())
	if err != nil {
		t.Fatalf("FindByToken failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected an invitation, got nil")
	}
	if got.Email() != "new.hire@example.com" {
		t.Errorf("Expected normalised email, got '%s'", got.Email())
	}
	if !got.ExpiresAt().Equal(inv.ExpiresAt()) {
		t.Errorf("Expected expiry %v, got %v", inv.ExpiresAt(), got.ExpiresAt())
	}
	if got.Metadata()["createdVia"] != "EMAIL" {
		t.Errorf("Expected createdVia EMAIL, got %v", got.Metadata()["createdVia"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("There were unfulfilled expectations: %s", err)
	}
}

func TestInvitationRepositoryFindPending(t *testing.T) {
	s, mock := newMockStore(t)
	first := testInvitation(t, "a@example.com")
	second := testInvitation(t, "b@example.com")

	rows := sqlmock.NewRows(invitationColumns).
		AddRow(recordRow(t, invitationColumns, InvitationToRecord(first))...).
		AddRow(recordRow(t, invitationColumns, InvitationToRecord(second))...)
	mock.ExpectQuery(regexp.QuoteMeta(selectInvitationSQL + " WHERE status = 'PENDING' ORDER BY expires_at")).
		WillReturnRows(rows)

	pending, err := s.Invitations().FindPending(context.Background())
	if err != nil {
		t.Fatalf("FindPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 invitations, got %d", len(pending))
	}
	for _, inv := range pending {
		if !inv.IsPending() {
			t.Errorf("Expected PENDING, got %s", inv.Status())
		}
	}
}

func TestInvitationRepositoryFindPendingByEmailMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectInvitationSQL + " WHERE business_id = $1 AND email = $2")).
		WithArgs(testBusinessID, "nobody@example.com").
		WillReturnRows(sqlmock.NewRows(invitationColumns))

	got, err := s.Invitations().FindPendingByEmail(context.Background(), testBusinessID, "nobody@example.com")
	if err != nil {
		t.Fatalf("FindPendingByEmail failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil, got %s", got.ID())
	}
}

func TestInvitationRepositoryUpdate(t *testing.T) {
	s, mock := newMockStore(t)
	inv := testInvitation(t, "a@example.com")
	if err := inv.Accept("user-9"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE business.business_invitations SET")).
		WithArgs(anyArgs(len(invitationColumns))...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := s.Invitations().Update(context.Background(), inv.ID(), inv); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("There were unfulfilled expectations: %s", err)
	}
}
