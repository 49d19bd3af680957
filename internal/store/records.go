package store

import (
	"time"

	"github.com/lib/pq"

	"business-svc/internal/business"
)

// BusinessRecord is the persisted row shape of a business entity.
type BusinessRecord struct {
	ID                 string                       `db:"id" json:"id"`
	Name               string                       `db:"name" json:"name"`
	LegalName          string                       `db:"legal_name" json:"legal_name"`
	LegalStructure     string                       `db:"legal_structure" json:"legal_structure"`
	BusinessType       string                       `db:"business_type" json:"business_type"`
	IndustryCode       string                       `db:"industry_code" json:"industry_code"`
	Description        string                       `db:"description" json:"description"`
	TaxID              string                       `db:"tax_id" json:"tax_id"`
	RegistrationNumber string                       `db:"registration_number" json:"registration_number"`
	IncorporationDate  *time.Time                   `db:"incorporation_date" json:"incorporation_date,omitempty"`
	Address            JSONB[business.Address]      `db:"address" json:"address"`
	ContactInfo        JSONB[business.ContactInfo]  `db:"contact_info" json:"contact_info"`
	Status             string                       `db:"status" json:"status"`
	VerificationStatus string                       `db:"verification_status" json:"verification_status"`
	OwnerID            string                       `db:"owner_id" json:"owner_id"`
	ParentBusinessID   *string                      `db:"parent_business_id" json:"parent_business_id,omitempty"`
	RootBusinessID     *string                      `db:"root_business_id" json:"root_business_id,omitempty"`
	ChildBusinessIDs   pq.StringArray               `db:"child_business_ids" json:"child_business_ids"`
	HierarchyLevel     int                          `db:"hierarchy_level" json:"hierarchy_level"`
	HierarchyPath      pq.StringArray               `db:"hierarchy_path" json:"hierarchy_path"`
	MaxDepth           int                          `db:"max_depth" json:"max_depth"`
	AllowedChildTypes  pq.StringArray               `db:"allowed_child_types" json:"allowed_child_types"`
	Settings           JSONB[business.Settings]     `db:"settings" json:"settings"`
	Environments       JSONB[business.Environments] `db:"environments" json:"environments"`
	Billing            JSONB[business.Billing]      `db:"billing" json:"billing"`
	Compliance         JSONB[business.Compliance]   `db:"compliance" json:"compliance"`
	Metadata           JSONB[map[string]any]        `db:"metadata" json:"metadata"`
	CreatedAt          time.Time                    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time                    `db:"updated_at" json:"updated_at"`
	DeletedAt          *time.Time                   `db:"deleted_at" json:"deleted_at,omitempty"`
}

// MemberRecord is the persisted row shape of a member.
type MemberRecord struct {
	ID              string                     `db:"id" json:"id"`
	BusinessID      string                     `db:"business_id" json:"business_id"`
	UserID          string                     `db:"user_id" json:"user_id"`
	RoleID          string                     `db:"role_id" json:"role_id"`
	Status          string                     `db:"status" json:"status"`
	JoinedAt        time.Time                  `db:"joined_at" json:"joined_at"`
	InvitedBy       string                     `db:"invited_by" json:"invited_by"`
	Permissions     pq.StringArray             `db:"permissions" json:"permissions"`
	IsOwner         bool                       `db:"is_owner" json:"is_owner"`
	Metadata        JSONB[map[string]any]      `db:"metadata" json:"metadata"`
	LastActivityAt  *time.Time                 `db:"last_activity_at" json:"last_activity_at,omitempty"`
	ActivityHistory JSONB[[]business.Activity] `db:"activity_history" json:"activity_history"`
	CreatedAt       time.Time                  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time                  `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time                 `db:"deleted_at" json:"deleted_at,omitempty"`
}

// RoleRecord is the persisted row shape of a role.
type RoleRecord struct {
	ID             string                `db:"id" json:"id"`
	BusinessID     *string               `db:"business_id" json:"business_id,omitempty"`
	Name           string                `db:"name" json:"name"`
	Description    string                `db:"description" json:"description"`
	Permissions    pq.StringArray        `db:"permissions" json:"permissions"`
	IsSystemRole   bool                  `db:"is_system_role" json:"is_system_role"`
	IsCustomizable bool                  `db:"is_customizable" json:"is_customizable"`
	Hierarchy      int                   `db:"hierarchy" json:"hierarchy"`
	Metadata       JSONB[map[string]any] `db:"metadata" json:"metadata"`
	CreatedAt      time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time             `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time            `db:"deleted_at" json:"deleted_at,omitempty"`
}

// InvitationRecord is the persisted row shape of an invitation.
type InvitationRecord struct {
	ID             string                         `db:"id" json:"id"`
	BusinessID     string                         `db:"business_id" json:"business_id"`
	Email          string                         `db:"email" json:"email"`
	RoleID         string                         `db:"role_id" json:"role_id"`
	Status         string                         `db:"status" json:"status"`
	InvitedBy      string                         `db:"invited_by" json:"invited_by"`
	Message        string                         `db:"message" json:"message"`
	Token          string                         `db:"token" json:"token"`
	ExpiresAt      time.Time                      `db:"expires_at" json:"expires_at"`
	AcceptedAt     *time.Time                     `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedAt     *time.Time                     `db:"rejected_at" json:"rejected_at,omitempty"`
	CancelledAt    *time.Time                     `db:"cancelled_at" json:"cancelled_at,omitempty"`
	AcceptedBy     string                         `db:"accepted_by" json:"accepted_by"`
	InvitationType string                         `db:"invitation_type" json:"invitation_type"`
	Permissions    pq.StringArray                 `db:"permissions" json:"permissions"`
	Metadata       JSONB[map[string]any]          `db:"metadata" json:"metadata"`
	Notifications  JSONB[[]business.Notification] `db:"notifications" json:"notifications"`
	ResendCount    int                            `db:"resend_count" json:"resend_count"`
	LastResendAt   *time.Time                     `db:"last_resend_at" json:"last_resend_at,omitempty"`
	CreatedAt      time.Time                      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time                      `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time                     `db:"deleted_at" json:"deleted_at,omitempty"`
}
