package business

// Activate moves a DRAFT business to ACTIVE.
func (e *Entity) Activate() error {
	if e.status != StatusDraft {
		return transitionError("business can only be activated from DRAFT status")
	}
	e.status = StatusActive
	e.touch()
	return nil
}

// Suspend moves an ACTIVE business to SUSPENDED.
func (e *Entity) Suspend() error {
	if e.status != StatusActive {
		return transitionError("only ACTIVE businesses can be suspended")
	}
	e.status = StatusSuspended
	e.touch()
	return nil
}

// Reactivate returns a SUSPENDED or INACTIVE business to ACTIVE.
func (e *Entity) Reactivate() error {
	if e.status != StatusSuspended && e.status != StatusInactive {
		return transitionError("business can only be reactivated from SUSPENDED or INACTIVE status")
	}
	e.status = StatusActive
	e.touch()
	return nil
}

// Deactivate moves an ACTIVE or SUSPENDED business to INACTIVE.
func (e *Entity) Deactivate() error {
	if e.status != StatusActive && e.status != StatusSuspended {
		return transitionError("business can only be deactivated from ACTIVE or SUSPENDED status")
	}
	e.status = StatusInactive
	e.touch()
	return nil
}

// Close moves the business to CLOSED and soft-deletes it. Closing a closed
// business is a no-op.
func (e *Entity) Close() {
	if e.status == StatusClosed {
		return
	}
	e.status = StatusClosed
	e.markDeleted()
}

// CascadeStatusChange applies a status pushed down from an ancestor. It only
// takes effect when the business opted in through its settings.
func (e *Entity) CascadeStatusChange(status EntityStatus) (bool, error) {
	if !status.Valid() {
		return false, validationError("invalid business status %q", string(status))
	}
	if !e.settings.CascadeStatusChanges {
		return false, nil
	}
	if status == StatusClosed {
		e.Close()
		return true, nil
	}
	e.status = status
	e.touch()
	return true, nil
}

func (e *Entity) SubmitForVerification() error {
	if e.verificationStatus != VerificationUnverified {
		return transitionError("business can only be submitted for verification from UNVERIFIED status")
	}
	e.verificationStatus = VerificationPending
	e.touch()
	return nil
}

func (e *Entity) MarkAsVerified() error {
	if e.verificationStatus != VerificationPending {
		return transitionError("only businesses with PENDING verification can be marked as verified")
	}
	e.verificationStatus = VerificationVerified
	e.touch()
	return nil
}

func (e *Entity) RejectVerification() error {
	if e.verificationStatus != VerificationPending {
		return transitionError("only businesses with PENDING verification can be rejected")
	}
	e.verificationStatus = VerificationRejected
	e.touch()
	return nil
}

func (e *Entity) ResetVerification() error {
	if e.verificationStatus != VerificationRejected {
		return transitionError("only REJECTED verifications can be reset")
	}
	e.verificationStatus = VerificationUnverified
	e.touch()
	return nil
}
