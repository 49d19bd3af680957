package business

// TrackUsage adds count API calls to the daily and monthly counters, then
// fails with a capacity error when either counter is over its limit. The
// counters stay incremented when it fails.
func (e *Entity) TrackUsage(count int) error {
	if count < 1 {
		return validationError("usage count must be positive")
	}
	u := &e.billing.Usage
	u.APICallsToday += count
	u.APICallsMonth += count
	e.touch()
	if u.APICallsToday > e.billing.Limits.APICallsPerDay {
		return capacityError("daily API call limit exceeded")
	}
	if u.APICallsMonth > e.billing.Limits.APICallsPerMonth {
		return capacityError("monthly API call limit exceeded")
	}
	return nil
}

// ReserveUsage is TrackUsage with the limit check first: nothing changes
// when the prospective totals would exceed a limit.
func (e *Entity) ReserveUsage(count int) error {
	if count < 1 {
		return validationError("usage count must be positive")
	}
	u := e.billing.Usage
	if u.APICallsToday+count > e.billing.Limits.APICallsPerDay {
		return capacityError("daily API call limit exceeded")
	}
	if u.APICallsMonth+count > e.billing.Limits.APICallsPerMonth {
		return capacityError("monthly API call limit exceeded")
	}
	return e.TrackUsage(count)
}

// ResetDailyUsage zeroes the daily counter. The monthly counter is also
// zeroed when the last reset happened in an earlier calendar month.
func (e *Entity) ResetDailyUsage() {
	now := e.now()
	u := &e.billing.Usage
	last, cur := u.LastResetDate.UTC(), now.UTC()
	if last.Year() != cur.Year() || last.Month() != cur.Month() {
		u.APICallsMonth = 0
	}
	u.APICallsToday = 0
	u.LastResetDate = now
	e.touch()
}

// UpdateBillingTier switches tier and replaces limits with the tier preset.
func (e *Entity) UpdateBillingTier(t Tier) error {
	limits, err := LimitsFor(t)
	if err != nil {
		return err
	}
	e.billing.Tier = t
	e.billing.Limits = limits
	e.touch()
	return nil
}
