// Package permission implements the capability model gating what each
// account tier may do.  Every predicate is monotonic in the tier ordinal:
// a higher tier never loses a capability a lower tier has.  The review ban
// flag is an independent veto that overrides tier on all review-writing
// capabilities.  Admins are a separate principal type and are not checked
// through this package; an authenticated admin holds every admin capability
// unconditionally.
package permission

import "github.com/EldonT123/bs-reviews/internal/model"

// CanBrowse reports whether the account may browse movies and read reviews.
// Browsing is open to every tier.
func CanBrowse(model.Tier) bool { return true }

// CanWriteReviews reports whether the account may post new reviews.
// Requires Slug or above and no active review ban.
func CanWriteReviews(t model.Tier, reviewBanned bool) bool {
	return t >= model.TierSlug && !reviewBanned
}

// CanRateMovies reports whether the account may attach a rating to a review.
func CanRateMovies(t model.Tier, reviewBanned bool) bool {
	return t >= model.TierSlug && !reviewBanned
}

// CanEditOwnReviews reports whether the account may update or delete its own
// reviews.
func CanEditOwnReviews(t model.Tier, reviewBanned bool) bool {
	return t >= model.TierSlug && !reviewBanned
}

// HasPriorityReviews reports whether the account's reviews sort ahead of
// other reviews.  BananaSlug only.
func HasPriorityReviews(t model.Tier) bool {
	return t == model.TierBananaSlug
}
