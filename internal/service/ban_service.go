package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/queue"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/session"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// ErrInvalidAmount is returned for non-positive token amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// BanService is the ban/penalty engine.  It composes three independent
// penalty actions — token debits, the soft review ban with its cascade into
// the review tables, and the hard permanent ban — over the credential,
// blacklist, review and session stores.
type BanService struct {
	Users     *repository.UserRepo
	Blacklist *repository.BlacklistRepo
	Reviews   *repository.ReviewRepo
	Bookmarks *repository.BookmarkRepo
	Sessions  session.Store
	Audit     *AuditPublisher
	Log       *zap.Logger
}

// ReviewBanResult reports a soft ban/unban and, on ban, the cascade into
// the review tables.
type ReviewBanResult struct {
	Account          model.Account `json:"account"`
	ReviewsPenalized int           `json:"reviews_penalized"`
	Movies           []string      `json:"movies"`
}

// BanSummary reports each step of a permanent ban independently.  The
// sequence is not transactional: a failure partway leaves earlier steps
// done, and callers must read the fields individually rather than treating
// the summary as pass/fail.
type BanSummary struct {
	Email            string   `json:"email"`
	Blacklisted      bool     `json:"blacklisted"`
	AccountDeleted   bool     `json:"account_deleted"`
	SessionsRevoked  int      `json:"sessions_revoked"`
	ReviewsPenalized int      `json:"reviews_penalized"`
	Movies           []string `json:"movies"`
	BookmarksRemoved int      `json:"bookmarks_removed"`
}

// TokenPenalty debits tokens from a user as a punitive measure.  The debit
// fails with no mutation when the amount is non-positive or exceeds the
// balance.
func (s *BanService) TokenPenalty(ctx context.Context, adminEmail, email string, amount int) (model.Account, error) {
	if amount <= 0 {
		return model.Account{}, ErrInvalidAmount
	}
	acc, err := s.Users.RemoveTokens(email, amount)
	if err != nil {
		return model.Account{}, err
	}
	s.Audit.Publish(ctx, queue.AuditEvent{
		Action:      queue.ActionTokenPenalty,
		ActorEmail:  adminEmail,
		TargetEmail: acc.Email,
	})
	return acc, nil
}

// SetReviewBan flips the soft review ban.  Banning an already-banned user
// (or unbanning a not-banned one) is rejected as a conflict.  On the
// transition to banned, every review the user has left is marked penalized
// and hidden; unbanning does not unhide them.
func (s *BanService) SetReviewBan(ctx context.Context, adminEmail, email string, banned bool) (ReviewBanResult, error) {
	acc, err := s.Users.SetReviewBanned(email, banned)
	if err != nil {
		return ReviewBanResult{}, err
	}
	res := ReviewBanResult{Account: acc, Movies: []string{}}
	if banned {
		count, movies, err := s.Reviews.PenalizeByUser(acc.Email)
		if err != nil {
			// The flag is already flipped; report what we managed to do.
			s.Log.Warn("review ban cascade failed", zap.String("email", acc.Email), zap.Error(err))
		}
		res.ReviewsPenalized = count
		if movies != nil {
			res.Movies = movies
		}
	}
	action := queue.ActionReviewBan
	if !banned {
		action = queue.ActionReviewUnban
	}
	s.Audit.Publish(ctx, queue.AuditEvent{
		Action:      action,
		ActorEmail:  adminEmail,
		TargetEmail: acc.Email,
	})
	return res, nil
}

// PermanentBan blacklists an email, deletes the account, revokes its
// sessions and penalizes its reviews.  Preconditions (already blacklisted,
// account missing) are rejected up front; after the blacklist write, each
// remaining step is best-effort and reported in the summary.
func (s *BanService) PermanentBan(ctx context.Context, adminEmail, email, reason string) (BanSummary, error) {
	email = utils.NormalizeEmail(email)

	if listed, err := s.Blacklist.Contains(email); err != nil {
		return BanSummary{}, err
	} else if listed {
		return BanSummary{}, repository.ErrConflict
	}
	if _, err := s.Users.Get(email); err != nil {
		return BanSummary{}, err
	}

	summary := BanSummary{Email: email, Movies: []string{}}

	if err := s.Blacklist.Add(model.BanRecord{
		Email:    email,
		BannedAt: time.Now().UTC(),
		BannedBy: adminEmail,
		Reason:   reason,
	}); err != nil {
		return summary, err
	}
	summary.Blacklisted = true

	if err := s.Users.Delete(email); err != nil {
		s.Log.Warn("permanent ban: account delete failed", zap.String("email", email), zap.Error(err))
	} else {
		summary.AccountDeleted = true
	}

	summary.SessionsRevoked = s.Sessions.RevokeAll(email)

	count, movies, err := s.Reviews.PenalizeByUser(email)
	if err != nil {
		s.Log.Warn("permanent ban: review cascade failed", zap.String("email", email), zap.Error(err))
	}
	summary.ReviewsPenalized = count
	if movies != nil {
		summary.Movies = movies
	}

	removed, err := s.Bookmarks.RemoveAll(email)
	if err != nil {
		s.Log.Warn("permanent ban: bookmark cleanup failed", zap.String("email", email), zap.Error(err))
	}
	summary.BookmarksRemoved = removed

	s.Audit.Publish(ctx, queue.AuditEvent{
		Action:      queue.ActionPermanentBan,
		ActorEmail:  adminEmail,
		TargetEmail: email,
		Reason:      reason,
	})
	return summary, nil
}

// Unban removes the blacklist entry so the email can sign up again.  It
// does not restore the deleted account or un-penalize reviews; re-signup
// with the freed email is the only restoration path.
func (s *BanService) Unban(ctx context.Context, adminEmail, email string) error {
	if err := s.Blacklist.Remove(email); err != nil {
		return err
	}
	s.Audit.Publish(ctx, queue.AuditEvent{
		Action:      queue.ActionUnban,
		ActorEmail:  adminEmail,
		TargetEmail: utils.NormalizeEmail(email),
	})
	return nil
}
