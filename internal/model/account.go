package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Tier is the ordinal account level.  Ordering matters: a higher tier
// unlocks a strict superset of the capabilities below it.  Admins are not
// on this scale; they are a separate principal type with their own table.
type Tier int

const (
	TierSnail Tier = iota
	TierSlug
	TierBananaSlug
)

// ErrUnknownTier is returned by ParseTier for unrecognized tier names.
var ErrUnknownTier = errors.New("unknown tier")

// ParseTier converts a stored or user-supplied tier name into a Tier.
// Matching is case-insensitive.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snail":
		return TierSnail, nil
	case "slug":
		return TierSlug, nil
	case "bananaslug", "banana_slug", "banana slug":
		return TierBananaSlug, nil
	}
	return TierSnail, ErrUnknownTier
}

func (t Tier) String() string {
	switch t {
	case TierSlug:
		return "Slug"
	case TierBananaSlug:
		return "BananaSlug"
	default:
		return "Snail"
	}
}

// Tiers travel as their names in JSON, matching the CSV cells.
func (t Tier) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	tier, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

// Account is a user row in user_information.csv.  Emails are stored
// normalized (lowercase, trimmed) and act as the unique key.
type Account struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Tier         Tier   `json:"tier"`
	Tokens       int    `json:"tokens"`
	ReviewBanned bool   `json:"review_banned"`
}

// Admin is a row in admin_information.csv.  Admins carry no tier, token
// balance or ban flag; an authenticated admin holds every admin capability.
type Admin struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// BanRecord is a row in the blacklist table.  Presence of an email here
// permanently blocks signup with that email, independent of whether a live
// account still exists.
type BanRecord struct {
	Email    string    `json:"email"`
	BannedAt time.Time `json:"banned_at"`
	BannedBy string    `json:"banned_by"`
	Reason   string    `json:"reason"`
}

// Bookmark links a user to a movie folder in user_bookmarks.csv.
type Bookmark struct {
	Email string `json:"email"`
	Movie string `json:"movie"`
}
