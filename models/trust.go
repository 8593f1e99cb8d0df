package models

// Trust levels derived from a user's verification state. Display-only: every
// badge and gating check in the app renders from this projection rather than
// reading the raw columns.
const (
	TrustUnverified       = "unverified"
	TrustUnderReview      = "under-review"
	TrustIDVerified       = "id-verified"
	TrustBusinessVerified = "business-verified"
)

type TrustProjection struct {
	TrustLevel string `json:"trustLevel"`
	Level      int    `json:"level"` // 0, 1 or 2
	TierLabel  string `json:"tierLabel"`
	LevelBadge string `json:"levelBadge"`
}

// ProjectTrust maps a user record to its trust tier. Pure: it reads only the
// verification fields, performs no I/O and is safe to call on every request.
// Rules are evaluated in priority order; under-review is display-only and
// grants no trust.
func ProjectTrust(u *User) TrustProjection {
	switch {
	case u.BusinessVerified != nil && *u.BusinessVerified:
		return TrustProjection{
			TrustLevel: TrustBusinessVerified,
			Level:      2,
			TierLabel:  "Business Verified",
			LevelBadge: "Tier 2",
		}
	case u.Verified != nil && *u.Verified:
		return TrustProjection{
			TrustLevel: TrustIDVerified,
			Level:      1,
			TierLabel:  "ID Verified",
			LevelBadge: "Tier 1",
		}
	case u.VerificationStatus == VerificationUnderReview:
		return TrustProjection{
			TrustLevel: TrustUnderReview,
			Level:      0,
			TierLabel:  "Under Review",
			LevelBadge: "Tier 0",
		}
	default:
		return TrustProjection{
			TrustLevel: TrustUnverified,
			Level:      0,
			TierLabel:  "Unverified",
			LevelBadge: "Tier 0",
		}
	}
}
