package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document kinds tracked in User.VerificationDocuments.
const (
	DocumentIDCard          = "idCard"
	DocumentBusinessLicense = "businessLicense"
)

// Per-document statuses.
const (
	DocStatusPending     = "pending"
	DocStatusUploaded    = "uploaded"
	DocStatusUnderReview = "under_review"
	DocStatusVerified    = "verified"
	DocStatusRejected    = "rejected"
)

// Overall verification statuses on the user record.
const (
	VerificationNotStarted  = ""
	VerificationUnderReview = "under_review"
	VerificationVerified    = "verified"
	VerificationRejected    = "rejected"
)

type User struct {
	gorm.Model
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	PhoneNumber    string         `json:"phoneNumber" gorm:"index"`
	Password       string         `json:"-"`
	SocialLogin    bool           `json:"socialLogin"`
	SocialProvider string         `json:"socialProvider"`
	AvatarURL      string         `json:"avatarURL"`
	Region         string         `json:"region"`
	Township       string         `json:"township"`
	Bio            string         `json:"bio"`
	UserType       string         `json:"userType" gorm:"type:varchar(20);default:buyer;index"`   // farmer, trader, buyer, admin
	AccountType    string         `json:"accountType" gorm:"type:varchar(20);default:individual"` // individual, business
	Role           string         `json:"role" gorm:"type:varchar(20);default:user;index"`        // user, admin, super_admin
	Products       []Product      `json:"products" gorm:"foreignKey:SellerID;references:ID"`
	SavedProducts  datatypes.JSON `json:"savedProducts"`
	PushTokens     datatypes.JSON `json:"pushTokens"`

	// Phone verification
	PhoneVerified         *bool      `json:"phoneVerified"`
	PhoneVerificationDate *time.Time `json:"phoneVerificationDate"`

	// Document verification. VerificationDocuments maps a document kind
	// (idCard, businessLicense) to its status. The workflow routes may only
	// move a document pending->uploaded; verified/rejected are reserved for
	// the admin review routes.
	VerificationDocuments    datatypes.JSON `json:"verificationDocuments"`
	VerificationDocumentURLs datatypes.JSON `json:"verificationDocumentURLs" gorm:"column:verification_document_urls"`
	VerificationStatus       string         `json:"verificationStatus" gorm:"type:varchar(20);index"` // "", under_review, verified, rejected
	Verified                 *bool          `json:"verified"`
	BusinessVerified         *bool          `json:"businessVerified"`

	// Business details (business accounts only)
	BusinessName          string `json:"businessName"`
	BusinessLicenseNumber string `json:"businessLicenseNumber"`

	AgriLinkVerificationRequested   *bool      `json:"agriLinkVerificationRequested"`
	AgriLinkVerificationRequestedAt *time.Time `json:"agriLinkVerificationRequestedAt"`

	AllowsNotifications *bool `json:"allowsNotifications"`
}

// DocumentStatus returns the status of a document kind, defaulting to pending.
func (u *User) DocumentStatus(kind string) string {
	if u.VerificationDocuments == nil {
		return DocStatusPending
	}
	var docs map[string]string
	if err := json.Unmarshal(u.VerificationDocuments, &docs); err != nil {
		return DocStatusPending
	}
	if status, ok := docs[kind]; ok && status != "" {
		return status
	}
	return DocStatusPending
}

// SetDocumentStatus updates a single document kind in VerificationDocuments.
func (u *User) SetDocumentStatus(kind, status string) {
	docs := map[string]string{}
	if u.VerificationDocuments != nil {
		json.Unmarshal(u.VerificationDocuments, &docs)
	}
	docs[kind] = status
	raw, err := json.Marshal(docs)
	if err != nil {
		return
	}
	u.VerificationDocuments = raw
}

// DocumentURL returns the stored upload URL for a document kind, if any.
func (u *User) DocumentURL(kind string) string {
	if u.VerificationDocumentURLs == nil {
		return ""
	}
	var urls map[string]string
	if err := json.Unmarshal(u.VerificationDocumentURLs, &urls); err != nil {
		return ""
	}
	return urls[kind]
}

// SetDocumentURL stores or clears the upload URL for a document kind.
func (u *User) SetDocumentURL(kind, url string) {
	urls := map[string]string{}
	if u.VerificationDocumentURLs != nil {
		json.Unmarshal(u.VerificationDocumentURLs, &urls)
	}
	if url == "" {
		delete(urls, kind)
	} else {
		urls[kind] = url
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return
	}
	u.VerificationDocumentURLs = raw
}

// IsBusinessAccount reports whether the business-details step applies.
func (u *User) IsBusinessAccount() bool {
	return u.AccountType == "business"
}

// Custom JSON marshaling to render JSON columns as structured values
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedProducts         []int             `json:"savedProducts"`
		PushTokens            []string          `json:"pushTokens,omitempty"`
		VerificationDocuments map[string]string `json:"verificationDocuments"`
		*Alias
	}{
		SavedProducts:         []int{},
		PushTokens:            []string{},
		VerificationDocuments: map[string]string{},
		Alias:                 (*Alias)(u),
	}

	if u.SavedProducts != nil {
		var saved []int
		if err := json.Unmarshal(u.SavedProducts, &saved); err == nil {
			aux.SavedProducts = saved
		}
	}

	if u.PushTokens != nil {
		var tokens []string
		if err := json.Unmarshal(u.PushTokens, &tokens); err == nil {
			aux.PushTokens = tokens
		}
	}

	if u.VerificationDocuments != nil {
		var docs map[string]string
		if err := json.Unmarshal(u.VerificationDocuments, &docs); err == nil {
			aux.VerificationDocuments = docs
		}
	}

	// Note: Products field is excluded to prevent circular reference

	return json.Marshal(aux)
}
