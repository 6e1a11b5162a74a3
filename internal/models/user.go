package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the explicit lifecycle state of a user account.
type Status string

const (
	StatusPending  Status = "pending"  // registered, no contact channel confirmed
	StatusVerified Status = "verified" // one contact channel confirmed, profile missing
	StatusActive   Status = "active"   // profile complete, login-eligible
)

type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ContactMethod identifies which channel a registration identifier refers to.
type ContactMethod string

const (
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
)

// Address captures structured address fields.
type Address struct {
	Line1      string `bson:"line1,omitempty" json:"line1,omitempty"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postalCode,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

// User represents a user account. At least one of Email/Phone is always set.
// PasswordHash and the OTP fields never appear in responses.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash  string             `bson:"password_hash,omitempty" json:"-"`
	Status        Status             `bson:"status" json:"status"`
	EmailVerified bool               `bson:"email_verified" json:"emailVerified"`
	PhoneVerified bool               `bson:"phone_verified" json:"phoneVerified"`

	// Transient OTP challenge, present only between issuance and consumption.
	OTPCode      string     `bson:"otp_code,omitempty" json:"-"`
	OTPExpiresAt *time.Time `bson:"otp_expires_at,omitempty" json:"-"`

	FirstName     string     `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName      string     `bson:"last_name,omitempty" json:"lastName,omitempty"`
	MiddleInitial string     `bson:"middle_initial,omitempty" json:"middleInitial,omitempty"`
	Suffix        string     `bson:"suffix,omitempty" json:"suffix,omitempty"`
	Birthday      *time.Time `bson:"birthday,omitempty" json:"birthday,omitempty"`
	Gender        Gender     `bson:"gender,omitempty" json:"gender,omitempty"`
	Address       *Address   `bson:"address,omitempty" json:"address,omitempty"`

	TermsAccepted   bool       `bson:"terms_accepted" json:"termsAccepted"`
	TermsAcceptedAt *time.Time `bson:"terms_accepted_at,omitempty" json:"termsAcceptedAt,omitempty"`

	Role         Role   `bson:"role" json:"role"`
	ReferralCode string `bson:"referral_code,omitempty" json:"referralCode,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FullyVerified reports whether the account has completed the whole
// registration flow and may log in.
func (u *User) FullyVerified() bool {
	return u.Status == StatusActive
}

// ChannelVerified reports whether at least one contact channel is confirmed.
func (u *User) ChannelVerified() bool {
	return u.EmailVerified || u.PhoneVerified
}

// Identifier returns the contact value for the given method.
func (u *User) Identifier(method ContactMethod) string {
	if method == ContactPhone {
		return u.Phone
	}
	return u.Email
}

// Sanitized returns a copy with the credential hash and OTP fields stripped,
// safe to hand to response writers.
func (u *User) Sanitized() *User {
	out := *u
	out.PasswordHash = ""
	out.OTPCode = ""
	out.OTPExpiresAt = nil
	return &out
}
