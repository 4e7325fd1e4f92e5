package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessSize string

const (
	BusinessSizeSolo   BusinessSize = "solo"
	BusinessSizeSmall  BusinessSize = "small"
	BusinessSizeMedium BusinessSize = "medium"
	BusinessSizeLarge  BusinessSize = "large"
)

func BusinessSizes() []BusinessSize {
	return []BusinessSize{BusinessSizeSolo, BusinessSizeSmall, BusinessSizeMedium, BusinessSizeLarge}
}

func (size BusinessSize) Valid() bool {
	switch size {
	case BusinessSizeSolo, BusinessSizeSmall, BusinessSizeMedium, BusinessSizeLarge:
		return true
	default:
		return false
	}
}

func ParseBusinessSize(raw string) (BusinessSize, bool) {
	size := BusinessSize(raw)
	return size, size.Valid()
}

type MainChallenge string

const (
	MainChallengeScheduling MainChallenge = "scheduling"
	MainChallengeCustomer   MainChallenge = "customer"
	MainChallengeAnalytics  MainChallenge = "analytics"
	MainChallengeGrowth     MainChallenge = "growth"
)

func MainChallenges() []MainChallenge {
	return []MainChallenge{MainChallengeScheduling, MainChallengeCustomer, MainChallengeAnalytics, MainChallengeGrowth}
}

func (challenge MainChallenge) Valid() bool {
	switch challenge {
	case MainChallengeScheduling, MainChallengeCustomer, MainChallengeAnalytics, MainChallengeGrowth:
		return true
	default:
		return false
	}
}

func ParseMainChallenge(raw string) (MainChallenge, bool) {
	challenge := MainChallenge(raw)
	return challenge, challenge.Valid()
}

type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

func Plans() []Plan {
	return []Plan{PlanStarter, PlanPro, PlanEnterprise}
}

func (plan Plan) Valid() bool {
	switch plan {
	case PlanStarter, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}

func ParsePlan(raw string) (Plan, bool) {
	plan := Plan(raw)
	return plan, plan.Valid()
}

// SignUpRequest is a validated sign-up submission. It never carries an identity.
type SignUpRequest struct {
	Name          string
	Email         string
	CompanyName   string
	BusinessSize  BusinessSize
	Industry      string
	MainChallenge MainChallenge
	Plan          Plan
	AgreeTerms    bool
}

type UserRecord struct {
	ID            string        `gorm:"primaryKey;type:text"`
	CreatedAt     time.Time     `gorm:"not null;autoCreateTime:false"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime:false"`
	Name          string        `gorm:"not null"`
	Email         string        `gorm:"not null"`
	CompanyName   string        `gorm:"not null"`
	BusinessSize  BusinessSize  `gorm:"type:text;not null"`
	Industry      string        `gorm:"not null"`
	MainChallenge MainChallenge `gorm:"type:text;not null"`
	Plan          Plan          `gorm:"type:text;not null"`
}

func (UserRecord) TableName() string {
	return "users"
}

// BeforeCreate assigns the store identity. Caller-supplied IDs are discarded.
func (record *UserRecord) BeforeCreate(tx *gorm.DB) error {
	if !record.BusinessSize.Valid() || !record.MainChallenge.Valid() || !record.Plan.Valid() {
		return ErrRecordRejected
	}
	record.ID = uuid.NewString()
	return nil
}

func NewUserRecord(request SignUpRequest) UserRecord {
	return UserRecord{
		Name:          request.Name,
		Email:         request.Email,
		CompanyName:   request.CompanyName,
		BusinessSize:  request.BusinessSize,
		Industry:      request.Industry,
		MainChallenge: request.MainChallenge,
		Plan:          request.Plan,
	}
}

// SignupFilter narrows composite lookups over (name, email, created_at),
// optionally extended with business size and company name.
type SignupFilter struct {
	Name          string
	Email         string
	BusinessSize  BusinessSize
	CompanyName   string
	CreatedAfter  time.Time
	CreatedBefore time.Time
	Limit         int
}

const (
	DefaultSignupListLimit = 50
	MaxSignupListLimit     = 500
)

func (filter SignupFilter) EffectiveLimit() int {
	switch {
	case filter.Limit <= 0:
		return DefaultSignupListLimit
	case filter.Limit > MaxSignupListLimit:
		return MaxSignupListLimit
	default:
		return filter.Limit
	}
}
