package service

import (
	"context"
	"fmt"
	"strings"

	"refbounty/auth"
	"refbounty/events"
	"refbounty/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
	reward     int64
}

// NewAccountService creates a new account service. The reward is the fixed
// bounty credited to a referrer per successful signup with their code.
func NewAccountService(uowFactory UnitOfWorkFactory, reward int64) AccountService {
	return &accountService{
		uowFactory: uowFactory,
		reward:     reward,
	}
}

// NewReferralCode returns a short shareable code, unique per user.
func NewReferralCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:8])
}

// Register creates a new account and, when a referral code was supplied,
// credits the referrer. Crediting runs in its own transaction after the
// account exists: a failed or unknown referral never fails the signup.
func (s *accountService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required: %w", models.ErrInvalidRequest)
	}
	if params.Password == "" {
		return nil, fmt.Errorf("password is required: %w", models.ErrInvalidRequest)
	}
	if strings.TrimSpace(params.FullName) == "" {
		return nil, fmt.Errorf("full name is required: %w", models.ErrInvalidRequest)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	existing, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, models.ErrEmailTaken
	}

	// Resolve the referrer up front so referred_by is set at creation and
	// never mutated afterwards. An unknown code is not an error.
	var referrer *models.User
	if code := strings.TrimSpace(params.ReferralCode); code != "" {
		referrer, err = uow.UserRepository().GetByReferralCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to look up referrer: %w", err)
		}
		if referrer == nil {
			log.WithField("referralCode", code).Warn("Signup with unknown referral code, no reward will be paid")
		}
	}

	user := &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(params.FullName),
		PasswordHash: hash,
		ReferralCode: NewReferralCode(),
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		ReferralCode: user.ReferralCode,
		ReferredBy:   user.ReferredBy,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if referrer != nil {
		if err := s.creditReferrer(ctx, referrer.ID, user.ID); err != nil {
			// The account exists; the bounty is non-critical. Log and drop.
			log.WithError(err).WithFields(log.Fields{
				"referrerID": referrer.ID,
				"referredID": user.ID,
			}).Error("Referral crediting failed, signup unaffected")
		}
	}

	return user, nil
}

// creditReferrer pays the fixed bounty: one referral row, earnings and
// available balance up by the reward, referral counter up by one, one
// ledger entry. All or nothing.
func (s *accountService) creditReferrer(ctx context.Context, referrerID, referredID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	referrer, err := uow.UserRepository().GetByID(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("failed to get referrer: %w", err)
	}
	if referrer == nil {
		return models.ErrUserNotFound
	}

	referral := &models.Referral{
		ReferrerID:   referrerID,
		ReferredID:   referredID,
		RewardAmount: s.reward,
	}
	if err := uow.ReferralRepository().Create(ctx, referral); err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}

	if err := uow.UserRepository().CreditReferralReward(ctx, referrerID, s.reward); err != nil {
		return fmt.Errorf("failed to credit reward: %w", err)
	}

	relatedType := models.RelatedTypeReferral
	entry := &models.LedgerEntry{
		UserID:        referrerID,
		BalanceBefore: referrer.AvailableBalance,
		BalanceAfter:  referrer.AvailableBalance + s.reward,
		ChangeAmount:  s.reward,
		EntryType:     models.EntryTypeReferralReward,
		Metadata: map[string]any{
			"referred_id": referredID,
		},
		RelatedID:   &referral.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return fmt.Errorf("failed to record reward: %w", err)
	}

	uow.EventBus().Publish(events.ReferralRewardedEvent{
		ReferralID:   referral.ID,
		ReferrerID:   referrerID,
		ReferredID:   referredID,
		RewardAmount: s.reward,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Login checks credentials and returns the matching user
func (s *accountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}

// GetProfile returns the current ledger state for a user
func (s *accountService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	return user, nil
}

// GetReferrals returns referrals made by a user
func (s *accountService) GetReferrals(ctx context.Context, userID int64) ([]*models.Referral, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	referrals, err := uow.ReferralRepository().GetByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}

	return referrals, nil
}

// ListUsers returns all users for the admin overview
func (s *accountService) ListUsers(ctx context.Context, adminID int64) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	admin, err := uow.UserRepository().GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil || !admin.IsAdmin {
		return nil, models.ErrForbidden
	}

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// EnsureAdmin creates an administrator account if the email is unknown
func (s *accountService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password are required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check existing admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hash,
		ReferralCode: NewReferralCode(),
		IsAdmin:      true,
	}
	if err := uow.UserRepository().Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("email", email).Info("Created administrator account")
	return nil
}
