package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/fdwmarket/marketd"
	"github.com/fdwmarket/marketd/internal/domain"
	"github.com/fdwmarket/marketd/jwt"
)

const sessionLifetime = 24 * time.Hour

// AccountUsecase orchestrates the persistence side of the two engines:
// signup around identity verification, vendor grants around trust elevation,
// plus profile reads and updates.
type AccountUsecase struct {
	repo         AccountRepository
	verification *VerificationUsecase
	elevation    *ElevationUsecase
	signal       EventPublisher
	config       domain.Config
}

func NewAccountUsecase(
	repo AccountRepository,
	verification *VerificationUsecase,
	elevation *ElevationUsecase,
	signal EventPublisher,
	config domain.Config,
) *AccountUsecase {
	return &AccountUsecase{
		repo:         repo,
		verification: verification,
		elevation:    elevation,
		signal:       signal,
		config:       config,
	}
}

type RegisterInput struct {
	Username        string `json:"username"`
	Password        string `json:"password1"`
	PasswordConfirm string `json:"password2"`
	FDWIdentity     string `json:"fdwIdentity"`
	FDWPassword     string `json:"fdwPassword"`
	Email           string `json:"email,omitempty"`
	Pubkey          string `json:"pubkey,omitempty"`
}

// Register runs the identity verification engine and, on a confirmed result,
// persists the account carrying the remote numeric id. A rejected result is
// returned as-is; the account is not created.
func (uc *AccountUsecase) Register(ctx context.Context, input RegisterInput) (domain.Account, domain.VerificationResult, error) {
	ctx, span := tracer.Start(ctx, "Account.Usecase.Register")
	defer span.End()

	if uc.config.Registration == domain.RegistrationClose {
		return domain.Account{}, domain.VerificationResult{}, domain.ValidationError{Msg: "registration is closed"}
	}

	if !marketd.IsValidUsername(input.Username) {
		return domain.Account{}, domain.VerificationResult{}, domain.ValidationError{Msg: "invalid username"}
	}
	if input.Password == "" || input.Password != input.PasswordConfirm {
		return domain.Account{}, domain.VerificationResult{}, domain.ValidationError{Msg: "the two password fields didn't match"}
	}
	if input.FDWIdentity == "" {
		return domain.Account{}, domain.VerificationResult{}, domain.ValidationError{Msg: "FDW identity can not be empty"}
	}

	if _, err := uc.repo.GetByUsername(ctx, input.Username); err == nil {
		return domain.Account{}, domain.VerificationResult{}, domain.AlreadyExistsError{Resource: "username"}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, domain.VerificationResult{}, err
	}

	banned, err := uc.repo.BannedIdentities(ctx)
	if err != nil {
		span.RecordError(errors.Wrap(err, "banned identity lookup failed"))
		return domain.Account{}, domain.VerificationResult{}, err
	}

	result, err := uc.verification.Verify(ctx, input.FDWIdentity, []byte(input.FDWPassword), banned)
	if err != nil {
		return domain.Account{}, domain.VerificationResult{}, err
	}
	if !result.Confirmed {
		return domain.Account{}, result, nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, domain.VerificationResult{}, errors.Wrap(err, "password hashing failed")
	}

	account := domain.Account{
		Username:     input.Username,
		PasswordHash: string(passwordHash),
		FDWIdentity:  input.FDWIdentity,
		FDWID:        result.RemoteID,
		Email:        input.Email,
		JID:          input.Username + "@" + uc.config.JIDSuffix,
		Pubkey:       input.Pubkey,
		Absence:      domain.AbsenceDisponible,
		Alert:        domain.AlertDanger,
	}

	created, err := uc.repo.Create(ctx, account)
	if err != nil {
		return domain.Account{}, domain.VerificationResult{}, err
	}

	err = uc.signal.Publish(ctx, "accounts", marketd.Event{
		Type:      marketd.EventAccountRegistered,
		Owner:     created.Username,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "event publish failed"))
	}

	return created, result, nil
}

// Login checks the local password and issues a session token signed with the
// node key.
func (uc *AccountUsecase) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Account.Usecase.Login")
	defer span.End()

	account, err := uc.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ValidationError{Msg: "invalid username or password"}
		}
		return "", err
	}

	if account.Banned || account.Inactive {
		return "", domain.ForbiddenError{Msg: "account is disabled"}
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", domain.ValidationError{Msg: "invalid username or password"}
	}

	return jwt.Create(jwt.Claims{
		Issuer:         uc.config.Fingerprint,
		Subject:        "marketd-session",
		Audience:       uc.config.FQDN,
		Principal:      account.Username,
		ExpirationTime: strconv.FormatInt(time.Now().Add(sessionLifetime).Unix(), 10),
		IssuedAt:       strconv.FormatInt(time.Now().Unix(), 10),
	}, uc.config.PrivateKey)
}

func (uc *AccountUsecase) GetProfile(ctx context.Context, username string) (domain.Account, error) {
	return uc.repo.GetByUsername(ctx, username)
}

// UpdateProfile applies an owner's profile changes. Only the account owner
// may update, and the escrow message is writable by escrow members only.
func (uc *AccountUsecase) UpdateProfile(ctx context.Context, requester, username string, update domain.ProfileUpdate) (domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Account.Usecase.UpdateProfile")
	defer span.End()

	if requester != username {
		return domain.Account{}, domain.ForbiddenError{Msg: "profiles can only be edited by their owner"}
	}

	if update.Absence != nil && !domain.IsAbsenceMode(*update.Absence) {
		return domain.Account{}, domain.ValidationError{Msg: "invalid absence mode"}
	}

	if update.EscrowMsg != nil {
		account, err := uc.repo.GetByUsername(ctx, username)
		if err != nil {
			return domain.Account{}, err
		}
		if !hasRole(account.Roles, marketd.RoleEscrow) {
			return domain.Account{}, domain.ForbiddenError{Msg: "escrow message is reserved to escrow members"}
		}
	}

	updated, err := uc.repo.UpdateProfile(ctx, username, update)
	if err != nil {
		return domain.Account{}, err
	}

	err = uc.signal.Publish(ctx, "accounts", marketd.Event{
		Type:      marketd.EventProfileUpdated,
		Owner:     username,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "event publish failed"))
	}

	return updated, nil
}

// GrantVendor runs the trust elevation engine against the account's stored
// key and persists the vendor role on a grant. Granting an already-held role
// is a no-op.
func (uc *AccountUsecase) GrantVendor(ctx context.Context, username string, signedMessage string) (domain.ElevationResult, error) {
	ctx, span := tracer.Start(ctx, "Account.Usecase.GrantVendor")
	defer span.End()

	account, err := uc.repo.GetByUsername(ctx, username)
	if err != nil {
		return domain.ElevationResult{}, err
	}

	result := uc.elevation.Elevate(ctx, account.Pubkey, signedMessage)
	if !result.Granted {
		return result, nil
	}

	if err := uc.repo.GrantRole(ctx, account.ID, marketd.RoleVendor); err != nil {
		return domain.ElevationResult{}, err
	}

	err = uc.signal.Publish(ctx, "accounts", marketd.Event{
		Type:      marketd.EventVendorGranted,
		Owner:     username,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		span.RecordError(errors.Wrap(err, "event publish failed"))
	}

	return result, nil
}

func (uc *AccountUsecase) ListEscrows(ctx context.Context) ([]domain.Account, error) {
	return uc.repo.ListByRole(ctx, marketd.RoleEscrow)
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
