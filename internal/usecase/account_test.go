package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/fdwmarket/marketd"
	"github.com/fdwmarket/marketd/internal/domain"
	"github.com/fdwmarket/marketd/jwt"
)

type mockAccountRepo struct {
	accounts map[string]domain.Account
	banned   map[string]struct{}
	grants   map[uint][]string
	nextID   uint
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		accounts: map[string]domain.Account{},
		banned:   map[string]struct{}{},
		grants:   map[uint][]string{},
		nextID:   1,
	}
}

func (m *mockAccountRepo) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	if _, ok := m.accounts[account.Username]; ok {
		return domain.Account{}, domain.AlreadyExistsError{Resource: "username"}
	}
	account.ID = m.nextID
	m.nextID++
	m.accounts[account.Username] = account
	return account, nil
}

func (m *mockAccountRepo) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	account, ok := m.accounts[username]
	if !ok {
		return domain.Account{}, domain.NotFoundError{Resource: "account"}
	}
	account.Roles = m.grants[account.ID]
	return account, nil
}

func (m *mockAccountRepo) UpdateProfile(ctx context.Context, username string, update domain.ProfileUpdate) (domain.Account, error) {
	account, ok := m.accounts[username]
	if !ok {
		return domain.Account{}, domain.NotFoundError{Resource: "account"}
	}
	if update.Pubkey != nil {
		account.Pubkey = *update.Pubkey
	}
	if update.Absence != nil {
		account.Absence = *update.Absence
	}
	m.accounts[username] = account
	return account, nil
}

func (m *mockAccountRepo) BannedIdentities(ctx context.Context) (map[string]struct{}, error) {
	return m.banned, nil
}

func (m *mockAccountRepo) GrantRole(ctx context.Context, accountID uint, role string) error {
	for _, r := range m.grants[accountID] {
		if r == role {
			return nil
		}
	}
	m.grants[accountID] = append(m.grants[accountID], role)
	return nil
}

func (m *mockAccountRepo) ListByRole(ctx context.Context, role string) ([]domain.Account, error) {
	var out []domain.Account
	for _, account := range m.accounts {
		for _, r := range m.grants[account.ID] {
			if r == role {
				out = append(out, account)
			}
		}
	}
	return out, nil
}

type mockSignal struct {
	events []marketd.Event
}

func (m *mockSignal) Publish(ctx context.Context, channel string, event marketd.Event) error {
	m.events = append(m.events, event)
	return nil
}

func nodeConfig(t *testing.T) domain.Config {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	privHex := hex.EncodeToString(ethcrypto.FromECDSA(key))
	fp, err := marketd.PrivKeyToFingerprint(privHex)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	return domain.Config{
		FQDN:         "market.example.com",
		PrivateKey:   privHex,
		Registration: domain.RegistrationOpen,
		JIDSuffix:    "fdw.example.onion",
		Fingerprint:  fp,
	}
}

func newAccountUsecase(t *testing.T, repo *mockAccountRepo, backend SignatureBackend) (*AccountUsecase, *mockSignal) {
	t.Helper()
	signal := &mockSignal{}
	uc := NewAccountUsecase(
		repo,
		NewVerificationUsecase(bobSource(t)),
		NewElevationUsecase(backend),
		signal,
		nodeConfig(t),
	)
	return uc, signal
}

func TestRegisterPersistsConfirmedAccount(t *testing.T) {
	repo := newMockAccountRepo()
	uc, signal := newAccountUsecase(t, repo, &mockBackend{})

	account, result, err := uc.Register(context.Background(), RegisterInput{
		Username:        "bob",
		Password:        "pw",
		PasswordConfirm: "pw",
		FDWIdentity:     "bob",
		FDWPassword:     "secret",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !result.Confirmed {
		t.Fatalf("expected confirmed got %+v", result)
	}
	if account.FDWID != 42 {
		t.Fatalf("expected account to carry remote id 42 got %d", account.FDWID)
	}
	if account.JID != "bob@fdw.example.onion" {
		t.Fatalf("unexpected jid %s", account.JID)
	}
	if account.PasswordHash == "" || account.PasswordHash == "pw" {
		t.Fatalf("password must be stored hashed")
	}
	if len(signal.events) != 1 || signal.events[0].Type != marketd.EventAccountRegistered {
		t.Fatalf("expected account.registered event, got %+v", signal.events)
	}
}

func TestRegisterRejectionDoesNotCreate(t *testing.T) {
	repo := newMockAccountRepo()
	uc, signal := newAccountUsecase(t, repo, &mockBackend{})

	_, result, err := uc.Register(context.Background(), RegisterInput{
		Username:        "bob",
		Password:        "pw",
		PasswordConfirm: "pw",
		FDWIdentity:     "bob",
		FDWPassword:     "wrong",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.Confirmed || result.Reason != domain.RejectCredentialMismatch {
		t.Fatalf("expected credential-mismatch got %+v", result)
	}
	if len(repo.accounts) != 0 {
		t.Fatalf("rejected verification must not create an account")
	}
	if len(signal.events) != 0 {
		t.Fatalf("rejected verification must not publish events")
	}
}

func TestRegisterClosedRegistration(t *testing.T) {
	repo := newMockAccountRepo()
	uc, _ := newAccountUsecase(t, repo, &mockBackend{})
	uc.config.Registration = domain.RegistrationClose

	_, _, err := uc.Register(context.Background(), RegisterInput{
		Username: "bob", Password: "pw", PasswordConfirm: "pw",
		FDWIdentity: "bob", FDWPassword: "secret",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newMockAccountRepo()
	repo.accounts["bob"] = domain.Account{ID: 1, Username: "bob"}
	uc, _ := newAccountUsecase(t, repo, &mockBackend{})

	_, _, err := uc.Register(context.Background(), RegisterInput{
		Username: "bob", Password: "pw", PasswordConfirm: "pw",
		FDWIdentity: "bob", FDWPassword: "secret",
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already-exists got %v", err)
	}
}

func TestLoginIssuesValidSession(t *testing.T) {
	repo := newMockAccountRepo()
	uc, _ := newAccountUsecase(t, repo, &mockBackend{})

	_, _, err := uc.Register(context.Background(), RegisterInput{
		Username: "bob", Password: "pw", PasswordConfirm: "pw",
		FDWIdentity: "bob", FDWPassword: "secret",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := uc.Login(context.Background(), "bob", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	_, claims, err := jwt.Validate(token)
	if err != nil {
		t.Fatalf("session token must validate: %v", err)
	}
	if claims.Principal != "bob" {
		t.Fatalf("expected principal bob got %s", claims.Principal)
	}

	if _, err := uc.Login(context.Background(), "bob", "nope"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("wrong password must fail with validation error, got %v", err)
	}
}

func TestGrantVendorPersistsRole(t *testing.T) {
	repo := newMockAccountRepo()
	backend := &mockBackend{sigFp: "mkt1owner", sigValid: true, keyFp: "mkt1owner", keyOK: true}
	uc, signal := newAccountUsecase(t, repo, backend)

	_, _, err := uc.Register(context.Background(), RegisterInput{
		Username: "bob", Password: "pw", PasswordConfirm: "pw",
		FDWIdentity: "bob", FDWPassword: "secret", Pubkey: "02abc",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := uc.GrantVendor(context.Background(), "bob", "signed")
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if !result.Granted {
		t.Fatalf("expected granted got %+v", result)
	}

	account, _ := repo.GetByUsername(context.Background(), "bob")
	if !hasRole(account.Roles, marketd.RoleVendor) {
		t.Fatalf("vendor role must be persisted")
	}

	// granting an already-held role is a no-op, not an error
	if _, err := uc.GrantVendor(context.Background(), "bob", "signed"); err != nil {
		t.Fatalf("repeat grant failed: %v", err)
	}
	account, _ = repo.GetByUsername(context.Background(), "bob")
	if len(account.Roles) != 1 {
		t.Fatalf("repeat grant must not duplicate the role: %v", account.Roles)
	}

	if len(signal.events) < 2 {
		t.Fatalf("expected vendor.granted event")
	}
}

func TestGrantVendorRejectionDoesNotPersist(t *testing.T) {
	repo := newMockAccountRepo()
	backend := &mockBackend{sigFp: "mkt1intruder", sigValid: true, keyFp: "mkt1owner", keyOK: true}
	uc, _ := newAccountUsecase(t, repo, backend)

	_, _, err := uc.Register(context.Background(), RegisterInput{
		Username: "bob", Password: "pw", PasswordConfirm: "pw",
		FDWIdentity: "bob", FDWPassword: "secret", Pubkey: "02abc",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	result, err := uc.GrantVendor(context.Background(), "bob", "signed")
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if result.Granted || result.Reason != domain.ElevationFingerprintMismatch {
		t.Fatalf("expected fingerprint-mismatch got %+v", result)
	}

	account, _ := repo.GetByUsername(context.Background(), "bob")
	if len(account.Roles) != 0 {
		t.Fatalf("rejected elevation must not persist a role")
	}
}

func TestUpdateProfileOwnership(t *testing.T) {
	repo := newMockAccountRepo()
	uc, _ := newAccountUsecase(t, repo, &mockBackend{})

	_, _, err := uc.Register(context.Background(), RegisterInput{
		Username: "bob", Password: "pw", PasswordConfirm: "pw",
		FDWIdentity: "bob", FDWPassword: "secret",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	pubkey := "02abc"
	if _, err := uc.UpdateProfile(context.Background(), "mallory", "bob", domain.ProfileUpdate{Pubkey: &pubkey}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	updated, err := uc.UpdateProfile(context.Background(), "bob", "bob", domain.ProfileUpdate{Pubkey: &pubkey})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Pubkey != pubkey {
		t.Fatalf("pubkey not updated")
	}

	bad := "gone fishing"
	if _, err := uc.UpdateProfile(context.Background(), "bob", "bob", domain.ProfileUpdate{Absence: &bad}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for bad absence mode, got %v", err)
	}
}
