package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fdwmarket/marketd/internal/domain"
	"github.com/fdwmarket/marketd/internal/infrastructure/database/models"
)

const profileCacheSeconds = 60

type AccountRepository struct {
	db     *gorm.DB
	mc     *memcache.Client
	banned *gocache.Cache
}

func NewAccountRepository(db *gorm.DB, mc *memcache.Client) *AccountRepository {
	return &AccountRepository{
		db:     db,
		mc:     mc,
		banned: gocache.New(time.Minute, 5*time.Minute),
	}
}

func profileCacheKey(username string) string {
	return fmt.Sprintf("account:%x", xxh3.HashString(username))
}

// accountCacheEntry carries the fields domain.Account hides from JSON.
type accountCacheEntry struct {
	Account      domain.Account `json:"account"`
	ID           uint           `json:"id"`
	PasswordHash string         `json:"passwordHash"`
	Banned       bool           `json:"banned"`
	Inactive     bool           `json:"inactive"`
}

func (e accountCacheEntry) restore() domain.Account {
	account := e.Account
	account.ID = e.ID
	account.PasswordHash = e.PasswordHash
	account.Banned = e.Banned
	account.Inactive = e.Inactive
	return account
}

func toDomain(m models.Account, roles []string) domain.Account {
	return domain.Account{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		FDWIdentity:  m.FDWIdentity,
		FDWID:        m.FDWID,
		Email:        m.Email,
		JID:          m.JID,
		Pubkey:       m.Pubkey,
		BTC:          m.BTC,
		IRC:          m.IRC,
		Ricochet:     m.Ricochet,
		Bitmessage:   m.Bitmessage,
		Description:  m.Description,
		Absence:      m.Absence,
		AdminMsg:     m.AdminMsg,
		Alert:        m.Alert,
		EscrowMsg:    m.EscrowMsg,
		Banned:       m.Banned,
		Inactive:     m.Inactive,
		Roles:        roles,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	model := models.Account{
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		FDWIdentity:  account.FDWIdentity,
		FDWID:        account.FDWID,
		Email:        account.Email,
		JID:          account.JID,
		Pubkey:       account.Pubkey,
		BTC:          account.BTC,
		IRC:          account.IRC,
		Ricochet:     account.Ricochet,
		Bitmessage:   account.Bitmessage,
		Description:  account.Description,
		Absence:      account.Absence,
		AdminMsg:     account.AdminMsg,
		Alert:        account.Alert,
		EscrowMsg:    account.EscrowMsg,
	}

	err := r.db.WithContext(ctx).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Account{}, domain.AlreadyExistsError{Resource: "account"}
	}
	if err != nil {
		return domain.Account{}, err
	}

	return toDomain(model, nil), nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (domain.Account, error) {
	cacheKey := profileCacheKey(username)

	if r.mc != nil {
		item, err := r.mc.Get(cacheKey)
		if err == nil {
			var cached accountCacheEntry
			if json.Unmarshal(item.Value, &cached) == nil {
				return cached.restore(), nil
			}
		}
	}

	var model models.Account
	err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Account{}, domain.NotFoundError{Resource: "account"}
	}
	if err != nil {
		return domain.Account{}, err
	}

	roles, err := r.roles(ctx, model.ID)
	if err != nil {
		return domain.Account{}, err
	}

	account := toDomain(model, roles)

	if r.mc != nil {
		entry := accountCacheEntry{
			Account:      account,
			ID:           account.ID,
			PasswordHash: account.PasswordHash,
			Banned:       account.Banned,
			Inactive:     account.Inactive,
		}
		if raw, err := json.Marshal(entry); err == nil {
			r.mc.Set(&memcache.Item{Key: cacheKey, Value: raw, Expiration: profileCacheSeconds})
		}
	}

	return account, nil
}

func (r *AccountRepository) roles(ctx context.Context, accountID uint) ([]string, error) {
	var grants []models.RoleGrant
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&grants).Error
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(grants))
	for _, grant := range grants {
		roles = append(roles, grant.Role)
	}
	return roles, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, username string, update domain.ProfileUpdate) (domain.Account, error) {
	changes := map[string]any{}
	if update.Email != nil {
		changes["email"] = *update.Email
	}
	if update.JID != nil {
		changes["jid"] = *update.JID
	}
	if update.Pubkey != nil {
		changes["pubkey"] = *update.Pubkey
	}
	if update.BTC != nil {
		changes["btc"] = *update.BTC
	}
	if update.IRC != nil {
		changes["irc"] = *update.IRC
	}
	if update.Ricochet != nil {
		changes["ricochet"] = *update.Ricochet
	}
	if update.Bitmessage != nil {
		changes["bitmessage"] = *update.Bitmessage
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if update.Absence != nil {
		changes["absence"] = *update.Absence
	}
	if update.EscrowMsg != nil {
		changes["escrow_msg"] = *update.EscrowMsg
	}

	if len(changes) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Account{}).
			Where("username = ?", username).
			Updates(changes)
		if result.Error != nil {
			return domain.Account{}, result.Error
		}
		if result.RowsAffected == 0 {
			return domain.Account{}, domain.NotFoundError{Resource: "account"}
		}
	}

	r.invalidate(username)

	return r.GetByUsername(ctx, username)
}

// BannedIdentities returns the FDW identities of locally banned accounts.
// The set is cached briefly; a one-minute-stale ban list is acceptable for
// signup gating.
func (r *AccountRepository) BannedIdentities(ctx context.Context) (map[string]struct{}, error) {
	if cached, found := r.banned.Get("banned"); found {
		return cached.(map[string]struct{}), nil
	}

	var identities []string
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("banned = ? AND fdw_identity <> ''", true).
		Pluck("fdw_identity", &identities).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(identities))
	for _, identity := range identities {
		set[identity] = struct{}{}
	}

	r.banned.Set("banned", set, gocache.DefaultExpiration)

	return set, nil
}

// GrantRole records role membership. Granting an already-held role is a
// no-op.
func (r *AccountRepository) GrantRole(ctx context.Context, accountID uint, role string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "role"}},
		DoNothing: true,
	}).Create(&models.RoleGrant{
		AccountID: accountID,
		Role:      role,
	}).Error
	if err != nil {
		return err
	}

	var model models.Account
	if r.db.WithContext(ctx).Select("username").First(&model, accountID).Error == nil {
		r.invalidate(model.Username)
	}

	return nil
}

func (r *AccountRepository) ListByRole(ctx context.Context, role string) ([]domain.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Joins("JOIN role_grants ON role_grants.account_id = accounts.id").
		Where("role_grants.role = ?", role).
		Order("accounts.username").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Account, 0, len(accounts))
	for _, model := range accounts {
		roles, err := r.roles(ctx, model.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, toDomain(model, roles))
	}
	return out, nil
}

func (r *AccountRepository) invalidate(username string) {
	if r.mc != nil {
		r.mc.Delete(profileCacheKey(username))
	}
}
