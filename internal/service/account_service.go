package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ecommapi/internal/cache"
	"github.com/ecommapi/internal/config"
	"github.com/ecommapi/internal/constants"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService 账户服务：注册、登录、资料与地址
type AccountService struct {
	cfg         *config.Config
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
}

// NewAccountService 创建账户服务
func NewAccountService(cfg *config.Config, userRepo repository.UserRepository, addressRepo repository.AddressRepository) *AccountService {
	return &AccountService{
		cfg:         cfg,
		userRepo:    userRepo,
		addressRepo: addressRepo,
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// AddressInput 地址输入，更新时携带 id 表示沿用已有地址
type AddressInput struct {
	ID         uint   `json:"id"`
	Address1   string `json:"address_1" validate:"required,max=150"`
	Address2   string `json:"address_2" validate:"max=150"`
	Country    string `json:"country" validate:"required,len=2"`
	State      string `json:"state" validate:"max=50"`
	City       string `json:"city" validate:"required,max=150"`
	PostalCode string `json:"postalcode" validate:"required,max=16"`
}

func (in AddressInput) toModel() models.UserAddress {
	return models.UserAddress{
		Address1:   strings.TrimSpace(in.Address1),
		Address2:   strings.TrimSpace(in.Address2),
		Country:    strings.ToUpper(strings.TrimSpace(in.Country)),
		State:      strings.TrimSpace(in.State),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
	}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username       string       `json:"username" validate:"required,max=150"`
	Email          string       `json:"email" validate:"required,email,max=254"`
	Password       string       `json:"password" validate:"required"`
	RepeatPassword string       `json:"repeat_password" validate:"required"`
	FirstName      string       `json:"first_name" validate:"max=150"`
	LastName       string       `json:"last_name" validate:"max=150"`
	PhoneNumber    string       `json:"phone_number" validate:"required,phone"`
	Birthday       string       `json:"birthday" validate:"required,datetime=2006-01-02"`
	Address        AddressInput `json:"address"`
}

// UpdateUserInput 更新用户输入
// Addresses 为 nil 时不改动地址，非 nil 时整体替换
type UpdateUserInput struct {
	FirstName   *string         `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string         `json:"last_name" validate:"omitempty,max=150"`
	Email       *string         `json:"email" validate:"omitempty,email,max=254"`
	PhoneNumber *string         `json:"phone_number" validate:"omitempty,phone"`
	Birthday    *string         `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Addresses   *[]AddressInput `json:"addresses" validate:"omitempty,dive"`
	// IsActive 仅超级用户可修改，变更后已签发的 token 全部失效
	IsActive *bool `json:"is_active"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// GenerateUserJWT 生成用户 JWT Token
func (s *AccountService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveUserJWTExpireHours(s.cfg.JWT)) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Username:     user.Username,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *AccountService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Register 注册用户，同时创建资料并关联地址
func (s *AccountService) Register(input RegisterInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	if input.Password != input.RepeatPassword {
		return nil, ErrPasswordMismatch
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, err
	}
	birthday, err := parseBirthday(input.Birthday)
	if err != nil {
		return nil, err
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		if err := s.ensureIdentityAvailable(userRepo, input.Username, input.Email, 0); err != nil {
			return err
		}
		user = &models.User{
			Username:     input.Username,
			Email:        input.Email,
			FirstName:    strings.TrimSpace(input.FirstName),
			LastName:     strings.TrimSpace(input.LastName),
			PasswordHash: string(hashedPassword),
			IsActive:     true,
		}
		if err := userRepo.Create(user); err != nil {
			return err
		}

		address := input.Address.toModel()
		if err := s.addressRepo.WithTx(tx).FindOrCreate(&address); err != nil {
			return err
		}
		profile := &models.UserProfile{
			UserID:      user.ID,
			PhoneNumber: strings.TrimSpace(input.PhoneNumber),
			Birthday:    birthday,
			Addresses:   []models.UserAddress{address},
		}
		if err := userRepo.CreateProfile(profile); err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("account_registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login 用户名密码登录，签发 JWT
func (s *AccountService) Login(username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ListUsers 用户列表，普通用户只能看到自己
func (s *AccountService) ListUsers(actor Actor, filter repository.UserListFilter) ([]models.User, int64, error) {
	if actor.IsSuperuser {
		return s.userRepo.List(filter)
	}
	user, err := s.userRepo.GetByIDWithProfile(actor.UserID)
	if err != nil {
		return nil, 0, err
	}
	if user == nil {
		return []models.User{}, 0, nil
	}
	return []models.User{*user}, 1, nil
}

// GetUser 获取用户详情（本人或超级用户）
func (s *AccountService) GetUser(actor Actor, userID uint) (*models.User, error) {
	return s.findUser(s.userRepo, actor, userID)
}

// GetAuthUser 鉴权中间件按 ID 加载用户
func (s *AccountService) GetAuthUser(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateUser 更新用户基础信息、资料与地址列表
func (s *AccountService) UpdateUser(actor Actor, userID uint, input UpdateUserInput) (*models.User, error) {
	if input.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &normalized
	}
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	if input.IsActive != nil && !actor.IsSuperuser {
		return nil, ErrStatusChangeDenied
	}
	var birthday *time.Time
	if input.Birthday != nil {
		parsed, err := parseBirthday(*input.Birthday)
		if err != nil {
			return nil, err
		}
		birthday = parsed
	}

	statusChanged := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		addressRepo := s.addressRepo.WithTx(tx)
		user, err := s.findUser(userRepo, actor, userID)
		if err != nil {
			return err
		}

		if input.Email != nil && *input.Email != user.Email {
			if err := s.ensureIdentityAvailable(userRepo, "", *input.Email, user.ID); err != nil {
				return err
			}
			user.Email = *input.Email
		}
		if input.FirstName != nil {
			user.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			user.LastName = strings.TrimSpace(*input.LastName)
		}
		if input.IsActive != nil && *input.IsActive != user.IsActive {
			user.IsActive = *input.IsActive
			user.TokenVersion++
			statusChanged = true
		}
		if err := userRepo.Update(user); err != nil {
			return err
		}

		profile := user.Profile
		if profile == nil {
			profile = &models.UserProfile{UserID: user.ID}
			if err := userRepo.CreateProfile(profile); err != nil {
				return err
			}
		}
		if input.PhoneNumber != nil {
			profile.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
		}
		if birthday != nil {
			profile.Birthday = birthday
		}
		if err := userRepo.UpdateProfile(profile); err != nil {
			return err
		}

		if input.Addresses == nil {
			return nil
		}
		addresses, err := s.resolveAddresses(addressRepo, profile.Addresses, *input.Addresses)
		if err != nil {
			return err
		}
		if err := userRepo.ReplaceProfileAddresses(profile, addresses); err != nil {
			return err
		}
		removed, err := addressRepo.DeleteOrphans()
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Infow("account_orphan_addresses_removed", "user_id", user.ID, "count", removed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if statusChanged {
		if err := cache.DelUserAuthState(context.Background(), userID); err != nil {
			logger.Warnw("account_auth_state_evict_failed", "user_id", userID, "error", err)
		}
		logger.Infow("account_status_changed", "user_id", userID, "is_active", *input.IsActive, "actor_id", actor.UserID)
	}
	return s.GetUser(actor, userID)
}

// ListAddresses 地址列表，超级用户可查看全部
func (s *AccountService) ListAddresses(actor Actor) ([]models.UserAddress, error) {
	if actor.IsSuperuser {
		return s.addressRepo.ListAll()
	}
	return s.addressRepo.ListByUser(actor.UserID)
}

// resolveAddresses 将输入转换为地址记录
// 带 id 的条目必须属于当前资料；字段有变化时另取或新建地址，不修改共享记录
func (s *AccountService) resolveAddresses(repo repository.AddressRepository, current []models.UserAddress, inputs []AddressInput) ([]models.UserAddress, error) {
	owned := make(map[uint]models.UserAddress, len(current))
	for _, addr := range current {
		owned[addr.ID] = addr
	}
	seen := make(map[uint]struct{}, len(inputs))
	result := make([]models.UserAddress, 0, len(inputs))
	for _, in := range inputs {
		wanted := in.toModel()
		if in.ID != 0 {
			existing, ok := owned[in.ID]
			if !ok {
				return nil, ErrAddressNotFound
			}
			if existing.SameLocation(wanted) {
				wanted = existing
			}
		}
		if wanted.ID == 0 {
			if err := repo.FindOrCreate(&wanted); err != nil {
				return nil, err
			}
		}
		if _, dup := seen[wanted.ID]; dup {
			continue
		}
		seen[wanted.ID] = struct{}{}
		result = append(result, wanted)
	}
	return result, nil
}

func (s *AccountService) ensureIdentityAvailable(repo repository.UserRepository, username, email string, selfID uint) error {
	if username != "" {
		existing, err := repo.GetByUsername(username)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return ErrUsernameTaken
		}
	}
	if email != "" {
		existing, err := repo.GetByEmail(email)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return ErrEmailTaken
		}
	}
	return nil
}

func (s *AccountService) findUser(repo repository.UserRepository, actor Actor, userID uint) (*models.User, error) {
	return findOwned(actor,
		func() (*models.User, error) { return repo.GetByIDWithProfile(userID) },
		func(u *models.User) uint { return u.ID },
		ErrUserNotFound,
	)
}

func parseBirthday(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(constants.DateLayout, raw)
	if err != nil {
		return nil, ErrInvalidBirthday
	}
	return &parsed, nil
}

func resolveUserJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return 24
	}
	return cfg.ExpireHours
}
