package models

import (
	"context"
	"errors"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/utils"
	"github.com/google/uuid"
)

type User struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Username    string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name        string    `gorm:"size:100;not null" json:"name" binding:"required"`
	CharacterId int       `gorm:"index" json:"character_id"`
	Password    string    `gorm:"size:255;not null" json:"password"`
	IsActive    *bool     `gorm:"not null" json:"is_active"`
	Role        UserRole  `gorm:"size:20;not null;default:'Member'" json:"role"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username    string `json:"username" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CharacterId int    `json:"character_id"`
	Password    string `json:"password"`
	Role        string `json:"role" binding:"required"`
}

/*
caches:
	User:$username
	Tokens:$username (set of live session tokens)
*/

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.Username)
}

func (result *User) PrepareGive() {
	result.Password = ""
}

type LoginInfo struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

const sessionTTL = 72 * time.Hour

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	db := config.GetDB()

	user := User{}
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error; err != nil {
			return nil, errors.New("invalid username or password")
		}
	}

	// Any compare failure rejects the login; a malformed stored hash must
	// not behave like a match.
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, errors.New("invalid username or password")
	}

	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	token := uuid.NewString()
	if err := config.SetRedisValue("Token:"+token, user.Username, sessionTTL); err != nil {
		return nil, err
	}
	if err := config.AddRedisSet("Tokens:"+user.Username, token); err != nil {
		return nil, err
	}
	if err := config.SetRedisObject("User:"+user.Username, &user, sessionTTL); err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token: token,
		Name:  user.Name,
		Role:  string(user.Role),
	}, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, err
	}
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, errors.New("user not found")
	}
	if err := config.RemoveRedisSetMember("Tokens:"+username, token); err != nil {
		return false, err
	}
	return true, nil
}

// LogoutAll revokes every live session of a user (ban hygiene).
func LogoutAll(ctx context.Context, username string) error {
	tokens, err := config.GetRedisSetMembers("Tokens:" + username)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		_ = config.RemoveRedisKey("Token:" + token)
	}
	return config.RemoveRedisKey("Tokens:" + username)
}

// GetUserByUsername reads through the Redis cache.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	_ = config.SetRedisObject("User:"+username, &user, sessionTTL)
	return &user, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	role, err := ParseUserRole(input.Role)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, errors.New("password is required")
	}
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	user := User{
		Username:    input.Username,
		Name:        input.Name,
		CharacterId: input.CharacterId,
		Password:    string(hashed),
		IsActive:    utils.NewTrue(),
		Role:        role,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateUser(ctx context.Context, id int, input *NewUser) (*User, error) {
	role, err := ParseUserRole(input.Role)
	if err != nil {
		return nil, err
	}
	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"username":     input.Username,
		"name":         input.Name,
		"character_id": input.CharacterId,
		"role":         role,
	}
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hashed)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := user.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	return user, nil
}

func ToggleActiveUser(ctx context.Context, id int, isActive bool) (*User, error) {
	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(user).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	if err := user.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	if !isActive {
		// disabled users lose their sessions immediately
		if err := LogoutAll(ctx, user.Username); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func ListUsers(ctx context.Context) ([]*User, error) {
	users, err := utils.FetchAllModels[User](ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PrepareGive()
	}
	return users, nil
}
