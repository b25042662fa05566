package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// SetPasswordInput changes the password of the current user.
type SetPasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// UserService handles accounts and subscriptions.
type UserService struct {
	db            *gorm.DB
	subscriptions *Relation[models.Subscription]
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, subscriptions *Relation[models.Subscription]) *UserService {
	return &UserService{db: db, subscriptions: subscriptions}
}

// Register creates an account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	verr := &ValidationError{}
	if err := validate(in); err != nil {
		if !errors.As(err, &verr) {
			return nil, err
		}
	}
	if msg := passwordProblem(in.Password, in.Username, in.Email); msg != "" {
		verr.Add("password", msg)
	}
	if !verr.Empty() {
		return nil, verr
	}

	db := s.db.WithContext(ctx)

	// Friendly per-field messages; the unique indexes still decide races.
	var n int64
	if err := db.Model(&models.User{}).Where("LOWER(email) = LOWER(?)", in.Email).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if n > 0 {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if n > 0 {
		verr.Add("username", "A user with that username already exists.")
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewValidationError("non_field_errors", "A user with that email or username already exists.")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return &user, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("User not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// List returns one page of users ordered by username.
func (s *UserService) List(ctx context.Context, page Page) ([]models.User, int64, error) {
	return s.page(s.db.WithContext(ctx).Model(&models.User{}), page)
}

// SetPassword replaces the password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, userID uint, in SetPasswordInput) error {
	if err := validate(in); err != nil {
		return err
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return NewValidationError("current_password", "Incorrect password.")
	}
	if in.CurrentPassword == in.NewPassword {
		return NewValidationError("new_password", "The new password must differ from the current one.")
	}
	if msg := passwordProblem(in.NewPassword, user.Username, user.Email); msg != "" {
		return NewValidationError("new_password", msg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&models.User{ID: userID}).Update("password_hash", string(hash)).Error
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// Subscribe makes userID follow authorID and returns the author.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error) {
	if err := s.subscriptions.Add(ctx, userID, authorID); err != nil {
		return nil, err
	}
	return s.Get(ctx, authorID)
}

// Unsubscribe stops userID following authorID.
func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	return s.subscriptions.Remove(ctx, userID, authorID)
}

// Subscriptions returns one page of the authors userID follows.
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page Page) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("users.id IN (?)", s.subscriptions.TargetIDs(ctx, userID))
	return s.page(query, page)
}

func (s *UserService) page(query *gorm.DB, page Page) ([]models.User, int64, error) {
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	var users []models.User
	err := query.Order("users.username").Offset(page.offset()).Limit(page.Size).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// passwordProblem applies the password rules validator tags cannot express.
func passwordProblem(password, username, email string) string {
	if password == "" {
		return ""
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return "This password is entirely numeric."
	}
	lower := strings.ToLower(password)
	if username != "" && lower == strings.ToLower(username) {
		return "The password is too similar to the username."
	}
	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && local != "" && lower == local {
		return "The password is too similar to the email address."
	}
	return ""
}
