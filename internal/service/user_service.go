package service

import (
	"context"
	"strings"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for new password hashes.
var BcryptCost = bcrypt.DefaultCost

type UserService struct {
	userRepo repository.UserRepository
	isAdmin  AdminCheck
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
	College  string
	Course   string
	Year     string
	Semester int
}

// UpdateProfileInput carries a partial profile update. Nil fields are left alone.
type UpdateProfileInput struct {
	ActorID      uint
	UserID       uint
	Name         *string
	College      *string
	Course       *string
	Year         *string
	Semester     *int
	Bio          *string
	Skills       []string
	Interests    []string
	SocialLinks  *models.SocialLinks
	ProfileImage *string
	Preferences  *models.UserPreferences
	Role         *models.UserRole
	IsVerified   *bool
}

// UserProfileStats is the derived activity summary of a user.
type UserProfileStats struct {
	models.UserStats
	Badges []models.Badge `json:"badges"`
}

func NewUserService(userRepo repository.UserRepository, isAdmin AdminCheck) *UserService {
	return &UserService{userRepo: userRepo, isAdmin: isAdmin}
}

// HashPassword hashes a plaintext password with BcryptCost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// Register creates a student or faculty account. Admins are never created here.
func (s *UserService) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	email := validation.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleStudent
	}

	var errs validation.Errors
	errs.Length("name", in.Name, 2, 50, "Name must be between 2 and 50 characters")
	errs.Email("email", email)
	errs.Password("password", in.Password)
	errs.Length("college", in.College, 2, 100, "College name must be between 2 and 100 characters")
	errs.MaxLength("course", in.Course, 100, "Course cannot exceed 100 characters")
	errs.MaxLength("year", in.Year, 20, "Year cannot exceed 20 characters")
	errs.Range("semester", int64(in.Semester), 0, 12, "Semester must be between 1 and 12")
	validation.OneOf(&errs, "role", in.Role, []models.UserRole{models.RoleStudent, models.RoleFaculty}, false, "Role must be student or faculty")
	if err := errs.Err(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists with this email")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		College:      strings.TrimSpace(in.College),
		Course:       strings.TrimSpace(in.Course),
		Year:         strings.TrimSpace(in.Year),
		Semester:     in.Semester,
		Skills:       []string{},
		Interests:    []string{},
		IsActive:     true,
		Preferences: models.UserPreferences{
			EmailNotifications: true,
			PushNotifications:  true,
			ProfileVisibility:  models.VisibilityPublic,
		},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and stamps the login time. Unknown email
// and wrong password fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("Invalid email or password")
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is deactivated")
	}
	now := utcNow()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	var errs validation.Errors
	errs.Require(current != "", "currentPassword", "Current password is required")
	errs.Password("newPassword", next)
	if err := errs.Err(); err != nil {
		return err
	}

	user, err := s.userRepo.GetWithCredentials(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func (s *UserService) Stats(ctx context.Context, id uint) (UserProfileStats, error) {
	stats, err := s.userRepo.Stats(ctx, id)
	if err != nil {
		return UserProfileStats{}, err
	}
	return UserProfileStats{UserStats: stats, Badges: models.BadgesFor(stats)}, nil
}

func (s *UserService) ListUsers(ctx context.Context, f repository.UserFilter, p repository.Paging) (models.Page[models.User], error) {
	f.Skills = validation.NormalizeTags(f.Skills)
	if f.Role != "" {
		var errs validation.Errors
		validation.OneOf(&errs, "role", f.Role, []models.UserRole{models.RoleStudent, models.RoleFaculty, models.RoleAdmin}, false, "Invalid role")
		if err := errs.Err(); err != nil {
			return models.Page[models.User]{}, err
		}
	}
	users, total, err := s.userRepo.List(ctx, f, p)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return repository.NewPage(users, total, p), nil
}

// UpdateProfile applies a partial update. Users edit themselves; admins can
// edit anyone and are the only ones who may change role or verification.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := authorize(ctx, s.isAdmin, in.UserID, in.ActorID, "You can only update your own profile"); err != nil {
		return nil, err
	}
	if in.Role != nil || in.IsVerified != nil {
		if err := authorize(ctx, s.isAdmin, 0, in.ActorID, "Only admins can change roles or verification"); err != nil {
			return nil, err
		}
	}

	user, err := s.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	assign(&user.Name, in.Name)
	assign(&user.College, in.College)
	assign(&user.Course, in.Course)
	assign(&user.Year, in.Year)
	assign(&user.Bio, in.Bio)
	assign(&user.ProfileImage, in.ProfileImage)
	if in.Semester != nil {
		user.Semester = *in.Semester
	}
	if in.Skills != nil {
		user.Skills = trimList(in.Skills)
	}
	if in.Interests != nil {
		user.Interests = trimList(in.Interests)
	}
	if in.SocialLinks != nil {
		user.SocialLinks = *in.SocialLinks
	}
	if in.Preferences != nil {
		user.Preferences = *in.Preferences
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.IsVerified != nil {
		user.IsVerified = *in.IsVerified
	}

	var errs validation.Errors
	errs.Length("name", user.Name, 2, 50, "Name must be between 2 and 50 characters")
	errs.Length("college", user.College, 2, 100, "College name must be between 2 and 100 characters")
	errs.MaxLength("course", user.Course, 100, "Course cannot exceed 100 characters")
	errs.MaxLength("year", user.Year, 20, "Year cannot exceed 20 characters")
	errs.MaxLength("bio", user.Bio, 500, "Bio cannot exceed 500 characters")
	errs.Range("semester", int64(user.Semester), 0, 12, "Semester must be between 1 and 12")
	validation.OneOf(&errs, "preferences.profileVisibility", user.Preferences.ProfileVisibility, postVisibilities, true, "Invalid profile visibility")
	validation.OneOf(&errs, "role", user.Role, []models.UserRole{models.RoleStudent, models.RoleFaculty, models.RoleAdmin}, false, "Invalid role")
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate is the admin-only user delete.
func (s *UserService) Deactivate(ctx context.Context, actorID, userID uint) error {
	if err := authorize(ctx, s.isAdmin, 0, actorID, "Only admins can deactivate users"); err != nil {
		return err
	}
	if actorID == userID {
		return models.NewValidationError("Admins cannot deactivate themselves")
	}
	return s.userRepo.Deactivate(ctx, userID)
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
