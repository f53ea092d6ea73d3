package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-social/internal/audit"
	"github.com/weiawesome/wes-io-social/internal/credential"
	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/mailer"
	"github.com/weiawesome/wes-io-social/internal/media"
	"github.com/weiawesome/wes-io-social/internal/notify"
	"github.com/weiawesome/wes-io-social/internal/repository"
	"github.com/weiawesome/wes-io-social/internal/search"
	"github.com/weiawesome/wes-io-social/pkg/jwt"
	"github.com/weiawesome/wes-io-social/pkg/log"
)

const resetMailSubject = "Password Reset"

const resetMailBody = "You are receiving this email because you (or someone else) requested a password reset.\n\n" +
	"Reset your password by opening the link below:\n\n%s"

// UserDeps collects the collaborators of the user service.
type UserDeps struct {
	Users         repository.UserRepository
	Follows       repository.FollowRepository
	Profiles      *Profiles
	Hasher        *credential.Hasher
	Tokens        TokenIssuer
	Mailer        mailer.Mailer
	Index         search.UserIndex
	Images        ImageStore
	Notifier      *notify.Notifier
	ResetTokenTTL time.Duration
}

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	UserDeps
	now func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(deps UserDeps) UserService {
	if deps.ResetTokenTTL <= 0 {
		deps.ResetTokenTTL = 10 * time.Minute
	}
	return &userServiceImpl{UserDeps: deps, now: time.Now}
}

// Register registers a new user.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.Users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		l.Error().Err(err).Msg("failed to look up email")
		return nil, err
	}

	hash, err := s.hashPassword(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Avatar:       domain.Image{PublicID: domain.PlaceholderAvatarID, URL: domain.PlaceholderAvatarURL},
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrUserExists
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	token, exp, err := s.Tokens.Generate(user.ID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after register")
		return nil, err
	}

	s.index(ctx, user)
	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return &domain.AuthResponse{
		User:      user.ToResponse(domain.Relations{}),
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// Login authenticates a user.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.Log(ctx, audit.ActionLoginFailed, "", "login failed: user not found")
			return nil, ErrUserNotFound
		}
		l.Error().Err(err).Msg("failed to get user by email")
		return nil, err
	}

	if err := s.Hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, credential.ErrMismatch) {
			audit.Log(ctx, audit.ActionLoginFailed, user.ID, "login failed: wrong password")
			return nil, ErrWrongPassword
		}
		return nil, err
	}

	token, exp, err := s.Tokens.Generate(user.ID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to generate token after login")
		return nil, err
	}

	summaries, err := s.Profiles.Summaries(ctx, []*domain.User{user})
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to load user relations")
		return nil, err
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return &domain.AuthResponse{
		User:      summaries[0],
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

func (s *userServiceImpl) Logout(ctx context.Context, userID string, claims *jwt.Claims) error {
	if claims != nil {
		if err := s.Tokens.Revoke(ctx, claims); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("failed to revoke token on logout")
		}
	}
	audit.Log(ctx, audit.ActionLogout, userID, "user logged out")
	return nil
}

func (s *userServiceImpl) ToggleFollow(ctx context.Context, userID, targetID string) (bool, error) {
	l := log.Ctx(ctx)

	target, err := s.Users.GetByID(ctx, targetID)
	if err != nil {
		return false, s.mapUserErr(ctx, err)
	}
	me, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return false, s.mapUserErr(ctx, err)
	}
	if target.ID == me.ID {
		return false, ErrSelfFollow
	}

	followed, err := s.Follows.Toggle(ctx, me.ID, target.ID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldTargetID, targetID).Msg("failed to toggle follow")
		return false, err
	}
	s.Profiles.Invalidate(ctx, me.ID, target.ID)

	if followed {
		s.Notifier.Followed(ctx, target.ID, me.ID, me.Name)
		audit.LogTarget(ctx, audit.ActionFollow, me.ID, target.ID, "user followed")
	} else {
		audit.LogTarget(ctx, audit.ActionUnfollow, me.ID, target.ID, "user unfollowed")
	}
	return followed, nil
}

func (s *userServiceImpl) UpdatePassword(ctx context.Context, userID string, req *domain.UpdatePasswordRequest) error {
	l := log.Ctx(ctx)

	if req.OldPassword == "" || req.NewPassword == "" {
		return ErrMissingFields
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return s.mapUserErr(ctx, err)
	}

	if err := s.Hasher.Compare(user.PasswordHash, req.OldPassword); err != nil {
		if errors.Is(err, credential.ErrMismatch) {
			return ErrWrongPassword
		}
		return err
	}

	hash, err := s.hashPassword(ctx, req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.Users.Update(ctx, user); err != nil {
		l.Error().Err(err).Msg("failed to update password")
		return err
	}

	audit.Log(ctx, audit.ActionChangePassword, userID, "password changed")
	return nil
}

// UpdateProfile applies the non-empty fields of req.
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *domain.UpdateProfileRequest) error {
	l := log.Ctx(ctx)

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return s.mapUserErr(ctx, err)
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Email != nil && *req.Email != "" {
		user.Email = *req.Email
	}

	if err := s.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return ErrUserExists
		}
		l.Error().Err(err).Msg("failed to update profile")
		return err
	}

	s.Profiles.Invalidate(ctx, userID)
	s.index(ctx, user)
	audit.Log(ctx, audit.ActionUpdateProfile, userID, "profile updated")
	return nil
}

// UpdateAvatar stores a new avatar and removes the previous one.
func (s *userServiceImpl) UpdateAvatar(ctx context.Context, userID string, r io.Reader) (*domain.Image, error) {
	l := log.Ctx(ctx)

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.mapUserErr(ctx, err)
	}

	img, err := s.Images.StoreAvatar(ctx, userID, r)
	if err != nil {
		if errors.Is(err, media.ErrInvalidImage) {
			return nil, ErrInvalidImage
		}
		l.Error().Err(err).Msg("failed to store avatar")
		return nil, err
	}

	previous := user.Avatar
	user.Avatar = img
	if err := s.Users.Update(ctx, user); err != nil {
		l.Error().Err(err).Msg("failed to save avatar")
		if derr := s.Images.Delete(ctx, img); derr != nil {
			l.Warn().Err(derr).Str("key", img.PublicID).Msg("failed to remove orphaned avatar")
		}
		return nil, err
	}

	if err := s.Images.Delete(ctx, previous); err != nil {
		l.Warn().Err(err).Str("key", previous.PublicID).Msg("failed to remove previous avatar")
	}

	s.Profiles.Invalidate(ctx, userID)
	s.index(ctx, user)
	audit.Log(ctx, audit.ActionUpdateAvatar, userID, "avatar updated")
	return &img, nil
}

// DeleteProfile removes the user and everything referencing it, then
// cleans up storage, caches, the search index and the session.
func (s *userServiceImpl) DeleteProfile(ctx context.Context, userID string, claims *jwt.Claims) error {
	l := log.Ctx(ctx)

	deleted, err := s.Users.Delete(ctx, userID)
	if err != nil {
		return s.mapUserErr(ctx, err)
	}

	// The rows are gone; cleanup runs to completion even if the client
	// disconnects.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.Go(func() error {
		return s.Images.DeleteUserObjects(gctx, userID)
	})
	g.Go(func() error {
		return s.Index.Delete(gctx, userID)
	})
	g.Go(func() error {
		affected := append([]string{userID}, deleted.FollowerIDs...)
		affected = append(affected, deleted.FollowingIDs...)
		affected = append(affected, deleted.EngagedOwnerIDs...)
		s.Profiles.Invalidate(gctx, affected...)
		return nil
	})
	if claims != nil {
		g.Go(func() error {
			return s.Tokens.Revoke(gctx, claims)
		})
	}
	if err := g.Wait(); err != nil {
		l.Warn().Err(err).Msg("profile cleanup incomplete")
	}

	l.Info().
		Int("posts", len(deleted.PostIDs)).
		Int("post_images", len(deleted.PostImages)).
		Int("followers", len(deleted.FollowerIDs)).
		Int("following", len(deleted.FollowingIDs)).
		Msg("profile deleted")
	audit.Log(ctx, audit.ActionDeleteAccount, userID, "account deleted")
	return nil
}

func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*domain.ProfileResponse, error) {
	profile, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, s.mapUserErr(ctx, err)
	}
	return profile, nil
}

func (s *userServiceImpl) ListUsers(ctx context.Context) ([]domain.UserResponse, error) {
	l := log.Ctx(ctx)

	users, err := s.Users.List(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to list users")
		return nil, err
	}
	return s.Profiles.Summaries(ctx, users)
}

// SearchUsers queries the search index, falling back to the database when
// the index is unavailable.
func (s *userServiceImpl) SearchUsers(ctx context.Context, query string, limit int) ([]domain.UserResponse, error) {
	l := log.Ctx(ctx)

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.UserResponse{}, nil
	}

	ids, err := s.Index.Search(ctx, query, limit)
	if err != nil {
		l.Warn().Err(err).Msg("search index unavailable, falling back to database")
		users, err := s.Users.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		return s.Profiles.Summaries(ctx, users)
	}

	found, err := s.Users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	ordered := make([]*domain.User, 0, len(found))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return s.Profiles.Summaries(ctx, ordered)
}

func (s *userServiceImpl) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	l := log.Ctx(ctx)

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return s.mapUserErr(ctx, err)
	}

	tok, err := credential.NewResetToken(s.now().UTC(), s.ResetTokenTTL)
	if err != nil {
		l.Error().Err(err).Msg("failed to generate reset token")
		return err
	}
	user.ResetPasswordToken = tok.Hash
	user.ResetPasswordExpire = &tok.ExpiresAt
	if err := s.Users.Update(ctx, user); err != nil {
		l.Error().Err(err).Msg("failed to store reset token")
		return err
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: resetMailSubject,
		Body:    fmt.Sprintf(resetMailBody, resetURL(tok.Plain)),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		l.Error().Err(err).Str(log.FieldEmail, user.Email).Msg("failed to send reset mail")

		user.ResetPasswordToken = ""
		user.ResetPasswordExpire = nil
		if uerr := s.Users.Update(context.WithoutCancel(ctx), user); uerr != nil {
			l.Error().Err(uerr).Msg("failed to clear reset token")
		}
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	audit.Log(ctx, audit.ActionForgotPassword, user.ID, "password reset requested")
	return nil
}

func (s *userServiceImpl) ResetPassword(ctx context.Context, token string, req *domain.ResetPasswordRequest) error {
	l := log.Ctx(ctx)

	user, err := s.Users.GetByResetToken(ctx, credential.HashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		l.Error().Err(err).Msg("failed to look up reset token")
		return err
	}

	if req.Password == "" {
		return ErrMissingFields
	}

	hash, err := s.hashPassword(ctx, req.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpire = nil

	if err := s.Users.Update(ctx, user); err != nil {
		l.Error().Err(err).Msg("failed to reset password")
		return err
	}

	audit.Log(ctx, audit.ActionResetPassword, user.ID, "password reset")
	return nil
}

func (s *userServiceImpl) index(ctx context.Context, user *domain.User) {
	if err := s.Index.Index(ctx, user); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldTargetID, user.ID).Msg("failed to index user")
	}
}

func (s *userServiceImpl) mapUserErr(ctx context.Context, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	l := log.Ctx(ctx)
	l.Error().Err(err).Msg("user lookup failed")
	return err
}

func (s *userServiceImpl) hashPassword(ctx context.Context, password string) (string, error) {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		if errors.Is(err, credential.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to hash password")
		return "", err
	}
	return hash, nil
}
