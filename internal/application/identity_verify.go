package application

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tryohq/tryo-api/pkg/helpers"
	"github.com/tryohq/tryo-api/pkg/mailer"
)

// Contact-email verification. The code is bcrypt-hashed at rest in Redis so a
// Redis dump does not leak usable codes.

var (
	ErrVerifyNotRequested = errors.New("verification not requested")
	ErrVerifyCodeInvalid  = errors.New("verification code invalid")
)

const verifyCodeTTL = 15 * time.Minute

func keyVerifyCode(uid string) string { return "email:verify:code:" + uid }
func keyVerified(uid string) string   { return "user:verified:" + uid }

// VerifyInit generates a one-time code for the user's contact email and
// enqueues the email carrying it. Idempotent for already-verified users.
func (s *IdentityService) VerifyInit(ctx context.Context, userID string) (alreadyVerified bool, err error) {
	if s.Redis == nil {
		return false, errors.New("redis not configured")
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.ContactEmail == "" {
		return false, ErrVerifyNotRequested
	}
	if v, _ := s.Redis.Get(ctx, keyVerified(userID)).Result(); v == "1" {
		return true, nil
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	if err := s.Redis.Set(ctx, keyVerifyCode(userID), string(hash), verifyCodeTTL).Err(); err != nil {
		return false, err
	}

	if s.Pub != nil && s.MailEnabled {
		job := mailer.EmailJob{
			To:       u.ContactEmail,
			Subject:  "Your Tryo verification code",
			Text:     "Your verification code is " + code + ". It expires in 15 minutes.",
			Template: "verify_email",
			Data:     map[string]any{"Name": u.Name, "Code": code},
		}
		if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("verify email enqueue failed")
		}
	}
	return false, nil
}

// VerifyConfirm checks the submitted code and marks the contact email
// verified. The code is single-use.
func (s *IdentityService) VerifyConfirm(ctx context.Context, userID, code string) error {
	if s.Redis == nil {
		return errors.New("redis not configured")
	}
	hash, err := s.Redis.Get(ctx, keyVerifyCode(userID)).Result()
	if err != nil || hash == "" {
		return ErrVerifyNotRequested
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return ErrVerifyCodeInvalid
	}
	pipe := s.Redis.Pipeline()
	pipe.Del(ctx, keyVerifyCode(userID))
	pipe.Set(ctx, keyVerified(userID), "1", 0)
	_, _ = pipe.Exec(ctx)
	return nil
}
