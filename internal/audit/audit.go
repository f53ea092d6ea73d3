package audit

import (
	"context"

	"github.com/weiawesome/wes-io-social/pkg/log"
)

// Audit actions.
const (
	ActionRegister       = "user.register"
	ActionLogin          = "user.login"
	ActionLoginFailed    = "user.login_failed"
	ActionLogout         = "user.logout"
	ActionFollow         = "user.follow"
	ActionUnfollow       = "user.unfollow"
	ActionChangePassword = "user.change_password"
	ActionForgotPassword = "user.forgot_password"
	ActionResetPassword  = "user.reset_password"
	ActionUpdateProfile  = "user.update_profile"
	ActionUpdateAvatar   = "user.update_avatar"
	ActionDeleteAccount  = "user.delete_account"

	ActionCreatePost    = "post.create"
	ActionDeletePost    = "post.delete"
	ActionUpdateCaption = "post.update_caption"
	ActionDeleteComment = "post.delete_comment"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldActor  = "actor_id"
)

// Log emits a structured audit log entry via the context logger. The
// acting user goes under actor_id so it never collides with the request's
// user_id.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldActor, userID).
		Msg(msg)
}

// LogTarget emits an audit entry naming the user or post acted upon.
func LogTarget(ctx context.Context, action string, userID string, targetID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldActor, userID).
		Str(log.FieldTargetID, targetID).
		Msg(msg)
}
