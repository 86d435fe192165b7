package authz

import (
	"strconv"

	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

var (
	errPostDeleteForbidden        = appErrors.Clone(appErrors.ErrForbidden, "Program heads are not authorized to delete posts.")
	errPostStatusRequired         = appErrors.Clone(appErrors.ErrForbidden, "Program heads may only update the status of a post.")
	errPostStatusUnsupported      = appErrors.Clone(appErrors.ErrValidation, "This post does not support status updates.")
	errCommentDeleteForbidden     = appErrors.Clone(appErrors.ErrForbidden, "Not authorized to delete this comment.")
	errProgramHeadDeleteForbidden = appErrors.Clone(appErrors.ErrForbidden, "Program heads are not authorized to delete users.")
	errSurveyUpdateForbidden      = appErrors.Clone(appErrors.ErrForbidden, "Not authorized to modify this survey")
	errChangeRequestForbidden     = appErrors.Clone(appErrors.ErrForbidden, "Not authorized to create requests for other users")
	errLikeUserRequired           = appErrors.Clone(appErrors.ErrUnauthorized, "Authentication required to like posts.")
)

// PostPatch lists the post fields a request wants to change.
type PostPatch struct {
	Title   *string
	Content *string
	Status  *string
}

// CanDeletePost rejects program heads outright.
func CanDeletePost(ac *Context) error {
	switch ac.EffectiveRole() {
	case RoleProgramHead:
		return errPostDeleteForbidden
	case RoleAdmin, RoleAlumni, RoleNone:
		return nil
	}
	return nil
}

// AuthorizePostUpdate returns the subset of patch the actor may apply.
// Program heads may change status only, and only on posts that carry one.
// Other actors may change title and content without an ownership check.
func AuthorizePostUpdate(ac *Context, post *models.Post, patch PostPatch) (PostPatch, error) {
	switch ac.EffectiveRole() {
	case RoleProgramHead:
		if patch.Status == nil {
			return PostPatch{}, errPostStatusRequired
		}
		if !post.SupportsStatus() {
			return PostPatch{}, errPostStatusUnsupported
		}
		return PostPatch{Status: patch.Status}, nil
	case RoleAdmin, RoleAlumni, RoleNone:
		return PostPatch{Title: patch.Title, Content: patch.Content}, nil
	}
	return PostPatch{}, errPostStatusRequired
}

// CanDeleteComment permits the verified author, an admin, or a body author_id
// matching the stored author. Program heads only get the first allowance.
func CanDeleteComment(ac *Context, comment *models.Comment, bodyAuthorID string) error {
	if comment.AuthorID != nil && ac != nil && ac.Identity != nil && ac.Identity.ID == *comment.AuthorID {
		return nil
	}

	switch ac.EffectiveRole() {
	case RoleProgramHead:
		return errCommentDeleteForbidden
	case RoleAdmin, RoleAlumni, RoleNone:
		if ac.IsAdmin() {
			return nil
		}
		if comment.AuthorID != nil && bodyAuthorID != "" && bodyAuthorID == strconv.FormatInt(*comment.AuthorID, 10) {
			return nil
		}
	}
	return errCommentDeleteForbidden
}

// CanDeleteProgramHead rejects program heads outright.
func CanDeleteProgramHead(ac *Context) error {
	switch ac.EffectiveRole() {
	case RoleProgramHead:
		return errProgramHeadDeleteForbidden
	case RoleAdmin, RoleAlumni, RoleNone:
		return nil
	}
	return nil
}

// CanUpdateSurvey enforces survey ownership. A linked survey may be changed when
// the body names the same alumni, by an admin, or by that alumni's token.
// Unlinked surveys are admin only.
func CanUpdateSurvey(ac *Context, survey *models.AlumniSurvey, bodyAlumniID *int64) error {
	if survey.AlumniID == nil {
		if ac.IsAdmin() {
			return nil
		}
		return errSurveyUpdateForbidden
	}

	owner := *survey.AlumniID
	if bodyAlumniID != nil && *bodyAlumniID == owner {
		return nil
	}
	if ac.IsAdmin() {
		return nil
	}
	if identity, ok := ac.Verified(RoleAlumni); ok && identity.ID == owner {
		return nil
	}
	return errSurveyUpdateForbidden
}

// ResolveChangeRequestAlumni decides which alumni a new change request is filed for.
// A valid alumni token always wins over the body. Filing for a body-named alumni
// without such a token requires admin.
func ResolveChangeRequestAlumni(ac *Context, bodyAlumniID *int64) (*int64, error) {
	if identity, ok := ac.Verified(RoleAlumni); ok {
		id := identity.ID
		return &id, nil
	}
	if bodyAlumniID == nil || *bodyAlumniID == 0 {
		return nil, nil
	}
	if ac.IsAdmin() {
		return bodyAlumniID, nil
	}
	return nil, errChangeRequestForbidden
}

// ResolveLikeUser picks the user a like toggle is recorded for: the verified
// identity first, then the client supplied fallback id.
func ResolveLikeUser(ac *Context, fallbackUserID *int64) (int64, error) {
	if ac != nil && ac.Identity != nil {
		return ac.Identity.ID, nil
	}
	if fallbackUserID != nil && *fallbackUserID != 0 {
		return *fallbackUserID, nil
	}
	return 0, errLikeUserRequired
}
