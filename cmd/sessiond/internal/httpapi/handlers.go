package httpapi

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"go.uber.org/zap"
)

// Handlers serves the account routes on top of an engine.
type Handlers struct {
	engine    *goSession.Engine
	logger    *zap.Logger
	cookies   CookieOptions
	maxUpload int64
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.badRequest(w, "malformed multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	avatar, closeAvatar := formAsset(r, "avatar")
	defer closeAvatar()
	cover, closeCover := formAsset(r, "coverImage")
	defer closeCover()

	profile, err := h.engine.Register(r.Context(), goSession.RegisterRequest{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("fullName"),
		Password: r.FormValue("password"),
		Avatar:   avatar,
		Cover:    cover,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, profile, "User registered successfully")
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeStrict(r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	identifier := req.Username
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Email
	}
	res, err := h.engine.Login(r.Context(), identifier, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cookies.setPair(w, res.SessionPair)
	ok(w, http.StatusOK, res, "User logged in successfully")
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.PrincipalFromContext(r.Context())
	if err := h.engine.Logout(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.cookies.clear(w)
	ok(w, http.StatusOK, struct{}{}, "User logged out")
}

// RefreshToken reads the refresh token from its cookie, falling back to a
// JSON body.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var presented string
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = c.Value
	}
	if presented == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeStrict(r, &req); err != nil {
			h.badRequest(w, err.Error())
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.engine.Refresh(r.Context(), presented)
	if err != nil {
		if errors.Is(err, goSession.ErrTokenReuseDetected) {
			h.cookies.clear(w)
		}
		h.fail(w, r, err)
		return
	}

	h.cookies.setPair(w, pair)
	ok(w, http.StatusOK, pair, "Access token refreshed")
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeStrict(r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	id, _ := middleware.PrincipalFromContext(r.Context())
	if err := h.engine.ChangeSecret(r.Context(), id, req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, struct{}{}, "Password changed successfully")
}

func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.PrincipalFromContext(r.Context())
	profile, err := h.engine.CurrentProfile(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, profile, "User fetched successfully")
}

// UpdateAccount applies each non-empty field in turn. At least one is required.
func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeStrict(r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.FullName) == "" && strings.TrimSpace(req.Email) == "" {
		h.fail(w, r, goSession.ErrMissingField)
		return
	}

	id, _ := middleware.PrincipalFromContext(r.Context())
	var (
		profile goSession.Profile
		err     error
	)
	if strings.TrimSpace(req.FullName) != "" {
		if profile, err = h.engine.UpdateProfileField(r.Context(), id, goSession.FieldFullName, req.FullName); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if strings.TrimSpace(req.Email) != "" {
		if profile, err = h.engine.UpdateProfileField(r.Context(), id, goSession.FieldEmail, req.Email); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	ok(w, http.StatusOK, profile, "Account details updated successfully")
}

func (h *Handlers) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateAsset(w, r, "avatar", h.engine.UpdateAvatar, "Avatar updated successfully")
}

func (h *Handlers) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateAsset(w, r, "coverImage", h.engine.UpdateCover, "Cover image updated successfully")
}

type assetUpdater func(ctx context.Context, principalID string, asset *goSession.MediaAsset) (goSession.Profile, error)

func (h *Handlers) updateAsset(w http.ResponseWriter, r *http.Request, field string, update assetUpdater, message string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.badRequest(w, "malformed multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	asset, closeAsset := formAsset(r, field)
	defer closeAsset()

	id, _ := middleware.PrincipalFromContext(r.Context())
	profile, err := update(r.Context(), id, asset)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, profile, message)
}

// formAsset opens the named multipart file. A missing file yields a nil
// asset so the engine decides whether it was required.
func formAsset(r *http.Request, field string) (*goSession.MediaAsset, func()) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	return assetFromHeader(file, header), func() { _ = file.Close() }
}

func assetFromHeader(file multipart.File, header *multipart.FileHeader) *goSession.MediaAsset {
	return &goSession.MediaAsset{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}
