package web

import (
	"bytes"
	"errors"
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/metrics"
	"github.com/shrinex/bridge/semgt"
	"go.uber.org/zap"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strconv"
	"strings"
)

// SavedRequestKey is the session attribute remembering the protected
// page a visitor asked for before logging in
const SavedRequestKey = "bridge.protected_request"

type (
	// ProtectedRequest is a page that required a login
	ProtectedRequest struct {
		URL string `json:"url"`
	}

	Handlers struct {
		authenticator authc.Authenticator
		manager       *semgt.Manager
		opts          Options
		pixel         []byte
	}

	resultBody struct {
		Result authc.AuthenticationResult `json:"result"`
	}

	errorBody struct {
		Error string `json:"error"`
	}
)

func NewHandlers(authenticator authc.Authenticator, manager *semgt.Manager, opts ...Option) *Handlers {
	h := &Handlers{
		authenticator: authenticator,
		manager:       manager,
		opts:          apply(opts...),
	}

	if h.opts.LogoutImage {
		data, err := whitePixel()
		if err != nil {
			h.opts.Logger.Warn("unable to render logout image", zap.Error(err))
		}
		h.pixel = data
	}

	return h
}

// Login authenticates the submitted credentials. A visitor sent here by
// RequireRole is redirected back to the page they asked for.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	rs := sessionsFor(h.manager, w, r)

	result, err := h.authenticator.Login(NewRequest(r, rs))
	metrics.RecordAuthResult(metrics.OpLogin, result, err)
	if err != nil {
		h.writeError(w, "login", err)
		return
	}

	if result == authc.LoggedIn {
		if target := h.takeSavedRequest(r, rs); len(target) != 0 {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}

	status := http.StatusOK
	switch result {
	case authc.IncorrectDetails:
		status = http.StatusUnauthorized
	case authc.InsufficientDetails:
		status = http.StatusBadRequest
	}

	h.opts.Logger.Debug("login", zap.Stringer("result", result))
	writeJSON(w, status, resultBody{Result: result})
}

// Logout ends the current session and answers with no content, or with
// a blank image so it can be embedded in a page
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	rs := sessionsFor(h.manager, w, r)

	result, err := h.authenticator.Logout(NewRequest(r, rs))
	metrics.RecordAuthResult(metrics.OpLogout, result, err)
	if err != nil {
		// the local session is gone regardless
		h.opts.Logger.Warn("logout incomplete", zap.Error(err))
	} else {
		h.opts.Logger.Debug("logout", zap.Stringer("result", result))
	}

	w.Header().Set("Cache-Control", "no-cache, no-store")

	if len(h.pixel) != 0 {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(h.pixel)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(h.pixel)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) takeSavedRequest(r *http.Request, rs *semgt.RequestSessions) string {
	ctx := r.Context()

	session, err := rs.Get(ctx)
	if err != nil || session == nil {
		return ""
	}

	var saved ProtectedRequest
	found, err := session.Attribute(ctx, SavedRequestKey, &saved)
	if err != nil || !found {
		return ""
	}

	_ = session.RemoveAttribute(ctx, SavedRequestKey)
	if !localURL(saved.URL) {
		return ""
	}

	return saved.URL
}

func (h *Handlers) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, authc.ErrAuthentication) {
		h.opts.Logger.Warn(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "authentication service unavailable"})
		return
	}

	h.opts.Logger.Error(op+" failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// localURL accepts paths on this host only
func localURL(u string) bool {
	return strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") && !strings.HasPrefix(u, "/\\")
}

func whitePixel() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
