package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/musicjacker/backend/internal/files"
	"github.com/musicjacker/backend/internal/storage"
	"github.com/musicjacker/backend/internal/tokens"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/musicjacker/backend/pkg/utils"
)

type filesHandler struct {
	store  storage.Driver
	tokens tokens.Authority
	logger logger.Logger
}

func NewFilesHandler(store storage.Driver, tokenAuthority tokens.Authority, log logger.Logger) files.Handler {
	return &filesHandler{store: store, tokens: tokenAuthority, logger: log}
}

// ServeFile streams one artifact to the holder of a valid token and tears
// the artifact down afterwards. Every check must pass; each failure names
// its reason without leaking the resolved path.
func (h *filesHandler) ServeFile() echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID := c.Param("session_id")
		filename := c.Param("filename")

		token := c.QueryParam("token")
		if token == "" {
			token = c.Request().Header.Get("X-Download-Token")
		}
		if token == "" {
			return utils.JSONError(c, http.StatusForbidden, "Missing token for file download.")
		}

		resolved, ok := h.tokens.Validate(token)
		if !ok {
			return utils.JSONError(c, http.StatusForbidden, "Invalid or expired token.")
		}

		resolved, err := filepath.Abs(resolved)
		if err != nil {
			return utils.JSONError(c, http.StatusForbidden, "Invalid file path.")
		}
		if filepath.Base(filepath.Dir(resolved)) != sessionID {
			h.logger.Warnf("token session mismatch: requested %s", sessionID)
			return utils.JSONError(c, http.StatusForbidden, "Token does not match requested session.")
		}
		if filepath.Base(resolved) != filename {
			h.logger.Warnf("token filename mismatch: requested %s", filename)
			return utils.JSONError(c, http.StatusForbidden, "Token does not match requested file.")
		}
		if !h.insideStorageRoot(resolved) {
			h.logger.Warnf("token resolved outside the storage root")
			return utils.JSONError(c, http.StatusForbidden, "Invalid file path.")
		}

		// a restart may have changed the storage root since the token was
		// issued; reconstruct the expected location before giving up
		if !isRegularFile(resolved) {
			fallback, err := h.store.PathFor(sessionID + "/" + filename)
			if err != nil || !isRegularFile(fallback) {
				h.logger.Warnf("token points to a missing file in session %s", sessionID)
				return utils.JSONError(c, http.StatusNotFound, "File not found.")
			}
			h.logger.Infof("serving session %s from the canonical storage root", sessionID)
			resolved = fallback
		}

		if err := c.Attachment(resolved, filename); err != nil {
			return err
		}
		h.cleanupServed(resolved, token)
		return nil
	}
}

func (h *filesHandler) insideStorageRoot(path string) bool {
	base := h.store.Base()
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

func isRegularFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// cleanupServed revokes the token, removes the streamed artifact and drops
// the session directory once empty. The token goes first so a delivery
// stays single-use even when the file removal fails. Failures are logged
// only; the response has already been sent.
func (h *filesHandler) cleanupServed(path, token string) {
	h.tokens.Revoke(token)
	if err := os.Remove(path); err != nil {
		h.logger.Warnf("could not remove served file: %v", err)
		return
	}

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		h.logger.Warnf("could not remove session directory: %v", err)
	}
}
