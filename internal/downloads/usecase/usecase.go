package usecase

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/musicjacker/backend/internal/config"
	"github.com/musicjacker/backend/internal/downloads"
	"github.com/musicjacker/backend/internal/media"
	"github.com/musicjacker/backend/internal/models"
	"github.com/musicjacker/backend/internal/storage"
	"github.com/musicjacker/backend/internal/tokens"
	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

type downloadUC struct {
	cfg        *config.Config
	extractor  media.Extractor
	transcoder media.Transcoder
	store      storage.Driver
	archive    storage.Driver // optional off-node mirror, may be nil
	tokens     tokens.Authority
	logger     logger.Logger
}

func NewDownloadUseCase(
	cfg *config.Config,
	extractor media.Extractor,
	transcoder media.Transcoder,
	store storage.Driver,
	archive storage.Driver,
	tokenAuthority tokens.Authority,
	log logger.Logger,
) downloads.UseCase {
	return &downloadUC{
		cfg:        cfg,
		extractor:  extractor,
		transcoder: transcoder,
		store:      store,
		archive:    archive,
		tokens:     tokenAuthority,
		logger:     log,
	}
}

// artifact pairs a produced file with the title it should be presented
// under.
type artifact struct {
	path  string
	title string
}

func (u *downloadUC) DownloadAndPrepare(ctx context.Context, mediaURL, targetFormat string) (result *models.DownloadResult, retErr error) {
	if targetFormat == "" {
		targetFormat = "mp3"
	}
	targetFormat = strings.ToLower(targetFormat)

	if err := u.preflight(ctx, mediaURL); err != nil {
		return nil, err
	}

	sessionID, sessionPath, err := u.createSession()
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			u.cleanupSession(sessionPath)
		}
	}()

	outputTemplate := filepath.Join(sessionPath, "%(title)s - %(id)s.%(ext)s")

	downloadCtx, cancel := context.WithTimeout(ctx, time.Duration(u.cfg.Limits.ToolTimeoutSeconds)*time.Second)
	defer cancel()

	info, err := u.extractor.Download(downloadCtx, mediaURL, outputTemplate, "")
	if err != nil {
		return nil, err
	}

	found := u.discoverArtifacts(info, sessionPath)
	if len(found) == 0 {
		return nil, downloads.ErrNothingProduced
	}

	files := make([]*models.DownloadedFile, 0, len(found))
	for _, art := range found {
		prepared, err := u.prepareArtifact(ctx, art, sessionID, sessionPath, targetFormat)
		if err != nil {
			u.logger.Warnf("session %s: skipping %s: %v", sessionID, filepath.Base(art.path), err)
			continue
		}
		files = append(files, prepared)
	}
	if len(files) == 0 {
		return nil, downloads.ErrNothingProduced
	}

	return &models.DownloadResult{Status: "success", Files: files}, nil
}

// preflight checks declared durations before committing to the download.
// Playlist entries are inspected up to the configured cap.
func (u *downloadUC) preflight(ctx context.Context, mediaURL string) error {
	info, err := u.extractor.Probe(ctx, mediaURL)
	if err != nil {
		return err
	}
	limit := float64(u.cfg.Limits.DurationSeconds)

	if info.IsPlaylist() {
		for idx, entry := range info.Entries {
			if idx >= u.cfg.Limits.PlaylistInspect {
				u.logger.Debugf("playlist larger than inspection cap, checked first %d entries", u.cfg.Limits.PlaylistInspect)
				break
			}
			if entry != nil && entry.Duration > limit {
				return errors.Wrapf(downloads.ErrDurationExceeded, "playlist entry %q", entry.Title)
			}
		}
		return nil
	}
	if info.Duration > limit {
		return downloads.ErrDurationExceeded
	}
	return nil
}

// createSession allocates a fresh, previously nonexistent directory, so a
// later artifact scan cannot latch onto leftovers of an earlier attempt.
func (u *downloadUC) createSession() (string, string, error) {
	sessionID := strings.ReplaceAll(uuid.NewString(), "-", "")
	sessionPath, err := u.store.PathFor(sessionID)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(sessionPath, 0o755); err != nil {
		return "", "", errors.Wrap(err, "downloads.createSession.MkdirAll")
	}
	return sessionID, sessionPath, nil
}

// cleanupSession is best-effort: a failure to delete is logged, never
// surfaced to the caller.
func (u *downloadUC) cleanupSession(sessionPath string) {
	if err := os.RemoveAll(sessionPath); err != nil {
		u.logger.Warnf("failed to clean up session %s: %v", sessionPath, err)
	}
}

// discoverArtifacts prefers the extractor's structured metadata and falls
// back to an extension-filtered scan of the session directory.
func (u *downloadUC) discoverArtifacts(info *media.MediaInfo, sessionPath string) []artifact {
	var found []artifact
	seen := make(map[string]bool)

	collect := func(entry *media.MediaInfo) {
		for _, reported := range entry.ProducedFiles() {
			full := reported
			if !filepath.IsAbs(full) {
				full = filepath.Join(sessionPath, filepath.Base(full))
			}
			if !u.insideSession(full, sessionPath) || seen[full] {
				continue
			}
			if st, err := os.Stat(full); err != nil || !st.Mode().IsRegular() {
				continue
			}
			seen[full] = true
			found = append(found, artifact{path: full, title: entry.Title})
		}
	}

	if info.IsPlaylist() {
		for _, entry := range info.Entries {
			if entry != nil {
				collect(entry)
			}
		}
	} else {
		collect(info)
	}
	if len(found) > 0 {
		return found
	}

	// metadata was absent or stale; scan the directory instead
	entries, err := os.ReadDir(sessionPath)
	if err != nil {
		u.logger.Warnf("artifact scan failed for %s: %v", sessionPath, err)
		return nil
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !u.isMediaFile(entry.Name()) {
			continue
		}
		full := filepath.Join(sessionPath, entry.Name())
		name := entry.Name()
		found = append(found, artifact{
			path:  full,
			title: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}
	return found
}

func (u *downloadUC) insideSession(path, sessionPath string) bool {
	resolved := filepath.Clean(path)
	return strings.HasPrefix(resolved, sessionPath+string(os.PathSeparator))
}

func (u *downloadUC) isMediaFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, allowed := range u.cfg.Storage.MediaExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// prepareArtifact converts one produced file to the target format when
// needed, normalizes its name and issues a capability token for it.
func (u *downloadUC) prepareArtifact(ctx context.Context, art artifact, sessionID, sessionPath, targetFormat string) (*models.DownloadedFile, error) {
	finalPath := art.path
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(art.path), "."))

	if ext != targetFormat {
		base := strings.TrimSuffix(filepath.Base(art.path), filepath.Ext(art.path))
		converted := filepath.Join(sessionPath, base+"."+targetFormat)

		convertCtx, cancel := context.WithTimeout(ctx, time.Duration(u.cfg.Limits.ToolTimeoutSeconds)*time.Second)
		defer cancel()

		if err := u.transcoder.Convert(convertCtx, art.path, converted, media.CodecArgs(targetFormat)); err != nil {
			return nil, err
		}
		finalPath = converted
	}

	finalPath = u.normalizeName(finalPath, sessionPath)
	filename := filepath.Base(finalPath)

	u.mirrorArtifact(sessionID, filename, finalPath)

	token, err := u.tokens.Create(finalPath, time.Duration(u.cfg.Storage.TokenTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.DownloadedFile{
		Title:       art.title,
		Filename:    filename,
		DownloadURL: fmt.Sprintf("/serve/%s/%s?token=%s", sessionID, url.PathEscape(filename), token),
	}, nil
}

// normalizeName renames the artifact to a sanitized, collision-free name.
// Rename failures degrade gracefully: the original name stays.
func (u *downloadUC) normalizeName(path, sessionPath string) string {
	current := filepath.Base(path)
	safe := media.SafeFilename(current)
	if safe == current {
		return path
	}
	unique := media.EnsureUniqueFilename(sessionPath, safe)
	renamed := filepath.Join(sessionPath, unique)
	if err := os.Rename(path, renamed); err != nil {
		u.logger.Warnf("could not rename %s: %v", current, err)
		return path
	}
	return renamed
}

// mirrorArtifact copies the finished file into the archive store when one
// is configured. Best-effort only.
func (u *downloadUC) mirrorArtifact(sessionID, filename, path string) {
	if u.archive == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		u.logger.Warnf("archive mirror read failed for %s: %v", filename, err)
		return
	}
	if _, err := u.archive.Save(sessionID+"/"+filename, data); err != nil {
		u.logger.Warnf("archive mirror save failed for %s: %v", filename, err)
	}
}
