package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"filedrive/internal/application/ports"
	"filedrive/internal/domain/user"
	domain "filedrive/internal/domain/user_file"
	"filedrive/internal/infrastructure/mq"
)

const (
	maxBaseNameLen = 100
	defaultMime    = "application/octet-stream"
	keyTimeLayout  = "20060102T150405.000000000Z"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrUploadFailed = errors.New("upload failed")
	ErrUnknownOwner = errors.New("session owner no longer exists")

	windowsReserved = map[string]struct{}{
		"con": {}, "prn": {}, "aux": {}, "nul": {},
		"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
		"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
	}
)

// UserFileService joins the blob store and the file registry. Every method
// is scoped to ownerID; a record owned by someone else is reported exactly
// like a missing one.
type UserFileService struct {
	blobs              ports.BlobStore
	userFileRepository domain.Repository
	userRepository     user.Repository
	events             ports.EventPublisher
	signedURLTTL       time.Duration
	logger             *zap.Logger
	mCounter           *prometheus.CounterVec
	now                func() time.Time
}

func NewUserFileService(
	blobs ports.BlobStore,
	userFileRepository domain.Repository,
	userRepository user.Repository,
	events ports.EventPublisher,
	signedURLTTL time.Duration,
	logger *zap.Logger,
	mCounter *prometheus.CounterVec,
) *UserFileService {
	return &UserFileService{
		blobs:              blobs,
		userFileRepository: userFileRepository,
		userRepository:     userRepository,
		events:             events,
		signedURLTTL:       signedURLTTL,
		logger:             logger,
		mCounter:           mCounter,
		now:                time.Now,
	}
}

func (ufs *UserFileService) FindUserFiles(ctx context.Context, ownerID user.UUID) (domain.UserFiles, error) {
	return ufs.userFileRepository.FetchUserFiles(ctx, ownerID)
}

// Upload writes the blob first and the record second. When the record
// cannot be written the blob stays behind as an orphan and the sweeper is
// told about it; a record never points at a blob that was not stored.
func (ufs *UserFileService) Upload(
	ctx context.Context,
	ownerID user.UUID,
	in ports.UploadInput,
) (*domain.UserFile, error) {
	name := sanitizeFileName(in.FileName)
	contentType := detectContentType(in.ContentType, name)
	key := ufs.storageKey(ownerID, name)

	stored, err := ufs.blobs.Upload(ctx, key, in.Body, in.Size, contentType)
	if err != nil {
		ufs.logger.Error("blob upload failed",
			zap.String("owner_id", ownerID.String()),
			zap.String("storage_key", key),
			zap.Error(err),
		)
		ufs.inc("file_upload_failed_total")
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	uf, err := ufs.userFileRepository.CreateUserFile(ctx, &domain.UserFile{
		OwnerID:      ownerID,
		StorageKey:   stored,
		OriginalName: originalName(in.FileName),
		MimeType:     contentType,
		SizeBytes:    uint64(max(in.Size, 0)),
	})
	if err != nil {
		ufs.logger.Error("file record create failed, blob orphaned",
			zap.String("owner_id", ownerID.String()),
			zap.String("storage_key", stored),
			zap.Error(err),
		)
		ufs.inc("blob_orphaned_total")
		ufs.events.Publish(mq.NewEvent(mq.EventBlobOrphaned, ownerID.String(), "", stored))
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	ufs.events.Publish(mq.NewEvent(mq.EventFileUploaded, ownerID.String(), uf.UUID.String(), uf.StorageKey))
	ufs.inc("file_uploaded_total")

	return uf, nil
}

func (ufs *UserFileService) DownloadURL(ctx context.Context, ownerID user.UUID, storageKey string) (string, error) {
	uf, err := ufs.userFileRepository.FetchUserFileByKey(ctx, storageKey)
	if err != nil {
		return "", err
	}

	return ufs.signedURL(ctx, ownerID, uf)
}

func (ufs *UserFileService) DownloadURLByID(ctx context.Context, ownerID user.UUID, fileID uuid.UUID) (string, error) {
	uf, err := ufs.userFileRepository.FetchUserFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	return ufs.signedURL(ctx, ownerID, uf)
}

func (ufs *UserFileService) signedURL(ctx context.Context, ownerID user.UUID, uf *domain.UserFile) (string, error) {
	if !uf.OwnedBy(ownerID) {
		return "", ErrFileNotFound
	}

	url, err := ufs.blobs.CreateSignedURL(ctx, uf.StorageKey, ufs.signedURLTTL)
	if err != nil {
		ufs.logger.Error("signed url failed",
			zap.String("file_id", uf.UUID.String()),
			zap.String("storage_key", uf.StorageKey),
			zap.Error(err),
		)
		return "", err
	}

	ufs.inc("file_downloaded_total")

	return url, nil
}

// Delete removes the blob and only then the record, so a failed removal
// leaves the record in place. The owner is looked up again before anything
// is touched.
func (ufs *UserFileService) Delete(ctx context.Context, ownerID user.UUID, fileID uuid.UUID) error {
	uf, err := ufs.userFileRepository.FetchUserFile(ctx, fileID)
	if err != nil {
		return err
	}
	if !uf.OwnedBy(ownerID) {
		return ErrFileNotFound
	}

	owner, err := ufs.userRepository.FetchUserByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if owner == nil {
		return ErrUnknownOwner
	}

	if err = ufs.blobs.Remove(ctx, uf.StorageKey); err != nil {
		ufs.logger.Error("blob remove failed, record kept",
			zap.String("file_id", uf.UUID.String()),
			zap.String("storage_key", uf.StorageKey),
			zap.Error(err),
		)
		ufs.inc("file_delete_failed_total")
		return err
	}

	deleted, err := ufs.userFileRepository.DeleteUserFile(ctx, uf.UUID)
	if err != nil {
		ufs.logger.Error("file record delete failed after blob removal",
			zap.String("file_id", uf.UUID.String()),
			zap.Error(err),
		)
		return err
	}
	if !deleted {
		// a concurrent delete won the race
		ufs.logger.Info("file record already gone", zap.String("file_id", uf.UUID.String()))
		return nil
	}

	ufs.events.Publish(mq.NewEvent(mq.EventFileDeleted, ownerID.String(), uf.UUID.String(), uf.StorageKey))
	ufs.inc("file_deleted_total")

	return nil
}

// storageKey: "uploads/<owneruuid>/<ts-nanosec>-<rand>-<filename>.ext"
func (ufs *UserFileService) storageKey(ownerID user.UUID, safeName string) string {
	return fmt.Sprintf(
		"uploads/%s/%s-%s-%s",
		strings.ReplaceAll(ownerID.String(), "-", ""),
		ufs.now().UTC().Format(keyTimeLayout),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		safeName,
	)
}

func (ufs *UserFileService) inc(result string) {
	if ufs.mCounter != nil {
		ufs.mCounter.WithLabelValues(result).Inc()
	}
}

func detectContentType(declared, name string) string {
	if ct := strings.TrimSpace(declared); ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return defaultMime
}

// originalName keeps what the user called the file, minus any client path.
func originalName(s string) string {
	s = path.Base(strings.ReplaceAll(strings.TrimSpace(s), "\\", "/"))
	if s == "." || s == ".." || s == "/" || s == "" {
		return "file"
	}
	return s
}

// sanitizeFileName make file name ASCII standard
func sanitizeFileName(original string) string {
	if original == "" {
		return "file"
	}

	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "/" || s == "" {
		return "file"
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	ext := strings.ToLower(path.Ext(s))
	base := strings.TrimSuffix(s, path.Ext(s))
	if !isSafeExt(ext) {
		ext = ""
	}

	//  [a-z0-9], '-' и '_', dot/space → '-'
	var b strings.Builder
	b.Grow(len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		default:
		}
	}
	base = strings.Trim(b.String(), "-")

	if base == "" {
		base = "file"
	}
	if _, bad := windowsReserved[base]; bad {
		base = "_" + base
	}

	for utf8.RuneCountInString(base)+len(ext) > maxBaseNameLen {
		_, size := utf8.DecodeLastRuneInString(base)
		if size <= 0 || size >= len(base) {
			break
		}
		base = base[:len(base)-size]
	}

	return base + ext
}

func isSafeExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 16 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
