package images

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// MinDimension is the smallest accepted width and height in pixels
const MinDimension = 100

var (
	ErrTransferFailed = errors.New("photo transfer failed")
	ErrSizeExceeded   = errors.New("photo exceeds maximum file size")
	ErrInvalidImage   = errors.New("downloaded file is not a valid image")
)

// Candidate is one resolution of an inbound photo as reported by the chat platform
type Candidate struct {
	FileID string
	Size   int64
	Width  int
	Height int
}

// Resolver turns a platform file id into a downloadable URL
type Resolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Stored describes a photo that passed intake
type Stored struct {
	Path      string
	PublicURL string
	Filename  string
	Width     int
	Height    int
}

// Intake downloads, validates and stores photos
type Intake struct {
	HTTPClient        *http.Client
	Resolver          Resolver
	UploadDir         string
	BaseURL           string
	MaxFileSize       int64
	AllowedExtensions []string
}

// NewIntake creates an intake that stores files under uploadDir
func NewIntake(resolver Resolver, uploadDir, baseURL string, maxFileSize int64, allowed []string) (*Intake, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Intake{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Resolver:          resolver,
		UploadDir:         uploadDir,
		BaseURL:           strings.TrimRight(baseURL, "/"),
		MaxFileSize:       maxFileSize,
		AllowedExtensions: allowed,
	}, nil
}

// SelectLargest picks the candidate with the largest declared byte size.
// Ties keep the first one seen.
func SelectLargest(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Size > best.Size {
			best = c
		}
	}
	return best, true
}

// Store runs the full intake for one inbound photo
func (in *Intake) Store(ctx context.Context, candidates []Candidate) (*Stored, error) {
	best, ok := SelectLargest(candidates)
	if !ok {
		return nil, fmt.Errorf("%w: no photo sizes in message", ErrTransferFailed)
	}

	if in.MaxFileSize > 0 && best.Size > in.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrSizeExceeded, best.Size, in.MaxFileSize)
	}

	fileURL, err := in.Resolver.FileURL(ctx, best.FileID)
	if err != nil {
		return nil, transferError(err)
	}

	filename := uuid.New().String() + in.extension(fileURL)
	localPath := filepath.Join(in.UploadDir, filename)

	if err := in.download(ctx, fileURL, localPath); err != nil {
		os.Remove(localPath)
		return nil, err
	}

	width, height, err := Validate(localPath)
	if err != nil {
		if rmErr := os.Remove(localPath); rmErr != nil {
			slog.Warn("Failed to remove invalid image", "path", localPath, "err", rmErr)
		}
		return nil, err
	}

	slog.Info("Image downloaded successfully", "filename", filename, "width", width, "height", height)

	return &Stored{
		Path:      localPath,
		PublicURL: in.BaseURL + "/uploads/" + filename,
		Filename:  filename,
		Width:     width,
		Height:    height,
	}, nil
}

func (in *Intake) download(ctx context.Context, fileURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return transferError(err)
	}

	resp, err := in.HTTPClient.Do(req)
	if err != nil {
		return transferError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrTransferFailed, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	defer f.Close()

	// declared sizes can lie, cap the body as well
	body := io.Reader(resp.Body)
	if in.MaxFileSize > 0 {
		body = io.LimitReader(resp.Body, in.MaxFileSize+1)
	}
	n, err := io.Copy(f, body)
	if err != nil {
		return transferError(err)
	}
	if in.MaxFileSize > 0 && n > in.MaxFileSize {
		return fmt.Errorf("%w: body larger than %d bytes", ErrSizeExceeded, in.MaxFileSize)
	}
	return nil
}

// extension keeps the source extension only when it is allowed
func (in *Intake) extension(fileURL string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(stripQuery(fileURL)), "."))
	for _, allowed := range in.AllowedExtensions {
		if ext != "" && ext == allowed {
			return "." + ext
		}
	}
	return ".jpg"
}

// transferError wraps err as ErrTransferFailed without the request URL.
// Telegram file links embed the bot token in their path.
func transferError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s: %v", ErrTransferFailed, urlErr.Op, urlErr.Err)
	}
	return fmt.Errorf("%w: %v", ErrTransferFailed, err)
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

// Validate checks that the file decodes as an image of acceptable size and color model.
// The header is checked first, then the full pixel data is decoded so truncated
// files are rejected too.
func Validate(imagePath string) (int, int, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if cfg.Width < MinDimension || cfg.Height < MinDimension {
		return 0, 0, fmt.Errorf("%w: image too small: %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	if !allowedColorModel(cfg.ColorModel) {
		return 0, 0, fmt.Errorf("%w: unsupported %s color model", ErrInvalidImage, format)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if _, _, err := image.Decode(file); err != nil {
		return 0, 0, fmt.Errorf("%w: %s data: %v", ErrInvalidImage, format, err)
	}

	return cfg.Width, cfg.Height, nil
}

func allowedColorModel(m color.Model) bool {
	switch m {
	case color.RGBAModel, color.NRGBAModel, color.YCbCrModel, color.NYCbCrAModel, color.GrayModel:
		return true
	}
	return false
}
