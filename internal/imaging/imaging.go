// Package imaging validates uploaded images and resizes them for storage.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	MaxEntryImageBytes = 5 << 20
	MaxAvatarBytes     = 2 << 20
	MaxEntryDimension  = 1200
	AvatarSize         = 300
	// MaxPixels bounds the decoded canvas; compressed size says little about it.
	MaxPixels = 40_000_000

	jpegQuality = 90
)

var (
	ErrUnsupportedType = errors.New("supported image formats: JPG, PNG, GIF, WEBP")
	ErrEmpty           = errors.New("image file is empty")
	ErrTooManyPixels   = fmt.Errorf("image must be %d megapixels or smaller", MaxPixels/1_000_000)
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Processed is an image ready to upload.
type Processed struct {
	Data        []byte
	ContentType string
	Extension   string // without the leading dot
	Width       int
	Height      int
}

// Detect checks size and sniffs the content type from the bytes themselves.
func Detect(data []byte, maxBytes int) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > maxBytes {
		return nil, fmt.Errorf("image must be %dMB or smaller", maxBytes>>20)
	}
	mime := mimetype.Detect(data)
	for _, allowed := range allowedTypes {
		if mime.Is(allowed) {
			return mime, nil
		}
	}
	return nil, ErrUnsupportedType
}

// PrepareEntryImage downscales an entry image so neither side exceeds
// MaxEntryDimension. Images already within bounds are stored as uploaded.
func PrepareEntryImage(data []byte) (Processed, error) {
	mime, err := Detect(data, MaxEntryImageBytes)
	if err != nil {
		return Processed{}, err
	}
	src, err := decode(data, mime)
	if err != nil {
		return Processed{}, err
	}
	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), MaxEntryDimension)
	if width == bounds.Dx() && height == bounds.Dy() {
		return Processed{
			Data:        data,
			ContentType: mime.String(),
			Extension:   strings.TrimPrefix(mime.Extension(), "."),
			Width:       width,
			Height:      height,
		}, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return encodeAs(dst, mime)
}

// PrepareAvatar center-crops the image to a square and scales it to
// AvatarSize x AvatarSize. Avatars are always stored as JPEG.
func PrepareAvatar(data []byte) (Processed, error) {
	mime, err := Detect(data, MaxAvatarBytes)
	if err != nil {
		return Processed{}, err
	}
	src, err := decode(data, mime)
	if err != nil {
		return Processed{}, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, CenterSquare(src.Bounds()), draw.Over, nil)
	return encodeJPEG(dst)
}

// FitWithin scales width and height down so the longer side is at most
// limit, keeping the aspect ratio. It never scales up.
func FitWithin(width, height, limit int) (int, int) {
	if width > height {
		if width > limit {
			height = max(1, height*limit/width)
			width = limit
		}
	} else if height > limit {
		width = max(1, width*limit/height)
		height = limit
	}
	return width, height
}

// CenterSquare returns the largest centered square inside bounds.
func CenterSquare(bounds image.Rectangle) image.Rectangle {
	side := min(bounds.Dx(), bounds.Dy())
	x := bounds.Min.X + (bounds.Dx()-side)/2
	y := bounds.Min.Y + (bounds.Dy()-side)/2
	return image.Rect(x, y, x+side, y+side)
}

// CheckDimensions reads only the image header and rejects canvases larger
// than MaxPixels before any pixel buffer is allocated.
func CheckDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("failed to read image: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return ErrTooManyPixels
	}
	return nil
}

func decode(data []byte, mime *mimetype.MIME) (image.Image, error) {
	if err := CheckDimensions(data); err != nil {
		return nil, err
	}
	reader := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch {
	case mime.Is("image/jpeg"):
		img, err = jpeg.Decode(reader)
	case mime.Is("image/png"):
		img, err = png.Decode(reader)
	case mime.Is("image/gif"):
		img, err = gif.Decode(reader)
	case mime.Is("image/webp"):
		img, err = webp.Decode(reader)
	default:
		return nil, ErrUnsupportedType
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return img, nil
}

// encodeAs keeps the uploaded format where an encoder exists; WEBP has no
// encoder and is stored as JPEG.
func encodeAs(img *image.RGBA, mime *mimetype.MIME) (Processed, error) {
	var buf bytes.Buffer
	switch {
	case mime.Is("image/png"):
		if err := png.Encode(&buf, img); err != nil {
			return Processed{}, fmt.Errorf("failed to encode image: %w", err)
		}
		return processed(buf.Bytes(), "image/png", "png", img), nil
	case mime.Is("image/gif"):
		if err := gif.Encode(&buf, img, nil); err != nil {
			return Processed{}, fmt.Errorf("failed to encode image: %w", err)
		}
		return processed(buf.Bytes(), "image/gif", "gif", img), nil
	default:
		return encodeJPEG(img)
	}
}

func encodeJPEG(img *image.RGBA) (Processed, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Processed{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return processed(buf.Bytes(), "image/jpeg", "jpg", img), nil
}

func processed(data []byte, contentType, ext string, img image.Image) Processed {
	return Processed{
		Data:        data,
		ContentType: contentType,
		Extension:   ext,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}
}
