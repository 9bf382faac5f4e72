package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 7 {
		img.Set(x, height/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h, wantW, wantH int
	}{
		{800, 600, 800, 600},
		{2400, 600, 1200, 300},
		{600, 2400, 300, 1200},
		{1200, 1200, 1200, 1200},
		{3000, 3000, 1200, 1200},
		{5000, 2, 1200, 1},
	}
	for _, tc := range cases {
		w, h := FitWithin(tc.w, tc.h, MaxEntryDimension)
		assert.Equal(t, tc.wantW, w, "width for %dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, h, "height for %dx%d", tc.w, tc.h)
	}
}

func TestCenterSquare(t *testing.T) {
	assert.Equal(t, image.Rect(100, 0, 300, 200), CenterSquare(image.Rect(0, 0, 400, 200)))
	assert.Equal(t, image.Rect(0, 50, 100, 150), CenterSquare(image.Rect(0, 0, 100, 200)))
}

func TestPrepareEntryImageKeepsSmallImages(t *testing.T) {
	data := pngBytes(t, 120, 80)

	out, err := PrepareEntryImage(data)
	require.NoError(t, err)
	assert.Equal(t, data, out.Data)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, "png", out.Extension)
}

func TestPrepareEntryImageDownscalesLargeImages(t *testing.T) {
	out, err := PrepareEntryImage(pngBytes(t, 2400, 600))
	require.NoError(t, err)
	assert.Equal(t, 1200, out.Width)
	assert.Equal(t, 300, out.Height)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1200, 300), decoded.Bounds())
}

func TestPrepareAvatarCropsToSquareJPEG(t *testing.T) {
	out, err := PrepareAvatar(pngBytes(t, 640, 320))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, "jpg", out.Extension)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, AvatarSize, AvatarSize), decoded.Bounds())
}

func TestDetectRejectsUnsupportedAndOversized(t *testing.T) {
	_, err := Detect([]byte("definitely not an image"), MaxEntryImageBytes)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Detect(nil, MaxEntryImageBytes)
	assert.ErrorIs(t, err, ErrEmpty)

	oversized := append(pngBytes(t, 4, 4), make([]byte, MaxAvatarBytes)...)
	_, err = Detect(oversized, MaxAvatarBytes)
	assert.ErrorContains(t, err, "2MB")

	_, err = PrepareAvatar(oversized)
	assert.Error(t, err)
}

// withCanvas rewrites the IHDR chunk of a PNG so it declares width x height
// while the pixel data stays tiny.
func withCanvas(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(data[12:16]))
	patched := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(patched[16:20], width)
	binary.BigEndian.PutUint32(patched[20:24], height)
	binary.BigEndian.PutUint32(patched[29:33], crc32.ChecksumIEEE(patched[12:29]))
	return patched
}

func TestPrepareRejectsHugeCanvasBeforeDecoding(t *testing.T) {
	huge := withCanvas(t, pngBytes(t, 1, 1), 12000, 12000)
	require.Less(t, len(huge), 1024)

	_, err := PrepareEntryImage(huge)
	assert.ErrorIs(t, err, ErrTooManyPixels)

	_, err = PrepareAvatar(huge)
	assert.ErrorIs(t, err, ErrTooManyPixels)

	assert.NoError(t, CheckDimensions(withCanvas(t, pngBytes(t, 1, 1), 6000, 6000)))
}
