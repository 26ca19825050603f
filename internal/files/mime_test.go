package files

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		filename string
		want     string
	}{
		{"declared wins", "image/png", "whatever.jpg", "image/png"},
		{"octet-stream ignored", "application/octet-stream", "photo.jpg", "image/jpeg"},
		{"empty declared uses extension", "", "doc.pdf", "application/pdf"},
		{"uppercase extension", "", "PHOTO.PNG", "image/png"},
		{"unknown extension", "", "data.xyz", "application/octet-stream"},
		{"no extension", "", "README", "application/octet-stream"},
		{"heic photo", "", "img_0001.heic", "image/heic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveContentType(tt.declared, tt.filename))
		})
	}
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("", "photo.webp"))
	assert.True(t, IsImage("image/jpeg", "anything"))
	assert.False(t, IsImage("", "doc.pdf"))
	assert.False(t, IsImage("application/pdf", "fake.png"))
}

func TestAttachmentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename=report.pdf`, AttachmentDisposition("report.pdf"))

	// Non-ASCII names get RFC 5987 treatment instead of raw bytes.
	got := AttachmentDisposition("отчёт.pdf")
	assert.Contains(t, got, "attachment")
	assert.Contains(t, got, "filename*=")
}

func TestInlineDisposition(t *testing.T) {
	assert.Equal(t, `inline; filename=photo.png`, InlineDisposition("photo.png"))
}
