package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"notes.pdf", CategoryDocuments},
		{"report.DOCX", CategoryDocuments},
		{"slides.pptx", CategoryPresentations},
		{"photo.jpg", CategoryImages},
		{"clip.mp4", CategoryVideos},
		{"bundle.tar", CategoryArchives},
		{"archive.GZ", CategoryArchives},
		{"main.go", CategoryOther},
		{"noextension", CategoryOther},
		{"trailingdot.", CategoryOther},
		{"", CategoryOther},
		{"many.dots.in.name.png", CategoryImages},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryFromFilename(tc.filename), "filename %q", tc.filename)
	}
}
