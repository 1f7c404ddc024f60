package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTMLSanitized(t *testing.T) {
	svc := NewMarkdownService()

	out, err := svc.ToHTMLSanitized("**Bob** created expense <script>alert(1)</script>")
	require.NoError(t, err)

	assert.Contains(t, out, "<strong>Bob</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestStripTags(t *testing.T) {
	svc := NewMarkdownService()

	assert.Equal(t, "Team lunch", svc.StripTags("<b>Team lunch</b>"))
	assert.Equal(t, "", svc.StripTags("<img src=x onerror=alert(1)>"))
}
