package ytmeta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const watchPage = `<!DOCTYPE html>
<html>
<head>
<title>Some Song - YouTube</title>
<link itemprop="name" content="Some Channel">
</head>
<body></body>
</html>`

func TestPageTitle(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(watchPage))
	require.NoError(t, err)

	assert.Equal(t, "Some Song - YouTube", pageTitle(doc))
}

func TestChannelName(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(watchPage))
	require.NoError(t, err)

	assert.Equal(t, "Some Channel", channelName(doc))
}

func TestChannelNameMissing(t *testing.T) {
	doc, err := html.Parse(strings.NewReader("<html><head></head><body></body></html>"))
	require.NoError(t, err)

	assert.Empty(t, channelName(doc))
}
