package target

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stylesync/internal/compiler"
	"github.com/conneroisu/stylesync/internal/css"
	"github.com/conneroisu/stylesync/internal/stylecache"
	"github.com/conneroisu/stylesync/internal/styletree"
)

func TestSegments(t *testing.T) {
	assert.Equal(t, "a/*|*/b", JoinSegments([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, SplitSegments("a/*|*/b"))
	assert.Equal(t, []string{"a"}, SplitSegments(" a\n"))
	assert.Nil(t, SplitSegments(""))
	assert.Nil(t, SplitSegments(Placeholder))
}

func TestMemoryAttachOrder(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	a, err := mem.CreateContainer(ctx, css.TierLow)
	require.NoError(t, err)
	b, _ := mem.CreateContainer(ctx, css.TierHigh)
	c, _ := mem.CreateContainer(ctx, css.TierMedium)

	require.NoError(t, a.Attach(ctx, nil))
	require.NoError(t, b.Attach(ctx, a))
	require.NoError(t, c.Attach(ctx, a))
	require.NoError(t, c.Attach(ctx, nil)) // already attached

	var ids []string
	for _, s := range mem.Containers() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"l1", "m3", "h2"}, ids)

	require.NoError(t, c.Detach(ctx))
	assert.False(t, c.Attached())
	assert.Len(t, mem.Containers(), 2)
}

func TestMemoryDiscoverSeeds(t *testing.T) {
	mem := NewMemory()
	mem.Seed(css.TierHigh, []string{"ha"}, ".ha{color:red}")

	discovered, err := mem.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, discovered, 1)
	assert.Equal(t, css.TierHigh, discovered[0].Tier)
	assert.Equal(t, []string{"ha"}, discovered[0].IDs)
	assert.True(t, discovered[0].Handle.Attached())
	assert.Empty(t, mem.Ops())
}

func TestDocumentContainers(t *testing.T) {
	ctx := context.Background()
	doc := NewDocument()

	low, err := doc.CreateContainer(ctx, css.TierLow)
	require.NoError(t, err)
	high, _ := doc.CreateContainer(ctx, css.TierHigh)
	assert.False(t, low.Attached())
	assert.NotEqual(t, low.ID(), high.ID())

	require.NoError(t, high.SetText(ctx, []string{"ha", "hb"}, ".ha{color:red}/*|*/.hb{margin:0px}"))
	require.NoError(t, high.Attach(ctx, nil))
	require.NoError(t, low.SetText(ctx, []string{"la"}, ".la{padding:0px}"))
	require.NoError(t, low.Attach(ctx, nil))

	out := doc.String()
	assert.Contains(t, out, `<style data-precedence="h" data-href="ha hb" data-container="`+high.ID()+`">.ha{color:red}/*|*/.hb{margin:0px}</style>`)
	assert.Less(t, strings.Index(out, `data-precedence="l"`), strings.Index(out, `data-precedence="h"`))
	assert.Less(t, strings.Index(out, "</style>"), strings.Index(out, "</head>"))

	discovered, err := doc.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, discovered, 2)
	assert.Equal(t, low.ID(), discovered[0].Handle.ID())
	assert.Equal(t, []string{"ha", "hb"}, discovered[1].IDs)

	require.NoError(t, low.Detach(ctx))
	assert.NotContains(t, doc.String(), `data-precedence="l"`)
}

func TestDocumentAttachAfter(t *testing.T) {
	ctx := context.Background()
	doc := NewDocument()

	a, _ := doc.CreateContainer(ctx, css.TierLow)
	b, _ := doc.CreateContainer(ctx, css.TierHigh)
	c, _ := doc.CreateContainer(ctx, css.TierHigh)
	require.NoError(t, a.Attach(ctx, nil))
	require.NoError(t, b.Attach(ctx, a))
	require.NoError(t, c.Attach(ctx, a))

	discovered, err := doc.Discover(ctx)
	require.NoError(t, err)
	var ids []string
	for _, d := range discovered {
		ids = append(ids, d.Handle.ID())
	}
	assert.Equal(t, []string{a.ID(), c.ID(), b.ID()}, ids)

	foreign, _ := NewDocument().CreateContainer(ctx, css.TierHigh)
	d, _ := doc.CreateContainer(ctx, css.TierHigh)
	assert.Error(t, d.Attach(ctx, foreign))
}

func TestDocumentRejectsClosingTag(t *testing.T) {
	ctx := context.Background()
	c, _ := NewDocument().CreateContainer(ctx, css.TierHigh)
	assert.Error(t, c.SetText(ctx, []string{"ha"}, `.ha{content:"</STYLE>"}`))
}

func TestDocumentDiscoverAssignsIdentity(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<html><head>
<meta charset="utf-8">
<style>body{margin:0}</style>
<style data-precedence="m" data-href="ma">.ma{border-top:0}</style>
</head><body></body></html>`))
	require.NoError(t, err)

	discovered, err := doc.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, discovered, 1)
	assert.Equal(t, css.TierMedium, discovered[0].Tier)
	assert.Equal(t, []string{"ma"}, discovered[0].IDs)
	assert.Equal(t, ".ma{border-top:0}", discovered[0].Text)
	assert.NotEmpty(t, discovered[0].Handle.ID())
	assert.Contains(t, doc.String(), `data-container="`+discovered[0].Handle.ID()+`"`)
}

func TestDocumentDiscoverSkipsForeignPrecedence(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(`<head>
<style data-precedence="default">body{margin:0}</style>
<style data-precedence="h" data-href="ha">.ha{color:red}</style>
</head>`))
	require.NoError(t, err)

	discovered, err := doc.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, discovered, 1)
	assert.Equal(t, css.TierHigh, discovered[0].Tier)
	assert.Equal(t, []string{"ha"}, discovered[0].IDs)
	assert.Contains(t, doc.String(), `<style data-precedence="default">body{margin:0}</style>`)
}

func TestStylesRendersEveryTier(t *testing.T) {
	c := compiler.New(stylecache.New())
	button := c.Compile(styletree.Of("color", "red", "padding", 4))
	link := c.Compile(styletree.Of("color", "red"))

	var buf bytes.Buffer
	require.NoError(t, Styles(button, link).Render(context.Background(), &buf))

	doc, err := ParseDocument(strings.NewReader("<html><head>" + buf.String() + "</head><body></body></html>"))
	require.NoError(t, err)
	discovered, err := doc.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, discovered, 3)

	assert.Equal(t, []css.Tier{css.TierLow, css.TierMedium, css.TierHigh},
		[]css.Tier{discovered[0].Tier, discovered[1].Tier, discovered[2].Tier})

	assert.Len(t, discovered[0].IDs, 1)
	assert.Equal(t, Placeholder, discovered[1].Text)
	assert.Empty(t, discovered[1].IDs)
	assert.Nil(t, SplitSegments(discovered[1].Text))

	// the shared color rule is rendered once
	assert.Equal(t, link.Classes(), discovered[2].IDs)
	assert.Len(t, SplitSegments(discovered[2].Text), 1)
}
