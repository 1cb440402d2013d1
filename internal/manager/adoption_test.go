package manager

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
	"github.com/conneroisu/stylesync/internal/target"
)

func insertAll(m *Manager, result compiler.Result) {
	for _, rule := range result.Rules() {
		m.Insert(rule.ID, rule.Tier, rule.Text)
	}
}

func TestServerRenderedDocumentIsAdopted(t *testing.T) {
	ctx := context.Background()
	c := compiler.New(stylecache.New())
	card := c.Compile(styletree.Of(
		"padding", 8,
		"color", "black",
		"@media print", styletree.Of("color", "gray"),
	))

	var head bytes.Buffer
	require.NoError(t, target.Styles(card).Render(ctx, &head))
	doc, err := target.ParseDocument(strings.NewReader("<html><head>" + head.String() + "</head><body></body></html>"))
	require.NoError(t, err)
	before := doc.String()

	m, err := New(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Stats().Containers)

	// the interactive pass re-inserts what the server already rendered
	insertAll(m, card)
	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, before, doc.String())

	// new rules land in the adopted containers instead of new ones
	extra := c.Compile(styletree.Of("borderTop", "1px solid"))
	insertAll(m, extra)
	require.NoError(t, m.Flush(ctx))

	discovered, err := doc.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, discovered, 3)
	assert.Equal(t, extra.Classes(), discovered[1].IDs)
	assert.Equal(t, 3, strings.Count(doc.String(), "<style"))

	for _, id := range card.Classes() {
		assert.Equal(t, 1, strings.Count(doc.String(), "."+id), id)
	}
}

func TestAdoptedDocumentReleasesRules(t *testing.T) {
	ctx := context.Background()
	c := compiler.New(stylecache.New())
	result := c.Compile(styletree.Of("color", "red"))

	var head bytes.Buffer
	require.NoError(t, target.Styles(result).Render(ctx, &head))
	doc, err := target.ParseDocument(strings.NewReader(head.String()))
	require.NoError(t, err)

	m, err := New(ctx, doc)
	require.NoError(t, err)
	insertAll(m, result)
	m.Remove(result.ClassNames)
	require.NoError(t, m.Flush(ctx))

	assert.NotContains(t, doc.String(), result.ClassNames)
	assert.Empty(t, m.Containers(css.TierHigh)[0].IDs)
}

func TestAdoptionLeavesForeignContainersAlone(t *testing.T) {
	ctx := context.Background()
	c := compiler.New(stylecache.New())
	result := c.Compile(styletree.Of("color", "red"))

	var head bytes.Buffer
	require.NoError(t, target.Styles(result).Render(ctx, &head))
	doc, err := target.ParseDocument(strings.NewReader(`<html><head>
<style data-precedence="default">body{margin:0}</style>` + head.String() + `</head><body></body></html>`))
	require.NoError(t, err)

	m, err := New(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Stats().Containers)

	insertAll(m, result)
	m.Remove(result.ClassNames)
	require.NoError(t, m.Flush(ctx))
	assert.Contains(t, doc.String(), `<style data-precedence="default">body{margin:0}</style>`)
}
