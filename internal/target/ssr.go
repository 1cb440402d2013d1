package target

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/conneroisu/stylesync/internal/compiler"
	"github.com/conneroisu/stylesync/internal/css"
)

// Styles server-renders one container per tier holding the unique rules of
// result. Tiers without rules still get a container carrying Placeholder,
// so the client side adopts a stable set of containers.
func Styles(results ...compiler.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		snapshots := SnapshotsOf(results...)
		return Stylesheet(snapshots...).Render(ctx, w)
	})
}

// SnapshotsOf groups the unique rules of results into one snapshot per tier,
// in emission order. Snapshot ids are left empty.
func SnapshotsOf(results ...compiler.Result) []Snapshot {
	snapshots := make([]Snapshot, len(css.Tiers))
	texts := make([][]string, len(css.Tiers))
	seen := make(map[string]struct{})
	for i, tier := range css.Tiers {
		snapshots[i].Tier = tier
	}
	for _, result := range results {
		for _, rule := range result.Rules() {
			if _, ok := seen[rule.ID]; ok {
				continue
			}
			seen[rule.ID] = struct{}{}
			snapshots[rule.Tier].IDs = append(snapshots[rule.Tier].IDs, rule.ID)
			texts[rule.Tier] = append(texts[rule.Tier], rule.Text)
		}
	}
	for i := range snapshots {
		snapshots[i].Text = JoinSegments(texts[i])
	}
	return snapshots
}

// Stylesheet server-renders the given containers as <style> elements.
func Stylesheet(containers ...Snapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range containers {
			id := c.ID
			if id == "" {
				id = uuid.NewString()
			}
			text := c.Text
			if text == "" {
				text = Placeholder
			}

			var b strings.Builder
			b.WriteString(`<style `)
			b.WriteString(AttrPrecedence + `="` + templ.EscapeString(c.Tier.Prefix()) + `" `)
			b.WriteString(AttrHref + `="` + templ.EscapeString(strings.Join(c.IDs, " ")) + `" `)
			b.WriteString(AttrContainer + `="` + templ.EscapeString(id) + `">`)
			b.WriteString(strings.ReplaceAll(text, "</", `<\/`))
			b.WriteString(`</style>`)
			if _, err := io.WriteString(w, b.String()); err != nil {
				return err
			}
		}
		return nil
	})
}
