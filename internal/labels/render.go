package labels

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

var allowedTags = map[string]bool{"div": true, "span": true, "p": true, "strong": true}

// Render returns a component writing n as escaped html.
func Render(n Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return writeNode(w, n)
	})
}

// HTML renders n to a string for transport to the browser.
func HTML(ctx context.Context, n Node) (string, error) {
	var buf bytes.Buffer
	if err := Render(n).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeNode(w io.Writer, n Node) error {
	tag := n.Tag
	if tag == "" {
		tag = "div"
	}
	if !allowedTags[tag] {
		return fmt.Errorf("label tag %q not allowed", tag)
	}

	var b strings.Builder
	b.WriteString("<" + tag)
	if n.Class != "" {
		b.WriteString(` class="` + templ.EscapeString(n.Class) + `"`)
	}
	if len(n.Style) > 0 {
		b.WriteString(` style="` + templ.EscapeString(styleString(n.Style)) + `"`)
	}
	for _, k := range sortedKeys(n.Attrs) {
		if !strings.HasPrefix(k, "data-") {
			return fmt.Errorf("label attribute %q not allowed", k)
		}
		b.WriteString(" " + k + `="` + templ.EscapeString(n.Attrs[k]) + `"`)
	}
	b.WriteString(">")
	b.WriteString(templ.EscapeString(n.Text))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	for _, c := range n.Children {
		if err := writeNode(w, c); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+tag+">")
	return err
}

func styleString(style map[string]string) string {
	var b strings.Builder
	for i, k := range sortedKeys(style) {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(k + ": " + style[k] + ";")
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
