package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/go-chi/chi/v5"

	"github.com/c360/pageql/client"
	"github.com/c360/pageql/page"
	"github.com/c360/pageql/toast"
)

// Operations used by the demo pages.
var (
	feedQuery = client.MustOperation(
		`query Feed { feed { id title votes } }`)

	itemQuery = client.MustOperation(
		`query Item($id: ID!) { item(id: $id) { id title votes } }`)

	voteMutation = client.MustOperation(
		`mutation Vote($id: ID!) { vote(id: $id) { id votes } }`)
)

// item is the page-side shape of the upstream Item type.
type item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Votes int    `json:"votes"`
}

// templateData feeds the page templates.
type templateData struct {
	Title  string
	Items  []item
	Toasts []toast.Toast
	State  template.JS
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><title>{{.Title}}</title></head>
<body>
{{range .Toasts}}<div class="toast toast-{{.Kind}}">{{.Message}}</div>
{{end}}<ul>
{{range .Items}}<li data-id="{{.ID}}">{{.Title}} ({{.Votes}} votes)</li>
{{end}}</ul>
<script id="` + page.StateKey + `" type="application/json">{{.State}}</script>
</body>
</html>
`))

// stateJSON serializes the cache snapshot carried in props for embedding in
// the page markup.
func stateJSON(props page.Props) (template.JS, error) {
	snap := props.Snapshot()
	if snap == nil {
		return "{}", nil
	}
	encoded, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	return template.JS(encoded), nil
}

// propsToasts returns any toasts carried in props under the "toasts" key.
func propsToasts(props page.Props) []toast.Toast {
	toasts, _ := props["toasts"].([]toast.Toast)
	return toasts
}

// FeedPage renders the item feed. It declares its query statically so the
// prefetch pass resolves it before the render.
type FeedPage struct{}

// PageName implements page.Named.
func (FeedPage) PageName() string { return "Feed" }

// Queries implements page.QueryDeclarer.
func (FeedPage) Queries() []*client.Operation {
	return []*client.Operation{feedQuery}
}

// Render implements page.Page.
func (FeedPage) Render(ctx context.Context, w io.Writer, props page.Props) error {
	c, ok := page.ClientFromContext(ctx)
	if !ok {
		return fmt.Errorf("no client in render context")
	}

	resp, err := c.Query(ctx, feedQuery)
	if err != nil {
		return err
	}

	var data struct {
		Feed []item `json:"feed"`
	}
	if resp.HasData() {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return err
		}
	}

	if head, ok := page.HeadFromContext(ctx); ok {
		head.Add("<title>Feed</title>")
	}

	state, err := stateJSON(props)
	if err != nil {
		return err
	}

	return pageTemplate.Execute(w, templateData{
		Title:  "Feed",
		Items:  data.Feed,
		Toasts: propsToasts(props),
		State:  state,
	})
}

// ItemPage renders a single item, resolving its id from the route and
// issuing its query from the initial-data hook.
type ItemPage struct{}

// PageName implements page.Named.
func (ItemPage) PageName() string { return "Item" }

// InitialProps implements page.InitialPropser: it resolves the item id from
// the route and issues the query through the request's client so the result
// lands in the prefetch snapshot.
func (ItemPage) InitialProps(rctx *page.RequestContext) (page.Props, error) {
	id := chi.URLParam(rctx.Request, "id")
	if id == "" {
		rctx.Response.Finish()
		return page.Props{"redirect": "/"}, nil
	}

	c, ok := page.ClientFromContext(rctx.Context())
	if ok {
		// Failures here degrade to client-side fetching; the page still
		// renders with per-query error state.
		if _, err := c.Query(rctx.Context(), itemQuery.WithVariables(map[string]any{"id": id})); err != nil {
			rctx.Logger.Warn("item prefetch query failed", "id", id, "error", err)
		}
	}

	return page.Props{"id": id}, nil
}

// Render implements page.Page.
func (ItemPage) Render(ctx context.Context, w io.Writer, props page.Props) error {
	c, ok := page.ClientFromContext(ctx)
	if !ok {
		return fmt.Errorf("no client in render context")
	}

	id, _ := props["id"].(string)
	resp, err := c.Query(ctx, itemQuery.WithVariables(map[string]any{"id": id}))
	if err != nil {
		return err
	}

	var data struct {
		Item *item `json:"item"`
	}
	if resp.HasData() {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return err
		}
	}

	var items []item
	if data.Item != nil {
		items = []item{*data.Item}
	}

	state, err := stateJSON(props)
	if err != nil {
		return err
	}

	return pageTemplate.Execute(w, templateData{
		Title:  "Item " + id,
		Items:  items,
		Toasts: propsToasts(props),
		State:  state,
	})
}
