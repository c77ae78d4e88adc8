package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/tictactoe-timetravel/internal/app"
)

type templates struct {
	index *template.Template
	game  *template.Template
	frag  *template.Template
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-tac-toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.board-row{display:flex}
.square{width:3em;height:3em;font-size:1.5em;font-weight:bold}
.square.win{background-color:yellow}
.game{display:flex;gap:2em}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// The fragment lives in the same set so the game page can include it.
	template.Must(base.New("game_fragment").Parse(gameTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-tac-toe</h1>
<form action="/game" method="post"><button>New game</button></form>
{{if .}}<p><a href="/game/{{.}}">Continue game</a></p>{{end}}`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div sse-swap="game" hx-target="#game" hx-swap="outerHTML">{{template "game_fragment" .}}</div>
</div>`))
	frag := template.Must(template.New("game_only").Parse(gameTemplate))
	return &templates{index: index, game: game, frag: frag}
}

// renderTemplate executes t, or the template called name in t's set when
// name is non-empty. Pages pass "base" so the layout wraps their content.
func renderTemplate(t *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if name == "" {
		err = t.Execute(&buf, data)
	} else {
		err = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes(), err
}

const gameTemplate = `
<div id="game" class="game">
  <div class="game-board">
    <div class="status">{{.Status}}</div>
    {{range .Rows}}
    <div class="board-row">
      {{range .}}
      {{if .Playable}}
      <button class="square" hx-post="/game/{{$.ID}}/play" hx-vals='{"cell": "{{.Index}}"}' hx-target="#game" hx-swap="outerHTML" name="cell" value="{{.Index}}"></button>
      {{else}}
      <button class="square{{if .Win}} win{{end}}" disabled>{{.Mark}}</button>
      {{end}}
      {{end}}
    </div>
    {{end}}
  </div>
  <div class="game-info">
    <button hx-post="/game/{{.ID}}/order" hx-target="#game" hx-swap="outerHTML">{{.Order}}</button>
    {{if .Descending}}<ol reversed>{{else}}<ol>{{end}}
      {{range .Moves}}
      <li>{{if .Current}}{{.Description}}{{else}}<button hx-post="/game/{{$.ID}}/jump" hx-vals='{"move": "{{.Move}}"}' hx-target="#game" hx-swap="outerHTML">{{.Description}}</button>{{end}}</li>
      {{end}}
    </ol>
  </div>
</div>
`

const gameCookie = "game_id"

// rememberGame points the index page at the last game this browser viewed.
func rememberGame(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{Name: gameCookie, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

func lastGame(r *http.Request) string {
	if c, err := r.Cookie(gameCookie); err == nil {
		return c.Value
	}
	return ""
}

func (h *handlers) renderFragment(v app.View) []byte {
	b, err := renderTemplate(h.tpl.frag, "", v)
	if err != nil {
		h.log.Error().Err(err).Str("game", v.ID).Msg("render fragment")
	}
	return b
}
