package api

import "html/template"

const pageTemplates = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} · rollgen</title>
<style>
body { background: #111; color: #C0C0C0; font-family: monospace; margin: 3em; }
h1 { color: #39FF14; }
a { color: #FFFF00; }
.error { color: #FF0000; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{end}}

{{define "foot"}}<p><a href="/">Start over</a></p>
</body>
</html>
{{end}}

{{define "results.html"}}{{template "head" .}}
<p>Your melody <code>{{.SongID}}</code> is ready.</p>
<p><a href="{{.DownloadURL}}" download>Download MIDI</a></p>
{{with .Summary}}<ul>
<li>Notes: {{.Notes}}</li>
<li>Tempo: {{.BPM}} BPM</li>
<li>Length: {{.Length}}</li>
<li>Size: {{.Size}}</li>
</ul>{{end}}
{{template "foot" .}}{{end}}

{{define "index.html"}}{{template "head" .}}
<p>Compose a melody on the piano roll, then let the model continue it.</p>
<ul>
<li><code>GET /api/v1/pitches</code> grid rows, top to bottom</li>
<li><code>POST /api/v1/encode</code> grid to MIDI</li>
<li><code>POST /api/v1/generate</code> submit a melody for generation</li>
<li><a href="/swagger/index.html">API reference</a></li>
</ul>
</body>
</html>
{{end}}

{{define "error.html"}}{{template "head" .}}
<p class="error">{{.Message}}</p>
{{if .SongID}}<p>Generation id: <code>{{.SongID}}</code></p>{{end}}
{{template "foot" .}}{{end}}
`

// resultsSummary is what the results view shows about the generated file
type resultsSummary struct {
	Notes  int
	BPM    string
	Length string
	Size   string
}

func loadTemplates() *template.Template {
	return template.Must(template.New("pages").Parse(pageTemplates))
}
