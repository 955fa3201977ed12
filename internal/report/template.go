package report

// pageTemplate is the full daily report page. It is kept dependency-free so
// the published file works from any static host.
const pageTemplate = `<!doctype html>
<html lang="fr">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.PlayerName}} — {{.UniverseName}} — {{.ReportDate}}</title>
  <style>
    body { font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Arial, sans-serif; margin: 28px; color: #111827; }
    header p { color: #6b7280; margin: 4px 0; }
    .cards { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; margin-top: 20px; }
    .card { border: 1px solid #e5e7eb; border-radius: 10px; padding: 14px; }
    .card h3 { margin: 0 0 8px; font-size: 1rem; }
    .card .points { font-size: 1.35rem; font-weight: 600; }
    .card .rank { color: #6b7280; }
    .deltas { margin: 8px 0 0; padding: 0; list-style: none; font-size: 0.85rem; color: #374151; }
    .spark { color: #2563eb; margin-top: 8px; }
    table { border-collapse: collapse; margin-top: 12px; }
    th, td { border: 1px solid #e5e7eb; padding: 6px 10px; text-align: right; }
    th:first-child, td:first-child { text-align: left; }
    .top { color: #047857; }
    .flop { color: #b91c1c; }
    ul.alerts { padding-left: 18px; }
    footer { margin-top: 28px; color: #9ca3af; font-size: 0.8rem; }
    /* ?theme=clean is the default palette; ?theme=neon flips to dark. */
    body.theme-neon { background: #0b1020; color: #d1f7ff; }
    body.theme-neon header p, body.theme-neon .card .rank, body.theme-neon .deltas { color: #7dd3fc; }
    body.theme-neon .card, body.theme-neon th, body.theme-neon td { border-color: #233055; }
    body.theme-neon .spark { color: #22d3ee; }
    body.theme-neon .top { color: #34d399; }
    body.theme-neon .flop { color: #f87171; }
    body.theme-neon footer { color: #475569; }
  </style>
</head>
<body>
  <header>
    <h1>{{.PlayerName}}</h1>
    <p>{{.UniverseName}} ({{.ServerID}}) — rapport du {{.ReportDate}}</p>
    <p>Période : {{.PeriodStart}} → {{.PeriodEnd}} — snapshot {{.SnapshotHHMM}} (<time datetime="{{.SnapshotISO}}">{{.SnapshotISO}}</time>)</p>
  </header>

  <section class="cards">
    {{range .Cards}}
    <article class="card">
      <h3>{{.Label}}</h3>
      {{if .Last}}
        <div class="points">{{fmtInt .Last.Points}}</div>
        <div class="rank">#{{.Last.Rank}}</div>
      {{else}}
        <div class="points">-</div>
      {{end}}
      <ul class="deltas">
        <li>Dernière maj : {{if .DeltaLast}}{{fmtSigned .DeltaLast.Points}} pts, {{fmtSignedInt .DeltaLast.Rank}} places{{else}}-{{end}}</li>
        <li>24h : {{if .Delta24h}}{{fmtSigned .Delta24h.Points}} pts, {{fmtSignedInt .Delta24h.Rank}} places{{else}}-{{end}}</li>
        <li>Jour : {{if .DeltaDaily}}{{fmtSigned .DeltaDaily.Points}} pts, {{fmtSignedInt .DeltaDaily.Rank}} places{{else}}-{{end}}</li>
      </ul>
      {{if .SparkSVG}}<div class="spark">{{.SparkSVG}}</div>{{end}}
    </article>
    {{end}}
  </section>

  {{if .Movers}}
  <section>
    <h2>Top / Flop</h2>
    <table>
      <tr><th>Catégorie</th><th>Places</th><th>Points</th><th></th></tr>
      {{range .Movers}}
      <tr>
        <td>{{.Label}}</td>
        <td class="{{if eq .Kind "TOP"}}top{{else if eq .Kind "FLOP"}}flop{{end}}">{{fmtSignedInt .RankDelta}}</td>
        <td>{{fmtSigned .PointsDelta}}</td>
        <td>{{.Kind}}</td>
      </tr>
      {{end}}
    </table>
  </section>
  {{end}}

  {{if .Alerts}}
  <section>
    <h2>Alertes (7 jours)</h2>
    <ul class="alerts">
      {{range .Alerts}}
      <li><code>{{.Category}}</code> le {{localTime .CreatedAt}}</li>
      {{end}}
    </ul>
  </section>
  {{end}}

  <footer>
    {{if .PublicBaseURL}}<p>Publié sur <a href="{{.PublicBaseURL}}">{{.PublicBaseURL}}</a></p>{{end}}
  </footer>

  <script>
    var theme = new URLSearchParams(window.location.search).get("theme");
    if (theme === "neon" || theme === "clean") {
      document.body.classList.add("theme-" + theme);
    }
  </script>
</body>
</html>
`
