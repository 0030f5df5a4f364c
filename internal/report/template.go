package report

// ReportTemplate is the HTML template for a substance report.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }
  .cas-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1.1rem;
    margin-right: 8px;
  }

  .stat-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(140px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .stat-item { text-align: center; }
  .stat-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .stat-item .value { font-size: 1rem; font-weight: 600; }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .swatch { display: inline-block; width: 10px; height: 10px; border-radius: 2px; margin-right: 6px; }

  .chart-container { margin: 12px 0; overflow-x: auto; }
  .footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid var(--border); font-size: 0.8rem; color: var(--muted); }
</style>
</head>
<body>

<div class="header">
  <div class="header-left">
    <h1><span class="cas-badge">{{.CAS}}</span> {{.ChemicalName}}</h1>
    <p class="muted">{{.Title}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

<div class="stat-bar">
  <div class="stat-item"><div class="label">Trophic groups</div><div class="value">{{.TrophicGroups}}</div></div>
  <div class="stat-item"><div class="label">Species</div><div class="value">{{.Species}}</div></div>
  <div class="stat-item"><div class="label">Observations</div><div class="value">{{.Observations}}</div></div>
  <div class="stat-item"><div class="label">Lowest EC10eq</div><div class="value">{{.Min}}</div></div>
  <div class="stat-item"><div class="label">Highest EC10eq</div><div class="value">{{.Max}}</div></div>
  {{if .Years}}<div class="stat-item"><div class="label">Years</div><div class="value">{{.Years}}</div></div>{{end}}
</div>

{{if .ShowGroups}}
<div class="section">
  <h2>Trophic Groups</h2>
  <table>
    <thead><tr><th>Group</th><th>Species</th><th>Observations</th><th>Min</th><th>Geometric mean</th><th>Max</th></tr></thead>
    <tbody>
    {{range .Groups}}
    <tr>
      <td><span class="swatch" style="background: {{.Color}}"></span>{{.Name}}</td>
      <td class="num">{{.Species}}</td>
      <td class="num">{{.Observations}}</td>
      <td class="num">{{.Min}}</td>
      <td class="num">{{.GeoMean}}</td>
      <td class="num">{{.Max}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

{{if .ShowCharts}}
<div class="section">
  <h2>Charts</h2>
  {{if .CountChart}}<div class="chart-container">{{.CountChart}}</div>{{end}}
  {{if .RangeChart}}<div class="chart-container">{{.RangeChart}}</div>{{end}}
</div>
{{end}}

{{if .ShowSpecies}}
<div class="section">
  <h2>Species</h2>
  <table>
    <thead><tr><th>Group</th><th>Species</th><th>Observations</th><th>Min</th><th>Max</th></tr></thead>
    <tbody>
    {{range .SpeciesRows}}
    <tr>
      <td>{{.Group}}</td>
      <td><em>{{.Name}}</em></td>
      <td class="num">{{.Observations}}</td>
      <td class="num">{{.Min}}</td>
      <td class="num">{{.Max}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

<div class="footer">
  <p>EC10eq values as published by the OpenChemFacts data source. Generated on {{.GeneratedAt}}.</p>
</div>

</body>
</html>`
