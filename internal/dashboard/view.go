package dashboard

import (
	"html/template"
	"io"
)

// View bundles a snapshot with everything a client needs to display it.
type View struct {
	Snapshot Snapshot `json:"snapshot"`
	Summary  Summary  `json:"summary"`
	Chart    Chart    `json:"chart"`
	ChartSVG string   `json:"chartSvg"`
}

// NewView lays out the chart for s and formats its figures.
func NewView(s Snapshot, opts ChartOptions) View {
	chart := Layout(s.Labels(), s.CarbonSeries(), s.EnergySeries(), opts)
	return View{
		Snapshot: s,
		Summary:  s.Summary(),
		Chart:    chart,
		ChartSVG: chart.SVG(),
	}
}

// PageData is the input of the HTML dashboard page.
type PageData struct {
	View View
	// SocketPath is the WebSocket endpoint pushing fresh views.
	SocketPath string
	// ExportPath is the CSV download endpoint.
	ExportPath string
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	// Chart markup is generated by WriteSVG, which escapes all text.
	"svg": func(s string) template.HTML { return template.HTML(s) },
}).Parse(pageHTML))

// WritePage renders the HTML dashboard.
func WritePage(w io.Writer, data PageData) error {
	return pageTemplate.Execute(w, data)
}

const pageHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>greentab</title>
<style>
body { font-family: sans-serif; margin: 1.5em; color: #222; max-width: 420px; }
h1 { font-size: 1.2em; color: #27ae60; }
dl { display: grid; grid-template-columns: max-content auto; gap: .3em 1em; }
dt { color: #555; }
dd { margin: 0; font-weight: bold; }
#tip { background: #eafaf1; padding: .6em; border-radius: 4px; }
</style>
</head>
<body data-socket="{{.SocketPath}}">
<h1>greentab</h1>
<dl>
<dt>Today</dt><dd><span id="today-carbon">{{.View.Summary.TodayCarbon}}</span> · <span id="today-energy">{{.View.Summary.TodayEnergy}}</span></dd>
<dt>1-year forecast</dt><dd><span id="forecast">{{.View.Summary.Forecast}}</span> <span id="trees">{{.View.Summary.Trees}}</span></dd>
<dt>Top used site</dt><dd id="top-used">{{.View.Summary.TopUsed}}</dd>
<dt>Most energy</dt><dd id="most-energy">{{.View.Summary.MostEnergy}}</dd>
<dt>Avg screen time</dt><dd id="avg-screen-time">{{.View.Summary.AvgScreenTime}}</dd>
</dl>
<div id="chart">{{svg .View.ChartSVG}}</div>
<p id="tip">{{.View.Summary.Tip}}</p>
<p><a href="{{.ExportPath}}" download="browsing_data.csv">Download CSV</a></p>
<script>
(function () {
  var ids = {
    "today-carbon": "todayCarbon", "today-energy": "todayEnergy",
    "forecast": "forecast", "trees": "trees", "top-used": "topUsed",
    "most-energy": "mostEnergy", "avg-screen-time": "avgScreenTime", "tip": "tip"
  };
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + document.body.dataset.socket);
  ws.onmessage = function (ev) {
    var view = JSON.parse(ev.data);
    Object.keys(ids).forEach(function (id) {
      document.getElementById(id).innerText = view.summary[ids[id]];
    });
    document.getElementById("chart").innerHTML = view.chartSvg;
  };
})();
</script>
</body>
</html>
`
