package handler

import (
	"html/template"
	"io"
	"mwu-go/internal/metrics"
	"mwu-go/internal/models"
	"mwu-go/internal/utils"
	"sort"
)

var pageFuncs = template.FuncMap{
	"bytes":   utils.FormatBytes,
	"latency": utils.FormatLatency,
	"msInt": func(ms int64) string {
		return utils.FormatLatency(float64(ms))
	},
	"datetime": utils.FormatTime,
	"uptime":   utils.FormatUptime,
}

var statsTemplate = template.Must(template.New("stats").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MWU Traffic Statistics</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 1200px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; text-align: center; }
        .stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; }
        .stat-card { background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .stat-card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #667eea; padding-bottom: 10px; }
        .metric, .list-item { display: flex; justify-content: space-between; padding: 5px 0; border-bottom: 1px solid #eee; }
        .metric-value { font-weight: bold; color: #667eea; }
        .refresh-btn { background: #667eea; color: white; border: none; padding: 10px 20px; border-radius: 5px; cursor: pointer; font-size: 16px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="header">
        <h1>MWU Web Server Traffic Statistics</h1>
        <p>Server started: {{datetime .StartTime}} (uptime {{uptime .Uptime}})</p>
    </div>

    <button class="refresh-btn" onclick="location.reload()">Refresh Statistics</button>

    <div class="stats-grid">
        <div class="stat-card">
            <h3>Request Overview</h3>
            <div class="metric"><span>Total Requests:</span><span class="metric-value" id="total-requests">{{.TotalRequests}}</span></div>
            <div class="metric"><span>Unique IPs:</span><span class="metric-value">{{.UniqueIPs}}</span></div>
            <div class="metric"><span>Active Connections:</span><span class="metric-value">{{.ActiveConnections}}</span></div>
            <div class="metric"><span>Peak Connections:</span><span class="metric-value">{{.PeakConnections}}</span></div>
            {{- if .UnmatchedResponses}}
            <div class="metric"><span>Unmatched Responses:</span><span class="metric-value">{{.UnmatchedResponses}}</span></div>
            {{- end}}
        </div>

        <div class="stat-card">
            <h3>Performance Metrics</h3>
            <div class="metric"><span>Avg Response Time:</span><span class="metric-value">{{latency .AvgLatency}}</span></div>
            <div class="metric"><span>Min Response Time:</span><span class="metric-value">{{msInt .MinLatency}}</span></div>
            <div class="metric"><span>Max Response Time:</span><span class="metric-value">{{msInt .MaxLatency}}</span></div>
            <div class="metric"><span>Median Response Time:</span><span class="metric-value">{{latency .MedianLatency}}</span></div>
            <div class="metric"><span>95th Percentile:</span><span class="metric-value">{{latency .P95Latency}}</span></div>
            <div class="metric"><span>Lifetime p50 / p99:</span><span class="metric-value">{{msInt .LifetimeP50}} / {{msInt .LifetimeP99}}</span></div>
            <div class="metric"><span>Samples in Window:</span><span class="metric-value">{{.LatencySamples}}</span></div>
        </div>

        <div class="stat-card">
            <h3>Data Transfer</h3>
            <div class="metric"><span>Total Bytes Sent:</span><span class="metric-value">{{bytes .TotalBytesSent}}</span></div>
        </div>

        <div class="stat-card">
            <h3>Top Requested Paths</h3>
            {{- range .TopPaths}}
            <div class="list-item"><span>{{.Key}}</span><span>{{.Count}}</span></div>
            {{- else}}
            <p>No data available</p>
            {{- end}}
        </div>

        <div class="stat-card">
            <h3>Request Methods</h3>
            {{- range .Methods}}
            <div class="list-item"><span>{{.Key}}</span><span>{{.Count}}</span></div>
            {{- else}}
            <p>No data available</p>
            {{- end}}
        </div>

        <div class="stat-card">
            <h3>Response Status Codes</h3>
            {{- range .StatusCodes}}
            <div class="list-item"><span>{{.Code}}</span><span>{{.Count}}</span></div>
            {{- else}}
            <p>No data available</p>
            {{- end}}
        </div>

        <div class="stat-card">
            <h3>Top User Agents</h3>
            {{- range .TopUserAgents}}
            <div class="list-item"><span>{{.Key}}</span><span>{{.Count}}</span></div>
            {{- else}}
            <p>No data available</p>
            {{- end}}
        </div>
    </div>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Access Denied</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; background-color: #f5f5f5; }
        .error { background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); display: inline-block; }
        h1 { color: #dc3545; }
    </style>
</head>
<body>
    <div class="error">
        <h1>Access Denied</h1>
        <p>{{.}}</p>
    </div>
</body>
</html>
`))

type statusRow struct {
	Code  int
	Count int64
}

// statsView 模板数据，在快照之上补充排好序的列表
type statsView struct {
	models.TrafficStats
	Methods     []models.KeyCount
	StatusCodes []statusRow
}

func newStatsView(stats models.TrafficStats) statsView {
	view := statsView{TrafficStats: stats}

	for method, count := range stats.RequestsByMethod {
		view.Methods = append(view.Methods, models.KeyCount{Key: method, Count: count})
	}
	sort.Slice(view.Methods, func(i, j int) bool {
		return view.Methods[i].Key < view.Methods[j].Key
	})

	for _, code := range metrics.StatusCodes(stats) {
		view.StatusCodes = append(view.StatusCodes, statusRow{Code: code, Count: stats.RequestsByStatusCode[code]})
	}
	return view
}

// RenderStatsPage 将快照渲染为 HTML，不修改快照
func RenderStatsPage(w io.Writer, stats models.TrafficStats) error {
	return statsTemplate.Execute(w, newStatsView(stats))
}

// RenderErrorPage 渲染拒绝访问页面
func RenderErrorPage(w io.Writer, message string) error {
	return errorTemplate.Execute(w, message)
}
