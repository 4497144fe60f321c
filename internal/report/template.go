package report

// htmlTemplate is the embedded Chart.js dashboard, adapted from
// internal/report/report.go's htmlTemplate: same layout and chart set, with
// an added assertion-failures summary card.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Vanguard Load Test Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 50%, #0f3460 100%);
            min-height: 100vh;
            color: #e0e0e0;
            padding: 20px;
        }
        .container { max-width: 1400px; margin: 0 auto; }
        .header {
            text-align: center;
            margin-bottom: 40px;
            padding: 30px;
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
        }
        .header h1 {
            font-size: 3rem;
            background: linear-gradient(90deg, #00d9ff, #ff00ff);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
            margin-bottom: 10px;
        }
        .header p { color: #888; font-size: 1.1rem; }
        .summary-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .summary-card {
            background: rgba(255,255,255,0.08);
            border-radius: 15px;
            padding: 25px;
            text-align: center;
            border: 1px solid rgba(255,255,255,0.1);
        }
        .summary-card .value {
            font-size: 2.5rem;
            font-weight: bold;
            background: linear-gradient(90deg, #00d9ff, #00ff88);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
        }
        .summary-card .label {
            color: #888;
            margin-top: 10px;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 1px;
        }
        .charts-grid {
            display: grid;
            grid-template-columns: repeat(2, 1fr);
            gap: 30px;
            margin-bottom: 40px;
        }
        @media (max-width: 1200px) { .charts-grid { grid-template-columns: 1fr; } }
        .chart-container {
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
            padding: 25px;
            border: 1px solid rgba(255,255,255,0.1);
        }
        .chart-container h3 { margin-bottom: 20px; color: #00d9ff; font-size: 1.3rem; }
        .chart-wrapper { position: relative; height: 300px; }
        .status-table {
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
            padding: 25px;
            border: 1px solid rgba(255,255,255,0.1);
        }
        .status-table h3 { margin-bottom: 20px; color: #00d9ff; }
        table { width: 100%; border-collapse: collapse; }
        th, td { padding: 15px; text-align: left; border-bottom: 1px solid rgba(255,255,255,0.1); }
        th {
            color: #00d9ff;
            font-weight: 600;
            text-transform: uppercase;
            font-size: 0.85rem;
            letter-spacing: 1px;
        }
        tr:hover { background: rgba(255,255,255,0.05); }
        .success-badge {
            background: linear-gradient(90deg, #00ff88, #00d9ff);
            color: #1a1a2e;
            padding: 5px 15px;
            border-radius: 20px;
            font-weight: bold;
            font-size: 0.85rem;
        }
        .error-badge {
            background: linear-gradient(90deg, #ff4757, #ff6b81);
            color: white;
            padding: 5px 15px;
            border-radius: 20px;
            font-weight: bold;
            font-size: 0.85rem;
        }
        .footer { text-align: center; padding: 30px; color: #666; font-size: 0.9rem; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Vanguard Load Test Report</h1>
            <p>Generated at {{.GeneratedAt}}</p>
            <div style="margin-top: 20px; padding: 15px; background: rgba(0,0,0,0.2); border-radius: 10px; display: inline-block;">
                <div style="font-size: 1.2rem; margin-bottom: 5px;">
                    <span style="color: #00d9ff; font-weight: bold;">{{.Method}}</span>
                    <a href="{{.TargetURL}}" style="color: #fff; text-decoration: none; border-bottom: 1px dotted #00ff88;" target="_blank">{{.TargetURL}}</a>
                </div>
                <div style="color: #888; font-size: 0.9rem;">
                    Duration: <span style="color: #00ff88">{{.TestDuration}}</span> •
                    Concurrency: <span style="color: #00ff88">{{.Concurrency}}</span> workers
                </div>
            </div>
        </div>

        <div class="summary-grid">
            <div class="summary-card"><div class="value">{{.TotalRequests}}</div><div class="label">Total Requests</div></div>
            <div class="summary-card"><div class="value">{{printf "%.1f" .SuccessRate}}%</div><div class="label">Success Rate</div></div>
            <div class="summary-card"><div class="value">{{printf "%.0f" .RPS}}</div><div class="label">Requests/sec</div></div>
            <div class="summary-card"><div class="value">{{.Min}}</div><div class="label">Min Latency</div></div>
            <div class="summary-card"><div class="value">{{.P50}}</div><div class="label">P50 Latency</div></div>
            <div class="summary-card"><div class="value">{{.P99}}</div><div class="label">P99 Latency</div></div>
            <div class="summary-card"><div class="value">{{.Max}}</div><div class="label">Max Latency</div></div>
            <div class="summary-card"><div class="value">{{.SuccessCount}}</div><div class="label">Successful</div></div>
            {{if .AssertionFailures}}
            <div class="summary-card"><div class="value">{{.AssertionFailures}}</div><div class="label">Assertion Failures</div></div>
            {{end}}
        </div>

        <div class="charts-grid">
            <div class="chart-container">
                <h3>Requests Per Second</h3>
                <div class="chart-wrapper"><canvas id="rpsChart"></canvas></div>
            </div>
            <div class="chart-container">
                <h3>Latency Percentiles (ms)</h3>
                <div class="chart-wrapper"><canvas id="latencyChart"></canvas></div>
            </div>
            <div class="chart-container">
                <h3>Success vs Failure</h3>
                <div class="chart-wrapper"><canvas id="successChart"></canvas></div>
            </div>
            <div class="chart-container">
                <h3>Status Code Distribution</h3>
                <div class="chart-wrapper"><canvas id="statusChart"></canvas></div>
            </div>
        </div>

        <div class="status-table">
            <h3>Status Codes Breakdown</h3>
            <table>
                <thead><tr><th>Status Code</th><th>Count</th><th>Percentage</th><th>Status</th></tr></thead>
                <tbody>
                    {{range .StatusCodesTable}}
                    <tr>
                        <td>{{.Code}}</td>
                        <td>{{.Count}}</td>
                        <td>{{printf "%.2f" .Percentage}}%</td>
                        <td>{{if .IsSuccess}}<span class="success-badge">Success</span>{{else}}<span class="error-badge">Error</span>{{end}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        {{if .Errors}}
        <div class="status-table" style="margin-top: 30px; border-color: rgba(255, 71, 87, 0.3);">
            <h3 style="color: #ff4757;">Error Distribution</h3>
            <table>
                <thead><tr><th style="color: #ff4757;">Error Message</th><th style="color: #ff4757;">Count</th></tr></thead>
                <tbody>
                    {{range .Errors}}
                    <tr><td style="color: #ff6b81; font-family: monospace;">{{.Message}}</td><td>{{.Count}}</td></tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="footer"><p>Generated by Vanguard</p></div>
    </div>

    <script>
        Chart.defaults.color = '#888';
        Chart.defaults.borderColor = 'rgba(255,255,255,0.1)';

        const timeLabels = [{{.TimeLabels}}];
        const rpsData = [{{.RPSData}}];
        const p50Data = [{{.P50Data}}];
        const p90Data = [{{.P90Data}}];
        const p95Data = [{{.P95Data}}];
        const p99Data = [{{.P99Data}}];
        const successData = [{{.SuccessData}}];
        const failureData = [{{.FailureData}}];

        new Chart(document.getElementById('rpsChart'), {
            type: 'line',
            data: { labels: timeLabels, datasets: [{ label: 'RPS', data: rpsData, borderColor: '#00d9ff', backgroundColor: 'rgba(0,217,255,0.1)', fill: true, tension: 0.4, pointRadius: 3 }] },
            options: { responsive: true, maintainAspectRatio: false, plugins: { legend: { display: false } },
                scales: { y: { beginAtZero: true }, x: {} } }
        });

        new Chart(document.getElementById('latencyChart'), {
            type: 'line',
            data: { labels: timeLabels, datasets: [
                { label: 'P50', data: p50Data, borderColor: '#00ff88', tension: 0.4, pointRadius: 2 },
                { label: 'P90', data: p90Data, borderColor: '#ffbb00', tension: 0.4, pointRadius: 2 },
                { label: 'P95', data: p95Data, borderColor: '#ff6b6b', tension: 0.4, pointRadius: 2 },
                { label: 'P99', data: p99Data, borderColor: '#ff00ff', tension: 0.4, pointRadius: 2 }
            ] },
            options: { responsive: true, maintainAspectRatio: false, plugins: { legend: { position: 'top' } },
                scales: { y: { beginAtZero: true }, x: {} } }
        });

        new Chart(document.getElementById('successChart'), {
            type: 'bar',
            data: { labels: timeLabels, datasets: [
                { label: 'Success', data: successData, backgroundColor: '#00ff88' },
                { label: 'Failure', data: failureData, backgroundColor: '#ff4757' }
            ] },
            options: { responsive: true, maintainAspectRatio: false, plugins: { legend: { position: 'top' } },
                scales: { x: { stacked: true }, y: { stacked: true, beginAtZero: true } } }
        });

        new Chart(document.getElementById('statusChart'), {
            type: 'doughnut',
            data: { labels: [{{.StatusLabels}}], datasets: [{ data: [{{.StatusData}}], backgroundColor: ['#00ff88', '#00d9ff', '#ffbb00', '#ff6b6b', '#ff00ff', '#6c5ce7'] }] },
            options: { responsive: true, maintainAspectRatio: false, plugins: { legend: { position: 'right' } } }
        });
    </script>
</body>
</html>`
