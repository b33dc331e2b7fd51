package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docsentry/docsentry/internal/linkcheck"
	"github.com/docsentry/docsentry/internal/lint"
	"github.com/docsentry/docsentry/internal/version"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>docsentry - Documentation Report</title>
    <style>
        body {
            font-family: system-ui, -apple-system, sans-serif;
            margin: 0;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            max-width: 960px;
            margin: 0 auto;
            background: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        h1 {
            color: #333;
            border-bottom: 2px solid #007acc;
            padding-bottom: 10px;
        }
        .doc-card {
            border: 1px solid #ddd;
            border-radius: 6px;
            padding: 12px 15px;
            margin-top: 12px;
            background: #fafafa;
        }
        .doc-path { font-weight: bold; color: #007acc; }
        .doc-title { color: #333; margin-top: 4px; }
        .keyword {
            display: inline-block;
            background: #eef6fb;
            color: #007acc;
            border-radius: 3px;
            padding: 1px 6px;
            margin-right: 4px;
            font-size: 12px;
        }
        .problem { font-size: 13px; margin-top: 6px; }
        .problem.error { color: #dc3545; }
        .problem.warning { color: #b8860b; }
        .status {
            position: fixed;
            top: 20px;
            right: 20px;
            padding: 8px 16px;
            border-radius: 4px;
            color: white;
            font-weight: bold;
        }
        .status.connected { background: #28a745; }
        .status.disconnected { background: #dc3545; }
    </style>
</head>
<body>
    <div id="status" class="status disconnected">Disconnected</div>
    <div class="container">
        <h1>docsentry</h1>
        <div id="summary"></div>
        <div id="documents"></div>
    </div>
    <script>
        async function refresh() {
            const report = await (await fetch('/api/report')).json();
            const lint = report.lint;
            document.getElementById('summary').textContent =
                lint.total + ' documents, ' + lint.invalid + ' invalid, ' +
                lint.errors + ' errors, ' + lint.warnings + ' warnings';
            const container = document.getElementById('documents');
            container.innerHTML = '';
            for (const result of lint.results || []) {
                const card = document.createElement('div');
                card.className = 'doc-card';
                const path = document.createElement('div');
                path.className = 'doc-path';
                path.textContent = result.path;
                card.appendChild(path);
                for (const problem of result.problems || []) {
                    const p = document.createElement('div');
                    p.className = 'problem ' + problem.severity;
                    p.textContent = '[' + problem.rule + '] line ' +
                        problem.line + ': ' + problem.message;
                    card.appendChild(p);
                }
                container.appendChild(card);
            }
        }

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            const ws = new WebSocket(proto + '//' + location.host + '/ws');
            const status = document.getElementById('status');
            ws.onopen = () => {
                status.textContent = 'Connected';
                status.className = 'status connected';
            };
            ws.onclose = () => {
                status.textContent = 'Disconnected';
                status.className = 'status disconnected';
                setTimeout(connect, 2000);
            };
            ws.onmessage = () => refresh();
        }

        refresh();
        connect();
    </script>
</body>
</html>`

// ReportResponse is the payload for the /api/report endpoint.
type ReportResponse struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Documents   int               `json:"documents"`
	Keywords    map[string]int    `json:"keywords"`
	Lint        lint.Summary      `json:"lint"`
	Links       *linkcheck.Report `json:"links,omitempty"`
}

func (s *ReportServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *ReportServer) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs := s.registry.GetAll()
	if keyword := r.URL.Query().Get("keyword"); keyword != "" {
		docs = s.registry.ByKeyword(keyword)
	}

	writeJSON(w, docs)
}

func (s *ReportServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Document paths are registry keys: slash-separated paths relative to
	// the docs root, so "guide/setup.md" arrives as a sub-path here.
	docPath := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	docPath, err := url.PathUnescape(docPath)
	if err != nil || docPath == "" || strings.Contains(docPath, "..") {
		http.Error(w, "Invalid document path", http.StatusBadRequest)
		return
	}

	doc, ok := s.registry.Get(docPath)
	if !ok {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, doc)
}

func (s *ReportServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := ReportResponse{
		GeneratedAt: time.Now().UTC(),
		Documents:   s.registry.Count(),
		Keywords:    s.registry.Keywords(),
		Lint:        s.linter.LintCorpus(s.registry),
	}

	// External fetches are slow, so link results are only included when
	// asked for. Cached results keep repeat requests cheap.
	if s.config.Links.External && r.URL.Query().Get("links") == "true" {
		report := s.checker.CheckCorpus(r.Context(), s.registry)
		resp.Links = &report
	}

	writeJSON(w, resp)
}

// handleHealth returns the server health status for health checks
func (s *ReportServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"checks": map[string]interface{}{
			"server":   map[string]interface{}{"status": "healthy"},
			"registry": map[string]interface{}{"status": "healthy", "documents": s.registry.Count()},
		},
	}

	writeJSON(w, health)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
