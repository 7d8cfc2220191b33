package api

import (
	"net/http"
)

const boardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Flowboard</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: monospace;
            background: #1a1a2e;
            color: #eee;
            height: 100vh;
            display: flex;
            flex-direction: column;
        }
        header {
            background: #16213e;
            padding: 12px 20px;
            border-bottom: 1px solid #0f3460;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        header h1 { font-size: 16px; font-weight: normal; }
        #status {
            padding: 4px 10px;
            border-radius: 4px;
            font-size: 12px;
        }
        #status.connected { background: #1b4332; color: #95d5b2; }
        #status.disconnected { background: #7f1d1d; color: #fca5a5; }
        #status.connecting { background: #78350f; color: #fcd34d; }
        main { flex: 1; display: flex; overflow: hidden; }
        #board { flex: 2; overflow: auto; }
        #log {
            flex: 1;
            overflow-y: auto;
            padding: 10px;
            border-left: 1px solid #0f3460;
            font-size: 12px;
        }
        .event {
            padding: 6px 10px;
            margin-bottom: 4px;
            background: #16213e;
            border-radius: 4px;
            border-left: 3px solid #0f3460;
            display: flex;
            gap: 10px;
            align-items: baseline;
        }
        .event .ts { color: #888; }
        .event .agent { color: #95d5b2; }
        .node rect {
            fill: #16213e;
            stroke: #0f3460;
            stroke-width: 1.5;
            rx: 6;
        }
        .node.active rect { stroke: #fcd34d; fill: #3a2f0f; }
        .node text { fill: #eee; font-size: 12px; font-family: monospace; }
        .edge { stroke: #0f3460; stroke-width: 1.5; fill: none; }
        .edge.optional { stroke-dasharray: 5 4; }
    </style>
</head>
<body>
    <header>
        <h1>Flowboard</h1>
        <div id="status" class="connecting">Connecting</div>
    </header>
    <main>
        <svg id="board"></svg>
        <div id="log"></div>
    </main>
    <script>
        const svg = document.getElementById('board');
        const logDiv = document.getElementById('log');
        const statusEl = document.getElementById('status');
        const session = new URLSearchParams(location.search).get('session') || 'default';

        let ws = null;
        let reconnectTimer = null;
        const nodeEls = {};

        function formatTime(ts) {
            try {
                return new Date(ts).toLocaleTimeString('en-US', { hour12: false });
            } catch {
                return ts;
            }
        }

        function setStatus(status) {
            statusEl.className = status;
            statusEl.textContent = status.charAt(0).toUpperCase() + status.slice(1);
        }

        function drawBoard(graph, layout) {
            const ns = 'http://www.w3.org/2000/svg';
            let maxX = 0, maxY = 0;

            for (const e of layout.edges) {
                const line = document.createElementNS(ns, 'line');
                line.setAttribute('x1', e.x1);
                line.setAttribute('y1', e.y1);
                line.setAttribute('x2', e.x2);
                line.setAttribute('y2', e.y2);
                line.setAttribute('class', e.optional ? 'edge optional' : 'edge');
                svg.appendChild(line);
            }

            for (const n of graph.nodes) {
                const pos = layout.positions[n.id];
                if (!pos) continue;
                maxX = Math.max(maxX, pos.x);
                maxY = Math.max(maxY, pos.y);

                const g = document.createElementNS(ns, 'g');
                g.setAttribute('class', 'node');
                const rect = document.createElementNS(ns, 'rect');
                rect.setAttribute('x', pos.x - 80);
                rect.setAttribute('y', pos.y - 22);
                rect.setAttribute('width', 160);
                rect.setAttribute('height', 44);
                const label = document.createElementNS(ns, 'text');
                label.setAttribute('x', pos.x);
                label.setAttribute('y', pos.y + 4);
                label.setAttribute('text-anchor', 'middle');
                label.textContent = n.name;
                g.appendChild(rect);
                g.appendChild(label);
                svg.appendChild(g);
                nodeEls[n.id] = g;
            }

            svg.setAttribute('width', maxX + 160);
            svg.setAttribute('height', maxY + 80);
        }

        function refreshActivity() {
            fetch('/api/activity?session=' + encodeURIComponent(session))
                .then(function(res) { return res.json(); })
                .then(function(data) {
                    const active = new Set(data.active || []);
                    for (const id in nodeEls) {
                        nodeEls[id].setAttribute('class', active.has(id) ? 'node active' : 'node');
                    }
                })
                .catch(function() {});
        }

        function renderEvent(e) {
            const div = document.createElement('div');
            div.className = 'event';
            // textContent only: event text comes from untrusted publishers.
            const ts = document.createElement('span');
            ts.className = 'ts';
            ts.textContent = formatTime(e.ts);
            div.appendChild(ts);
            if (e.agentId) {
                const agent = document.createElement('span');
                agent.className = 'agent';
                agent.textContent = e.agentId;
                div.appendChild(agent);
            }
            if (e.text) {
                const msg = document.createElement('span');
                msg.className = 'msg';
                msg.textContent = e.text;
                div.appendChild(msg);
            }
            logDiv.appendChild(div);
            logDiv.scrollTop = logDiv.scrollHeight;

            while (logDiv.children.length > 500) {
                logDiv.removeChild(logDiv.firstChild);
            }
        }

        function connect() {
            if (ws && ws.readyState === WebSocket.OPEN) return;

            setStatus('connecting');

            const protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(protocol + '//' + location.host + '/api/bus/stream?session=' + encodeURIComponent(session));

            ws.onopen = function() {
                setStatus('connected');
                if (reconnectTimer) {
                    clearTimeout(reconnectTimer);
                    reconnectTimer = null;
                }
            };

            ws.onmessage = function(msg) {
                try {
                    renderEvent(JSON.parse(msg.data));
                } catch (err) {
                    console.error('Failed to parse event:', err);
                }
            };

            ws.onclose = function() {
                setStatus('disconnected');
                scheduleReconnect();
            };

            ws.onerror = function(err) {
                console.error('WebSocket error:', err);
                ws.close();
            };
        }

        function scheduleReconnect() {
            if (reconnectTimer) return;
            reconnectTimer = setTimeout(function() {
                reconnectTimer = null;
                connect();
            }, 3000);
        }

        Promise.all([
            fetch('/api/graph').then(function(r) { return r.json(); }),
            fetch('/api/graph/layout').then(function(r) { return r.json(); })
        ]).then(function(results) {
            drawBoard(results[0], results[1]);
            connect();
            setInterval(refreshActivity, 1000);
        }).catch(function(err) {
            logDiv.textContent = 'Failed to load graph: ' + err;
        });
    </script>
</body>
</html>`

// boardHandler serves the flow board HTML page.
func (s *Server) boardHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(boardHTML))
}
