/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}

// Minimal built-in client. The real flow lives server-side; this page
// only collects picks and calls the session API.
const appHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>valgyt</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; max-width: 40rem; }
  h1 { margin-bottom: 0.5rem; }
  #status { margin-bottom: 1rem; font-size: 0.9rem; }
  #grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(11rem, 1fr)); gap: 0.5rem; }
  .r { border: 1px solid #ccc; border-radius: 0.5rem; padding: 0.5rem; cursor: pointer; }
  .r.picked { border-color: #2a7; background: #efe; }
  #controls { margin: 1rem 0; display: flex; gap: 0.5rem; flex-wrap: wrap; }
  #result { font-size: 1.2rem; margin-top: 1rem; }
</style>
</head>
<body>
<h1>valgyt 🍜</h1>
<div id="status">Loading…</div>
<div id="controls">
  <button id="create">New session</button>
  <input id="code" placeholder="Session code" maxlength="6">
  <button id="join">Join</button>
  <select id="person"><option value="1">person1</option><option value="2">person2</option></select>
  <button id="submit" disabled>Submit picks</button>
  <button id="random" disabled>Random</button>
  <button id="wheel" disabled>Spin wheel</button>
</div>
<div id="grid"></div>
<div id="result"></div>

<script>
(function() {
  const statusEl = document.getElementById('status');
  const gridEl = document.getElementById('grid');
  const resultEl = document.getElementById('result');
  const codeEl = document.getElementById('code');

  let code = location.pathname.match(/\/s\/([A-Z2-9]{6})/)?.[1] || '';
  let picks = [];
  let restaurants = [];

  function api(body) {
    return fetch('/api/session', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(body)
    }).then(r => r.json());
  }

  function render() {
    gridEl.innerHTML = '';
    restaurants.forEach(r => {
      const div = document.createElement('div');
      div.className = 'r' + (picks.includes(r.id) ? ' picked' : '');
      div.textContent = (r.image || '') + ' ' + r.name + ' · ' + r.cuisine + ' · ' + r.rating;
      div.onclick = () => {
        const i = picks.indexOf(r.id);
        if (i >= 0) { picks.splice(i, 1); }
        else if (picks.length < 3) { picks.push(r.id); }
        render();
      };
      gridEl.appendChild(div);
    });
    document.getElementById('submit').disabled = picks.length !== 3 || !code;
    document.getElementById('random').disabled = !code;
    document.getElementById('wheel').disabled = !code;
    statusEl.textContent = code ? 'Session ' + code + ' — pick 3 (' + picks.length + '/3)' : 'Create or join a session.';
  }

  function showSession(s) {
    if (!s) { return; }
    if (s.result && s.result.winner) {
      const r = restaurants.find(x => x.id === s.result.winner);
      resultEl.textContent = '🎉 Winner: ' + (r ? r.name : s.result.winner) + ' (' + s.result.method + ')';
    } else if (s.result) {
      resultEl.textContent = s.result.matches.length
        ? 'Matches: ' + s.result.matches.join(', ') + ' — spin or roll to decide!'
        : 'No matches — spin or roll over everything you both picked.';
    } else {
      resultEl.textContent = 'Waiting for the other person…';
    }
  }

  function watch() {
    if (!code) { return; }
    const proto = (location.protocol === 'https:') ? 'wss://' : 'ws://';
    const ws = new WebSocket(proto + location.host + '/s/' + code + '/ws');
    ws.onmessage = ev => {
      try {
        const msg = JSON.parse(ev.data);
        if (msg.type === 'session') { showSession(msg.session); }
      } catch (e) {}
    };
  }

  fetch('/api/restaurants').then(r => r.json()).then(d => {
    restaurants = d.restaurants;
    render();
    if (code) { watch(); }
  });

  document.getElementById('create').onclick = () =>
    api({action: 'create'}).then(d => {
      if (d.success) { location.href = '/s/' + d.code; }
    });

  document.getElementById('join').onclick = () => {
    const c = codeEl.value.trim().toUpperCase();
    api({action: 'join', code: c}).then(d => {
      if (d.success) { location.href = '/s/' + c; }
      else { statusEl.textContent = d.error; }
    });
  };

  document.getElementById('submit').onclick = () =>
    api({action: 'submit', code: code, person: parseInt(document.getElementById('person').value, 10), restaurants: picks})
      .then(d => { d.success ? showSession(d.session) : statusEl.textContent = d.error; });

  document.getElementById('random').onclick = () =>
    api({action: 'random', code: code})
      .then(d => { d.success ? showSession(d.session) : statusEl.textContent = d.error; });

  document.getElementById('wheel').onclick = () =>
    api({action: 'wheel', code: code, angle: Math.random() * 360})
      .then(d => { d.success ? showSession(d.session) : statusEl.textContent = d.error; });
})();
</script>
</body>
</html>
`

func serveHomePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(appHTML))
	}
}

func serveSessionPage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(appHTML))
	}
}
