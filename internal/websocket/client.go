package websocket

import "net/http"

// ClientScript applies container messages to the page's <head>. It keys
// containers by their data-container attribute.
const ClientScript = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var head = document.head;
  var pending = {};

  function find(id) {
    return pending[id] || head.querySelector('style[data-container="' + id + '"]');
  }

  function make(m) {
    var el = document.createElement("style");
    el.setAttribute("data-precedence", m.tier);
    el.setAttribute("data-container", m.container);
    el.setAttribute("data-href", "");
    return el;
  }

  function apply(m) {
    var el;
    switch (m.type) {
      case "snapshot":
        head.querySelectorAll("style[data-container]").forEach(function (s) { s.remove(); });
        (m.containers || []).forEach(function (c) {
          el = make(c);
          el.setAttribute("data-href", (c.ids || []).join(" "));
          el.textContent = c.text || "";
          head.appendChild(el);
        });
        break;
      case "create":
        pending[m.container] = make(m);
        break;
      case "text":
        el = find(m.container) || (pending[m.container] = make(m));
        el.setAttribute("data-href", (m.ids || []).join(" "));
        el.textContent = m.text || "";
        break;
      case "attach":
        el = find(m.container);
        if (!el || el.isConnected) break;
        delete pending[m.container];
        var after = m.after ? find(m.after) : null;
        if (after) {
          after.after(el);
        } else {
          var first = head.querySelector("style[data-precedence]");
          first ? head.insertBefore(el, first) : head.appendChild(el);
        }
        break;
      case "detach":
        el = find(m.container);
        if (el) {
          el.remove();
          pending[m.container] = el;
        }
        break;
    }
  }

  function connect() {
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (e) { apply(JSON.parse(e.data)); };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
`

// ServeClientScript serves ClientScript.
func ServeClientScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(ClientScript))
}
