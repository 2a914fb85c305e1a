package main

// pageHTML is the whole todo page. Rows and the empty state are rebuilt from
// the store on every request.
const pageHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Todo</title>
    <link rel="stylesheet" href="/static/todo.css" />
  </head>
  <body>
    <main class="container" id="todo-container">
      <form class="new-todo" method="post" action="/todos">
        <input type="text" name="text" placeholder="What needs doing?" autofocus autocomplete="off" />
      </form>

      <div class="list-group">
        {{- range .Items}}
        <div class="list-group-item{{if .IsDone}} complete{{end}}" data-id="{{.ID}}">
          <form class="toggle" method="post" action="/todos/{{.ID}}/toggle">
            <label>
              <input type="checkbox" name="done" value="on"{{if .IsDone}} checked{{end}} onchange="this.form.submit()" />
              <span class="text">{{.Text}}</span>
            </label>
            <noscript><button type="submit">Save</button></noscript>
          </form>
          <form class="delete" method="post" action="/todos/{{.ID}}/delete">
            <button type="submit" class="btn btn-danger delete" title="Delete">&#x2715;</button>
          </form>
        </div>
        {{- else}}
        <div class="empty-state">
          <h1>All finished up!</h1>
          <p>Enter something you want to do in the text box above and hit enter to add new items.</p>
        </div>
        {{- end}}
      </div>

      <div class="actions">
        <div class="sort-actions" role="group" aria-label="Sort">
          {{- range .Buttons}}
          <form method="post" action="/sort">
            <input type="hidden" name="field" value="{{.Mode.Field}}" />
            <input type="hidden" name="order" value="{{.Mode.Order}}" />
            <button type="submit" class="btn{{if .Active}} btn-active{{end}}" title="{{.Title}}">{{.Label}}</button>
          </form>
          {{- end}}
        </div>
        <form method="post" action="/clear-completed">
          <button type="submit" class="btn clear-complete">Clear Completed</button>
        </form>
      </div>
    </main>
  </body>
</html>
`

const todoCSS = `
*{box-sizing:border-box}
body{margin:0; font-family:ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial; background:#f4f6fb; color:#111827}
.container{max-width:720px; margin:0 auto; padding:32px 20px 60px}
.new-todo input{width:100%; font-size:1.5rem; padding:14px 16px; border:1px solid #d1d5db; border-radius:8px}
.list-group{margin-top:8px; background:#fff; border:1px solid #e5e7eb; border-radius:8px; overflow:hidden}
.list-group-item{display:flex; justify-content:space-between; align-items:center; padding:10px 16px; border-bottom:1px solid #e5e7eb}
.list-group-item:last-child{border-bottom:none}
.list-group-item.complete{background:#f9fafb; color:#9ca3af}
.list-group-item.complete .text{text-decoration:line-through}
.list-group-item form{margin:0}
.empty-state{padding:40px 16px; text-align:center}
.empty-state h1{margin:0 0 8px; font-weight:300}
.actions{display:flex; flex-wrap:wrap; justify-content:space-between; gap:8px; margin-top:8px}
.sort-actions{display:flex; gap:4px}
.sort-actions form{margin:0}
.btn{padding:6px 12px; border:1px solid #9ca3af; border-radius:6px; background:#6b7280; color:#fff; cursor:pointer}
.btn-active{background:#17a2b8; border-color:#17a2b8}
.btn-danger{background:#fff; color:#dc3545; border-color:#dc3545}
`
