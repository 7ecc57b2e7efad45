package server

import "html/template"

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.AppName}} - Login</title>
</head>
<body>
  <h1>Sign in</h1>
  <form method="post" action="/login">
    <input type="hidden" name="_csrf" value="{{.CSRFToken}}">
    <label for="email">Email</label>
    <input type="email" id="email" name="email" autocomplete="email" required>
    <button type="submit">Log in</button>
  </form>
</body>
</html>
`))

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.AppName}}</title>
  <meta name="csrf-token" content="{{.CSRFToken}}">
</head>
<body>
  <h1>{{.AppName}}</h1>
  <p>Signed in as {{.Email}}.</p>
  <nav>
    <a href="/logout">Log out</a>
  </nav>
  <section id="chart" data-sheet-id="{{.SheetID}}" data-object-id="{{.ObjectID}}">
    <noscript>Enable JavaScript to load the embedded analytics content.</noscript>
  </section>
  <script>
    const csrfToken = document.querySelector('meta[name="csrf-token"]').content;

    async function loadHypercube() {
      const res = await fetch('/hypercube');
      if (!res.ok) {
        document.getElementById('chart').textContent = 'Unable to load data.';
        return;
      }
      const cube = await res.json();
      const list = document.createElement('dl');
      cube.returnedDimension.forEach((dim, i) => {
        const dt = document.createElement('dt');
        dt.textContent = dim;
        const dd = document.createElement('dd');
        dd.textContent = cube.returnedMeasure[i];
        list.append(dt, dd);
      });
      document.getElementById('chart').append(list);
    }
    loadHypercube();
  </script>
</body>
</html>
`))

type loginPageData struct {
	AppName   string
	CSRFToken string
}

type homePageData struct {
	AppName   string
	Email     string
	CSRFToken string
	SheetID   string
	ObjectID  string
}
