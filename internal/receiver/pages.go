package receiver

import "html/template"

var infoPage = template.Must(template.New("info").Parse(`<html>
  <head><title>LLM Deploy API</title></head>
  <body style="font-family: sans-serif; text-align: center; margin-top: 50px;">
    <h1>LLM Deployment API</h1>
    <p>POST requests should be sent to:</p>
    <code>{{.Endpoint}}</code>
    <p>Example curl:</p>
    <pre>curl -X POST {{.Endpoint}} \
  -H "Content-Type: application/json" \
  -d '{"email":"you@example.com","secret":"my-sec-123","task":"DemoApp","brief":"Make a sample static web app"}'</pre>
    {{if .DeployURL}}<div>Latest Deployment: <a href="{{.DeployURL}}" target="_blank">{{.DeployURL}}</a></div>{{else}}<p>No deployment yet.</p>{{end}}
  </body>
</html>
`))

var pendingPage = template.Must(template.New("pending").Parse(`<html>
  <head><title>Deployment Status - {{.RunID}}</title><meta http-equiv="refresh" content="5"></head>
  <body style="font-family: sans-serif; text-align: center; margin-top: 60px;">
    <h2>Deployment for <b>{{.RunID}}</b> is in progress...</h2>
    <p>Refreshing every 5 seconds...</p>
  </body>
</html>
`))

var completePage = template.Must(template.New("complete").Parse(`<html>
  <head><title>Deployment Status - {{.RunID}}</title></head>
  <body style="font-family: sans-serif; text-align: center; margin-top: 60px;">
    <h1>Deployment Complete</h1>
    <p>App <b>{{.RunID}}</b> successfully deployed!</p>
    <p><a href="{{.DeployURL}}" target="_blank">{{.DeployURL}}</a></p>
  </body>
</html>
`))

type pageData struct {
	Endpoint  string
	RunID     string
	DeployURL string
}
