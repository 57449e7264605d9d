package config

const (
	//? These paths must match the paths in the embed directive

	StaticLocalDir = "static"
	StaticUrlPath  = "/" + StaticLocalDir + "/"

	TemplatesLocalDir = "templates"

	TemplateLayout   = "layout.html"
	TemplateEditor   = "editor.html"
	TemplateNameAuth = "ed25519_auth.html"
	TemplatePartials = "partials.html"
)
