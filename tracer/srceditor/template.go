package srceditor

import (
	"bytes"
	"text/template"
)

const (
	DefaultImportName = "__gocovtrace"
	DefaultImportPath = "github.com/yuuki0xff/gocovtrace/tracer/logger"
)

type TemplateData struct {
	ImportName string
	ImportPath string
	D          interface{} // extra data
}

type Template struct {
	data TemplateData
	t    *template.Template
}

// 挿入するコードは全て1行に収めること。
// 改行を含めると、元のソースコードと行番号がずれてしまう。
func newTemplate(data TemplateData) *Template {
	t := initTemplate(data)
	t.add("importStmt", `; import {{.ImportName}} "{{.ImportPath}}"`)
	t.add("funcStartStopStmt", ` {{.ImportName}}.FuncStart(); defer {{.ImportName}}.FuncEnd();`)
	t.add("funcStartCloseStopStmt", ` defer {{.ImportName}}.Close(); {{.ImportName}}.FuncStart(); defer {{.ImportName}}.FuncEnd();`)
	t.add("lineStmt", `{{.ImportName}}.Line(); `)
	return t
}

func initTemplate(data TemplateData) *Template {
	var t Template

	t.data = data
	if t.data.ImportName == "" {
		t.data.ImportName = DefaultImportName
	}

	if t.data.ImportPath == "" {
		t.data.ImportPath = DefaultImportPath
	}

	t.t = &template.Template{}
	return &t
}

func (t *Template) add(name, tmplStr string) {
	t.t = template.Must(t.t.New(name).Parse(tmplStr))
}

func (t *Template) render(name string, data interface{}) []byte {
	var buf bytes.Buffer
	var d = t.data
	d.D = data
	if err := t.t.ExecuteTemplate(&buf, name, d); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
