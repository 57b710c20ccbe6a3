package srceditor

func newTestTemplate(data TemplateData) *Template {
	t := initTemplate(data)
	t.add("importStmt", `/* import {{.ImportName}} */`)
	t.add("funcStartStopStmt", ` /* startStop */`)
	t.add("funcStartCloseStopStmt", ` /* startCloseStop */`)
	t.add("lineStmt", `/* line */ `)
	return t
}
