package srceditor

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/ioutil"
	"os"
	"path"

	"github.com/pkg/errors"
)

// CodeEditor inserts the calls of the logger package into Go source files.
//
// 関数の先頭に FuncStart() と defer FuncEnd() を、各文の直前に Line() を挿入する。
// 挿入するコードは元の文と同じ行に置くため、行番号は変化しない。
type CodeEditor struct {
	ExportedOnly bool
	Overwrite    bool
	Prefix       string
	Files        []string
	// Overwrite が false のときの出力先。nil のときは os.Stdout を使用する。
	Output io.Writer

	tmpl *Template
}

func (ce *CodeEditor) EditAll() error {
	for _, f := range ce.Files {
		if err := ce.Edit(f); err != nil {
			return err
		}
	}
	return nil
}

func (ce *CodeEditor) Edit(fname string) error {
	edit := func(r io.Reader, w io.Writer) error {
		src, err := ioutil.ReadAll(r)
		if err != nil {
			return err
		}

		var newSrc []byte
		if newSrc, err = ce.edit(fname, src); err != nil {
			return err
		}

		_, err = w.Write(newSrc)
		return err
	}

	if ce.Overwrite {
		return AtomicReadWrite(fname, edit)
	}
	file, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer file.Close() // nolint: errcheck
	out := ce.Output
	if out == nil {
		out = os.Stdout
	}
	return edit(file, out)
}

func AtomicReadWrite(fname string, fn func(r io.Reader, w io.Writer) error) error {
	var ok bool
	r, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer r.Close() // nolint: errcheck

	finfo, err := os.Stat(fname)
	if err != nil {
		return err
	}

	w, err := ioutil.TempFile(path.Dir(fname), "."+path.Base(fname)+".tmp.")
	if err != nil {
		return err
	}
	tmpfname := w.Name()
	defer func() {
		if !ok {
			// clean up a temporary file.
			os.Remove(tmpfname) // nolint: errcheck
		}
	}()
	if err = w.Chmod(finfo.Mode()); err != nil {
		return err
	}

	if err = fn(r, w); err != nil {
		w.Close() // nolint: errcheck
		// the original file was kept, and tmp file will be remove.
		return err
	}

	// the original file was atomically replaced by a tmp file.
	if err = w.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpfname, fname); err != nil {
		return err
	}
	ok = true
	return nil
}

func (ce *CodeEditor) init() {
	if ce.tmpl == nil {
		var importName string
		if ce.Prefix != "" {
			importName = ce.Prefix + "_import"
		}

		ce.tmpl = newTemplate(TemplateData{
			ImportName: importName,
		})
	}
}

func (ce *CodeEditor) edit(fname string, src []byte) ([]byte, error) {
	ce.init()

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, fname, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	offset := func(pos token.Pos) int {
		return fset.Position(pos).Offset
	}

	nl := NodeList{
		OrigSrc: src,
	}
	addLines := func(stmts []ast.Stmt) {
		for _, stmt := range stmts {
			switch stmt.(type) {
			case *ast.EmptyStmt, *ast.CaseClause, *ast.CommClause:
				// clauses of switch/select are handled by their own case.
				continue
			}
			nl.Add(&InsertNode{
				Offset: offset(stmt.Pos()),
				Src:    ce.tmpl.render("lineStmt", nil),
			})
		}
	}

	// insert tracing code into functions
	pkgName := f.Name.Name
	var wantImport bool
	ast.Inspect(f, func(node_ ast.Node) bool {
		switch node := node_.(type) {
		case *ast.FuncDecl:
			if ce.ExportedOnly && !node.Name.IsExported() {
				// do not enter into function
				return false
			}
			if node.Body == nil {
				// node is non-Go function
				return true
			}
			wantImport = true
			tmplName := "funcStartStopStmt"
			if pkgName == "main" && node.Name.Name == "main" && node.Recv == nil {
				tmplName = "funcStartCloseStopStmt"
			}
			nl.Add(&InsertNode{
				Offset: offset(node.Body.Lbrace) + 1, // "{"の直後に挿入
				Src:    ce.tmpl.render(tmplName, nil),
			})
		case *ast.FuncLit:
			wantImport = true
			nl.Add(&InsertNode{
				Offset: offset(node.Body.Lbrace) + 1, // "{"の直後に挿入
				Src:    ce.tmpl.render("funcStartStopStmt", nil),
			})
		case *ast.BlockStmt:
			addLines(node.List)
		case *ast.CaseClause:
			addLines(node.Body)
		case *ast.CommClause:
			addLines(node.Body)
		}
		return true
	})

	// insert a import statement after package statement
	if wantImport {
		nl.Add(&InsertNode{
			Offset: offset(f.Name.End()),
			Src:    ce.tmpl.render("importStmt", nil),
		})
	}

	newSrc := nl.Format()
	if _, err := parser.ParseFile(token.NewFileSet(), fname, newSrc, parser.ParseComments); err != nil {
		return nil, errors.Wrapf(err, "generated code is broken: %s", fname)
	}
	return newSrc, nil
}
