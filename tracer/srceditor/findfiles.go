package srceditor

import (
	"os"
	"path/filepath"
	"strings"
)

const DefaultCaps = 1024

// FindFiles returns the Go source files to be instrumented.
// テストファイルと、隠しディレクトリ, vendor, testdata 以下のファイルは除外する。
func FindFiles(fileOrDir string) ([]string, error) {
	files := make([]string, 0, DefaultCaps)

	stat, err := os.Stat(fileOrDir)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return []string{fileOrDir}, nil
	}

	err = filepath.Walk(fileOrDir, func(fpath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if fpath != fileOrDir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if isSourceFile(name) {
			files = append(files, fpath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isSourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}
