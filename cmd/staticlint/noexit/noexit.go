// Package noexit содержит анализатор, который разрешает завершать процесс
// только из тела функции main пакета main.
//
// Вызовы os.Exit, log.Fatal* и Fatal-методов логгеров zap во вспомогательных
// функциях, замыканиях и горутинах пакета main обходят отложенные вызовы
// (закрытие хранилища, остановку серверов). Такие функции должны возвращать
// ошибку, а решение о завершении принимает main.
package noexit

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer анализатор noexit.
var Analyzer = &analysis.Analyzer{
	Name: "noexit",
	Doc:  "разрешает завершение процесса только в теле функции main пакета main",
	Run:  run,
}

// NewAnalyzer возвращает анализатор noexit.
func NewAnalyzer() *analysis.Analyzer {
	return Analyzer
}

// exitFuncs функции, завершающие процесс.
var exitFuncs = map[string]bool{
	"os.Exit":                                  true,
	"log.Fatal":                                true,
	"log.Fatalf":                               true,
	"log.Fatalln":                              true,
	"(*log.Logger).Fatal":                      true,
	"(*log.Logger).Fatalf":                     true,
	"(*log.Logger).Fatalln":                    true,
	"(*go.uber.org/zap.Logger).Fatal":          true,
	"(*go.uber.org/zap.SugaredLogger).Fatal":   true,
	"(*go.uber.org/zap.SugaredLogger).Fatalf":  true,
	"(*go.uber.org/zap.SugaredLogger).Fatalw":  true,
	"(*go.uber.org/zap.SugaredLogger).Fatalln": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		if strings.HasSuffix(pass.Fset.File(file.Pos()).Name(), "_test.go") {
			continue
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Body == nil {
				continue
			}
			isMain := fn.Name.Name == "main" && fn.Recv == nil
			check(pass, fn.Body, isMain)
		}
	}
	return nil, nil
}

// check обходит тело функции. allowed истинно только для тела main;
// замыкания внутри main проверяются как обычные функции.
func check(pass *analysis.Pass, body ast.Node, allowed bool) {
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			if allowed {
				check(pass, n.Body, false)
				return false
			}
		case *ast.CallExpr:
			name, ok := calleeName(pass, n)
			if ok && exitFuncs[name] && !allowed {
				pass.Reportf(n.Pos(), "вызов %s вне функции main запрещён: верните ошибку", name)
			}
		}
		return true
	})
}

func calleeName(pass *analysis.Pass, call *ast.CallExpr) (string, bool) {
	var id *ast.Ident
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		id = fun.Sel
	case *ast.Ident:
		id = fun
	default:
		return "", false
	}
	fn, ok := pass.TypesInfo.Uses[id].(*types.Func)
	if !ok {
		return "", false
	}
	return fn.FullName(), true
}
