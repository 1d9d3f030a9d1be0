package core

import (
	"io/fs"
	"mime"
	"net/http"
	"path"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Renderer writes a view by its id ("home", "user/show").
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, view string) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w http.ResponseWriter, r *http.Request, view string) error

func (f RendererFunc) Render(w http.ResponseWriter, r *http.Request, view string) error {
	return f(w, r, view)
}

// viewHandler serves a view that has no controller action behind it.
func viewHandler(rd Renderer, view string) httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		if rd == nil {
			next(httpx.Error(http.StatusNotImplemented, "no view renderer configured"))
			return
		}
		if err := rd.Render(w, r, view); err != nil {
			next(err)
		}
	}
}

// StaticRenderer writes view files verbatim from Dir in FS. The first file
// named <view>.<ext> wins.
type StaticRenderer struct {
	FS  fs.FS
	Dir string
}

func (s StaticRenderer) Render(w http.ResponseWriter, _ *http.Request, view string) error {
	matches, err := fs.Glob(s.FS, path.Join(s.Dir, view)+".*")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return httpx.Error(http.StatusNotFound, "view not found")
	}
	b, err := fs.ReadFile(s.FS, matches[0])
	if err != nil {
		return err
	}
	ct := mime.TypeByExtension(path.Ext(matches[0]))
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(b)
	return err
}
