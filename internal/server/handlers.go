package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/deptree/pkg/deps"
	deperrors "github.com/matzehuels/deptree/pkg/errors"
	treeio "github.com/matzehuels/deptree/pkg/io"
	"github.com/matzehuels/deptree/pkg/render/nodelink"
	"github.com/matzehuels/deptree/pkg/render/text"
)

// Response formats for ?format=.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	if q.Has("policy") {
		return deperrors.New(deperrors.ErrCodeInvalidInput,
			"policy cannot be chosen per request; this server resolves with %q", s.resolver.Options().Policy)
	}
	format := q.Get("format")
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatText, FormatDOT, FormatSVG:
	default:
		return deperrors.New(deperrors.ErrCodeInvalidFormat, "unknown format %q (want json, text, dot or svg)", format)
	}

	name, version, err := packageParams(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	tree, err := s.resolver.Resolve(ctx, name, version)
	if err != nil {
		return err
	}
	return writeTree(ctx, w, tree, format)
}

// packageParams reads the package name and version from the route. A
// scoped name arrives either as two segments (@scope/name) or as one
// escaped segment (@scope%2Fname).
func packageParams(r *http.Request) (name, version string, err error) {
	name, err = url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		return "", "", deperrors.Wrap(deperrors.ErrCodeInvalidPackage, err, "invalid package name")
	}
	if scope := chi.URLParam(r, "scope"); scope != "" {
		name = scope + "/" + name
	}
	if err := deperrors.ValidateNpmPackageName(name); err != nil {
		return "", "", err
	}

	version, err = url.PathUnescape(chi.URLParam(r, "version"))
	if err != nil || version == "" {
		return "", "", deperrors.New(deperrors.ErrCodeInvalidVersion, "invalid version %q", chi.URLParam(r, "version"))
	}
	return name, version, nil
}

func writeTree(ctx context.Context, w http.ResponseWriter, tree *deps.Result, format string) error {
	switch format {
	case FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		return text.Write(w, tree, text.Options{})
	case FormatDOT:
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, err := w.Write([]byte(nodelink.ToDOT(tree, nodelink.Options{})))
		return err
	case FormatSVG:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(tree, nodelink.Options{}))
		if err != nil {
			return deperrors.Wrap(deperrors.ErrCodeInternal, err, "render svg")
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, err = w.Write(svg)
		return err
	default:
		w.Header().Set("Content-Type", "application/json")
		return treeio.WriteJSON(tree, w)
	}
}
